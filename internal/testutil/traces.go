package testutil

import (
	"encoding/json"
	"time"
)

// TraceBase is the start time fixture steps are offset from.
var TraceBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// StepFixture describes one step of a fixture payload.
type StepFixture struct {
	ID        string
	Label     string
	Tool      any
	Offset    time.Duration
	Duration  time.Duration
	Input     string
	Output    string
	ErrorMsg  string
	ErrorType string
}

// TraceJSON renders fixture steps as a trace payload in the given order.
func TraceJSON(steps ...StepFixture) string {
	entries := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		label := step.Label
		if label == "" {
			label = "step " + step.ID
		}
		tool := step.Tool
		if tool == nil {
			tool = "bash"
		}
		start := TraceBase.Add(step.Offset)
		entry := map[string]any{
			"id":         step.ID,
			"step":       label,
			"tool":       tool,
			"start_time": start.Format(time.RFC3339Nano),
			"end_time":   start.Add(step.Duration).Format(time.RFC3339Nano),
		}
		if step.Input != "" {
			entry["input"] = step.Input
		}
		if step.Output != "" {
			entry["output"] = step.Output
		}
		if step.ErrorMsg != "" {
			stepErr := map[string]any{"message": step.ErrorMsg}
			if step.ErrorType != "" {
				stepErr["type"] = step.ErrorType
			}
			entry["error"] = stepErr
		}
		entries = append(entries, entry)
	}
	data, _ := json.Marshal(map[string]any{"steps": entries})
	return string(data)
}
