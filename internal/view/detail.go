package view

import "traceview/internal/trace"

// Detail is the fully formatted record shown in the detail panel.
type Detail struct {
	ID        string
	Label     string
	Tool      string
	Start     string
	End       string
	Duration  string
	Input     string
	Output    string
	Status    string
	Failed    bool
	ErrorMsg  string
	ErrorType string
}

// NewDetail formats every field of a step for display.
func NewDetail(step trace.Step) Detail {
	detail := Detail{
		ID:       step.ID,
		Label:    step.Label,
		Tool:     step.Tool.Name,
		Start:    FormatTimestamp(step.StartTime),
		End:      FormatTimestamp(step.EndTime),
		Duration: FormatDuration(step.Duration()),
		Input:    step.Input,
		Output:   step.Output,
		Status:   step.Status(),
	}
	if step.Error != nil {
		detail.Failed = true
		detail.ErrorMsg = step.Error.Message
		detail.ErrorType = step.Error.Type
	}
	return detail
}
