package fixtureapi

import (
	"encoding/json"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// DemoRunID is the run the demo source answers for.
const DemoRunID = "run_123"

var demoStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type demoStep struct {
	label    string
	tool     any
	input    string
	output   string
	offset   time.Duration
	duration time.Duration
	errMsg   string
	errType  string
	layout   string
}

// Demo steps in chronological order. The payload shuffles them.
var demoSteps = []demoStep{
	{
		label:    "Read the task description",
		tool:     map[string]any{"name": "read_file", "path": "TASK.md"},
		input:    "TASK.md",
		output:   "Fix the failing test in parser_test.go",
		duration: 42 * time.Millisecond,
	},
	{
		label:    "List repository files",
		tool:     "bash",
		input:    "ls",
		output:   "README.md\nparser.go\nparser_test.go",
		offset:   300 * time.Millisecond,
		duration: 18 * time.Millisecond,
		layout:   "2006-01-02T15:04:05.000-07:00",
	},
	{
		label:    "Run the test suite",
		tool:     "bash",
		input:    "go test ./...",
		output:   "--- FAIL: TestParseEmpty (0.00s)\nFAIL",
		offset:   900 * time.Millisecond,
		duration: 1234 * time.Millisecond,
		errMsg:   "exit status 1",
		errType:  "CommandError",
	},
	{
		label:    "Open the parser source",
		tool:     map[string]any{"name": "read_file", "path": "parser.go"},
		input:    "parser.go",
		output:   "func Parse(input string) (Node, error) {",
		offset:   2500 * time.Millisecond,
		duration: 35 * time.Millisecond,
		layout:   "2006-01-02T15:04:05.000",
	},
	{
		label:    "Apply the fix",
		tool:     map[string]any{"name": "edit_file", "path": "parser.go", "lines": 3},
		input:    "if input == \"\" {\n\treturn Node{}, nil\n}",
		output:   "patched parser.go",
		offset:   3100 * time.Millisecond,
		duration: 61 * time.Millisecond,
	},
	{
		label:    "Re-run the tests",
		tool:     "bash",
		input:    "go test ./...",
		output:   "ok  \tparser\t0.012s",
		offset:   3400 * time.Millisecond,
		duration: 980 * time.Millisecond,
	},
	{
		label:    "Summarize the change",
		tool:     "respond",
		output:   "Parse now accepts empty input.",
		offset:   4500 * time.Millisecond,
		duration: 7 * time.Millisecond,
	},
}

// DemoSource answers DemoRunID with a generated trace.
type DemoSource struct{}

// Trace returns the demo payload for DemoRunID only.
func (DemoSource) Trace(runID string) ([]byte, bool, error) {
	if runID != DemoRunID {
		return nil, false, nil
	}
	payload, err := DemoTrace(runID)
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// DemoTrace builds a deterministic trace payload for runID. Step ids are
// name-based UUIDs and the steps are shuffled so that payload order carries no
// meaning.
func DemoTrace(runID string) ([]byte, error) {
	steps := make([]map[string]any, 0, len(demoSteps))
	for i, step := range demoSteps {
		layout := step.layout
		if layout == "" {
			layout = time.RFC3339Nano
		}
		start := demoStart.Add(step.offset)
		entry := map[string]any{
			"id":         DemoStepID(runID, i),
			"step":       step.label,
			"tool":       step.tool,
			"start_time": start.Format(layout),
			"end_time":   start.Add(step.duration).Format(layout),
		}
		if step.input != "" {
			entry["input"] = step.input
		}
		if step.output != "" {
			entry["output"] = step.output
		}
		if step.errMsg != "" {
			entry["error"] = map[string]any{"message": step.errMsg, "type": step.errType}
		}
		steps = append(steps, entry)
	}
	rng := rand.New(rand.NewPCG(seed(runID), uint64(len(steps))))
	rng.Shuffle(len(steps), func(i, j int) {
		steps[i], steps[j] = steps[j], steps[i]
	})
	return json.Marshal(map[string]any{"steps": steps})
}

// DemoStepID returns the id of the index-th chronological demo step.
func DemoStepID(runID string, index int) string {
	name := runID + "/" + demoSteps[index].label
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// DemoStepCount reports how many steps a demo trace has.
func DemoStepCount() int {
	return len(demoSteps)
}

func seed(runID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(runID))
	return h.Sum64()
}
