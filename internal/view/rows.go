package view

import (
	"slices"
	"strings"
	"time"

	"traceview/internal/trace"
)

// Row is one rendered line of the step list.
type Row struct {
	ID           string
	Label        string
	Tool         string
	Start        time.Time
	StartText    string
	Duration     time.Duration
	DurationText string
	Status       string
	Selected     bool
}

// Order returns the steps sorted by start time. Ties keep payload order.
// The input slice is not modified.
func Order(steps []trace.Step) []trace.Step {
	ordered := slices.Clone(steps)
	slices.SortStableFunc(ordered, func(a, b trace.Step) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return ordered
}

// Filter returns the steps that match the state's filters, preserving order.
func Filter(steps []trace.Step, state State) []trace.Step {
	out := make([]trace.Step, 0, len(steps))
	for _, step := range steps {
		if Matches(step, state) {
			out = append(out, step)
		}
	}
	return out
}

// Matches reports whether a step passes both the errors-only and text filters.
func Matches(step trace.Step, state State) bool {
	if state.ErrorsOnly && !step.Failed() {
		return false
	}
	if state.Query == "" {
		return true
	}
	needle := strings.ToLower(state.Query)
	if containsFold(step.Tool.Name, needle) ||
		containsFold(step.Input, needle) ||
		containsFold(step.Output, needle) {
		return true
	}
	return step.Error != nil && containsFold(step.Error.Message, needle)
}

// Rows orders, filters and formats steps for display.
func Rows(steps []trace.Step, state State) []Row {
	visible := Filter(Order(steps), state)
	rows := make([]Row, 0, len(visible))
	for _, step := range visible {
		rows = append(rows, Row{
			ID:           step.ID,
			Label:        step.Label,
			Tool:         step.Tool.Name,
			Start:        step.StartTime,
			StartText:    FormatClock(step.StartTime),
			Duration:     step.Duration(),
			DurationText: FormatDuration(step.Duration()),
			Status:       step.Status(),
			Selected:     state.SelectedStepID != "" && step.ID == state.SelectedStepID,
		})
	}
	return rows
}

// ErrorCount counts failed steps in the full, unfiltered set.
func ErrorCount(steps []trace.Step) int {
	count := 0
	for _, step := range steps {
		if step.Failed() {
			count++
		}
	}
	return count
}

// Find looks up a step by id.
func Find(steps []trace.Step, id string) (trace.Step, bool) {
	if id == "" {
		return trace.Step{}, false
	}
	for _, step := range steps {
		if step.ID == id {
			return step, true
		}
	}
	return trace.Step{}, false
}

// containsFold expects needle to be lower-cased already.
func containsFold(haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}
