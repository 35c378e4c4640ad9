package trace

import (
	"encoding/json"
	"time"
)

// Step status labels derived from the presence of an error.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Tool identifies the capability a step invoked.
//
// Producers send either a bare name or an object carrying at least a name. Raw keeps
// the object as it was sent so nothing beyond the name is lost.
type Tool struct {
	Name string
	Raw  json.RawMessage
}

// IsObject reports whether the producer sent the tool as an object.
func (t Tool) IsObject() bool {
	return len(t.Raw) > 0
}

// MarshalJSON writes the tool back in the shape it was received.
func (t Tool) MarshalJSON() ([]byte, error) {
	if t.IsObject() {
		return t.Raw, nil
	}
	return json.Marshal(t.Name)
}

// StepError describes why a traced tool invocation failed.
type StepError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// Step is one recorded tool invocation within a run.
type Step struct {
	ID        string     `json:"id"`
	Label     string     `json:"step"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Tool      Tool       `json:"tool"`
	Input     string     `json:"input,omitempty"`
	Output    string     `json:"output,omitempty"`
	Error     *StepError `json:"error,omitempty"`
}

// Duration returns the elapsed time between start and end.
func (s Step) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Failed reports whether the traced tool reported an error.
func (s Step) Failed() bool {
	return s.Error != nil
}

// Status returns StatusError for failed steps and StatusSuccess otherwise.
func (s Step) Status() string {
	if s.Failed() {
		return StatusError
	}
	return StatusSuccess
}

// Response is a normalized trace for one run. Steps keep payload order.
type Response struct {
	Steps []Step `json:"steps"`
}
