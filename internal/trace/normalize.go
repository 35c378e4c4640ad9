package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// DefaultMaxPayloadBytes bounds how much of a trace body Decode will read.
const DefaultMaxPayloadBytes int64 = 32 << 20

// Decode reads a trace payload of at most limit bytes and normalizes it.
// A limit <= 0 uses DefaultMaxPayloadBytes.
func Decode(r io.Reader, limit int64) (Response, error) {
	if limit <= 0 {
		limit = DefaultMaxPayloadBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Response{}, fmt.Errorf("read trace payload: %w", err)
	}
	if int64(len(data)) > limit {
		return Response{}, &ValidationError{Issues: []Issue{{
			Path:    "$",
			Message: fmt.Sprintf("payload exceeds %d bytes", limit),
		}}}
	}
	return Normalize(data)
}

// Normalize validates a raw trace payload and coerces it into canonical types.
// Any malformed step fails the whole payload with a *ValidationError.
func Normalize(data []byte) (Response, error) {
	var found issues
	var root map[string]json.RawMessage
	if jsonKind(data) != "object" {
		found.add("$", "expected object, got %s", jsonKind(data))
		return Response{}, found.err()
	}
	if err := json.Unmarshal(data, &root); err != nil {
		found.add("$", "invalid JSON: %v", err)
		return Response{}, found.err()
	}

	stepsRaw, ok := root["steps"]
	if !ok {
		found.add("steps", "is required")
		return Response{}, found.err()
	}
	if jsonKind(stepsRaw) != "array" {
		found.add("steps", "expected array, got %s", jsonKind(stepsRaw))
		return Response{}, found.err()
	}
	var rawSteps []json.RawMessage
	if err := json.Unmarshal(stepsRaw, &rawSteps); err != nil {
		found.add("steps", "invalid JSON: %v", err)
		return Response{}, found.err()
	}

	steps := make([]Step, 0, len(rawSteps))
	seen := make(map[string]int, len(rawSteps))
	for i, raw := range rawSteps {
		path := fmt.Sprintf("steps[%d]", i)
		step, ok := normalizeStep(raw, path, &found)
		if !ok {
			continue
		}
		if first, dup := seen[step.ID]; dup {
			found.add(path+".id", "duplicate id %q (first at steps[%d])", step.ID, first)
		} else {
			seen[step.ID] = i
		}
		steps = append(steps, step)
	}
	if err := found.err(); err != nil {
		return Response{}, err
	}
	return Response{Steps: steps}, nil
}

// normalizeStep decodes one wire step, recording issues under path.
func normalizeStep(raw json.RawMessage, path string, found *issues) (Step, bool) {
	if jsonKind(raw) != "object" {
		found.add(path, "expected object, got %s", jsonKind(raw))
		return Step{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		found.add(path, "invalid JSON: %v", err)
		return Step{}, false
	}
	before := len(found.list)

	var step Step
	step.ID = requiredString(fields, "id", path, found)
	if step.ID == "" && len(found.list) == before {
		found.add(path+".id", "must not be empty")
	}
	step.Label = requiredString(fields, "step", path, found)
	step.StartTime = requiredTime(fields, "start_time", path, found)
	step.EndTime = requiredTime(fields, "end_time", path, found)
	step.Input = optionalString(fields, "input", path, found)
	step.Output = optionalString(fields, "output", path, found)

	if toolRaw, ok := fields["tool"]; !ok {
		found.add(path+".tool", "is required")
	} else if tool, err := decodeTool(toolRaw); err != nil {
		found.add(path+".tool", "%v", err)
	} else {
		step.Tool = tool.canonical()
	}

	if errRaw, ok := fields["error"]; ok && jsonKind(errRaw) != "null" {
		step.Error = decodeStepError(errRaw, path+".error", found)
	}

	if !step.StartTime.IsZero() && !step.EndTime.IsZero() && step.EndTime.Before(step.StartTime) {
		found.add(path+".end_time", "must not be before start_time")
	}
	return step, len(found.list) == before
}

// decodeStepError validates the nested error object.
func decodeStepError(raw json.RawMessage, path string, found *issues) *StepError {
	if jsonKind(raw) != "object" {
		found.add(path, "expected object, got %s", jsonKind(raw))
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		found.add(path, "invalid JSON: %v", err)
		return nil
	}
	return &StepError{
		Message: requiredString(fields, "message", path, found),
		Type:    optionalString(fields, "type", path, found),
	}
}

func requiredString(fields map[string]json.RawMessage, key, path string, found *issues) string {
	raw, ok := fields[key]
	if !ok {
		found.add(path+"."+key, "is required")
		return ""
	}
	return decodeString(raw, path+"."+key, found)
}

// optionalString treats a missing key or JSON null as absent.
func optionalString(fields map[string]json.RawMessage, key, path string, found *issues) string {
	raw, ok := fields[key]
	if !ok || jsonKind(raw) == "null" {
		return ""
	}
	return decodeString(raw, path+"."+key, found)
}

func decodeString(raw json.RawMessage, path string, found *issues) string {
	if jsonKind(raw) != "string" {
		found.add(path, "expected string, got %s", jsonKind(raw))
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		found.add(path, "invalid string: %v", err)
		return ""
	}
	return value
}

func requiredTime(fields map[string]json.RawMessage, key, path string, found *issues) time.Time {
	before := len(found.list)
	value := requiredString(fields, key, path, found)
	if len(found.list) != before {
		return time.Time{}
	}
	ts, err := parseTimestamp(value)
	if err != nil {
		found.add(path+"."+key, "%v", err)
		return time.Time{}
	}
	return ts
}
