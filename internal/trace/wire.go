package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// toolKind tags which wire shape a tool field arrived in.
type toolKind int

const (
	toolName toolKind = iota
	toolObject
)

// wireTool is the tool field before it collapses into Tool.
type wireTool struct {
	kind toolKind
	name string
	raw  json.RawMessage
}

// canonical collapses the wire union into a Tool.
func (w wireTool) canonical() Tool {
	if w.kind == toolObject {
		return Tool{Name: w.name, Raw: w.raw}
	}
	return Tool{Name: w.name}
}

// decodeTool accepts a bare string or an object with a string name.
func decodeTool(raw json.RawMessage) (wireTool, error) {
	switch jsonKind(raw) {
	case "string":
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return wireTool{}, err
		}
		return wireTool{kind: toolName, name: name}, nil
	case "object":
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return wireTool{}, err
		}
		nameRaw, ok := fields["name"]
		if !ok {
			return wireTool{}, fmt.Errorf("expected object with a name field")
		}
		if jsonKind(nameRaw) != "string" {
			return wireTool{}, fmt.Errorf("expected name to be string, got %s", jsonKind(nameRaw))
		}
		var name string
		if err := json.Unmarshal(nameRaw, &name); err != nil {
			return wireTool{}, err
		}
		compact := bytes.Buffer{}
		if err := json.Compact(&compact, raw); err != nil {
			return wireTool{}, err
		}
		return wireTool{kind: toolObject, name: name, raw: compact.Bytes()}, nil
	default:
		return wireTool{}, fmt.Errorf("expected string or object with name, got %s", jsonKind(raw))
	}
}

// timestampLayouts lists accepted ISO-8601 forms; zone-less values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// parseTimestamp parses an ISO-8601 instant and returns it in UTC.
func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("expected ISO-8601 timestamp, got %q", value)
}

// jsonKind names the JSON type of a raw value for error messages.
func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
