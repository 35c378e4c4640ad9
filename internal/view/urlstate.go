package view

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names that carry the view state.
const (
	ParamErrors = "errors"
	ParamQuery  = "q"
	ParamStep   = "stepId"
)

// GetString returns the value for key, or def when the key is absent.
// The bool reports whether the key was present.
func GetString(values url.Values, key, def string) (string, bool) {
	if _, ok := values[key]; !ok {
		return def, false
	}
	return values.Get(key), true
}

// GetBool reads "true" or "1" as true; any other present value is false.
func GetBool(values url.Values, key string, def bool) bool {
	value, ok := GetString(values, key, "")
	if !ok {
		return def
	}
	return value == "true" || value == "1"
}

// Update is a single parameter change applied by BuildSearch.
type Update struct {
	Key    string
	Value  string
	Delete bool
}

// Set writes a string parameter; an empty value removes the key.
func Set(key, value string) Update {
	return Update{Key: key, Value: value, Delete: value == ""}
}

// SetBool writes "true" for true and removes the key for false.
func SetBool(key string, value bool) Update {
	if !value {
		return Remove(key)
	}
	return Update{Key: key, Value: strconv.FormatBool(value)}
}

// Remove deletes a parameter.
func Remove(key string) Update {
	return Update{Key: key, Delete: true}
}

// BuildSearch applies updates to a copy of current and returns "?..." or "".
func BuildSearch(current url.Values, updates ...Update) string {
	next := cloneValues(current)
	for _, update := range updates {
		if update.Delete {
			next.Del(update.Key)
			continue
		}
		next.Set(update.Key, update.Value)
	}
	encoded := next.Encode()
	if encoded == "" {
		return ""
	}
	return "?" + encoded
}

// State is the view state carried in the URL.
type State struct {
	ErrorsOnly     bool
	Query          string
	SelectedStepID string
}

// HasSelection reports whether a step id is selected.
func (s State) HasSelection() bool {
	return s.SelectedStepID != ""
}

// ParseState reads the view state from query values.
func ParseState(values url.Values) State {
	query, _ := GetString(values, ParamQuery, "")
	step, _ := GetString(values, ParamStep, "")
	return State{
		ErrorsOnly:     GetBool(values, ParamErrors, false),
		Query:          query,
		SelectedStepID: step,
	}
}

// Encode returns the minimal search string for the state.
func (s State) Encode() string {
	return BuildSearch(nil,
		SetBool(ParamErrors, s.ErrorsOnly),
		Set(ParamQuery, s.Query),
		Set(ParamStep, s.SelectedStepID),
	)
}

// Search wraps the current query values. Every mutation returns a new search
// string so the URL stays the only place view state lives.
type Search struct {
	values url.Values
}

// NewSearch wraps query values; the values are copied.
func NewSearch(values url.Values) Search {
	return Search{values: cloneValues(values)}
}

// ParseSearch parses a raw query with or without the leading "?".
// Malformed pairs and empty view parameters are dropped.
func ParseSearch(raw string) Search {
	search, _ := CanonicalSearch(raw)
	return search
}

// CanonicalSearch parses raw like ParseSearch and reports whether anything
// was dropped, so callers can redirect to the minimal URL.
func CanonicalSearch(raw string) (Search, bool) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	changed := err != nil
	for _, key := range []string{ParamErrors, ParamQuery, ParamStep} {
		if _, ok := values[key]; ok && values.Get(key) == "" {
			values.Del(key)
			changed = true
		}
	}
	return Search{values: values}, changed
}

// State returns the view state encoded in the search.
func (s Search) State() State {
	return ParseState(s.values)
}

// Values returns a copy of the underlying query values.
func (s Search) Values() url.Values {
	return cloneValues(s.values)
}

// String returns the search string with its leading "?", or "" when empty.
func (s Search) String() string {
	return BuildSearch(s.values)
}

// WithErrorsOnly returns the search with the errors-only toggle set.
func (s Search) WithErrorsOnly(value bool) string {
	return BuildSearch(s.values, SetBool(ParamErrors, value))
}

// WithQuery returns the search with a new free-text query.
func (s Search) WithQuery(value string) string {
	return BuildSearch(s.values, Set(ParamQuery, value))
}

// WithSelection returns the search with stepID selected.
func (s Search) WithSelection(stepID string) string {
	return BuildSearch(s.values, Set(ParamStep, stepID))
}

// ClearSelection returns the search without a selected step. Filters persist.
func (s Search) ClearSelection() string {
	return BuildSearch(s.values, Remove(ParamStep))
}

// RunPath returns the viewer path for a run.
func RunPath(runID string) string {
	return "/run/" + url.PathEscape(runID)
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, list := range values {
		out[key] = append([]string(nil), list...)
	}
	return out
}
