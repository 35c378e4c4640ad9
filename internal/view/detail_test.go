package view

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"traceview/internal/trace"
)

// TestFormatTimestampMilliseconds verifies the fixed calendar format keeps milliseconds.
func TestFormatTimestampMilliseconds(t *testing.T) {
	resp, err := trace.Normalize([]byte(`{"steps":[{"id":"a","step":"x","tool":"t",
		"start_time":"2024-01-01T00:00:00.500Z","end_time":"2024-01-01T00:00:01.734Z"}]}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := FormatTimestamp(resp.Steps[0].StartTime)
	if got != "2024-01-01 00:00:00.500 UTC" {
		t.Fatalf("unexpected timestamp: %s", got)
	}
	if FormatDuration(resp.Steps[0].Duration()) != "1234ms" {
		t.Fatalf("unexpected duration: %s", FormatDuration(resp.Steps[0].Duration()))
	}
}

// TestFormatTimestampConvertsToUTC verifies non-UTC inputs are rendered in UTC.
func TestFormatTimestampConvertsToUTC(t *testing.T) {
	zone := time.FixedZone("plus2", 2*60*60)
	ts := time.Date(2024, 3, 5, 14, 7, 9, 42*int(time.Millisecond), zone)
	if got := FormatTimestamp(ts); got != "2024-03-05 12:07:09.042 UTC" {
		t.Fatalf("unexpected timestamp: %s", got)
	}
}

// TestNewDetailFormatsEveryField verifies the detail record for a failed step.
func TestNewDetailFormatsEveryField(t *testing.T) {
	s := step("s1", 0, 1234*time.Millisecond)
	s.Input = "ls"
	s.Output = "a\nb"
	s.Error = &trace.StepError{Message: "denied", Type: "PermissionError"}

	want := Detail{
		ID:        "s1",
		Label:     "step s1",
		Tool:      "bash",
		Start:     "2024-01-01 00:00:00.000 UTC",
		End:       "2024-01-01 00:00:01.234 UTC",
		Duration:  "1234ms",
		Input:     "ls",
		Output:    "a\nb",
		Status:    trace.StatusError,
		Failed:    true,
		ErrorMsg:  "denied",
		ErrorType: "PermissionError",
	}
	if diff := cmp.Diff(want, NewDetail(s)); diff != "" {
		t.Fatalf("unexpected detail (-want +got):\n%s", diff)
	}
}

// TestBuildPageSelection verifies the detail follows the URL selection.
func TestBuildPageSelection(t *testing.T) {
	resp := trace.Response{Steps: []trace.Step{step("a", 0, 0), step("b", time.Second, 0)}}

	page := BuildPage("run_1", resp, ParseSearch("stepId=b&q=bash"))
	if page.Detail == nil || page.Detail.ID != "b" {
		t.Fatalf("expected detail for b, got %+v", page.Detail)
	}
	if closeHref := page.CloseHref(); closeHref != "/run/run_1?q=bash" {
		t.Fatalf("unexpected close href: %s", closeHref)
	}
	if href := page.SelectHref("a"); href != "/run/run_1?q=bash&stepId=a" {
		t.Fatalf("unexpected select href: %s", href)
	}
	if toggle := page.ToggleErrorsHref(); !strings.Contains(toggle, "errors=true") {
		t.Fatalf("unexpected toggle href: %s", toggle)
	}

	missing := BuildPage("run_1", resp, ParseSearch("stepId=gone"))
	if missing.Detail != nil {
		t.Fatalf("expected no detail for unknown step")
	}
	if missing.State.SelectedStepID != "gone" {
		t.Fatalf("expected state to keep the requested id")
	}
}
