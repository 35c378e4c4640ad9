package tui

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"traceview/internal/loader"
	"traceview/internal/testutil"
	"traceview/internal/trace"
	"traceview/internal/view"
)

type stubSource struct {
	resp        trace.Response
	err         error
	loads       atomic.Int64
	invalidated atomic.Int64
}

func (s *stubSource) Load(context.Context, string) (trace.Response, error) {
	s.loads.Add(1)
	return s.resp, s.err
}

func (s *stubSource) Invalidate(string) {
	s.invalidated.Add(1)
}

func sampleTrace(t *testing.T) trace.Response {
	t.Helper()
	resp, err := trace.Normalize([]byte(testutil.TraceJSON(
		testutil.StepFixture{ID: "late", Label: "Summarize", Offset: 2 * time.Second, Tool: "respond"},
		testutil.StepFixture{ID: "first", Label: "Read task", Input: "TASK.md", Duration: 1234 * time.Millisecond},
		testutil.StepFixture{ID: "broken", Label: "Run tests", Offset: time.Second, ErrorMsg: "exit status 1", ErrorType: "CommandError"},
	)))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return resp
}

// loadedModel runs Init's load command and feeds the result back.
func loadedModel(t *testing.T, source *stubSource, search string) Model {
	t.Helper()
	m := NewModel(Options{Source: source, RunID: "run_1", Search: view.ParseSearch(search), NoColor: true})
	msg := m.Init()()
	return update(t, m, msg)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return model
}

func key(value string) tea.KeyMsg {
	switch value {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(value)}
	}
}

func rowIDs(m Model) []string {
	ids := make([]string, 0, len(m.Page().Rows))
	for _, row := range m.Page().Rows {
		ids = append(ids, row.ID)
	}
	return ids
}

// TestModelShowsLoadingUntilTraceArrives verifies the pending state.
func TestModelShowsLoadingUntilTraceArrives(t *testing.T) {
	m := NewModel(Options{Source: &stubSource{}, RunID: "run_1", NoColor: true})
	if !strings.Contains(m.View(), "Loading trace data...") {
		t.Fatalf("expected loading view, got %q", m.View())
	}
}

// TestModelOrdersRowsChronologically verifies the derived rows.
func TestModelOrdersRowsChronologically(t *testing.T) {
	m := loadedModel(t, &stubSource{resp: sampleTrace(t)}, "")
	if got := strings.Join(rowIDs(m), ","); got != "first,broken,late" {
		t.Fatalf("unexpected rows: %s", got)
	}
	out := m.View()
	if !strings.Contains(out, "Showing 3 of 3 steps | Errors: 1") {
		t.Fatalf("expected summary in view: %s", out)
	}
}

// TestModelEnterSelectsAndEscCloses verifies selection lives in the search string.
func TestModelEnterSelectsAndEscCloses(t *testing.T) {
	m := loadedModel(t, &stubSource{resp: sampleTrace(t)}, "tab=raw")
	m = update(t, m, key("down"))
	m = update(t, m, key("enter"))
	if got := m.Search().String(); got != "?stepId=broken&tab=raw" {
		t.Fatalf("unexpected search after select: %s", got)
	}
	if m.Page().Detail == nil || m.Page().Detail.ID != "broken" {
		t.Fatalf("expected detail for broken step")
	}
	if !strings.Contains(m.View(), "Error: exit status 1 (CommandError)") {
		t.Fatalf("expected error block in detail: %s", m.View())
	}

	m = update(t, m, key("esc"))
	if got := m.Search().String(); got != "?tab=raw" {
		t.Fatalf("unexpected search after close: %s", got)
	}
	if m.Page().Detail != nil {
		t.Fatalf("expected detail to close")
	}
}

// TestModelErrorsToggle verifies e flips the errors flag and keeps the selection.
func TestModelErrorsToggle(t *testing.T) {
	m := loadedModel(t, &stubSource{resp: sampleTrace(t)}, "stepId=first")
	m = update(t, m, key("e"))
	if got := m.Search().String(); got != "?errors=true&stepId=first" {
		t.Fatalf("unexpected search: %s", got)
	}
	if got := strings.Join(rowIDs(m), ","); got != "broken" {
		t.Fatalf("unexpected rows: %s", got)
	}
	if m.Page().Detail == nil || m.Page().Detail.ID != "first" {
		t.Fatalf("expected the filtered-out selection to stay open")
	}
	m = update(t, m, key("e"))
	if got := m.Search().String(); got != "?stepId=first" {
		t.Fatalf("unexpected search after second toggle: %s", got)
	}
}

// TestModelSearchUpdatesQuery verifies typing in search mode filters live.
func TestModelSearchUpdatesQuery(t *testing.T) {
	m := loadedModel(t, &stubSource{resp: sampleTrace(t)}, "")
	m = update(t, m, key("/"))
	for _, r := range "task" {
		m = update(t, m, key(string(r)))
	}
	if got := m.Search().State().Query; got != "task" {
		t.Fatalf("unexpected query %q", got)
	}
	if got := strings.Join(rowIDs(m), ","); got != "first" {
		t.Fatalf("unexpected rows: %s", got)
	}
	m = update(t, m, key("enter"))
	m = update(t, m, key("e"))
	if !m.Search().State().ErrorsOnly {
		t.Fatalf("expected keys to act on the list after leaving search")
	}
	if !strings.Contains(m.View(), "No steps match the current filters.") {
		t.Fatalf("expected empty filter message")
	}
}

// TestModelReloadInvalidates verifies r drops the cache and loads again.
func TestModelReloadInvalidates(t *testing.T) {
	source := &stubSource{resp: sampleTrace(t)}
	m := loadedModel(t, source, "")
	next, cmd := m.Update(key("r"))
	if cmd == nil {
		t.Fatalf("expected a load command")
	}
	_ = update(t, next.(Model), cmd())
	if source.invalidated.Load() != 1 || source.loads.Load() != 2 {
		t.Fatalf("expected invalidate and reload, got %d/%d", source.invalidated.Load(), source.loads.Load())
	}
}

// TestModelShowsDistinctLoadErrors verifies transport and validation messages.
func TestModelShowsDistinctLoadErrors(t *testing.T) {
	transport := loadedModel(t, &stubSource{err: &loader.TransportError{Status: "Not Found"}}, "")
	if !strings.Contains(transport.View(), "Error loading trace: failed to fetch trace: Not Found") {
		t.Fatalf("unexpected transport view: %s", transport.View())
	}
	invalid := loadedModel(t, &stubSource{err: &trace.ValidationError{Issues: []trace.Issue{{Path: "steps", Message: "is required"}}}}, "")
	if !strings.Contains(invalid.View(), "Invalid trace payload: steps: is required") {
		t.Fatalf("unexpected validation view: %s", invalid.View())
	}
	if loader.Classify(transport.LoadErr()) != loader.FailureTransport || loader.Classify(invalid.LoadErr()) != loader.FailureValidation {
		t.Fatalf("expected load errors to be kept for the exit code")
	}
}

// TestModelReloadClearsLoadErr verifies a successful reload drops the earlier failure.
func TestModelReloadClearsLoadErr(t *testing.T) {
	source := &stubSource{err: &loader.TransportError{Status: "Bad Gateway"}}
	m := loadedModel(t, source, "")
	if m.LoadErr() == nil {
		t.Fatalf("expected load error")
	}
	source.err = nil
	source.resp = sampleTrace(t)
	next, cmd := m.Update(key("r"))
	m = update(t, next.(Model), cmd())
	if m.LoadErr() != nil {
		t.Fatalf("expected load error to clear, got %v", m.LoadErr())
	}
}

// TestModelQuit verifies q quits.
func TestModelQuit(t *testing.T) {
	m := loadedModel(t, &stubSource{resp: sampleTrace(t)}, "")
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

// TestRenderPlain verifies the static output lists rows and the selected detail.
func TestRenderPlain(t *testing.T) {
	page := view.BuildPage("run_1", sampleTrace(t), view.ParseSearch("stepId=first"))
	var out strings.Builder
	if err := RenderPlain(&out, page, true); err != nil {
		t.Fatalf("render plain: %v", err)
	}
	text := out.String()
	first := strings.Index(text, "Read task")
	late := strings.Index(text, "Summarize")
	if first < 0 || late < first {
		t.Fatalf("unexpected plain output order:\n%s", text)
	}
	for _, want := range []string{"Run run_1", "1234ms", "TASK.md", "2024-01-01 00:00:00.000 UTC"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in plain output:\n%s", want, text)
		}
	}
}

// TestPrintPlainPropagatesLoadErrors verifies load failures are returned.
func TestPrintPlainPropagatesLoadErrors(t *testing.T) {
	source := &stubSource{err: &loader.TransportError{Status: "Bad Gateway"}}
	var out strings.Builder
	err := PrintPlain(testutil.Context(t, 0), &out, source, "run_1", view.ParseSearch(""), true)
	if loader.Classify(err) != loader.FailureTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}
