package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"traceview/internal/fixtureapi"
	"traceview/internal/loader"
	"traceview/internal/testutil"
	"traceview/internal/trace"
)

// stubSource serves a fixed trace or error, optionally blocking until released.
type stubSource struct {
	runID  string
	resp   trace.Response
	err    error
	block  chan struct{}
	status loader.Status
}

func (s *stubSource) Load(ctx context.Context, runID string) (trace.Response, error) {
	s.runID = runID
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return trace.Response{}, ctx.Err()
		}
	}
	return s.resp, s.err
}

func (s *stubSource) Status(string) loader.Status {
	return s.status
}

func sampleTrace(t *testing.T) trace.Response {
	t.Helper()
	resp, err := trace.Normalize([]byte(testutil.TraceJSON(
		testutil.StepFixture{ID: "a", Label: "Later step", Offset: 2 * time.Second, Output: "<script>alert(1)</script>"},
		testutil.StepFixture{ID: "b", Label: "First step", Tool: map[string]any{"name": "read_file"}, Duration: 1234 * time.Millisecond},
		testutil.StepFixture{ID: "c", Label: "Broken step", Offset: time.Second, ErrorMsg: "permission denied", ErrorType: "PermissionError"},
	)))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return resp
}

func newTestHandler(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	handler, err := NewHandler(cfg)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func serve(handler http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "http://example.com"+target, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

// TestNewHandlerRequiresSource verifies the handler refuses to start without traces.
func TestNewHandlerRequiresSource(t *testing.T) {
	if _, err := NewHandler(Config{}); err == nil {
		t.Fatalf("expected error without a source")
	}
}

// TestHomePageLinksSampleRun ensures the start page offers the sample run and stylesheet.
func TestHomePageLinksSampleRun(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{}})
	resp := serve(handler, http.MethodGet, "/")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{`href="/run/run_123"`, `href="/assets/viewer.css"`, `action="/run"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in body", want)
		}
	}
	if resp.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}
}

// TestHandlerUsesAssetsBaseURL verifies HTML assets use the configured base URL.
func TestHandlerUsesAssetsBaseURL(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{}, AssetsBaseURL: "https://cdn.example.com/assets/"})
	body := serve(handler, http.MethodGet, "/").Body.String()
	if !strings.Contains(body, `href="https://cdn.example.com/assets/viewer.css"`) {
		t.Fatalf("expected cdn stylesheet in body")
	}
}

// TestHandlerServesEmbeddedAssets verifies the stylesheet is served from the binary.
func TestHandlerServesEmbeddedAssets(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{}})
	resp := serve(handler, http.MethodGet, "/assets/viewer.css")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Header().Get("Content-Type"), "text/css") {
		t.Fatalf("unexpected content type %s", resp.Header().Get("Content-Type"))
	}
}

// TestHandlerRejectsNonGet verifies read-only routes answer 405 with Allow.
func TestHandlerRejectsNonGet(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{}})
	for _, path := range []string{"/", "/run/run_1", "/assets/viewer.css", "/healthz"} {
		resp := serve(handler, http.MethodPost, path)
		if resp.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, resp.Code)
		}
		if resp.Header().Get("Allow") != http.MethodGet {
			t.Fatalf("%s: expected Allow: GET", path)
		}
	}
}

// TestOpenRunRedirects verifies the start form lands on the run URL.
func TestOpenRunRedirects(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{}})
	resp := serve(handler, http.MethodGet, "/run?runId=run+7")
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != "/run/run%207" {
		t.Fatalf("unexpected location %s", got)
	}
	if resp := serve(handler, http.MethodGet, "/run"); resp.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home without a run id")
	}
}

// TestTracePageOrdersRowsChronologically verifies rows follow start time, not payload order.
func TestTracePageOrdersRowsChronologically(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{resp: sampleTrace(t)}})
	resp := serve(handler, http.MethodGet, "/run/run_1")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	first := strings.Index(body, `data-step-id="b"`)
	broken := strings.Index(body, `data-step-id="c"`)
	later := strings.Index(body, `data-step-id="a"`)
	if first < 0 || broken < first || later < broken {
		t.Fatalf("unexpected row order: b=%d c=%d a=%d", first, broken, later)
	}
	if !strings.Contains(body, "Showing 3 of 3 steps, 1 with errors") {
		t.Fatalf("expected summary line")
	}
	if !strings.Contains(body, "1234ms") {
		t.Fatalf("expected formatted duration")
	}
	if !strings.Contains(body, `<tr class="step failed" data-step-id="c">`) {
		t.Fatalf("expected failed row to be marked")
	}
	if strings.Contains(body, `class="detail"`) {
		t.Fatalf("expected no detail panel without a selection")
	}
}

// TestTracePageErrorsOnlyFilter verifies the errors flag narrows the rows but not the counts.
func TestTracePageErrorsOnlyFilter(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{resp: sampleTrace(t)}})
	body := serve(handler, http.MethodGet, "/run/run_1?errors=true").Body.String()
	if strings.Contains(body, `data-step-id="a"`) || !strings.Contains(body, `data-step-id="c"`) {
		t.Fatalf("expected only the failed row")
	}
	if !strings.Contains(body, "Showing 1 of 3 steps, 1 with errors") {
		t.Fatalf("expected filtered summary")
	}
	if !strings.Contains(body, `name="errors" value="true" checked`) {
		t.Fatalf("expected errors checkbox to be checked")
	}
	if !strings.Contains(body, `href="/run/run_1"`) {
		t.Fatalf("expected toggle link back to all steps")
	}
}

// TestTracePageSearchNoMatches verifies the empty filtered state.
func TestTracePageSearchNoMatches(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{resp: sampleTrace(t)}})
	body := serve(handler, http.MethodGet, "/run/run_1?q=nothing-matches").Body.String()
	if !strings.Contains(body, "No steps match the current filters.") {
		t.Fatalf("expected empty filter message")
	}
	if !strings.Contains(body, `value="nothing-matches"`) {
		t.Fatalf("expected the query to stay in the search box")
	}
}

// TestTracePageDetailPanel verifies the selected step is shown with escaped content.
func TestTracePageDetailPanel(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{resp: sampleTrace(t)}})
	body := serve(handler, http.MethodGet, "/run/run_1?q=perm&stepId=c").Body.String()
	if !strings.Contains(body, `<aside class="detail" data-step-id="c">`) {
		t.Fatalf("expected detail panel for c")
	}
	for _, want := range []string{"permission denied", "PermissionError", "2024-01-01 00:00:01.000 UTC", `href="/run/run_1?q=perm"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in detail", want)
		}
	}
	if !strings.Contains(body, `<input type="hidden" name="stepId" value="c">`) {
		t.Fatalf("expected the filter form to keep the selection")
	}

	body = serve(handler, http.MethodGet, "/run/run_1?stepId=a").Body.String()
	if strings.Contains(body, "<script>") {
		t.Fatalf("expected output to be escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Fatalf("expected escaped output in detail")
	}
}

// TestTracePageUnknownSelection verifies a stale stepId shows no panel.
func TestTracePageUnknownSelection(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{resp: sampleTrace(t)}})
	resp := serve(handler, http.MethodGet, "/run/run_1?stepId=gone")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), `class="detail"`) {
		t.Fatalf("expected no detail panel")
	}
}

// TestTracePageKeepsUnknownParams verifies foreign query keys survive the filter form.
func TestTracePageKeepsUnknownParams(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{resp: sampleTrace(t)}})
	body := serve(handler, http.MethodGet, "/run/run_1?tab=raw").Body.String()
	if !strings.Contains(body, `<input type="hidden" name="tab" value="raw">`) {
		t.Fatalf("expected unknown key as hidden input")
	}
	if !strings.Contains(body, `href="/run/run_1?stepId=b&amp;tab=raw"`) {
		t.Fatalf("expected row links to keep unknown keys")
	}
}

// TestTracePageRedirectsEmptyFilterParams verifies an empty search box does not leave q= in the URL.
func TestTracePageRedirectsEmptyFilterParams(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{resp: sampleTrace(t)}})
	resp := serve(handler, http.MethodGet, "/run/run_1?q=&errors=true")
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != "/run/run_1?errors=true" {
		t.Fatalf("unexpected location %s", got)
	}
	body := serve(handler, http.MethodGet, "/run/run_1?errors=true").Body.String()
	if strings.Contains(body, "q=&amp;") || strings.Contains(body, `q="`) {
		t.Fatalf("expected no empty q in rendered links")
	}
}

// TestTracePageDecodesEscapedRunID verifies run ids containing "/" round-trip through RunPath.
func TestTracePageDecodesEscapedRunID(t *testing.T) {
	source := &stubSource{resp: sampleTrace(t)}
	handler := newTestHandler(t, Config{Source: source})
	resp := serve(handler, http.MethodGet, "/run/team%2Frun%201")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if source.runID != "team/run 1" {
		t.Fatalf("unexpected run id %q", source.runID)
	}
	if !strings.Contains(resp.Body.String(), `href="/run/team%2Frun%201?stepId=b"`) {
		t.Fatalf("expected row links to keep the escaped run id")
	}
	if resp := serve(handler, http.MethodGet, "/run/team/run"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unescaped slash, got %d", resp.Code)
	}
}

// TestTracePageEmptyRun verifies the no-steps message.
func TestTracePageEmptyRun(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{}})
	body := serve(handler, http.MethodGet, "/run/run_1").Body.String()
	if !strings.Contains(body, "This run has no steps.") {
		t.Fatalf("expected empty run message")
	}
}

// TestTracePageLoading verifies a slow fetch renders the refreshing loading page.
func TestTracePageLoading(t *testing.T) {
	source := &stubSource{block: make(chan struct{}), status: loader.Status{State: loader.StatePending}}
	defer close(source.block)
	handler := newTestHandler(t, Config{Source: source, RenderWait: 10 * time.Millisecond})
	resp := serve(handler, http.MethodGet, "/run/run_1")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "Loading trace data...") || !strings.Contains(body, `http-equiv="refresh"`) {
		t.Fatalf("expected loading page, got %s", body)
	}
}

// TestTracePageLoadingRaceSucceeded verifies a fetch that lands after the wait still renders.
func TestTracePageLoadingRaceSucceeded(t *testing.T) {
	source := &stubSource{block: make(chan struct{}), status: loader.Status{State: loader.StateSucceeded, Trace: sampleTrace(t)}}
	defer close(source.block)
	handler := newTestHandler(t, Config{Source: source, RenderWait: 10 * time.Millisecond})
	body := serve(handler, http.MethodGet, "/run/run_1").Body.String()
	if !strings.Contains(body, `data-step-id="b"`) {
		t.Fatalf("expected the cached trace to render")
	}
}

// TestTracePageTransportError verifies a failed fetch shows the load error page.
func TestTracePageTransportError(t *testing.T) {
	source := &stubSource{err: &loader.TransportError{RunID: "run_1", StatusCode: 404, Status: "Not Found"}}
	handler := newTestHandler(t, Config{Source: source})
	resp := serve(handler, http.MethodGet, "/run/run_1?errors=true")
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{`class="load-error"`, "Error loading trace: failed to fetch trace: Not Found", `href="/run/run_1?errors=true"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body", want)
		}
	}
	if strings.Contains(body, "Invalid trace payload") {
		t.Fatalf("transport failure must not look like a validation failure")
	}
}

// TestTracePageValidationError verifies malformed payloads get a distinct page.
func TestTracePageValidationError(t *testing.T) {
	source := &stubSource{err: &trace.ValidationError{Issues: []trace.Issue{
		{Path: "steps[0].tool", Message: "expected string or object with name, got number"},
	}}}
	handler := newTestHandler(t, Config{Source: source})
	resp := serve(handler, http.MethodGet, "/run/run_1")
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{`class="invalid-payload"`, "Invalid trace payload", "steps[0].tool"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body", want)
		}
	}
	if strings.Contains(body, `class="load-error"`) {
		t.Fatalf("validation failure must not look like a transport failure")
	}
}

// TestHealthz verifies the liveness endpoint.
func TestHealthz(t *testing.T) {
	handler := newTestHandler(t, Config{Source: &stubSource{}})
	resp := serve(handler, http.MethodGet, "/healthz")
	if resp.Code != http.StatusOK || resp.Body.String() != "ok\n" {
		t.Fatalf("unexpected health response: %d %q", resp.Code, resp.Body.String())
	}
}

// TestViewerAgainstTraceAPI renders the demo run through the real loader and client.
func TestViewerAgainstTraceAPI(t *testing.T) {
	api := testutil.StartTraceAPI(t, testutil.TraceAPIConfig{Demo: true})
	l, err := loader.New(loader.NewClient(api.BaseURL, loader.ClientOptions{Timeout: time.Second}), loader.Options{})
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	handler := newTestHandler(t, Config{Source: l})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	failedID := fixtureapi.DemoStepID(fixtureapi.DemoRunID, 2)
	status, body := testutil.HTTPGet(t, srv.URL+"/run/"+fixtureapi.DemoRunID+"?errors=true&stepId="+failedID)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if !strings.Contains(body, "Run the test suite") || !strings.Contains(body, "exit status 1") {
		t.Fatalf("expected the failed demo step in the page")
	}
	if strings.Contains(body, `data-step-id="`+fixtureapi.DemoStepID(fixtureapi.DemoRunID, 0)+`"`) {
		t.Fatalf("expected successful steps to be filtered out")
	}

	status, body = testutil.HTTPGet(t, srv.URL+"/run/missing")
	if status != http.StatusBadGateway || !strings.Contains(body, "Not Found") {
		t.Fatalf("expected transport error page, got %d", status)
	}
	if api.Hits() != 2 {
		t.Fatalf("expected two API requests, got %d", api.Hits())
	}
}
