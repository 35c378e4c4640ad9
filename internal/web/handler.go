package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	oteltrace "go.opentelemetry.io/otel/trace"

	"traceview/internal/loader"
	"traceview/internal/trace"
	"traceview/internal/view"
)

// DefaultRenderWait is how long a page waits for the trace before showing the
// loading page.
const DefaultRenderWait = 2 * time.Second

// Source provides traces and their load status.
type Source interface {
	Load(ctx context.Context, runID string) (trace.Response, error)
	Status(runID string) loader.Status
}

// Config captures the settings for serving the trace viewer.
type Config struct {
	Addr           string
	Source         Source
	RenderWait     time.Duration
	AssetsBaseURL  string
	Logger         *slog.Logger
	TracerProvider oteltrace.TracerProvider
}

// NewHandler builds the HTTP handler for the viewer pages and assets.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Source == nil {
		return nil, errors.New("web: trace source is required")
	}
	assets, err := loadAssets(cfg.AssetsBaseURL)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	renderWait := cfg.RenderWait
	if renderWait <= 0 {
		renderWait = DefaultRenderWait
	}

	v := &viewer{
		source:     cfg.Source,
		renderWait: renderWait,
		styleURL:   assets.styleURL,
		logger:     logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", v.serveHome)
	mux.HandleFunc("/run", v.serveOpenRun)
	mux.HandleFunc("/run/", v.serveRun)
	mux.HandleFunc("/healthz", serveHealth)
	mux.Handle("/assets/", assets.handler())

	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	return otelhttp.NewHandler(logRequests(logger, mux), "traceview.web", opts...), nil
}

type viewer struct {
	source     Source
	renderWait time.Duration
	styleURL   string
	logger     *slog.Logger
}

func (v *viewer) page(title string, body templ.Component, status int) http.Handler {
	props := layoutProps{Title: title, StyleURL: v.styleURL}
	return templ.Handler(layout(props, body), templ.WithStatus(status))
}

// serveHome renders the start page; any other unmatched path is a 404.
func (v *viewer) serveHome(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	if r.URL.Path != "/" {
		v.page("Not found", notFoundView("No page at "+r.URL.Path+"."), http.StatusNotFound).ServeHTTP(w, r)
		return
	}
	v.page("Trace Viewer", homeView(), http.StatusOK).ServeHTTP(w, r)
}

// serveOpenRun redirects the start page form to the run's canonical URL.
func (v *viewer) serveOpenRun(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	runID := strings.TrimSpace(r.URL.Query().Get("runId"))
	if runID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, view.RunPath(runID), http.StatusSeeOther)
}

// serveRun renders the trace page for /run/{runId}. The query string is the
// whole view state.
func (v *viewer) serveRun(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	runID, ok := runIDFromPath(r.URL.EscapedPath())
	if !ok {
		v.page("Not found", notFoundView("A run id is required."), http.StatusNotFound).ServeHTTP(w, r)
		return
	}
	search, changed := view.CanonicalSearch(r.URL.RawQuery)
	if changed {
		http.Redirect(w, r, view.RunPath(runID)+search.String(), http.StatusSeeOther)
		return
	}
	title := "Run " + runID

	ctx, cancel := context.WithTimeout(r.Context(), v.renderWait)
	defer cancel()
	resp, err := v.source.Load(ctx, runID)
	if err != nil {
		v.serveLoadFailure(w, r, runID, search, err)
		return
	}
	page := view.BuildPage(runID, resp, search)
	v.page(title, traceView(page), http.StatusOK).ServeHTTP(w, r)
}

func (v *viewer) serveLoadFailure(w http.ResponseWriter, r *http.Request, runID string, search view.Search, err error) {
	title := "Run " + runID
	switch loader.Classify(err) {
	case loader.FailureValidation:
		var validationErr *trace.ValidationError
		errors.As(err, &validationErr)
		v.logger.Warn("invalid trace payload", "run_id", runID, "issues", len(validationErr.Issues))
		v.page(title, invalidView(runID, validationErr.Issues), http.StatusBadGateway).ServeHTTP(w, r)
		return
	case loader.FailureTransport:
		retry := view.RunPath(runID) + search.String()
		v.page(title, errorView(loader.Message(err), retry), http.StatusBadGateway).ServeHTTP(w, r)
		return
	}
	if r.Context().Err() != nil {
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		status := v.source.Status(runID)
		switch status.State {
		case loader.StatePending:
			props := layoutProps{Title: title, StyleURL: v.styleURL, Refresh: true}
			templ.Handler(layout(props, loadingView(runID))).ServeHTTP(w, r)
			return
		case loader.StateSucceeded:
			page := view.BuildPage(runID, status.Trace, search)
			v.page(title, traceView(page), http.StatusOK).ServeHTTP(w, r)
			return
		case loader.StateFailed:
			if !errors.Is(status.Err, context.DeadlineExceeded) {
				v.serveLoadFailure(w, r, runID, search, status.Err)
				return
			}
		}
	}
	v.logger.Error("load trace", "run_id", runID, "error", err)
	retry := view.RunPath(runID) + search.String()
	v.page(title, errorView(loader.Message(err), retry), http.StatusInternalServerError).ServeHTTP(w, r)
}

func serveHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// runIDFromPath reads the run id from an escaped path, so ids containing "/"
// arrive as one segment.
func runIDFromPath(escaped string) (string, bool) {
	segment := strings.TrimPrefix(escaped, "/run/")
	if segment == "" || strings.Contains(segment, "/") {
		return "", false
	}
	runID, err := url.PathUnescape(segment)
	if err != nil || runID == "" {
		return "", false
	}
	return runID, true
}

// allowGet rejects everything but GET and HEAD with 405.
func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}
