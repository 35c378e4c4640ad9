package fixtureapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	tracePrefix = "/api/runs/"
	traceSuffix = "/trace"
)

// Config wires dependencies for the HTTP handler.
type Config struct {
	Source  Source
	Latency time.Duration
	Logger  *slog.Logger
}

// NewHandler builds an HTTP handler for the trace API.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handler{
		source:  cfg.Source,
		latency: cfg.Latency,
		logger:  logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(tracePrefix, h.handleTrace)
	mux.HandleFunc("/healthz", h.handleHealth)
	return mux
}

type handler struct {
	source  Source
	latency time.Duration
	logger  *slog.Logger
}

func (h *handler) handleTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.source == nil {
		writeError(w, http.StatusInternalServerError, "backend_error")
		return
	}
	runID, ok := runIDFromPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if !h.wait(r.Context()) {
		return
	}
	payload, found, err := h.source.Trace(runID)
	if err != nil {
		h.logger.Error("read trace", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "backend_error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	h.logger.Debug("serve trace", "run_id", runID, "bytes", len(payload))
	writeBytes(w, http.StatusOK, payload)
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeBytes(w, http.StatusOK, []byte(`{"ok":true}`))
}

// wait applies the configured latency, returning false when the client went away.
func (h *handler) wait(ctx context.Context) bool {
	if h.latency <= 0 {
		return true
	}
	timer := time.NewTimer(h.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func runIDFromPath(path string) (string, bool) {
	if !strings.HasPrefix(path, tracePrefix) || !strings.HasSuffix(path, traceSuffix) {
		return "", false
	}
	runID := strings.TrimSuffix(strings.TrimPrefix(path, tracePrefix), traceSuffix)
	if runID == "" || strings.Contains(runID, "/") {
		return "", false
	}
	return runID, true
}
