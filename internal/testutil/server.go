package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"traceview/internal/fixtureapi"
)

// TraceAPIConfig wires fixtures for StartTraceAPI.
type TraceAPIConfig struct {
	Traces  map[string]string
	Demo    bool
	Latency time.Duration
}

// TraceAPI represents a running fixture trace API.
type TraceAPI struct {
	BaseURL string
	Close   func()
	hits    *atomic.Int64
}

// Hits reports how many trace requests the server has received.
func (a *TraceAPI) Hits() int64 {
	return a.hits.Load()
}

// StartTraceAPI launches an in-memory HTTP server for the trace API.
func StartTraceAPI(t testing.TB, cfg TraceAPIConfig) *TraceAPI {
	t.Helper()
	traces := fixtureapi.MapSource{}
	for runID, payload := range cfg.Traces {
		traces[runID] = []byte(payload)
	}
	sources := fixtureapi.Sources{traces}
	if cfg.Demo {
		sources = append(sources, fixtureapi.DemoSource{})
	}
	handler := fixtureapi.NewHandler(fixtureapi.Config{
		Source:  sources,
		Latency: cfg.Latency,
	})
	hits := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return &TraceAPI{
		BaseURL: server.URL,
		Close:   server.Close,
		hits:    hits,
	}
}
