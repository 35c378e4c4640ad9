package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"traceview/internal/trace"
)

const instrumentationName = "traceview/internal/loader"

// DefaultCacheSize bounds how many run traces the loader keeps.
const DefaultCacheSize = 64

// Fetcher retrieves a normalized trace for a run.
type Fetcher interface {
	Fetch(ctx context.Context, runID string) (trace.Response, error)
}

// State is the observable lifecycle of a run's trace.
type State int

const (
	// StateIdle means no load has been requested yet.
	StateIdle State = iota
	// StatePending means a fetch is in flight.
	StatePending
	// StateFailed means the last fetch failed; failures are not cached.
	StateFailed
	// StateSucceeded means a normalized trace is cached.
	StateSucceeded
)

// String returns a lowercase label for the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFailed:
		return "failed"
	case StateSucceeded:
		return "succeeded"
	default:
		return "idle"
	}
}

// Status reports what a consumer should show for a run.
type Status struct {
	State State
	Trace trace.Response
	Err   error
}

// Message returns the human-readable failure text, or "" when not failed.
func (s Status) Message() string {
	return Message(s.Err)
}

// Options configures a Loader.
type Options struct {
	CacheSize      int
	Logger         *slog.Logger
	TracerProvider oteltrace.TracerProvider
	Now            func() time.Time
}

// Loader deduplicates and caches trace fetches by run id.
type Loader struct {
	fetcher Fetcher
	cache   *lru.Cache
	group   singleflight.Group
	logger  *slog.Logger
	tracer  oteltrace.Tracer
	now     func() time.Time

	// mu orders cache writes against Invalidate and Status.
	mu       sync.Mutex
	inflight map[string]int
	failures map[string]error
	// generation counts invalidations per run; a fetch started under an older
	// generation must not repopulate the cache.
	generation map[string]uint64
}

// New constructs a loader around a fetcher.
func New(fetcher Fetcher, opts Options) (*Loader, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("loader: fetcher is nil")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("loader: create cache: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Loader{
		fetcher:  fetcher,
		cache:    cache,
		logger:   logger,
		tracer:   tp.Tracer(instrumentationName),
		now:      now,
		inflight:   map[string]int{},
		failures:   map[string]error{},
		generation: map[string]uint64{},
	}, nil
}

// Load returns the trace for runID, fetching it at most once per cache entry.
// Concurrent callers for the same run share one fetch. Cancelling ctx stops the
// wait but not the shared fetch, which still populates the cache.
func (l *Loader) Load(ctx context.Context, runID string) (trace.Response, error) {
	if runID == "" {
		return trace.Response{}, ErrEmptyRunID
	}
	if cached, ok := l.cached(runID); ok {
		l.logger.Debug("trace cache hit", "run_id", runID)
		return cached, nil
	}
	fetchCtx := context.WithoutCancel(ctx)
	results := l.group.DoChan(runID, func() (any, error) {
		if cached, ok := l.cached(runID); ok {
			return cached, nil
		}
		return l.fetch(fetchCtx, runID)
	})
	select {
	case res := <-results:
		if res.Err != nil {
			return trace.Response{}, res.Err
		}
		return res.Val.(trace.Response), nil
	case <-ctx.Done():
		return trace.Response{}, ctx.Err()
	}
}

// Status reports the current state for runID without starting a fetch.
func (l *Loader) Status(runID string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cached(runID); ok {
		return Status{State: StateSucceeded, Trace: cached}
	}
	if l.inflight[runID] > 0 {
		return Status{State: StatePending}
	}
	if err, ok := l.failures[runID]; ok {
		return Status{State: StateFailed, Err: err}
	}
	return Status{State: StateIdle}
}

// Invalidate drops any cached trace or recorded failure for runID. A fetch
// already in flight still answers its waiters but is not cached, and the next
// Load starts a fresh fetch.
func (l *Loader) Invalidate(runID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation[runID]++
	l.cache.Remove(runID)
	delete(l.failures, runID)
	l.group.Forget(runID)
}

// Len returns the number of cached traces.
func (l *Loader) Len() int {
	return l.cache.Len()
}

func (l *Loader) cached(runID string) (trace.Response, bool) {
	value, ok := l.cache.Get(runID)
	if !ok {
		return trace.Response{}, false
	}
	return value.(trace.Response), true
}

// fetch performs one network load and records its outcome.
func (l *Loader) fetch(ctx context.Context, runID string) (trace.Response, error) {
	l.mu.Lock()
	l.inflight[runID]++
	delete(l.failures, runID)
	generation := l.generation[runID]
	l.mu.Unlock()

	ctx, span := l.tracer.Start(ctx, "loader.Load",
		oteltrace.WithAttributes(attribute.String("trace.run_id", runID)))
	defer span.End()

	started := l.now()
	resp, err := l.fetcher.Fetch(ctx, runID)
	elapsed := l.now().Sub(started)

	l.mu.Lock()
	if l.inflight[runID]--; l.inflight[runID] <= 0 {
		delete(l.inflight, runID)
	}
	current := l.generation[runID] == generation
	switch {
	case !current:
	case err == nil:
		l.cache.Add(runID, resp)
	default:
		l.failures[runID] = err
	}
	l.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.Warn("trace load failed",
			"run_id", runID,
			"kind", failureLabel(Classify(err)),
			"duration", elapsed,
			"error", err)
		return trace.Response{}, err
	}
	span.SetAttributes(attribute.Int("trace.steps", len(resp.Steps)))
	l.logger.Info("trace loaded", "run_id", runID, "steps", len(resp.Steps), "duration", elapsed)
	return resp, nil
}

func failureLabel(kind FailureKind) string {
	switch kind {
	case FailureTransport:
		return "transport"
	case FailureValidation:
		return "validation"
	default:
		return "other"
	}
}
