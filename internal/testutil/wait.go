package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds test contexts that do not ask for a specific one.
const DefaultTimeout = 5 * time.Second

// pollInterval is how often Eventually re-checks its condition.
const pollInterval = 5 * time.Millisecond

// Context returns a context that expires after timeout, or before the test
// deadline if that comes first. It is cancelled when the test ends.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if deadline, ok := t.Deadline(); ok {
		if remaining := time.Until(deadline) - time.Second; remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// Eventually polls cond until it holds, failing the test with the formatted
// message once timeout elapses.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, format string, args ...any) {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !cond() {
		select {
		case <-deadline.C:
			if cond() {
				return
			}
			t.Fatalf("after %s: "+format, append([]any{timeout}, args...)...)
		case <-ticker.C:
		}
	}
}
