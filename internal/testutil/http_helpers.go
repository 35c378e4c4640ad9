package testutil

import (
	"io"
	"net/http"
	"testing"
	"time"
)

// HTTPGet sends a GET request and returns the status code and body.
func HTTPGet(t testing.TB, url string) (int, string) {
	t.Helper()
	ctx := Context(t, 2*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http request: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, string(body)
}
