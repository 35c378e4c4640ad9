package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	oteltrace "go.opentelemetry.io/otel/trace"

	"traceview/internal/trace"
)

// ClientOptions tunes the HTTP trace client.
type ClientOptions struct {
	Timeout         time.Duration
	MaxPayloadBytes int64
	Transport       http.RoundTripper
	// TracerProvider defaults to the global provider.
	TracerProvider  oteltrace.TracerProvider
}

// Client fetches traces from the backend trace API.
type Client struct {
	baseURL    string
	client     *http.Client
	maxPayload int64
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, opts ClientOptions) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	var otelOpts []otelhttp.Option
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport, otelOpts...),
		},
		maxPayload: opts.MaxPayloadBytes,
	}
}

// TraceURL returns the trace endpoint for a run.
func (c *Client) TraceURL(runID string) string {
	return c.baseURL + "/api/runs/" + url.PathEscape(runID) + "/trace"
}

// Fetch requests and normalizes the trace for a run. Transport failures return a
// *TransportError; malformed payloads return a wrapped *trace.ValidationError.
func (c *Client) Fetch(ctx context.Context, runID string) (trace.Response, error) {
	if runID == "" {
		return trace.Response{}, ErrEmptyRunID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TraceURL(runID), nil)
	if err != nil {
		return trace.Response{}, &TransportError{RunID: runID, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return trace.Response{}, &TransportError{RunID: runID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return trace.Response{}, &TransportError{
			RunID:      runID,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}
	parsed, err := trace.Decode(resp.Body, c.maxPayload)
	if err != nil {
		var validationErr *trace.ValidationError
		if !errors.As(err, &validationErr) {
			return trace.Response{}, &TransportError{RunID: runID, Err: err}
		}
		return trace.Response{}, fmt.Errorf("decode trace %s: %w", runID, err)
	}
	return parsed, nil
}

// statusText strips the numeric code from a response status line.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
