// Package remote provides the shared HTTP client ChemistFlow uses to talk
// to the Preprocessor, the Engine, and gossip peers.
//
// Generalized from the teacher's internal/cluster.PostJSON/GetJSON
// (a single package-level *http.Client with ad-hoc helper functions) into
// a configurable, poolable Client type, since ChemistFlow talks to three
// distinct upstreams — the Preprocessor, the Engine, and its gossip
// peers — each with its own connect/request timeout and connection pool
// settings.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config bounds one Client's connection pool and per-call timeouts,
// matching the shape repeated for the preprocessorClient and engineClient
// config blocks.
type Config struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxConnections int
	MaxIdleTime    time.Duration
	Retries        int // idempotent GET retries only, see DESIGN.md Open Question 4

	// Name labels this Client's calls for Observe (e.g. "preprocessor",
	// "engine"). Observe, if set, is called once per call with the
	// elapsed wall time and that call's outcome ("ok" or "error").
	Name    string
	Observe func(name, outcome string, d time.Duration)
}

// DefaultConfig mirrors the teacher's 5s package-level http.Client timeout
// where the spec gives no stronger guidance.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConnections: 32,
		MaxIdleTime:    90 * time.Second,
		Retries:        0,
	}
}

// Client wraps a pooled *http.Client with JSON helpers and retry-on-GET.
type Client struct {
	httpClient *http.Client
	retries    int
	name       string
	observe    func(name, outcome string, d time.Duration)
}

// DecodeError reports that a response was received with the given status
// but its body did not decode as the expected JSON shape. Callers use
// errors.As to distinguish this from a transport failure, since
// ChemistFlow's error taxonomy maps the two to different apierr.Kinds
// (DecodingError vs. NetworkError).
type DecodeError struct {
	Status int
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("remote: decode response (status %d): %v", e.Status, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// New builds a Client from cfg. Each upstream (preprocessor, engine,
// cluster) gets its own Client so pool and timeout settings never bleed
// across upstreams.
func New(cfg Config) *Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConnsPerHost: cfg.MaxConnections,
		IdleConnTimeout:     cfg.MaxIdleTime,
	}
	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.RequestTimeout},
		retries:    cfg.Retries,
		name:       cfg.Name,
		observe:    cfg.Observe,
	}
}

func (c *Client) recordLatency(start time.Time, err error) {
	if c.observe == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.observe(c.name, outcome, time.Since(start))
}

// PostJSON marshals body, POSTs it to url, and decodes the response into
// out (skipped if out is nil). Never retried: POST is not assumed
// idempotent, since create/delete/compute must each happen at most once
// per call.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) (int, error) {
	return c.doJSON(ctx, http.MethodPost, url, body, out)
}

// DeleteJSON issues a DELETE and decodes the response into out, if any.
func (c *Client) DeleteJSON(ctx context.Context, url string, out any) (int, error) {
	return c.doJSON(ctx, http.MethodDelete, url, nil, out)
}

// GetJSON issues a GET and decodes the response into out, retrying with
// exponential backoff on network/5xx failures up to the configured
// retry count, since GET is the only verb ChemistFlow treats as
// idempotent against the Preprocessor (see DESIGN.md's Open Question 4).
func (c *Client) GetJSON(ctx context.Context, url string, out any) (int, error) {
	if c.retries <= 0 {
		return c.doJSON(ctx, http.MethodGet, url, nil, out)
	}

	op := func() (int, error) {
		status, err := c.doJSON(ctx, http.MethodGet, url, nil, out)
		if err != nil {
			return 0, err
		}
		if status >= 500 {
			return 0, fmt.Errorf("remote: retryable status %d", status)
		}
		return status, nil
	}
	status, err := backoff.Retry(ctx, op, backoff.WithMaxTries(uint(c.retries)+1))
	if err != nil {
		return 0, err
	}
	return status, nil
}

// PostJSONCaptureBody behaves like PostJSON but also returns the raw
// response body, used where a non-2xx response is plain text rather
// than JSON (the Engine's 400 response body is a human-readable error
// string, not a JSON object).
func (c *Client) PostJSONCaptureBody(ctx context.Context, url string, body, out any) (status int, respBody []byte, err error) {
	start := time.Now()
	defer func() { c.recordLatency(start, err) }()

	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("remote: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("remote: read response body: %w", err)
	}

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr := json.Unmarshal(respBody, out); decodeErr != nil {
			err = &DecodeError{Status: resp.StatusCode, Cause: decodeErr}
			return resp.StatusCode, respBody, err
		}
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) (status int, err error) {
	start := time.Now()
	defer func() { c.recordLatency(start, err) }()

	var reqBody bytes.Reader
	if body != nil {
		raw, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return 0, fmt.Errorf("remote: marshal request: %w", marshalErr)
		}
		reqBody = *bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &reqBody)
	if err != nil {
		return 0, fmt.Errorf("remote: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
			err = &DecodeError{Status: resp.StatusCode, Cause: decodeErr}
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
