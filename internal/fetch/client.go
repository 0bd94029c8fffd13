// Package fetch retrieves graph snapshots from the content backend.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

const (
	// GraphPath is the backend's graph data endpoint.
	GraphPath = "/graph/api/data/"

	defaultBackendURL = "http://127.0.0.1:8000"
	defaultTimeout    = 10 * time.Second
	maxErrorBody      = 512
)

// ErrStatus is wrapped by every StatusError.
var ErrStatus = errors.New("unexpected response status")

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Client talks to the content backend.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client for baseURL. An empty baseURL falls back to
// THOUGHTGRAPH_BACKEND_URL, then to http://127.0.0.1:8000.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("THOUGHTGRAPH_BACKEND_URL")
	}
	if baseURL == "" {
		baseURL = defaultBackendURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchGraph issues a single GET for the graph snapshot. There is no retry.
func (c *Client) FetchGraph(ctx context.Context) (*graph.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+GraphPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", GraphPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	snap, err := graph.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", GraphPath, err)
	}
	return snap, nil
}
