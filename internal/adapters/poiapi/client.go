// Package poiapi is the HTTP client for the POI REST backend.
package poiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// ErrNotConfigured is returned by every call when no base URL was given.
var ErrNotConfigured = errors.New("backend base URL not configured")

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, msg)
}

// Is lets errors.Is(err, domain.ErrNotFound) match a 404.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client implements ports.POIGateway over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List fetches every POI.
func (c *Client) List(ctx context.Context) ([]domain.POI, error) {
	var pois []domain.POI
	if err := c.do(ctx, "list POIs", http.MethodGet, "/pois", nil, &pois); err != nil {
		return nil, err
	}
	if pois == nil {
		pois = []domain.POI{}
	}
	return pois, nil
}

// Create posts a new POI and returns the server's record.
func (c *Client) Create(ctx context.Context, poi domain.NewPOI) (*domain.POI, error) {
	var created domain.POI
	if err := c.do(ctx, "create POI", http.MethodPost, "/pois", poi, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update patches title and description. Any response body is ignored.
func (c *Client) Update(ctx context.Context, id string, update domain.POIUpdate) error {
	return c.do(ctx, "update POI", http.MethodPatch, "/pois/"+url.PathEscape(id), update, nil)
}

// Delete removes a POI by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete POI", http.MethodDelete, "/pois/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts "message" (or "error") from a JSON error body,
// falling back to the trimmed raw text.
func errorMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
