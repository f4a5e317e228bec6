// Package pocketbase provides a client for the PocketBase records API.
package pocketbase

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

	"github.com/chatbased/support-platform/pkg/metrics"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Record is a generic record returned by the records API. Custom fields are
// kept in Fields alongside the system attributes.
type Record struct {
	ID           string
	CollectionID string
	Fields       map[string]any
}

// UnmarshalJSON splits system attributes from custom fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["id"].(string); ok {
		r.ID = id
	}
	if cid, ok := raw["collectionId"].(string); ok {
		r.CollectionID = cid
	}
	delete(raw, "id")
	delete(raw, "collectionId")
	delete(raw, "collectionName")
	r.Fields = raw
	return nil
}

// GetString returns a string field, or "" when absent or not a string.
func (r *Record) GetString(key string) string {
	if v, ok := r.Fields[key].(string); ok {
		return v
	}
	return ""
}

// Config holds record store connection configuration.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is an HTTP client for a PocketBase instance. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new record store client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("record store base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid record store base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Create inserts a record into a collection and returns the stored record.
func (c *Client) Create(ctx context.Context, collection string, fields map[string]any) (*Record, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/collections/%s/records", c.baseURL, url.PathEscape(collection))
	rec, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		metrics.RecordStoreRequest(collection, "create", "error")
		return nil, err
	}
	metrics.RecordStoreRequest(collection, "create", "success")
	return rec, nil
}

// GetOne fetches a single record by id. A missing record yields ErrNotFound.
func (c *Client) GetOne(ctx context.Context, collection, id string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/api/collections/%s/records/%s",
		c.baseURL, url.PathEscape(collection), url.PathEscape(id))
	rec, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		status := "error"
		if errors.Is(err, ErrNotFound) {
			status = "not_found"
		}
		metrics.RecordStoreRequest(collection, "get_one", status)
		return nil, err
	}
	metrics.RecordStoreRequest(collection, "get_one", "success")
	return rec, nil
}

// Health checks the record store's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("record store unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("record store unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("record store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("record store returned status %d: %s", resp.StatusCode, string(data))
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}
