// Package crawl starts website crawls on the dashboard API and watches the
// resulting jobs until they settle.
package crawl

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

	"github.com/edgard/chatwidget/internal/transport"
)

// Status is the lifecycle state of a crawler job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Active reports whether a job in this state may still change.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusRunning
}

// Job is a crawler job as reported by the API.
type Job struct {
	ID          string         `json:"id"`
	ClientID    string         `json:"client_id"`
	URL         string         `json:"url"`
	Status      Status         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	ResultData  map[string]any `json:"result_data,omitempty"`
}

// APIError is a non-2xx answer from the crawler API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crawl: remote error %d: %s", e.StatusCode, e.Body)
}

// Config configures the client.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client talks to the crawler endpoints.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a crawler API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("crawl: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  httpClient,
	}, nil
}

// StartCrawl starts a crawl for the client. An empty target crawls the
// client's registered website.
func (c *Client) StartCrawl(ctx context.Context, clientID, target string) (Job, error) {
	path := "/clients/" + url.PathEscape(clientID) + "/crawl"
	if target != "" {
		path += "?" + url.Values{"url": {target}}.Encode()
	}
	var job Job
	if err := c.do(ctx, http.MethodPost, path, &job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// ListJobs returns the client's jobs, newest first.
func (c *Client) ListJobs(ctx context.Context, clientID string) ([]Job, error) {
	var jobs []Job
	if err := c.do(ctx, http.MethodGet, "/clients/"+url.PathEscape(clientID)+"/jobs", &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) do(ctx context.Context, method, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("crawl: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(transport.APIKeyHeader, c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("crawl: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(io.LimitReader(resp.Body, 4<<10))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("crawl: decode response: %w", err)
	}
	return nil
}
