// Package transport talks to the chat backend over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ConfigErrorMessage is the reply produced locally when no API key is
// configured.
const ConfigErrorMessage = "Configuration error: API key missing"

// APIKeyHeader carries the widget's API key on every request.
const APIKeyHeader = "api-key"

const chatPath = "/api/chat/"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 4 << 10

// ErrMissingMessage is wrapped in the TransportError returned for a success
// response that carries no reply text.
var ErrMissingMessage = errors.New("response has no message")

// TransportError reports a failed exchange with the backend: either a non-2xx
// status or a network failure. It is never retried.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chat backend request failed: %v", e.Err)
	}
	return fmt.Sprintf("chat backend returned status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Config configures the client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil. Zero waits indefinitely.
	Timeout time.Duration
}

// Reply is the backend's answer to one message.
type Reply struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// Session describes a backend chat session.
type Session struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	UserID    string     `json:"user_id,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Exchange is one stored question and answer of a session.
type Exchange struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	CreatedAt   time.Time `json:"created_at"`
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// Client sends widget messages to the backend.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// New builds a client. The API key may be empty; Send then answers locally.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("transport: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
		logger:  logger.With("component", "transport"),
	}, nil
}

// Send posts message to the chat endpoint. Without an API key it returns the
// configuration error reply and performs no I/O.
func (c *Client) Send(ctx context.Context, message, sessionID string) (Reply, error) {
	if c.apiKey == "" {
		c.logger.ErrorContext(ctx, "API key is required")
		return Reply{Message: ConfigErrorMessage}, nil
	}

	var reply Reply
	err := c.do(ctx, http.MethodPost, chatPath, chatRequest{Message: message, SessionID: sessionID}, &reply)
	if err == nil && strings.TrimSpace(reply.Message) == "" {
		err = &TransportError{Err: ErrMissingMessage}
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "Chat request failed", "error", err, "has_session", sessionID != "")
		return Reply{}, err
	}
	return reply, nil
}

// GetSession fetches a session by id.
func (c *Client) GetSession(ctx context.Context, id string) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, sessionPath(id), nil, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// EndSession closes a session and returns its final state.
func (c *Client) EndSession(ctx context.Context, id string) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, sessionPath(id)+"/end", nil, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// SessionMessages lists the stored exchanges of a session, oldest first.
func (c *Client) SessionMessages(ctx context.Context, id string) ([]Exchange, error) {
	var out []Exchange
	if err := c.do(ctx, http.MethodGet, sessionPath(id)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sessionPath(id string) string {
	return chatPath + "sessions/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("transport: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(APIKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{StatusCode: resp.StatusCode, Body: buf.String()}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
