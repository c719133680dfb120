// Package gemini answers chat messages with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/chatwidget/internal/backend"
	"github.com/edgard/chatwidget/internal/config"
)

// generator is the subset of the genai models service the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is a backend.Responder backed by Gemini.
type Client struct {
	models        generator
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	maxRetries    int
	retryDelay    time.Duration
}

var _ backend.Responder = (*Client)(nil)

// NewClient creates a Gemini responder speaking for clientName.
func NewClient(ctx context.Context, cfg config.GeminiConfig, clientName string, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := newClient(gi.Models, cfg, clientName, log)
	c.log.Info("Gemini client initialized", "model", cfg.ModelName)
	return c, nil
}

func newClient(models generator, cfg config.GeminiConfig, clientName string, log *slog.Logger) *Client {
	temperature := cfg.Temperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		SystemInstruction: genai.NewContentFromText(SystemInstruction(cfg.SystemInstruction, clientName), genai.RoleUser),
	}

	return &Client{
		models:        models,
		log:           log.With("component", "gemini_client"),
		contentConfig: contentConfig,
		modelName:     cfg.ModelName,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
	}
}

// Respond generates the answer to message given the session's earlier turns.
func (c *Client) Respond(ctx context.Context, history []backend.Turn, message string) (string, error) {
	c.log.DebugContext(ctx, "Generating reply", "turns", len(history))

	contents := make([]*genai.Content, 0, 2*len(history)+1)
	for _, t := range history {
		contents = append(contents,
			genai.NewContentFromText(t.User, genai.RoleUser),
			genai.NewContentFromText(t.Bot, genai.RoleModel),
		)
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		return "", err
	}
	return c.extractText(ctx, resp)
}

func (c *Client) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var resp *genai.GenerateContentResponse
		resp, err = c.models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if !errors.As(err, &apiErr) || (apiErr.Code != 500 && apiErr.Code != 503) {
			c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
			return nil, fmt.Errorf("gemini API call failed: %w", err)
		}
		if attempt == c.maxRetries {
			break
		}

		c.log.WarnContext(ctx, "Retrying Gemini API call", "attempt", attempt+1, "code", apiErr.Code, "delay", c.retryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return nil, fmt.Errorf("gemini API call failed after %d retries: %w", c.maxRetries, err)
}

func (c *Client) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("reply blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finish := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finish = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing content", "finish_reason", finish)
		return "", fmt.Errorf("reply has no content, finish reason: %s", finish)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("reply text is empty")
	}
	return text, nil
}
