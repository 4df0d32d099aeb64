// Package openai provides a text-completion client backed by an
// OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/llm"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout is the per-call timeout.
	DefaultTimeout = 20 * time.Second
)

// ClientConfig holds configuration for the completion client.
type ClientConfig struct {
	// APIKey authenticates against the completion API (required).
	APIKey string

	// BaseURL overrides the API endpoint (optional, for compatible backends).
	BaseURL string

	// Model is the chat completion model to use (defaults to DefaultModel).
	Model string

	// Timeout is the per-call timeout (defaults to DefaultTimeout).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client implements llm.Completer over the chat completion API.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient creates a new completion client.
func NewClient(cfg ClientConfig) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
		logger:  cfg.Logger,
	}
}

// Complete executes a single chat completion call.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONOnly {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("model", c.model).
			Dur("duration", duration).
			Msg("completion call failed")
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", llm.ErrEmptyResponse
	}

	c.logger.Debug().
		Str("model", c.model).
		Dur("duration", duration).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("completion call succeeded")

	return resp.Choices[0].Message.Content, nil
}

// parseAPIError maps API errors onto llm.ErrUnavailable so call sites can
// trigger their local fallbacks without inspecting transport details.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, llm.ErrUnavailable)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion request error %d: %w",
			reqErr.HTTPStatusCode, llm.ErrUnavailable)
	}

	return fmt.Errorf("completion request failed: %w", llm.ErrUnavailable)
}
