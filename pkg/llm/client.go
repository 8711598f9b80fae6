// Package llm wraps the Anthropic messages API for content generation and
// knowledge extraction.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// Client provides access to the Anthropic messages API.
type Client struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// Config holds configuration for creating an LLM client.
type Config struct {
	APIKey  string
	Model   string // e.g. "claude-sonnet-4-20250514"
	Timeout time.Duration
}

// NewClient creates a new Anthropic client. The HTTP client timeout is the
// only timeout in the pipeline; connection and timeout failures surface as
// retryable errors, everything else is terminal.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client: anthropic.NewClient(cfg.APIKey,
			anthropic.WithHTTPClient(&http.Client{Timeout: timeout})),
		model:  cfg.Model,
		logger: logger.Named("llm"),
	}, nil
}

// CreateMessage sends a single user prompt under a system prompt and returns
// the text of the first text content block.
func (c *Client) CreateMessage(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    system,
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	text := firstText(resp.Content)
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// CreateToolMessage forces the model to answer through the given tool schema
// and returns the raw tool input JSON. A response without a tool_use block is
// a schema failure and is not retryable.
func (c *Client) CreateToolMessage(ctx context.Context, system, prompt string, maxTokens int, tool ToolSchema) (json.RawMessage, error) {
	c.logger.Debug("LLM tool request",
		zap.String("model", c.model),
		zap.String("tool", tool.Name),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    system,
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
		Tools: []anthropic.ToolDefinition{
			{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			},
		},
		ToolChoice: &anthropic.ToolChoice{
			Type: "tool",
			Name: tool.Name,
		},
	})
	if err != nil {
		c.logger.Error("LLM tool request failed",
			zap.String("tool", tool.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, ClassifyError(err)
	}

	c.logger.Info("LLM tool request completed",
		zap.String("tool", tool.Name),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeToolUse && block.MessageContentToolUse != nil {
			return block.MessageContentToolUse.Input, nil
		}
	}

	return nil, NewError(ErrorTypeSchema, "no tool_use block in response", false, nil)
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// firstText returns the first non-empty text block from response content.
func firstText(content []anthropic.MessageContent) string {
	for _, block := range content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
