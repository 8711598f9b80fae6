package llm

import (
	"context"
	"encoding/json"
)

// ToolSchema describes a structured-output tool definition: the model is
// forced to call the tool and its input must satisfy InputSchema.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema any
}

// Messager defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type Messager interface {
	// CreateMessage generates a free-text completion.
	CreateMessage(ctx context.Context, system, prompt string, maxTokens int) (string, error)

	// CreateToolMessage generates a structured completion through a tool schema.
	CreateToolMessage(ctx context.Context, system, prompt string, maxTokens int, tool ToolSchema) (json.RawMessage, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure Client implements Messager at compile time.
var _ Messager = (*Client)(nil)
