package llm

import (
	"context"
	"encoding/json"
)

// MockMessager is a configurable mock for testing LLM functionality.
// Set the function fields to control behavior in tests.
type MockMessager struct {
	// CreateMessageFunc is called when CreateMessage is invoked.
	// If nil, returns empty string and nil error.
	CreateMessageFunc func(ctx context.Context, system, prompt string, maxTokens int) (string, error)

	// CreateToolMessageFunc is called when CreateToolMessage is invoked.
	// If nil, returns nil and nil error.
	CreateToolMessageFunc func(ctx context.Context, system, prompt string, maxTokens int, tool ToolSchema) (json.RawMessage, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification
	CreateMessageCalls     int
	CreateToolMessageCalls int
}

// NewMockMessager creates a new mock with sensible defaults.
func NewMockMessager() *MockMessager {
	return &MockMessager{Model: "mock-model"}
}

// CreateMessage implements Messager.
func (m *MockMessager) CreateMessage(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	m.CreateMessageCalls++
	if m.CreateMessageFunc != nil {
		return m.CreateMessageFunc(ctx, system, prompt, maxTokens)
	}
	return "", nil
}

// CreateToolMessage implements Messager.
func (m *MockMessager) CreateToolMessage(ctx context.Context, system, prompt string, maxTokens int, tool ToolSchema) (json.RawMessage, error) {
	m.CreateToolMessageCalls++
	if m.CreateToolMessageFunc != nil {
		return m.CreateToolMessageFunc(ctx, system, prompt, maxTokens, tool)
	}
	return nil, nil
}

// GetModel implements Messager.
func (m *MockMessager) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

var _ Messager = (*MockMessager)(nil)
