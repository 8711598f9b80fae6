package voice

import (
	"context"
	"fmt"
)

// MockPlatform is a configurable in-memory voice platform for tests.
type MockPlatform struct {
	// Prompts records the latest prompt per LLM id.
	Prompts map[string]string

	// CreateWebCallFunc overrides web call creation when set.
	CreateWebCallFunc func(ctx context.Context, agentID string) (*WebCall, error)

	// GetCallFunc overrides call lookup when set.
	GetCallFunc func(ctx context.Context, callID string) (*Call, error)

	// UpdateErr is returned by UpdateLLMPrompt when set.
	UpdateErr error

	nextID           int
	UpdatePromptCall int
}

// NewMockPlatform creates an empty mock platform.
func NewMockPlatform() *MockPlatform {
	return &MockPlatform{Prompts: make(map[string]string)}
}

func (m *MockPlatform) CreateLLM(ctx context.Context, prompt string) (string, error) {
	m.nextID++
	id := fmt.Sprintf("llm_%d", m.nextID)
	m.Prompts[id] = prompt
	return id, nil
}

func (m *MockPlatform) CreateAgent(ctx context.Context, llmID, name string) (string, error) {
	m.nextID++
	return fmt.Sprintf("agent_%d", m.nextID), nil
}

func (m *MockPlatform) UpdateLLMPrompt(ctx context.Context, llmID, prompt string) error {
	m.UpdatePromptCall++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.Prompts[llmID] = prompt
	return nil
}

func (m *MockPlatform) CreateWebCall(ctx context.Context, agentID string) (*WebCall, error) {
	if m.CreateWebCallFunc != nil {
		return m.CreateWebCallFunc(ctx, agentID)
	}
	return &WebCall{CallID: "call_1", AccessToken: "token_1", AgentID: agentID}, nil
}

func (m *MockPlatform) GetCall(ctx context.Context, callID string) (*Call, error) {
	if m.GetCallFunc != nil {
		return m.GetCallFunc(ctx, callID)
	}
	return &Call{CallID: callID, CallStatus: "ended"}, nil
}

var _ Platform = (*MockPlatform)(nil)
