package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentBinding maps a user to their external voice-agent resources: a
// content-creation agent/LLM pair and an onboarding-interview agent/LLM pair.
// Provisioned lazily on first authenticated session. The LLM prompt text is
// the only mutable external state, rewritten whenever persona or knowledge
// changes.
type AgentBinding struct {
	UserID            uuid.UUID `json:"user_id"`
	AgentID           string    `json:"agent_id"`
	LLMID             string    `json:"llm_id"`
	OnboardingAgentID string    `json:"onboarding_agent_id"`
	OnboardingLLMID   string    `json:"onboarding_llm_id"`
	CreatedAt         time.Time `json:"created_at"`
}
