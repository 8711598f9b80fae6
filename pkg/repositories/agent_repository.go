package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/database"
	"github.com/resonant-ai/resonant-engine/pkg/models"
)

// AgentRepository provides data access for voice agent bindings.
type AgentRepository interface {
	Insert(ctx context.Context, binding *models.AgentBinding) error
	Get(ctx context.Context, userID uuid.UUID) (*models.AgentBinding, error)
}

type agentRepository struct {
	db *database.DB
}

// NewAgentRepository creates a new AgentRepository.
func NewAgentRepository(db *database.DB) AgentRepository {
	return &agentRepository{db: db}
}

var _ AgentRepository = (*agentRepository)(nil)

// Insert stores a binding. ON CONFLICT DO NOTHING keeps lazy provisioning
// idempotent if two first-session requests race.
func (r *agentRepository) Insert(ctx context.Context, binding *models.AgentBinding) error {
	binding.CreatedAt = time.Now()

	query := `
		INSERT INTO user_agent (
			user_id, agent_id, llm_id, onboarding_agent_id, onboarding_llm_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		binding.UserID, binding.AgentID, binding.LLMID,
		binding.OnboardingAgentID, binding.OnboardingLLMID, binding.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert agent binding: %w", err)
	}

	return nil
}

func (r *agentRepository) Get(ctx context.Context, userID uuid.UUID) (*models.AgentBinding, error) {
	query := `
		SELECT user_id, agent_id, llm_id, onboarding_agent_id, onboarding_llm_id, created_at
		FROM user_agent
		WHERE user_id = $1`

	var b models.AgentBinding
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&b.UserID, &b.AgentID, &b.LLMID,
		&b.OnboardingAgentID, &b.OnboardingLLMID, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent binding: %w", err)
	}

	return &b, nil
}
