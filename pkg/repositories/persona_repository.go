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

// PersonaRepository provides data access for user personas.
// One row per user with insert-or-replace semantics; personas are never
// hard-deleted.
type PersonaRepository interface {
	Upsert(ctx context.Context, persona *models.Persona) error
	Get(ctx context.Context, userID uuid.UUID) (*models.Persona, error)
}

type personaRepository struct {
	db *database.DB
}

// NewPersonaRepository creates a new PersonaRepository.
func NewPersonaRepository(db *database.DB) PersonaRepository {
	return &personaRepository{db: db}
}

var _ PersonaRepository = (*personaRepository)(nil)

func (r *personaRepository) Upsert(ctx context.Context, persona *models.Persona) error {
	persona.UpdatedAt = time.Now()

	query := `
		INSERT INTO user_personas (
			user_id, introduction, uniqueness, audience, value_proposition,
			style, goals, scraped_profile, scraped_posts, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id)
		DO UPDATE SET
			introduction = EXCLUDED.introduction,
			uniqueness = EXCLUDED.uniqueness,
			audience = EXCLUDED.audience,
			value_proposition = EXCLUDED.value_proposition,
			style = EXCLUDED.style,
			goals = EXCLUDED.goals,
			scraped_profile = COALESCE(EXCLUDED.scraped_profile, user_personas.scraped_profile),
			scraped_posts = COALESCE(EXCLUDED.scraped_posts, user_personas.scraped_posts),
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		persona.UserID, persona.Introduction, persona.Uniqueness, persona.Audience,
		persona.ValueProposition, persona.Style, persona.Goals,
		persona.ScrapedProfile, persona.ScrapedPosts, persona.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert persona: %w", err)
	}

	return nil
}

func (r *personaRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Persona, error) {
	query := `
		SELECT user_id, introduction, uniqueness, audience, value_proposition,
			style, goals, scraped_profile, scraped_posts, updated_at
		FROM user_personas
		WHERE user_id = $1`

	var p models.Persona
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Introduction, &p.Uniqueness, &p.Audience, &p.ValueProposition,
		&p.Style, &p.Goals, &p.ScrapedProfile, &p.ScrapedPosts, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}

	return &p, nil
}
