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

// SocialRepository provides data access for connected social accounts
// (user_auth table).
type SocialRepository interface {
	Upsert(ctx context.Context, account *models.SocialAccount) error
	Get(ctx context.Context, userID uuid.UUID, provider string) (*models.SocialAccount, error)
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}

type socialRepository struct {
	db *database.DB
}

// NewSocialRepository creates a new SocialRepository.
func NewSocialRepository(db *database.DB) SocialRepository {
	return &socialRepository{db: db}
}

var _ SocialRepository = (*socialRepository)(nil)

func (r *socialRepository) Upsert(ctx context.Context, account *models.SocialAccount) error {
	account.UpdatedAt = time.Now()

	query := `
		INSERT INTO user_auth (user_id, provider, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		account.UserID, account.Provider, account.AccessToken,
		account.RefreshToken, account.ExpiresAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert social account: %w", err)
	}

	return nil
}

func (r *socialRepository) Get(ctx context.Context, userID uuid.UUID, provider string) (*models.SocialAccount, error) {
	query := `
		SELECT user_id, provider, access_token, refresh_token, expires_at, updated_at
		FROM user_auth
		WHERE user_id = $1 AND provider = $2`

	var a models.SocialAccount
	err := r.db.QueryRow(ctx, query, userID, provider).Scan(
		&a.UserID, &a.Provider, &a.AccessToken, &a.RefreshToken, &a.ExpiresAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get social account: %w", err)
	}

	return &a, nil
}

func (r *socialRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	query := `DELETE FROM user_auth WHERE user_id = $1 AND provider = $2`

	result, err := r.db.Exec(ctx, query, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete social account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
