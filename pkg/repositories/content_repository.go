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

// ContentRepository provides data access for content items (post drafts).
type ContentRepository interface {
	Insert(ctx context.Context, item *models.ContentItem) error
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.ContentItem, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.ContentItem, error)
	UpdateVariants(ctx context.Context, userID, id uuid.UUID, xDescription, linkedinDescription string) error
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type contentRepository struct {
	db *database.DB
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *database.DB) ContentRepository {
	return &contentRepository{db: db}
}

var _ ContentRepository = (*contentRepository)(nil)

func (r *contentRepository) Insert(ctx context.Context, item *models.ContentItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	if item.Status == "" {
		item.Status = models.ContentStatusDraft
	}
	if item.ContentType == "" {
		item.ContentType = models.ContentTypePost
	}

	query := `
		INSERT INTO content_items (
			id, user_id, title, details, x_description, linkedin_description,
			content_type, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.UserID, item.Title, item.Details,
		item.XDescription, item.LinkedInDescription,
		item.ContentType, item.Status, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert content item: %w", err)
	}

	return nil
}

func (r *contentRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.ContentItem, error) {
	query := `
		SELECT id, user_id, title, details, x_description, linkedin_description,
			content_type, status, created_at
		FROM content_items
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get content items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.ContentItem, 0)
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content items: %w", err)
	}

	return items, nil
}

func (r *contentRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.ContentItem, error) {
	query := `
		SELECT id, user_id, title, details, x_description, linkedin_description,
			content_type, status, created_at
		FROM content_items
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRow(ctx, query, id, userID)
	item, err := scanContentItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *contentRepository) UpdateVariants(ctx context.Context, userID, id uuid.UUID, xDescription, linkedinDescription string) error {
	query := `
		UPDATE content_items
		SET x_description = $3, linkedin_description = $4
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID, xDescription, linkedinDescription)
	if err != nil {
		return fmt.Errorf("failed to update content variants: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *contentRepository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) error {
	query := `
		UPDATE content_items
		SET status = $3
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID, status)
	if err != nil {
		return fmt.Errorf("failed to update content status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *contentRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM content_items WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete content item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanContentItem(row pgx.Row) (*models.ContentItem, error) {
	var item models.ContentItem

	err := row.Scan(
		&item.ID, &item.UserID, &item.Title, &item.Details,
		&item.XDescription, &item.LinkedInDescription,
		&item.ContentType, &item.Status, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan content item: %w", err)
	}

	return &item, nil
}
