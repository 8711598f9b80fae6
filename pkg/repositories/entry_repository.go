package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/database"
	"github.com/resonant-ai/resonant-engine/pkg/models"
)

// EntryRepository provides data access for knowledge entries.
// All operations are scoped to the owning user; an id that belongs to a
// different user behaves as if it does not exist.
type EntryRepository interface {
	Insert(ctx context.Context, entry *models.KnowledgeEntry) error
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeEntry, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.KnowledgeEntry, error)
	Update(ctx context.Context, entry *models.KnowledgeEntry) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	RecentSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)
	Match(ctx context.Context, queryEmbedding []float32, userID uuid.UUID, threshold float64, count int) ([]*models.MemoryMatch, error)
}

type entryRepository struct {
	db *database.DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *database.DB) EntryRepository {
	return &entryRepository{db: db}
}

var _ EntryRepository = (*entryRepository)(nil)

func (r *entryRepository) Insert(ctx context.Context, entry *models.KnowledgeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO entries (id, user_id, title, content, summary, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Title, entry.Content, entry.Summary,
		entry.Embedding, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	return nil
}

func (r *entryRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeEntry, error) {
	query := `
		SELECT id, user_id, title, content, summary, embedding, created_at
		FROM entries
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.KnowledgeEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

func (r *entryRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.KnowledgeEntry, error) {
	query := `
		SELECT id, user_id, title, content, summary, embedding, created_at
		FROM entries
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRow(ctx, query, id, userID)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Update rewrites title, content, summary and embedding together. The
// embedding always travels with the content so a stale vector is never
// persisted.
func (r *entryRepository) Update(ctx context.Context, entry *models.KnowledgeEntry) error {
	query := `
		UPDATE entries
		SET title = $3, content = $4, summary = $5, embedding = $6
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Title, entry.Content, entry.Summary, entry.Embedding,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *entryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM entries WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// RecentSummaries returns the newest entry summaries for prompt composition.
func (r *entryRepository) RecentSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	query := `
		SELECT summary
		FROM entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]string, 0, limit)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summaries: %w", err)
	}

	return summaries, nil
}

// Match calls the match_entries SQL function: inner-product similarity search
// restricted to the user, at most count rows at or above threshold, ordered by
// descending similarity with ties broken by newest entry first.
func (r *entryRepository) Match(ctx context.Context, queryEmbedding []float32, userID uuid.UUID, threshold float64, count int) ([]*models.MemoryMatch, error) {
	query := `SELECT id, title, content, summary, similarity
		FROM match_entries($1, $2, $3, $4)`

	rows, err := r.db.Query(ctx, query,
		pgvector.NewVector(queryEmbedding), threshold, count, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to match entries: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.MemoryMatch, 0, count)
	for rows.Next() {
		var m models.MemoryMatch
		if err := rows.Scan(&m.ID, &m.Title, &m.Content, &m.Summary, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

func scanEntry(row pgx.Row) (*models.KnowledgeEntry, error) {
	var e models.KnowledgeEntry

	err := row.Scan(
		&e.ID, &e.UserID, &e.Title, &e.Content, &e.Summary, &e.Embedding, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	return &e, nil
}
