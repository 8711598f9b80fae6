package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// KnowledgeEntry is a discrete fact extracted from a conversation, stored with
// a vector embedding for semantic retrieval. Entries are owned exclusively by
// one user. The embedding is always computed from title + " " + content (never
// from the summary) and is regenerated whenever the content changes, so a
// stale embedding is never served.
type KnowledgeEntry struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Summary   string          `json:"summary"`
	Embedding pgvector.Vector `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// EmbeddingText returns the canonical text an entry's embedding is computed from.
func (e *KnowledgeEntry) EmbeddingText() string {
	return e.Title + " " + e.Content
}

// KnowledgePoint is one fact extracted from a transcript before persistence.
type KnowledgePoint struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// MemoryMatch is a similarity-search hit from the knowledge base.
type MemoryMatch struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Summary    string    `json:"summary"`
	Similarity float64   `json:"similarity"`
}
