package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/embeddings"
	"github.com/resonant-ai/resonant-engine/pkg/llm"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/prompts"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
	"github.com/resonant-ai/resonant-engine/pkg/retry"
)

// Default similarity search parameters for content-generation context.
const (
	DefaultMatchCount     = 5
	DefaultMatchThreshold = 0.7
	promptSummaryLimit    = 20
)

// KnowledgeService extracts facts from transcripts and manages the per-user
// knowledge base.
type KnowledgeService interface {
	// ExtractFromTranscript returns the distinct user-attributable facts in a
	// transcript. An empty result is not an error.
	ExtractFromTranscript(ctx context.Context, transcript string) ([]models.KnowledgePoint, error)

	// StorePoints persists extracted points as entries with fresh embeddings.
	StorePoints(ctx context.Context, userID uuid.UUID, points []models.KnowledgePoint) ([]*models.KnowledgeEntry, error)

	// List returns all of a user's entries, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeEntry, error)

	// Create persists one user-authored entry, summarizing and embedding it.
	Create(ctx context.Context, userID uuid.UUID, title, content string) (*models.KnowledgeEntry, error)

	// Update rewrites an entry. The summary is regenerated from the new
	// content and the embedding from title + " " + content.
	Update(ctx context.Context, userID, id uuid.UUID, title, content string) (*models.KnowledgeEntry, error)

	// Delete removes an entry owned by the user.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// MatchEntries embeds the query and returns at most k entries of the user
	// at or above the similarity threshold, best first.
	MatchEntries(ctx context.Context, query string, userID uuid.UUID, k int, threshold float64) ([]*models.MemoryMatch, error)

	// RecentSummaries returns the newest entry summaries for prompt composition.
	RecentSummaries(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type knowledgeService struct {
	entryRepo repositories.EntryRepository
	messager  llm.Messager
	embedder  embeddings.Generator
	logger    *zap.Logger
}

// NewKnowledgeService creates a new knowledge service with dependencies.
func NewKnowledgeService(
	entryRepo repositories.EntryRepository,
	messager llm.Messager,
	embedder embeddings.Generator,
	logger *zap.Logger,
) KnowledgeService {
	return &knowledgeService{
		entryRepo: entryRepo,
		messager:  messager,
		embedder:  embedder,
		logger:    logger,
	}
}

var _ KnowledgeService = (*knowledgeService)(nil)

// extractionTool is the structured-output schema for knowledge extraction.
var extractionTool = llm.ToolSchema{
	Name:        "record_knowledge",
	Description: "Record the distinct facts the user stated during the conversation.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"points": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":   map[string]any{"type": "string", "description": "Short label for the fact"},
						"content": map[string]any{"type": "string", "description": "The fact in one or two sentences"},
						"summary": map[string]any{"type": "string", "description": "One-line summary"},
					},
					"required": []string{"title", "content", "summary"},
				},
			},
		},
		"required": []string{"points"},
	},
}

func (s *knowledgeService) ExtractFromTranscript(ctx context.Context, transcript string) ([]models.KnowledgePoint, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, nil
	}

	raw, err := retry.DoWithResult(ctx, retry.LLMConfig(), func() (json.RawMessage, error) {
		return s.messager.CreateToolMessage(ctx,
			prompts.KnowledgeExtractionSystem,
			"Transcript:\n\n"+transcript,
			2048, extractionTool)
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge extraction: %w", err)
	}

	var result struct {
		Points []models.KnowledgePoint `json:"points"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("knowledge extraction: parse tool output: %w", err)
	}

	points := make([]models.KnowledgePoint, 0, len(result.Points))
	for _, p := range result.Points {
		if p.Title == "" || p.Content == "" {
			continue
		}
		if p.Summary == "" {
			p.Summary = p.Title
		}
		points = append(points, p)
	}

	s.logger.Info("Extracted knowledge points", zap.Int("count", len(points)))
	return points, nil
}

func (s *knowledgeService) StorePoints(ctx context.Context, userID uuid.UUID, points []models.KnowledgePoint) ([]*models.KnowledgeEntry, error) {
	entries := make([]*models.KnowledgeEntry, 0, len(points))
	for _, p := range points {
		entry := &models.KnowledgeEntry{
			UserID:  userID,
			Title:   p.Title,
			Content: p.Content,
			Summary: p.Summary,
		}

		vec, err := s.embedder.Generate(ctx, entry.EmbeddingText())
		if err != nil {
			// Never store a zero vector in place of a failed embedding.
			return entries, fmt.Errorf("embed entry %q: %w", p.Title, err)
		}
		entry.Embedding = pgvector.NewVector(vec)

		if err := s.entryRepo.Insert(ctx, entry); err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *knowledgeService) List(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeEntry, error) {
	return s.entryRepo.GetByUser(ctx, userID)
}

func (s *knowledgeService) Create(ctx context.Context, userID uuid.UUID, title, content string) (*models.KnowledgeEntry, error) {
	summary, err := s.summarize(ctx, title, content)
	if err != nil {
		return nil, err
	}

	entry := &models.KnowledgeEntry{
		UserID:  userID,
		Title:   title,
		Content: content,
		Summary: summary,
	}

	vec, err := s.embedder.Generate(ctx, entry.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("embed entry: %w", err)
	}
	entry.Embedding = pgvector.NewVector(vec)

	if err := s.entryRepo.Insert(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *knowledgeService) Update(ctx context.Context, userID, id uuid.UUID, title, content string) (*models.KnowledgeEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, title, content)
	if err != nil {
		return nil, err
	}

	entry.Title = title
	entry.Content = content
	entry.Summary = summary

	// Content changed, so the embedding must change with it.
	vec, err := s.embedder.Generate(ctx, entry.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("embed entry: %w", err)
	}
	entry.Embedding = pgvector.NewVector(vec)

	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *knowledgeService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.entryRepo.Delete(ctx, userID, id)
}

func (s *knowledgeService) MatchEntries(ctx context.Context, query string, userID uuid.UUID, k int, threshold float64) ([]*models.MemoryMatch, error) {
	if k <= 0 {
		k = DefaultMatchCount
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	vec, err := s.embedder.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return s.entryRepo.Match(ctx, vec, userID, threshold, k)
}

func (s *knowledgeService) RecentSummaries(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.entryRepo.RecentSummaries(ctx, userID, promptSummaryLimit)
}

// summarize produces the one-line summary stored alongside an entry.
func (s *knowledgeService) summarize(ctx context.Context, title, content string) (string, error) {
	text, err := retry.DoWithResult(ctx, retry.LLMConfig(), func() (string, error) {
		return s.messager.CreateMessage(ctx,
			"Summarize the following fact in a single short sentence. Return only the sentence.",
			title+": "+content,
			256)
	})
	if err != nil {
		return "", fmt.Errorf("summarize entry: %w", err)
	}

	summary := strings.TrimSpace(text)
	if summary == "" {
		summary = title
	}
	return summary, nil
}
