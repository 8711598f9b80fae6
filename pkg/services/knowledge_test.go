package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/embeddings"
	"github.com/resonant-ai/resonant-engine/pkg/llm"
	"github.com/resonant-ai/resonant-engine/pkg/models"
)

func TestExtractFromTranscript(t *testing.T) {
	t.Run("empty transcript yields nothing without an LLM call", func(t *testing.T) {
		messager := llm.NewMockMessager()
		svc := NewKnowledgeService(&mockEntryRepo{}, messager, &embeddings.MockGenerator{}, zap.NewNop())

		points, err := svc.ExtractFromTranscript(context.Background(), "  \n ")
		require.NoError(t, err)
		assert.Empty(t, points)
		assert.Equal(t, 0, messager.CreateToolMessageCalls)
	})

	t.Run("parses points and fills missing summaries", func(t *testing.T) {
		messager := llm.NewMockMessager()
		messager.CreateToolMessageFunc = func(ctx context.Context, system, prompt string, maxTokens int, tool llm.ToolSchema) (json.RawMessage, error) {
			return []byte(`{"points": [
				{"title": "Career", "content": "Left banking in 2019", "summary": "Left banking in 2019"},
				{"title": "Hobby", "content": "Runs ultramarathons", "summary": ""},
				{"title": "", "content": "orphaned", "summary": "s"}
			]}`), nil
		}
		svc := NewKnowledgeService(&mockEntryRepo{}, messager, &embeddings.MockGenerator{}, zap.NewNop())

		points, err := svc.ExtractFromTranscript(context.Background(), "long conversation")
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, "Left banking in 2019", points[0].Summary)
		assert.Equal(t, "Hobby", points[1].Summary)
	})

	t.Run("no extractable facts is not an error", func(t *testing.T) {
		messager := llm.NewMockMessager()
		messager.CreateToolMessageFunc = func(ctx context.Context, system, prompt string, maxTokens int, tool llm.ToolSchema) (json.RawMessage, error) {
			return []byte(`{"points": []}`), nil
		}
		svc := NewKnowledgeService(&mockEntryRepo{}, messager, &embeddings.MockGenerator{}, zap.NewNop())

		points, err := svc.ExtractFromTranscript(context.Background(), "small talk")
		require.NoError(t, err)
		assert.Empty(t, points)
	})
}

func TestStorePoints(t *testing.T) {
	userID := uuid.New()

	t.Run("embeds title plus content and inserts", func(t *testing.T) {
		var embedded []string
		embedder := &embeddings.MockGenerator{
			GenerateFunc: func(ctx context.Context, text string) ([]float32, error) {
				embedded = append(embedded, text)
				return make([]float32, 1536), nil
			},
		}
		var inserted []*models.KnowledgeEntry
		repo := &mockEntryRepo{
			InsertFunc: func(ctx context.Context, entry *models.KnowledgeEntry) error {
				inserted = append(inserted, entry)
				return nil
			},
		}
		svc := NewKnowledgeService(repo, llm.NewMockMessager(), embedder, zap.NewNop())

		points := []models.KnowledgePoint{
			{Title: "Career", Content: "Left banking", Summary: "Left banking"},
			{Title: "Hobby", Content: "Ultrarunner", Summary: "Ultrarunner"},
		}
		entries, err := svc.StorePoints(context.Background(), userID, points)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, []string{"Career Left banking", "Hobby Ultrarunner"}, embedded)
		require.Len(t, inserted, 2)
		assert.Equal(t, userID, inserted[0].UserID)
	})

	t.Run("embedding failure stops the batch", func(t *testing.T) {
		embedder := &embeddings.MockGenerator{
			GenerateFunc: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("quota exceeded")
			},
		}
		inserts := 0
		repo := &mockEntryRepo{
			InsertFunc: func(ctx context.Context, entry *models.KnowledgeEntry) error {
				inserts++
				return nil
			},
		}
		svc := NewKnowledgeService(repo, llm.NewMockMessager(), embedder, zap.NewNop())

		_, err := svc.StorePoints(context.Background(), userID, []models.KnowledgePoint{{Title: "T", Content: "C", Summary: "S"}})
		require.Error(t, err)
		assert.Equal(t, 0, inserts)
	})
}

func TestKnowledgeCreate(t *testing.T) {
	userID := uuid.New()

	messager := llm.NewMockMessager()
	messager.CreateMessageFunc = func(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
		return " A one-line summary. ", nil
	}
	var inserted *models.KnowledgeEntry
	repo := &mockEntryRepo{
		InsertFunc: func(ctx context.Context, entry *models.KnowledgeEntry) error {
			inserted = entry
			return nil
		},
	}
	svc := NewKnowledgeService(repo, messager, &embeddings.MockGenerator{}, zap.NewNop())

	entry, err := svc.Create(context.Background(), userID, "Origin story", "Started the company in a garage.")
	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.Equal(t, "A one-line summary.", entry.Summary)
	assert.Equal(t, userID, entry.UserID)
	assert.NotEmpty(t, entry.Embedding.Slice())
}

func TestKnowledgeUpdate(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("rewrites summary and embedding from new content", func(t *testing.T) {
		var embeddedText string
		embedder := &embeddings.MockGenerator{
			GenerateFunc: func(ctx context.Context, text string) ([]float32, error) {
				embeddedText = text
				return make([]float32, 1536), nil
			},
		}
		messager := llm.NewMockMessager()
		messager.CreateMessageFunc = func(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
			return "Fresh summary", nil
		}
		var updated *models.KnowledgeEntry
		repo := &mockEntryRepo{
			GetByIDFunc: func(ctx context.Context, uid, id uuid.UUID) (*models.KnowledgeEntry, error) {
				return &models.KnowledgeEntry{ID: id, UserID: uid, Title: "Old", Content: "Old content", Summary: "Old summary"}, nil
			},
			UpdateFunc: func(ctx context.Context, entry *models.KnowledgeEntry) error {
				updated = entry
				return nil
			},
		}
		svc := NewKnowledgeService(repo, messager, embedder, zap.NewNop())

		entry, err := svc.Update(context.Background(), userID, entryID, "New", "New content")
		require.NoError(t, err)
		assert.Equal(t, "New New content", embeddedText)
		assert.Equal(t, "Fresh summary", entry.Summary)
		require.NotNil(t, updated)
		assert.Equal(t, "New", updated.Title)
	})

	t.Run("missing entry surfaces the repo error", func(t *testing.T) {
		repo := &mockEntryRepo{
			GetByIDFunc: func(ctx context.Context, uid, id uuid.UUID) (*models.KnowledgeEntry, error) {
				return nil, errors.New("not found")
			},
		}
		svc := NewKnowledgeService(repo, llm.NewMockMessager(), &embeddings.MockGenerator{}, zap.NewNop())

		_, err := svc.Update(context.Background(), userID, entryID, "T", "C")
		require.Error(t, err)
	})
}

func TestMatchEntries(t *testing.T) {
	userID := uuid.New()

	t.Run("passes the query embedding and parameters through", func(t *testing.T) {
		var gotThreshold float64
		var gotCount int
		var gotVec []float32
		repo := &mockEntryRepo{
			MatchFunc: func(ctx context.Context, queryEmbedding []float32, uid uuid.UUID, threshold float64, count int) ([]*models.MemoryMatch, error) {
				gotVec = queryEmbedding
				gotThreshold = threshold
				gotCount = count
				return []*models.MemoryMatch{{Summary: "hit"}}, nil
			},
		}
		svc := NewKnowledgeService(repo, llm.NewMockMessager(), &embeddings.MockGenerator{}, zap.NewNop())

		matches, err := svc.MatchEntries(context.Background(), "query", userID, 3, 0.8)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, 0.8, gotThreshold)
		assert.Equal(t, 3, gotCount)
		assert.Len(t, gotVec, 1536)
	})

	t.Run("zero parameters fall back to defaults", func(t *testing.T) {
		var gotThreshold float64
		var gotCount int
		repo := &mockEntryRepo{
			MatchFunc: func(ctx context.Context, queryEmbedding []float32, uid uuid.UUID, threshold float64, count int) ([]*models.MemoryMatch, error) {
				gotThreshold = threshold
				gotCount = count
				return nil, nil
			},
		}
		svc := NewKnowledgeService(repo, llm.NewMockMessager(), &embeddings.MockGenerator{}, zap.NewNop())

		_, err := svc.MatchEntries(context.Background(), "query", userID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultMatchThreshold, gotThreshold)
		assert.Equal(t, DefaultMatchCount, gotCount)
	})

	t.Run("embedding failure surfaces", func(t *testing.T) {
		embedder := &embeddings.MockGenerator{
			GenerateFunc: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("embedding api down")
			},
		}
		svc := NewKnowledgeService(&mockEntryRepo{}, llm.NewMockMessager(), embedder, zap.NewNop())

		_, err := svc.MatchEntries(context.Background(), "query", userID, 5, 0.7)
		require.Error(t, err)
	})
}
