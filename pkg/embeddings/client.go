// Package embeddings wraps the embeddings provider. It converts free text
// into fixed-dimension vectors for storage and cosine-similarity search.
package embeddings

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Generator defines the interface for embedding generation.
// Failures propagate to the caller; a zero vector is never substituted, since
// it would corrupt similarity ranking.
type Generator interface {
	Generate(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Client generates embeddings via the OpenAI embeddings API.
type Client struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// Config holds configuration for creating an embeddings client.
type Config struct {
	APIKey     string
	Model      string // e.g. "text-embedding-3-small"
	Dimensions int    // fixed output dimension, e.g. 1536
}

// NewClient creates a new embeddings client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 1536
	}

	return &Client{
		client:     openai.NewClient(cfg.APIKey),
		model:      model,
		dimensions: dimensions,
		logger:     logger.Named("embeddings"),
	}, nil
}

// Generate returns the embedding vector for the input text.
func (c *Client) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text is empty")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(c.model),
		Input:      []string{text},
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != c.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimension: got %d, want %d", len(embedding), c.dimensions)
	}

	return embedding, nil
}

// Dimensions returns the configured vector dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

var _ Generator = (*Client)(nil)
