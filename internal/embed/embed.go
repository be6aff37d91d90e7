package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// Embedder produces dense vectors for document texts and search queries.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// Config points the client at an OpenAI-compatible embeddings endpoint. A
// local Ollama server works with Token left at "none".
type Config struct {
	Host      string
	Model     string
	Token     string
	Dimension int
}

// Client embeds texts through an OpenAI-compatible API.
type Client struct {
	embedder embeddings.Embedder
	dim      int
	logger   *zap.Logger
}

// New builds the embedding client. An empty token becomes "none" so local
// services that skip authentication work out of the box.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	token := cfg.Token
	if token == "" {
		token = "none"
	}
	llm, err := openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrap embedder: %w", err)
	}
	return &Client{embedder: embedder, dim: cfg.Dimension, logger: logger}, nil
}

// EmbedTexts embeds a batch of document texts, one vector per text in order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed %d texts: got %d vectors back", len(texts), len(vectors))
	}
	c.logger.Debug("embedded batch",
		zap.Int("texts", len(texts)),
		zap.Duration("took", time.Since(start)))
	return vectors, nil
}

// EmbedQuery embeds one search query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}

// Dim reports the expected vector width, zero when unchecked.
func (c *Client) Dim() int { return c.dim }
