package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"safetyintel/internal/embedding"
)

// Client embeds text through a local Ollama server.
type Client struct {
	api       *api.Client
	model     string
	timeout   time.Duration
	dimension int
}

// Config configures the Ollama embedder.
type Config struct {
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// NewClient creates an Ollama embedder.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", cfg.Dimension)
	}
	base := cfg.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		api:       api.NewClient(u, &http.Client{Timeout: t}),
		model:     cfg.Model,
		timeout:   t,
		dimension: cfg.Dimension,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "ollama" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.api.Embed(rCtx, &api.EmbedRequest{
		Model: c.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(res.Embeddings) == 0 || len(res.Embeddings[0]) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}
	return embedding.Fit(res.Embeddings[0], c.dimension), nil
}
