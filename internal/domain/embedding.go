package domain

import (
	"context"
	"fmt"
)

// KeyPrefix namespaces every Redis key written by this service.
const KeyPrefix = "vouchex:"

// DefaultVectorDim is the embedding dimensionality when the config omits it.
const DefaultVectorDim = 768

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbedOrFallback uses native batching when the embedder supports it,
// otherwise embeds each text individually. Order of results matches texts.
func BatchEmbedOrFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if be, ok := e.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		return res, nil
	}

	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// PrefixEmbedder is a domain decorator that prepends a fixed phrase before
// embedding. The retrieval engine uses it for facet-hint query prefixes.
type PrefixEmbedder struct {
	inner  Embedder
	prefix string
}

// NewPrefixEmbedder creates a decorator that prepends prefix to every text.
func NewPrefixEmbedder(inner Embedder, prefix string) *PrefixEmbedder {
	return &PrefixEmbedder{inner: inner, prefix: prefix}
}

// Embed prepends the prefix and delegates to the inner embedder.
func (e *PrefixEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.prefix+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("prefix embed: %w", err)
	}
	return result, nil
}
