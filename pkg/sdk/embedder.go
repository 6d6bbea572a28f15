package venuesearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahraevent/venuesearch/internal/domain"
)

// Embedder converts text to vector embeddings. Optional: without one only
// the lexical indexes are built.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer produces chat completions for a model.
type Completer interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopCompleter fails every call, so the pipeline takes its deterministic fallbacks.
type noopCompleter struct{}

func (noopCompleter) Complete(_ context.Context, _, _, _ string) (string, error) {
	return "", errors.New("venuesearch: completer not configured (use WithOpenAI or WithCompleter)")
}
