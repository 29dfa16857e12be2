package prodex

import "context"

// Embedder converts text to vector embeddings.
// Without one, search runs in keyword mode.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator completes a text prompt. Optional: it powers AI query analysis
// and related-search suggestions; rule-based fallbacks apply without it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
