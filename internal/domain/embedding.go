package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator produces free text from a prompt (query analysis, related searches).
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// ZeroVector returns the "no signal" vector of the given dimension.
func ZeroVector(dim int) []float32 {
	if dim < 0 {
		dim = 0
	}
	return make([]float32, dim)
}

// IsZeroVector reports whether v is empty or has only zero components.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
