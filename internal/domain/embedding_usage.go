package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage collects provider token usage for a single request.
// The handler installs it, the embedding client fills it, the handler
// reports it as a response header.
type EmbeddingUsage struct {
	TotalTokens int
	Used        bool // true once the provider (or the query memo) served a vector
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}
