package search

import (
	"context"

	domanalysis "github.com/kailas-cloud/prodex/internal/domain/analysis"
	domemb "github.com/kailas-cloud/prodex/internal/domain/embedding"
	domhist "github.com/kailas-cloud/prodex/internal/domain/history"
	"github.com/kailas-cloud/prodex/internal/domain/product"
	"github.com/kailas-cloud/prodex/internal/usecase/embedding"
)

// Catalog reads products (the catalog collaborator).
type Catalog interface {
	Get(ctx context.Context, id string) (product.Product, error)
	Each(ctx context.Context, fn func(p product.Product) error) error
}

// EmbeddingReader reads stored product vectors (used by SimilarTo).
type EmbeddingReader interface {
	Get(ctx context.Context, productID string) (domemb.Record, error)
}

// Embedder vectorizes queries and, for products missing a record, product text.
// EmbedOrZero yields the zero vector when no query embedding is available.
type Embedder interface {
	EmbedOrZero(ctx context.Context, query string) []float32
	Embed(ctx context.Context, text string) embedding.Result
}

// Analyzer classifies a query. It never fails.
type Analyzer interface {
	Analyze(ctx context.Context, query string) domanalysis.Analysis
}

// HistoryRecorder logs searches for popular/trending suggestions.
type HistoryRecorder interface {
	Record(ctx context.Context, e domhist.Entry) error
}

// RelatedSuggester proposes follow-up queries.
type RelatedSuggester interface {
	Related(ctx context.Context, query string, count int) []string
}
