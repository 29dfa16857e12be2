package reindex

import (
	"context"
	"time"

	domemb "github.com/kailas-cloud/prodex/internal/domain/embedding"
	"github.com/kailas-cloud/prodex/internal/domain/product"
	"github.com/kailas-cloud/prodex/internal/usecase/embedding"
)

// Catalog scans products and stamps successful embeddings.
type Catalog interface {
	Each(ctx context.Context, fn func(p product.Product) error) error
	MarkEmbeddingUpdated(ctx context.Context, id string, t time.Time) error
}

// RecordStore reads and replaces embedding records.
type RecordStore interface {
	GetMany(ctx context.Context, productIDs []string) (map[string]domemb.Record, error)
	Upsert(ctx context.Context, rec *domemb.Record) error
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes product text.
type Embedder interface {
	Embed(ctx context.Context, text string) embedding.Result
	Model() string
	Dimension() int
}
