package suggest

import (
	"context"

	domhist "github.com/kailas-cloud/prodex/internal/domain/history"
	"github.com/kailas-cloud/prodex/internal/domain/product"
)

// History reads aggregated query counters and the recent search log.
type History interface {
	Popular(ctx context.Context, limit int) ([]domhist.Count, error)
	Trending(ctx context.Context, days, limit int) ([]domhist.Count, error)
	Recent(ctx context.Context, limit int) ([]domhist.Entry, error)
}

// Catalog streams products for name completion.
type Catalog interface {
	Each(ctx context.Context, fn func(p product.Product) error) error
}
