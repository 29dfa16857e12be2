package result

import "github.com/kailas-cloud/prodex/internal/domain/product"

// Result is a single ranked product.
type Result struct {
	product product.Product
	score   float64
}

// New creates a search result.
func New(p product.Product, score float64) Result {
	return Result{product: p, score: score}
}

// Product returns the matched catalog item.
func (r *Result) Product() product.Product { return r.product }

// ID returns the product identifier.
func (r *Result) ID() string { return r.product.ID() }

// Score returns the similarity score in [0,1].
func (r *Result) Score() float64 { return r.score }
