package prodex

import (
	"context"
	"fmt"
	"time"

	domanalysis "github.com/kailas-cloud/prodex/internal/domain/analysis"
	"github.com/kailas-cloud/prodex/internal/domain/search/filter"
	"github.com/kailas-cloud/prodex/internal/domain/search/request"
	"github.com/kailas-cloud/prodex/internal/domain/search/result"
)

// SearchOption refines a search.
type SearchOption func(*searchParams)

type searchParams struct {
	limit    int
	offset   int
	category string
	brands   []string
	minPrice float64
	maxPrice float64
}

// Limit sets the page size (default 20, max 100).
func Limit(n int) SearchOption { return func(p *searchParams) { p.limit = n } }

// Offset skips the first n ranked results.
func Offset(n int) SearchOption { return func(p *searchParams) { p.offset = n } }

// Category restricts results to one category.
func Category(c string) SearchOption { return func(p *searchParams) { p.category = c } }

// Brands restricts results to the given brands.
func Brands(b ...string) SearchOption { return func(p *searchParams) { p.brands = b } }

// MinPrice sets a lower price bound.
func MinPrice(v float64) SearchOption { return func(p *searchParams) { p.minPrice = v } }

// MaxPrice sets an upper price bound.
func MaxPrice(v float64) SearchOption { return func(p *searchParams) { p.maxPrice = v } }

// Search ranks catalog products against a free-text query.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (_ SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	var params searchParams
	for _, o := range opts {
		o(&params)
	}
	flt, err := filter.New(params.category, params.brands, params.minPrice, params.maxPrice)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req, err := request.New(query, params.limit, params.offset, flt)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	resp, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	c.obs.observeResults("search", len(resp.Results))
	return SearchResult{
		Query:       resp.Query,
		Analysis:    fromDomainAnalysis(&resp.Analysis),
		Hits:        toHits(resp.Results),
		Total:       resp.Total,
		Suggestions: resp.Suggestions,
		Mode:        string(resp.Mode),
		Elapsed:     resp.Elapsed,
	}, nil
}

// Similar returns products close to the given one, excluding it.
// limit 0 means 10; minScore 0 means the configured similar threshold.
func (c *Client) Similar(ctx context.Context, productID string, limit int, minScore float64) (_ []Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe("similar", start, err) }()

	req, err := request.NewSimilar(productID, limit, minScore)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	results, err := c.searchSvc.SimilarTo(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("similar: %w", err)
	}
	c.obs.observeResults("similar", len(results))
	return toHits(results), nil
}

func toHits(results []result.Result) []Hit {
	hits := make([]Hit, len(results))
	for i := range results {
		p := results[i].Product()
		hits[i] = Hit{Product: fromDomainProduct(&p), Score: results[i].Score()}
	}
	return hits
}

func fromDomainAnalysis(a *domanalysis.Analysis) Analysis {
	out := Analysis{
		Intent:     string(a.Intent()),
		Category:   a.Category(),
		Brands:     a.Brands(),
		Confidence: a.Confidence(),
		Source:     string(a.Source()),
	}
	if pr := a.PriceRange(); pr != nil {
		out.MinPrice, out.MaxPrice = pr.Min, pr.Max
	}
	return out
}
