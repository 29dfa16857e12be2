package request

import "fmt"

// SimilarRequest is a validated "more like this product" query.
type SimilarRequest struct {
	productID string
	limit     int
	minScore  float64
}

// NewSimilar validates similar request parameters.
// minScore 0 means "use the configured similar threshold".
func NewSimilar(productID string, limit int, minScore float64) (SimilarRequest, error) {
	if productID == "" {
		return SimilarRequest{}, fmt.Errorf("product ID is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if minScore < 0 || minScore > 1 {
		return SimilarRequest{}, fmt.Errorf("min_score must be between 0 and 1")
	}
	return SimilarRequest{productID: productID, limit: limit, minScore: minScore}, nil
}

// ProductID returns the reference product.
func (r *SimilarRequest) ProductID() string { return r.productID }

// Limit returns the maximum results to return.
func (r *SimilarRequest) Limit() int { return r.limit }

// MinScore returns the similarity threshold override (0 = default).
func (r *SimilarRequest) MinScore() float64 { return r.minScore }
