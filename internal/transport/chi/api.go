package chi

import "time"

// ErrorCode is a machine-readable error class.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeProductNotFound    ErrorCode = "product_not_found"
	ErrorCodeEmbeddingNotFound  ErrorCode = "embedding_not_found"
	ErrorCodeRankingUnavailable ErrorCode = "ranking_unavailable"
	ErrorCodeReindexInProgress  ErrorCode = "reindex_in_progress"
	ErrorCodeStoreUnavailable   ErrorCode = "store_unavailable"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer except degraded search.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query    string   `json:"query"`
	Limit    *int     `json:"limit,omitempty"`
	Offset   *int     `json:"offset,omitempty"`
	Category *string  `json:"category,omitempty"`
	Brands   []string `json:"brands,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// Search response status values.
const (
	SearchStatusSuccess     = "success"
	SearchStatusUnavailable = "unavailable"
)

// SearchResponse is the body of POST /search.
type SearchResponse struct {
	Query        string         `json:"query"`
	Analysis     *QueryAnalysis `json:"analysis,omitempty"`
	Products     []ProductItem  `json:"products"`
	TotalCount   int            `json:"total_count"`
	SearchTimeMs float64        `json:"search_time_ms"`
	Suggestions  []string       `json:"suggestions"`
	Mode         string         `json:"mode,omitempty"`
	Status       string         `json:"status"`
}

// QueryAnalysis is the structured interpretation of a query.
type QueryAnalysis struct {
	Intent        string      `json:"intent"`
	Category      string      `json:"category"`
	Brands        []string    `json:"brands"`
	PriceRange    *PriceRange `json:"price_range,omitempty"`
	Confidence    float64     `json:"confidence"`
	EnhancedQuery string      `json:"enhanced_query"`
	Source        string      `json:"source"`
}

// PriceRange bounds a price; zero bounds are open and omitted.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ProductItem is one ranked product.
type ProductItem struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Brand           string            `json:"brand,omitempty"`
	Category        string            `json:"category,omitempty"`
	Description     string            `json:"description,omitempty"`
	Features        []string          `json:"features,omitempty"`
	Specifications  map[string]string `json:"specifications,omitempty"`
	Price           float64           `json:"price"`
	OriginalPrice   *float64          `json:"original_price,omitempty"`
	Currency        string            `json:"currency"`
	Rating          *float64          `json:"rating,omitempty"`
	ReviewCount     int               `json:"review_count"`
	Availability    string            `json:"availability"`
	Source          string            `json:"source,omitempty"`
	SourceURL       string            `json:"source_url,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	SimilarityScore float64           `json:"similarity_score"`
}

// SuggestionsResponse is the body of the autocomplete, popular and related endpoints.
type SuggestionsResponse struct {
	Query       string   `json:"query,omitempty"`
	Suggestions []string `json:"suggestions"`
}

// TrendingItem is a query with its count in the period.
type TrendingItem struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// TrendingResponse is the body of GET /search/trending.
type TrendingResponse struct {
	Period string         `json:"period"`
	Items  []TrendingItem `json:"items"`
}

// SimilarResponse is the body of GET /products/{id}/similar.
type SimilarResponse struct {
	ProductID string        `json:"product_id"`
	Products  []ProductItem `json:"products"`
}

// ReindexJob is the state of a reindex job.
type ReindexJob struct {
	JobID       string     `json:"job_id,omitempty"`
	State       string     `json:"state"`
	Force       bool       `json:"force"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Errors      int        `json:"errors"`
	Remaining   int        `json:"remaining"`
	SuccessRate float64    `json:"success_rate"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	DurationMs  int64      `json:"duration_ms"`
	Error       string     `json:"error,omitempty"`
}

// EmbeddingStats is the body of GET /admin/embeddings/stats.
type EmbeddingStats struct {
	TotalProducts      int     `json:"total_products"`
	TotalEmbeddings    int     `json:"total_embeddings"`
	Missing            int     `json:"missing"`
	Stale              int     `json:"stale"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	Dimension          int     `json:"dimension"`
	Model              string  `json:"model"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
