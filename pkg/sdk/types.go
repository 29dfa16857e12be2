package prodex

import "time"

// Product is a catalog item for the SDK API.
type Product struct {
	ID             string
	Name           string
	Brand          string
	Category       string
	Subcategory    string
	Description    string
	Features       []string
	Specifications map[string]string
	Price          float64
	OriginalPrice  float64
	Currency       string
	Rating         float64
	ReviewCount    int
	Availability   string
	Source         string
	SourceURL      string
	Tags           []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Hit is one ranked product.
type Hit struct {
	Product Product
	Score   float64
}

// Analysis is the interpreted intent of a query.
type Analysis struct {
	Intent     string
	Category   string
	Brands     []string
	MinPrice   float64
	MaxPrice   float64
	Confidence float64
	Source     string
}

// SearchResult is the outcome of Client.Search.
type SearchResult struct {
	Query       string
	Analysis    Analysis
	Hits        []Hit
	Total       int
	Suggestions []string
	Mode        string // "semantic" or "keyword"
	Elapsed     time.Duration
}

// ReindexReport summarizes a reindex run.
type ReindexReport struct {
	JobID       string
	State       string
	Total       int
	Processed   int
	Errors      int
	SuccessRate float64 // Processed/Total, 0 when nothing was selected
	Duration    time.Duration
}

// Stats describes embedding coverage of the catalog.
type Stats struct {
	TotalProducts      int
	TotalEmbeddings    int
	Missing            int
	Stale              int
	CoveragePercentage float64
	Dimension          int
	Model              string
}
