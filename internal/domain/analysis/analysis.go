package analysis

// Intent is the inferred purpose of a search query.
type Intent string

// Intent values.
const (
	Discovery  Intent = "discovery"
	Comparison Intent = "comparison"
	Specific   Intent = "specific"
)

// IsValid checks if the intent is one of the supported values.
func (i Intent) IsValid() bool {
	return i == Discovery || i == Comparison || i == Specific
}

// Source tells which path produced an analysis.
type Source string

// Source values.
const (
	SourceAI    Source = "ai"
	SourceRules Source = "rules"
)

// GeneralCategory is the category reported when none could be inferred.
const GeneralCategory = "general"

// RulesConfidence is the fixed confidence of the rule-based path.
const RulesConfidence = 0.6

// PriceRange is an optional price constraint. Zero bounds are open.
type PriceRange struct {
	Min float64
	Max float64
}

// IsEmpty reports whether the range has no bounds.
func (r PriceRange) IsEmpty() bool { return r.Min <= 0 && r.Max <= 0 }

// Contains reports whether price satisfies the range.
func (r PriceRange) Contains(price float64) bool {
	if r.Min > 0 && price < r.Min {
		return false
	}
	if r.Max > 0 && price > r.Max {
		return false
	}
	return true
}

// Analysis is the structured interpretation of a query.
type Analysis struct {
	intent        Intent
	category      string
	brands        []string
	priceRange    *PriceRange
	confidence    float64
	enhancedQuery string
	source        Source
}

// New creates an Analysis, normalizing out-of-range inputs:
// unknown intent becomes Specific, confidence is clamped to [0,1],
// an inverted price range is dropped, empty category becomes "general",
// empty enhanced query becomes the original query.
func New(
	query string, intent Intent, category string, brands []string,
	priceRange *PriceRange, confidence float64, enhancedQuery string, source Source,
) Analysis {
	if !intent.IsValid() {
		intent = Specific
	}
	if category == "" {
		category = GeneralCategory
	}
	switch {
	case confidence < 0 || confidence != confidence: // NaN
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	if priceRange != nil {
		pr := *priceRange
		if pr.Min < 0 {
			pr.Min = 0
		}
		if pr.Max < 0 {
			pr.Max = 0
		}
		if pr.IsEmpty() || (pr.Max > 0 && pr.Min > pr.Max) {
			priceRange = nil
		} else {
			priceRange = &pr
		}
	}
	if enhancedQuery == "" {
		enhancedQuery = query
	}
	return Analysis{
		intent:        intent,
		category:      category,
		brands:        append([]string(nil), brands...),
		priceRange:    priceRange,
		confidence:    confidence,
		enhancedQuery: enhancedQuery,
		source:        source,
	}
}

// Intent returns the inferred intent.
func (a *Analysis) Intent() Intent { return a.intent }

// Category returns the inferred category ("general" if unknown).
func (a *Analysis) Category() string { return a.category }

// HasCategory reports whether a specific category was inferred.
func (a *Analysis) HasCategory() bool { return a.category != "" && a.category != GeneralCategory }

// Brands returns brand names mentioned in the query.
func (a *Analysis) Brands() []string { return a.brands }

// PriceRange returns the price constraint or nil.
func (a *Analysis) PriceRange() *PriceRange { return a.priceRange }

// Confidence returns the analysis confidence in [0,1].
func (a *Analysis) Confidence() float64 { return a.confidence }

// EnhancedQuery returns the rewritten query (the original when not rewritten).
func (a *Analysis) EnhancedQuery() string { return a.enhancedQuery }

// Source returns which path produced the analysis.
func (a *Analysis) Source() Source { return a.source }
