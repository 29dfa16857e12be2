package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain"
	domanalysis "github.com/kailas-cloud/prodex/internal/domain/analysis"
	"github.com/kailas-cloud/prodex/internal/metrics"
)

// DefaultTimeout bounds the AI path.
const DefaultTimeout = 5 * time.Second

const promptTemplate = `Analyze this product search query: %q

Return only a JSON object, no prose, with these fields:
- "intent": one of "product_discovery", "price_comparison", "specific_product"
- "category": a product category such as "electronics", "clothing", "books", or "general"
- "brands": array of brand names mentioned in the query
- "price_range": {"min": number, "max": number} or null
- "confidence": number between 0.0 and 1.0
- "enhanced_query": the query rewritten for product search`

// Analyzer classifies queries. It never fails: whenever the AI path is not
// configured, errors, times out, or answers garbage, the rule-based
// classifier answers instead.
type Analyzer struct {
	generator domain.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an analyzer. A nil generator means rules only.
func New(generator domain.Generator, timeout time.Duration, logger *zap.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{generator: generator, timeout: timeout, logger: logger}
}

// Analyze returns the structured interpretation of query.
func (a *Analyzer) Analyze(ctx context.Context, query string) domanalysis.Analysis {
	if a.generator != nil && strings.TrimSpace(query) != "" {
		res, err := a.analyzeAI(ctx, query)
		if err == nil {
			metrics.QueryAnalysisTotal.WithLabelValues(string(domanalysis.SourceAI)).Inc()
			return res
		}
		a.logger.Debug("AI query analysis failed, using rules", zap.Error(err))
	}
	metrics.QueryAnalysisTotal.WithLabelValues(string(domanalysis.SourceRules)).Inc()
	return Rules(query)
}

type aiResponse struct {
	Intent     string   `json:"intent"`
	Category   string   `json:"category"`
	Brands     []string `json:"brands"`
	PriceRange *struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"price_range"`
	Confidence      *float64 `json:"confidence"`
	ConfidenceScore *float64 `json:"confidence_score"`
	EnhancedQuery   string   `json:"enhanced_query"`
}

func (a *Analyzer) analyzeAI(ctx context.Context, query string) (domanalysis.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.Generate(ctx, fmt.Sprintf(promptTemplate, query))
	if err != nil {
		return domanalysis.Analysis{}, fmt.Errorf("generate: %w", err)
	}

	var resp aiResponse
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &resp); err != nil {
		return domanalysis.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	intent, ok := parseIntent(resp.Intent)
	if !ok {
		return domanalysis.Analysis{}, fmt.Errorf("unknown intent %q", resp.Intent)
	}

	confidence := 0.8
	switch {
	case resp.Confidence != nil:
		confidence = *resp.Confidence
	case resp.ConfidenceScore != nil:
		confidence = *resp.ConfidenceScore
	}

	var pr *domanalysis.PriceRange
	if resp.PriceRange != nil {
		pr = &domanalysis.PriceRange{}
		if resp.PriceRange.Min != nil {
			pr.Min = *resp.PriceRange.Min
		}
		if resp.PriceRange.Max != nil {
			pr.Max = *resp.PriceRange.Max
		}
	}

	return domanalysis.New(
		query, intent, strings.ToLower(strings.TrimSpace(resp.Category)), resp.Brands,
		pr, confidence, strings.TrimSpace(resp.EnhancedQuery), domanalysis.SourceAI,
	), nil
}

// parseIntent accepts both the short and the long intent spellings.
func parseIntent(s string) (domanalysis.Intent, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discovery", "product_discovery":
		return domanalysis.Discovery, true
	case "comparison", "price_comparison":
		return domanalysis.Comparison, true
	case "specific", "specific_product":
		return domanalysis.Specific, true
	default:
		return "", false
	}
}

// stripCodeFence removes a surrounding ```json ... ``` block if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
