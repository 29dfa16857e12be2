package suggest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain"
	domhist "github.com/kailas-cloud/prodex/internal/domain/history"
	"github.com/kailas-cloud/prodex/internal/domain/product"
)

// Defaults.
const (
	DefaultAutocompleteLimit = 10
	DefaultRelatedCount      = 5
	DefaultPopularLimit      = 10
	DefaultTrendingLimit     = 20
	DefaultTimeout           = 5 * time.Second

	// historyScan is how many top queries are considered for prefix or category matches.
	historyScan = 200
	// recentScan is how many logged searches autocomplete checks before popular ones.
	recentScan = 50
)

var popularFallback = []string{
	"wireless headphones",
	"laptop for work",
	"running shoes",
	"smartphone under 500",
	"office chair ergonomic",
	"kitchen appliances",
	"gaming mouse",
	"fitness tracker",
	"coffee maker",
	"outdoor gear",
}

var trendingFallback = []domhist.Count{
	{Query: "wireless headphones", Count: 450},
	{Query: "laptop for work", Count: 380},
	{Query: "running shoes", Count: 320},
}

const relatedPrompt = `Suggest %d related product search queries for: %q
Return one query per line, no numbering, no explanations.`

var (
	errEnough  = errors.New("enough names")
	listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)
)

// Engine produces autocomplete, related, popular and trending suggestions.
// Every method degrades to templated or static lists; none returns an error.
type Engine struct {
	history   History
	catalog   Catalog
	generator domain.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an engine. Any collaborator may be nil.
func New(history History, catalog Catalog, generator domain.Generator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		history:   history,
		catalog:   catalog,
		generator: generator,
		timeout:   DefaultTimeout,
		logger:    logger,
	}
}

// WithTimeout bounds generator calls.
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	if d > 0 {
		e.timeout = d
	}
	return e
}

// Autocomplete completes a partial query from search history and product
// names. Any non-blank prefix yields at least one suggestion.
func (e *Engine) Autocomplete(ctx context.Context, prefix string, limit int) []string {
	if limit <= 0 {
		limit = DefaultAutocompleteLimit
	}
	p := domhist.Normalize(prefix)
	if p == "" {
		return []string{}
	}

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		key := domhist.Normalize(s)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, s)
	}

	for _, q := range e.historyPrefix(ctx, p, limit) {
		add(q)
	}
	for _, n := range e.productNames(ctx, p, max(limit/2, 1)) {
		add(n)
	}
	if len(out) == 0 {
		for _, s := range autocompleteTemplates(strings.Join(strings.Fields(prefix), " ")) {
			add(s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// historyPrefix matches recent searches first, then all-time popular ones.
// Duplicates are removed by the caller.
func (e *Engine) historyPrefix(ctx context.Context, p string, limit int) []string {
	if e.history == nil {
		return nil
	}
	var out []string

	recent, err := e.history.Recent(ctx, recentScan)
	if err != nil {
		e.logger.Debug("Autocomplete recent lookup failed", zap.Error(err))
	}
	for _, r := range recent {
		if q := domhist.Normalize(r.Query); strings.HasPrefix(q, p) {
			out = append(out, q)
			if len(out) == limit {
				return out
			}
		}
	}

	counts, err := e.history.Popular(ctx, historyScan)
	if err != nil {
		e.logger.Warn("Autocomplete history lookup failed", zap.Error(err))
		return out
	}
	for _, c := range counts {
		if strings.HasPrefix(c.Query, p) {
			out = append(out, c.Query)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (e *Engine) productNames(ctx context.Context, p string, limit int) []string {
	if e.catalog == nil {
		return nil
	}
	var out []string
	err := e.catalog.Each(ctx, func(prod product.Product) error {
		if strings.HasPrefix(strings.ToLower(prod.Name()), p) {
			out = append(out, prod.Name())
			if len(out) == limit {
				return errEnough
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEnough) {
		e.logger.Warn("Autocomplete product scan failed", zap.Error(err))
	}
	return out
}

func autocompleteTemplates(p string) []string {
	return []string{
		p + " for work",
		p + " reviews",
		"best " + p,
		"cheap " + p,
		p + " comparison",
	}
}

// Related proposes follow-up queries, from the generator when configured.
func (e *Engine) Related(ctx context.Context, query string, count int) []string {
	if count <= 0 {
		count = DefaultRelatedCount
	}
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return []string{}
	}

	if e.generator != nil {
		out, err := e.generateRelated(ctx, query, count)
		if err == nil && len(out) > 0 {
			return out
		}
		e.logger.Debug("Related suggestions fell back to templates", zap.Error(err))
	}

	fallback := []string{
		"best " + query,
		query + " reviews",
		"cheap " + query,
		query + " comparison",
	}
	if count < len(fallback) {
		fallback = fallback[:count]
	}
	return fallback
}

func (e *Engine) generateRelated(ctx context.Context, query string, count int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.generator.Generate(ctx, fmt.Sprintf(relatedPrompt, count, query))
	if err != nil {
		return nil, err
	}
	return parseLines(text, query, count), nil
}

// parseLines extracts up to count distinct queries from a line-per-query answer,
// dropping list markers, quotes and echoes of the original query.
func parseLines(text, query string, count int) []string {
	seen := map[string]bool{domhist.Normalize(query): true}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = listMarker.ReplaceAllString(strings.TrimSpace(line), "")
		line = strings.Trim(line, "\"'` ")
		key := domhist.Normalize(line)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
		if len(out) == count {
			break
		}
	}
	return out
}

// Popular returns the most searched queries, optionally those mentioning category.
func (e *Engine) Popular(ctx context.Context, category string, limit int) []string {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	category = strings.ToLower(strings.TrimSpace(category))

	var out []string
	if e.history != nil {
		scan := limit
		if category != "" {
			scan = historyScan
		}
		counts, err := e.history.Popular(ctx, scan)
		if err != nil {
			e.logger.Warn("Popular searches lookup failed", zap.Error(err))
		}
		for _, c := range counts {
			if category == "" || strings.Contains(c.Query, category) {
				out = append(out, c.Query)
				if len(out) == limit {
					break
				}
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, q := range popularFallback {
		if category == "" || strings.Contains(q, category) {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		out = append(out, popularFallback...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Trending returns the most searched queries within period.
func (e *Engine) Trending(ctx context.Context, period domhist.Period, limit int) []domhist.Count {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	if e.history != nil {
		counts, err := e.history.Trending(ctx, period.Days(), limit)
		if err != nil {
			e.logger.Warn("Trending lookup failed", zap.String("period", string(period)), zap.Error(err))
		}
		if len(counts) > 0 {
			return counts
		}
	}
	out := append([]domhist.Count(nil), trendingFallback...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
