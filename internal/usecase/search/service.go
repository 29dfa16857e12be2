package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/prodex/internal/domain"
	domanalysis "github.com/kailas-cloud/prodex/internal/domain/analysis"
	domhist "github.com/kailas-cloud/prodex/internal/domain/history"
	"github.com/kailas-cloud/prodex/internal/domain/product"
	"github.com/kailas-cloud/prodex/internal/domain/search/filter"
	"github.com/kailas-cloud/prodex/internal/domain/search/mode"
	"github.com/kailas-cloud/prodex/internal/domain/search/request"
	"github.com/kailas-cloud/prodex/internal/domain/search/result"
	"github.com/kailas-cloud/prodex/internal/metrics"
	"github.com/kailas-cloud/prodex/internal/usecase/ranking"
)

// Default thresholds.
const (
	DefaultThreshold        = 0.3
	DefaultSimilarThreshold = 0.5
	suggestionCount         = 5
)

// Response is the outcome of one search.
type Response struct {
	Query       string
	Analysis    domanalysis.Analysis
	Results     []result.Result
	Total       int
	Suggestions []string
	Mode        mode.Mode
	Elapsed     time.Duration
}

// Service runs product searches: query analysis and semantic ranking in
// parallel, with a token-overlap fallback when no query vector exists.
type Service struct {
	catalog          Catalog
	records          EmbeddingReader
	source           ranking.CandidateSource
	embed            Embedder
	analyzer         Analyzer
	ranker           *ranking.Ranker
	history          HistoryRecorder
	suggester        RelatedSuggester
	threshold        float64
	similarThreshold float64
	logger           *zap.Logger
}

// New creates a search service.
func New(
	catalog Catalog, records EmbeddingReader, source ranking.CandidateSource,
	embed Embedder, analyzer Analyzer, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:          catalog,
		records:          records,
		source:           source,
		embed:            embed,
		analyzer:         analyzer,
		ranker:           ranking.New(),
		threshold:        DefaultThreshold,
		similarThreshold: DefaultSimilarThreshold,
		logger:           logger,
	}
}

// WithThresholds overrides the search and similar-to thresholds. Zero keeps the default.
func (s *Service) WithThresholds(search, similar float64) *Service {
	if search > 0 {
		s.threshold = search
	}
	if similar > 0 {
		s.similarThreshold = similar
	}
	return s
}

// WithHistory enables search logging.
func (s *Service) WithHistory(h HistoryRecorder) *Service {
	s.history = h
	return s
}

// WithSuggester enables related-query suggestions in responses.
func (s *Service) WithSuggester(r RelatedSuggester) *Service {
	s.suggester = r
	return s
}

// Search ranks catalog products against the request query.
// Store failures are returned wrapped in domain.ErrStoreUnavailable;
// provider failures never are.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()

	var (
		an     domanalysis.Analysis
		ranked rankedSet
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		an = s.analyzer.Analyze(gctx, req.Query())
		return nil
	})
	g.Go(func() error {
		var err error
		ranked, err = s.rank(gctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("none", "error").Inc()
		return Response{Query: req.Query(), Analysis: an, Results: []result.Result{}}, err
	}

	items := applyHints(ranked.items, hintFilter(req.Filters(), &an))
	total := len(items)
	items = paginate(items, req.Offset(), req.Limit())

	resp := Response{
		Query:    req.Query(),
		Analysis: an,
		Results:  items,
		Total:    total,
		Mode:     ranked.mode,
	}
	if s.suggester != nil {
		resp.Suggestions = s.suggester.Related(ctx, req.Query(), suggestionCount)
	}
	resp.Elapsed = time.Since(start)

	metrics.SearchRequestsTotal.WithLabelValues(string(ranked.mode), "success").Inc()
	metrics.SearchDuration.WithLabelValues(string(ranked.mode)).Observe(resp.Elapsed.Seconds())
	s.record(ctx, &resp)

	return resp, nil
}

type rankedSet struct {
	items []result.Result
	mode  mode.Mode
}

// rank loads the products allowed by the explicit filters, then scores
// them semantically, or by keyword overlap when ranking is unavailable.
// The full filtered list is returned; pagination happens after hints.
func (s *Service) rank(ctx context.Context, req *request.Request) (rankedSet, error) {
	eligible, order, err := s.loadCatalog(ctx, req.Filters())
	if err != nil {
		return rankedSet{}, err
	}

	vec := s.embed.EmbedOrZero(ctx, req.Query())
	page, err := s.ranker.Rank(ctx, vec, s.source, ranking.Options{
		Threshold: s.threshold,
		Allow:     func(id string) bool { _, ok := eligible[id]; return ok },
	})
	switch {
	case errors.Is(err, domain.ErrRankingUnavailable):
		s.logger.Info("Semantic ranking unavailable, using keyword fallback",
			zap.String("query", req.Query()))
		products := make([]product.Product, len(order))
		for i, id := range order {
			products[i] = eligible[id]
		}
		return rankedSet{items: keywordRank(req.Query(), products), mode: mode.Keyword}, nil
	case err != nil:
		return rankedSet{}, storeErr("rank candidates", err)
	}

	return rankedSet{items: hydrate(page.Items, eligible), mode: mode.Semantic}, nil
}

// SimilarTo ranks products against a reference product's vector,
// excluding the reference itself.
func (s *Service) SimilarTo(ctx context.Context, req *request.SimilarRequest) ([]result.Result, error) {
	ref, err := s.catalog.Get(ctx, req.ProductID())
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, storeErr("get product", err)
	}

	vec, err := s.referenceVector(ctx, &ref)
	if err != nil {
		return nil, err
	}

	eligible, _, err := s.loadCatalog(ctx, filter.Filter{})
	if err != nil {
		return nil, err
	}

	threshold := s.similarThreshold
	if req.MinScore() > 0 {
		threshold = req.MinScore()
	}
	page, err := s.ranker.Rank(ctx, vec, s.source, ranking.Options{
		Threshold: threshold,
		Limit:     req.Limit(),
		Exclude:   ref.ID(),
		Allow:     func(id string) bool { _, ok := eligible[id]; return ok },
	})
	if err != nil {
		if errors.Is(err, domain.ErrRankingUnavailable) {
			return nil, err
		}
		return nil, storeErr("rank similar", err)
	}
	return hydrate(page.Items, eligible), nil
}

// referenceVector returns the stored vector of p, embedding it on the fly
// when no record exists yet.
func (s *Service) referenceVector(ctx context.Context, p *product.Product) ([]float32, error) {
	rec, err := s.records.Get(ctx, p.ID())
	if err == nil {
		return rec.Vector(), nil
	}
	if !errors.Is(err, domain.ErrEmbeddingNotFound) {
		return nil, storeErr("get embedding", err)
	}
	res := s.embed.Embed(ctx, p.SearchableText())
	if !res.OK() {
		return nil, fmt.Errorf("product %s: %w", p.ID(), domain.ErrEmbeddingNotFound)
	}
	return res.Vector, nil
}

// loadCatalog scans the catalog and keeps products matching f.
// order lists the kept IDs sorted, for deterministic fallbacks.
func (s *Service) loadCatalog(ctx context.Context, f filter.Filter) (map[string]product.Product, []string, error) {
	eligible := make(map[string]product.Product)
	err := s.catalog.Each(ctx, func(p product.Product) error {
		if f.Matches(&p) {
			eligible[p.ID()] = p
		}
		return nil
	})
	if err != nil {
		return nil, nil, storeErr("scan catalog", err)
	}
	order := make([]string, 0, len(eligible))
	for id := range eligible {
		order = append(order, id)
	}
	sort.Strings(order)
	return eligible, order, nil
}

func (s *Service) record(ctx context.Context, resp *Response) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, domhist.Entry{
		Query:        resp.Query,
		ResultsCount: resp.Total,
		ElapsedMs:    resp.Elapsed.Milliseconds(),
		Mode:         string(resp.Mode),
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to record search", zap.Error(err))
	}
}

func hydrate(items []ranking.Scored, products map[string]product.Product) []result.Result {
	out := make([]result.Result, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ID]
		if !ok {
			continue
		}
		out = append(out, result.New(p, it.Score))
	}
	return out
}

// hintFilter turns analysis hints into a filter that only narrows what the
// request did not constrain explicitly.
func hintFilter(explicit filter.Filter, an *domanalysis.Analysis) filter.Filter {
	var category string
	if an.HasCategory() {
		category = an.Category()
	}
	var lo, hi float64
	if pr := an.PriceRange(); pr != nil {
		lo, hi = pr.Min, pr.Max
	}
	return explicit.Merge(category, an.Brands(), lo, hi)
}

// applyHints narrows results with analysis hints. Hints are an
// optimization: when they would leave nothing, the unhinted list is kept.
func applyHints(items []result.Result, hints filter.Filter) []result.Result {
	if hints.IsEmpty() {
		return items
	}
	narrowed := make([]result.Result, 0, len(items))
	for _, r := range items {
		p := r.Product()
		if hints.Matches(&p) {
			narrowed = append(narrowed, r)
		}
	}
	if len(narrowed) == 0 {
		return items
	}
	return narrowed
}

func paginate(items []result.Result, offset, limit int) []result.Result {
	if offset >= len(items) {
		return []result.Result{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
