package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain"
	domanalysis "github.com/kailas-cloud/prodex/internal/domain/analysis"
	domhist "github.com/kailas-cloud/prodex/internal/domain/history"
	domreindex "github.com/kailas-cloud/prodex/internal/domain/reindex"
	"github.com/kailas-cloud/prodex/internal/domain/search/filter"
	"github.com/kailas-cloud/prodex/internal/domain/search/request"
	"github.com/kailas-cloud/prodex/internal/domain/search/result"
	"github.com/kailas-cloud/prodex/internal/logger"
	"github.com/kailas-cloud/prodex/internal/metrics"
	healthuc "github.com/kailas-cloud/prodex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/prodex/internal/usecase/search"
)

// Query parameter limits.
const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
	defaultTrendLimit   = 20
	maxTrendLimit       = 100
)

// Searcher runs product searches.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
	SimilarTo(ctx context.Context, req *request.SimilarRequest) ([]result.Result, error)
}

// Suggester produces query suggestions.
type Suggester interface {
	Autocomplete(ctx context.Context, prefix string, limit int) []string
	Related(ctx context.Context, query string, count int) []string
	Popular(ctx context.Context, category string, limit int) []string
	Trending(ctx context.Context, period domhist.Period, limit int) []domhist.Count
}

// Reindexer controls embedding (re)generation.
type Reindexer interface {
	Start(ctx context.Context, forceAll bool) (domreindex.Report, error)
	Status() domreindex.Report
	Stats(ctx context.Context) (domreindex.Stats, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the product search HTTP API.
type Server struct {
	search        Searcher
	suggest       Suggester
	reindex       Reindexer
	health        HealthChecker
	background    context.Context
	limits        request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	suggest Suggester,
	reindex Reindexer,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:     search,
		suggest:    suggest,
		reindex:    reindex,
		health:     health,
		background: context.Background(),
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, ErrorCodeProductNotFound),
		sentinelHandler(domain.ErrEmbeddingNotFound, http.StatusNotFound, ErrorCodeEmbeddingNotFound),
		sentinelHandler(domain.ErrRankingUnavailable, http.StatusUnprocessableEntity, ErrorCodeRankingUnavailable),
		sentinelHandler(domain.ErrReindexInProgress, http.StatusConflict, ErrorCodeReindexInProgress),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable),
	}
	return s
}

// WithBackground sets the context background jobs (reindex) run on.
// Cancelling it stops them.
func (s *Server) WithBackground(ctx context.Context) *Server {
	s.background = ctx
	return s
}

// WithSearchLimits overrides query length and page size bounds for POST /search.
func (s *Server) WithSearchLimits(l request.Limits) *Server {
	s.limits = l
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/search/autocomplete", s.Autocomplete)
	r.Get("/search/suggestions", s.PopularSuggestions)
	r.Get("/search/related", s.RelatedSuggestions)
	r.Get("/search/trending", s.Trending)
	r.Get("/products/{id}/similar", s.SimilarProducts)
	r.Post("/admin/reindex", s.StartReindex)
	r.Get("/admin/reindex", s.ReindexStatus)
	r.Get("/admin/embeddings/stats", s.EmbeddingStats)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	flt, err := filter.New(derefString(body.Category), body.Brands, derefFloat(body.MinPrice), derefFloat(body.MaxPrice))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	req, err := s.limits.New(body.Query, derefInt(body.Limit), derefInt(body.Offset), flt)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(logger.With(r.Context(), zap.String("query", req.Query())))
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logger.FromContext(ctx).Error("search store unavailable", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, SearchResponse{
				Query:       req.Query(),
				Products:    []ProductItem{},
				Suggestions: []string{},
				Status:      SearchStatusUnavailable,
			})
			return
		}
		s.handleDomainError(w, err)
		return
	}

	suggestions := resp.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:        resp.Query,
		Analysis:     analysisToAPI(&resp.Analysis),
		Products:     resultsToAPI(resp.Results),
		TotalCount:   resp.Total,
		SearchTimeMs: float64(resp.Elapsed.Microseconds()) / 1000,
		Suggestions:  suggestions,
		Mode:         string(resp.Mode),
		Status:       SearchStatusSuccess,
	})
}

// Autocomplete handles GET /search/autocomplete.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	var (
		q     string
		limit *int
	)
	if !bindQuery(w, r, "q", true, &q) || !bindQuery(w, r, "limit", false, &limit) {
		return
	}
	if q == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "q is required")
		return
	}
	n, ok := boundedLimit(w, limit, defaultSuggestLimit, maxSuggestLimit)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, SuggestionsResponse{
		Query:       q,
		Suggestions: s.suggest.Autocomplete(r.Context(), q, n),
	})
}

// PopularSuggestions handles GET /search/suggestions.
func (s *Server) PopularSuggestions(w http.ResponseWriter, r *http.Request) {
	var (
		category *string
		limit    *int
	)
	if !bindQuery(w, r, "category", false, &category) || !bindQuery(w, r, "limit", false, &limit) {
		return
	}
	n, ok := boundedLimit(w, limit, defaultSuggestLimit, maxSuggestLimit)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, SuggestionsResponse{
		Suggestions: s.suggest.Popular(r.Context(), derefString(category), n),
	})
}

// RelatedSuggestions handles GET /search/related.
func (s *Server) RelatedSuggestions(w http.ResponseWriter, r *http.Request) {
	var (
		q     string
		count *int
	)
	if !bindQuery(w, r, "q", true, &q) || !bindQuery(w, r, "count", false, &count) {
		return
	}
	if q == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "q is required")
		return
	}
	n, ok := boundedLimit(w, count, 5, 20)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, SuggestionsResponse{
		Query:       q,
		Suggestions: s.suggest.Related(r.Context(), q, n),
	})
}

// Trending handles GET /search/trending.
func (s *Server) Trending(w http.ResponseWriter, r *http.Request) {
	var (
		period *string
		limit  *int
	)
	if !bindQuery(w, r, "period", false, &period) || !bindQuery(w, r, "limit", false, &limit) {
		return
	}
	p := domhist.Week
	if period != nil {
		switch domhist.Period(*period) {
		case domhist.Day, domhist.Week, domhist.Month:
			p = domhist.Period(*period)
		default:
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "period must be one of day, week, month")
			return
		}
	}
	n, ok := boundedLimit(w, limit, defaultTrendLimit, maxTrendLimit)
	if !ok {
		return
	}

	counts := s.suggest.Trending(r.Context(), p, n)
	items := make([]TrendingItem, len(counts))
	for i, c := range counts {
		items[i] = TrendingItem{Query: c.Query, Count: c.Count}
	}
	writeJSON(w, http.StatusOK, TrendingResponse{Period: string(p), Items: items})
}

// SimilarProducts handles GET /products/{id}/similar.
func (s *Server) SimilarProducts(w http.ResponseWriter, r *http.Request) {
	var (
		limit    *int
		minScore *float64
	)
	if !bindQuery(w, r, "limit", false, &limit) || !bindQuery(w, r, "min_score", false, &minScore) {
		return
	}

	req, err := request.NewSimilar(chi.URLParam(r, "id"), derefInt(limit), derefFloat(minScore))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.SimilarTo(ctx, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SimilarResponse{
		ProductID: req.ProductID(),
		Products:  resultsToAPI(results),
	})
}

// StartReindex handles POST /admin/reindex.
func (s *Server) StartReindex(w http.ResponseWriter, r *http.Request) {
	var force *bool
	if !bindQuery(w, r, "force", false, &force) {
		return
	}

	report, err := s.reindex.Start(s.background, derefBool(force))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, reportToAPI(&report, time.Now()))
}

// ReindexStatus handles GET /admin/reindex.
func (s *Server) ReindexStatus(w http.ResponseWriter, _ *http.Request) {
	report := s.reindex.Status()
	writeJSON(w, http.StatusOK, reportToAPI(&report, time.Now()))
}

// EmbeddingStats handles GET /admin/embeddings/stats.
func (s *Server) EmbeddingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reindex.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EmbeddingStats{
		TotalProducts:      stats.TotalProducts,
		TotalEmbeddings:    stats.TotalEmbeddings,
		Missing:            stats.Missing,
		Stale:              stats.Stale,
		CoveragePercentage: stats.CoveragePercentage(),
		Dimension:          stats.Dimension,
		Model:              stats.ModelVersion,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindQuery decodes one form-style query parameter into dest, answering 400 on failure.
func bindQuery(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid parameter "+name)
		return false
	}
	return true
}

func boundedLimit(w http.ResponseWriter, p *int, def, maxLimit int) (int, bool) {
	if p == nil {
		return def, true
	}
	if *p < 1 || *p > maxLimit {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			"limit must be between 1 and "+strconv.Itoa(maxLimit))
		return 0, false
	}
	return *p, true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set(metrics.EmbeddingTokensHeader, strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrProductNotFound,
		domain.ErrEmbeddingNotFound,
		domain.ErrRankingUnavailable,
		domain.ErrReindexInProgress,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func analysisToAPI(a *domanalysis.Analysis) *QueryAnalysis {
	if a.Intent() == "" {
		return nil
	}
	out := &QueryAnalysis{
		Intent:        string(a.Intent()),
		Category:      a.Category(),
		Brands:        a.Brands(),
		Confidence:    a.Confidence(),
		EnhancedQuery: a.EnhancedQuery(),
		Source:        string(a.Source()),
	}
	if out.Brands == nil {
		out.Brands = []string{}
	}
	if pr := a.PriceRange(); pr != nil {
		out.PriceRange = &PriceRange{Min: positive(pr.Min), Max: positive(pr.Max)}
	}
	return out
}

func resultsToAPI(results []result.Result) []ProductItem {
	items := make([]ProductItem, len(results))
	for i := range results {
		items[i] = resultToAPI(&results[i])
	}
	return items
}

func resultToAPI(r *result.Result) ProductItem {
	p := r.Product()
	a := p.Attributes()
	item := ProductItem{
		ID:              p.ID(),
		Name:            a.Name,
		Brand:           a.Brand,
		Category:        a.Category,
		Description:     a.Description,
		Features:        a.Features,
		Specifications:  a.Specifications,
		Price:           a.Price,
		OriginalPrice:   positive(a.OriginalPrice),
		Currency:        a.Currency,
		ReviewCount:     a.ReviewCount,
		Availability:    a.Availability,
		Source:          a.Source,
		SourceURL:       a.SourceURL,
		Tags:            a.Tags,
		SimilarityScore: r.Score(),
	}
	if rating, ok := p.Rating(); ok {
		item.Rating = &rating
	}
	return item
}

func reportToAPI(r *domreindex.Report, now time.Time) ReindexJob {
	job := ReindexJob{
		JobID:       r.JobID,
		State:       string(r.State),
		Force:       r.Force,
		Total:       r.Total,
		Processed:   r.Processed,
		Errors:      r.Errors,
		Remaining:   r.Remaining(),
		SuccessRate: r.SuccessRate(),
		DurationMs:  r.Duration(now).Milliseconds(),
		Error:       r.Err,
	}
	if job.State == "" {
		job.State = string(domreindex.StateIdle)
	}
	if !r.StartedAt.IsZero() {
		t := r.StartedAt.UTC()
		job.StartedAt = &t
	}
	if !r.FinishedAt.IsZero() {
		t := r.FinishedAt.UTC()
		job.FinishedAt = &t
	}
	return job
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
