package reindex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain"
	domemb "github.com/kailas-cloud/prodex/internal/domain/embedding"
	"github.com/kailas-cloud/prodex/internal/domain/product"
	domreindex "github.com/kailas-cloud/prodex/internal/domain/reindex"
	"github.com/kailas-cloud/prodex/internal/metrics"
	"github.com/kailas-cloud/prodex/internal/usecase/embedding"
)

// Defaults for pacing and retries.
const (
	DefaultItemDelay      = 200 * time.Millisecond
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultProgressEvery  = 10

	// lookupChunk bounds the number of IDs sent to one GetMany call.
	lookupChunk = 100
)

// Service (re)generates product embeddings, one product at a time.
type Service struct {
	catalog Catalog
	records RecordStore
	embed   Embedder
	logger  *zap.Logger

	itemDelay     time.Duration
	maxRetries    int
	retryBase     time.Duration
	progressEvery int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	run      sync.Mutex // held for the whole run
	statusMu sync.RWMutex
	status   domreindex.Report
}

// New creates a reindex service.
func New(catalog Catalog, records RecordStore, embed Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:       catalog,
		records:       records,
		embed:         embed,
		logger:        logger,
		itemDelay:     DefaultItemDelay,
		maxRetries:    DefaultMaxRetries,
		retryBase:     DefaultRetryBaseDelay,
		progressEvery: DefaultProgressEvery,
		now:           time.Now,
		sleep:         sleepCtx,
		status:        domreindex.Report{State: domreindex.StateIdle},
	}
}

// WithItemDelay sets the pause between items. Negative values are ignored; zero disables pacing.
func (s *Service) WithItemDelay(d time.Duration) *Service {
	if d >= 0 {
		s.itemDelay = d
	}
	return s
}

// WithRetries configures provider retries: up to n retries after the first
// attempt, waiting base, 2*base, 4*base...
func (s *Service) WithRetries(n int, base time.Duration) *Service {
	if n >= 0 {
		s.maxRetries = n
	}
	if base > 0 {
		s.retryBase = base
	}
	return s
}

// WithProgressEvery sets how often (in items) progress is logged.
func (s *Service) WithProgressEvery(n int) *Service {
	if n > 0 {
		s.progressEvery = n
	}
	return s
}

// Status returns a snapshot of the current or last job.
func (s *Service) Status() domreindex.Report {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Service) setStatus(r *domreindex.Report) {
	s.statusMu.Lock()
	s.status = *r
	s.statusMu.Unlock()
}

// Run embeds every product that needs it (or all products when forceAll).
// Per-item failures are counted and the run continues. Selection failures
// abort the run with domain.ErrStoreUnavailable. A cancelled run returns
// its partial report together with the context error.
func (s *Service) Run(ctx context.Context, forceAll bool) (domreindex.Report, error) {
	if !s.run.TryLock() {
		return s.Status(), domain.ErrReindexInProgress
	}
	defer s.run.Unlock()

	report := s.begin(forceAll)
	return s.execute(ctx, &report)
}

// Start launches a run in the background and returns its initial state.
// The run lives on ctx, not on the caller's request.
func (s *Service) Start(ctx context.Context, forceAll bool) (domreindex.Report, error) {
	if !s.run.TryLock() {
		return s.Status(), domain.ErrReindexInProgress
	}

	report := s.begin(forceAll)
	job := report
	go func() {
		defer s.run.Unlock()
		_, _ = s.execute(ctx, &job)
	}()
	return report, nil
}

func (s *Service) begin(forceAll bool) domreindex.Report {
	report := domreindex.Report{
		JobID:     uuid.NewString(),
		Force:     forceAll,
		State:     domreindex.StateRunning,
		StartedAt: s.now(),
	}
	s.setStatus(&report)
	return report
}

// execute runs the job described by report. The caller holds s.run.
func (s *Service) execute(ctx context.Context, report *domreindex.Report) (domreindex.Report, error) {
	forceAll := report.Force
	log := s.logger.With(zap.String("job_id", report.JobID), zap.Bool("force", forceAll))
	log.Info("Reindex started")

	selected, scanned, err := s.selectProducts(ctx, forceAll)
	report.Scanned = scanned
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.finish(log, report, domreindex.StateCancelled, ctxErr)
		}
		return s.finish(log, report, domreindex.StateFailed,
			fmt.Errorf("select products: %w: %w", domain.ErrStoreUnavailable, err))
	}
	report.Total = len(selected)
	metrics.ReindexItemsTotal.WithLabelValues(string(domreindex.StatusSkipped)).Add(float64(scanned - len(selected)))
	s.setStatus(report)
	log.Info("Reindex selection done", zap.Int("scanned", scanned), zap.Int("selected", report.Total))

	for i := range selected {
		if i > 0 && s.itemDelay > 0 {
			if err := s.sleep(ctx, s.itemDelay); err != nil {
				return s.finish(log, report, domreindex.StateCancelled, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return s.finish(log, report, domreindex.StateCancelled, err)
		}

		res := s.processOne(ctx, &selected[i])
		if res.Status() == domreindex.StatusFailed {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.finish(log, report, domreindex.StateCancelled, ctxErr)
			}
			if errors.Is(res.Err(), domain.ErrProviderUnavailable) {
				return s.finish(log, report, domreindex.StateFailed, res.Err())
			}
			report.Errors++
			log.Warn("Reindex item failed", zap.String("product_id", res.ProductID()), zap.Error(res.Err()))
		} else {
			report.Processed++
		}
		metrics.ReindexItemsTotal.WithLabelValues(string(res.Status())).Inc()
		s.setStatus(report)

		if done := i + 1; done%s.progressEvery == 0 {
			log.Info("Reindex progress",
				zap.Int("done", done),
				zap.Int("total", report.Total),
				zap.Int("errors", report.Errors))
		}
	}

	return s.finish(log, report, domreindex.StateCompleted, nil)
}

func (s *Service) finish(
	log *zap.Logger, report *domreindex.Report, state domreindex.State, err error,
) (domreindex.Report, error) {
	report.State = state
	report.FinishedAt = s.now()
	if err != nil {
		report.Err = err.Error()
	}
	s.setStatus(report)

	metrics.ReindexRunsTotal.WithLabelValues(string(state)).Inc()
	metrics.ReindexDuration.Observe(report.Duration(report.FinishedAt).Seconds())

	fields := []zap.Field{
		zap.String("state", string(state)),
		zap.Int("total", report.Total),
		zap.Int("processed", report.Processed),
		zap.Int("errors", report.Errors),
		zap.Float64("success_rate", report.SuccessRate()),
		zap.Duration("duration", report.Duration(report.FinishedAt)),
	}
	if err != nil {
		log.Warn("Reindex stopped", append(fields, zap.Error(err))...)
	} else {
		log.Info("Reindex finished", fields...)
	}
	return *report, err
}

// selectProducts scans the catalog and returns the products to embed,
// plus the number of products examined.
func (s *Service) selectProducts(ctx context.Context, forceAll bool) ([]product.Product, int, error) {
	var (
		selected []product.Product
		scanned  int
	)
	err := s.scanChunks(ctx, func(chunk []product.Product, recs map[string]domemb.Record) {
		scanned += len(chunk)
		for i := range chunk {
			p := &chunk[i]
			if forceAll {
				selected = append(selected, *p)
				continue
			}
			rec, ok := recs[p.ID()]
			if !ok || rec.StaleFor(p.ContentHash(), s.embed.Model(), p.UpdatedAt()) {
				selected = append(selected, *p)
			}
		}
	}, !forceAll)
	return selected, scanned, err
}

// scanChunks walks the catalog in chunks of lookupChunk products,
// fetching their records when withRecords is set.
func (s *Service) scanChunks(
	ctx context.Context, fn func(chunk []product.Product, recs map[string]domemb.Record), withRecords bool,
) error {
	chunk := make([]product.Product, 0, lookupChunk)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		var recs map[string]domemb.Record
		if withRecords {
			ids := make([]string, len(chunk))
			for i := range chunk {
				ids[i] = chunk[i].ID()
			}
			var err error
			if recs, err = s.records.GetMany(ctx, ids); err != nil {
				return fmt.Errorf("lookup records: %w", err)
			}
		}
		fn(chunk, recs)
		chunk = make([]product.Product, 0, lookupChunk)
		return nil
	}

	err := s.catalog.Each(ctx, func(p product.Product) error {
		chunk = append(chunk, p)
		if len(chunk) == lookupChunk {
			return flush()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan catalog: %w", err)
	}
	return flush()
}

// processOne embeds one product and replaces its record.
func (s *Service) processOne(ctx context.Context, p *product.Product) domreindex.ItemResult {
	res := s.embedWithRetry(ctx, p.SearchableText())
	if !res.OK() {
		return domreindex.NewFailed(p.ID(), fmt.Errorf("embed: %w", res.Err))
	}

	now := s.now()
	rec, err := domemb.NewRecord(p.ID(), res.Vector, s.embed.Dimension(), s.embed.Model(), p.ContentHash(), now)
	if err != nil {
		return domreindex.NewFailed(p.ID(), err)
	}
	if err := s.records.Upsert(ctx, &rec); err != nil {
		return domreindex.NewFailed(p.ID(), fmt.Errorf("store embedding: %w", err))
	}
	if err := s.catalog.MarkEmbeddingUpdated(ctx, p.ID(), now); err != nil {
		// The record is in place; the stamp is informational.
		s.logger.Warn("Failed to stamp embedding_updated",
			zap.String("product_id", p.ID()), zap.Error(err))
	}
	return domreindex.NewEmbedded(p.ID())
}

// embedWithRetry retries transient provider errors with exponential backoff.
// An unconfigured provider or a rejected request is never retried.
func (s *Service) embedWithRetry(ctx context.Context, text string) embedding.Result {
	delay := s.retryBase
	for attempt := 0; ; attempt++ {
		res := s.embed.Embed(ctx, text)
		if res.OK() || res.Status == embedding.StatusUnavailable {
			return res
		}
		if attempt >= s.maxRetries || !errors.Is(res.Err, domain.ErrProviderError) ||
			errors.Is(res.Err, domain.ErrProviderRejected) {
			return res
		}
		if err := s.sleep(ctx, delay); err != nil {
			return embedding.Result{Status: embedding.StatusFailed, Err: err}
		}
		delay *= 2
	}
}

// Stats reports embedding coverage of the catalog.
func (s *Service) Stats(ctx context.Context) (domreindex.Stats, error) {
	stats := domreindex.Stats{
		Dimension:    s.embed.Dimension(),
		ModelVersion: s.embed.Model(),
	}
	err := s.scanChunks(ctx, func(chunk []product.Product, recs map[string]domemb.Record) {
		stats.TotalProducts += len(chunk)
		for i := range chunk {
			p := &chunk[i]
			rec, ok := recs[p.ID()]
			switch {
			case !ok:
				stats.Missing++
			case rec.StaleFor(p.ContentHash(), s.embed.Model(), p.UpdatedAt()):
				stats.Stale++
			}
		}
	}, true)
	if err != nil {
		return domreindex.Stats{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	n, err := s.records.Count(ctx)
	if err != nil {
		return domreindex.Stats{}, fmt.Errorf("count embeddings: %w: %w", domain.ErrStoreUnavailable, err)
	}
	stats.TotalEmbeddings = n
	metrics.EmbeddingCoverage.Set(stats.CoveragePercentage() / 100)
	return stats, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
