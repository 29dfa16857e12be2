package prodex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/prodex/internal/db/redis"
	"github.com/kailas-cloud/prodex/internal/domain"
	domprod "github.com/kailas-cloud/prodex/internal/domain/product"
	domreindex "github.com/kailas-cloud/prodex/internal/domain/reindex"
	"github.com/kailas-cloud/prodex/internal/domain/search/request"
	"github.com/kailas-cloud/prodex/internal/domain/search/result"
	embeddingrepo "github.com/kailas-cloud/prodex/internal/repository/embedding"
	historyrepo "github.com/kailas-cloud/prodex/internal/repository/history"
	productrepo "github.com/kailas-cloud/prodex/internal/repository/product"
	analysisuc "github.com/kailas-cloud/prodex/internal/usecase/analysis"
	embeddinguc "github.com/kailas-cloud/prodex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/prodex/internal/usecase/health"
	"github.com/kailas-cloud/prodex/internal/usecase/ranking"
	reindexuc "github.com/kailas-cloud/prodex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/prodex/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/prodex/internal/usecase/suggest"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "prodex:"
	defaultModel            = "text-embedding-004"
	defaultDimensions       = 768
)

// Internal interfaces for substitution in tests.
type catalogUseCase interface {
	Save(ctx context.Context, p *domprod.Product) error
	Get(ctx context.Context, id string) (domprod.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type embeddingDeleter interface {
	Delete(ctx context.Context, productID string) error
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
	SimilarTo(ctx context.Context, req *request.SimilarRequest) ([]result.Result, error)
}

type reindexUseCase interface {
	Run(ctx context.Context, forceAll bool) (domreindex.Report, error)
	Stats(ctx context.Context) (domreindex.Stats, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type pinger interface {
	Ping(ctx context.Context) error
	Close()
}

// Client is the prodex SDK entry point.
type Client struct {
	store      pinger
	catalog    catalogUseCase
	embeddings embeddingDeleter
	searchSvc  searchUseCase
	reindexSvc reindexUseCase
	healthSvc  healthUseCase
	now        func() time.Time
	obs        *observer
}

// New creates a Client and connects to Redis.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newClientConfig(opts...)

	if len(cfg.addrs) == 0 {
		return nil, errors.New("prodex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("prodex: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("prodex: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func newClientConfig(opts ...Option) *clientConfig {
	cfg := &clientConfig{
		keyPrefix:        defaultKeyPrefix,
		model:            defaultModel,
		vectorDimensions: defaultDimensions,
		itemDelay:        reindexuc.DefaultItemDelay,
		maxRetries:       reindexuc.DefaultMaxRetries,
		retryBase:        reindexuc.DefaultRetryBaseDelay,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	return cfg
}

func wireClient(store *dbRedis.Store, cfg *clientConfig, obs *observer) *Client {
	logger := zap.NewNop()

	products := productrepo.New(store, cfg.keyPrefix)
	embeddings := embeddingrepo.New(store, cfg.keyPrefix)
	history := historyrepo.New(store, cfg.keyPrefix, 0, 0)

	// Pass nil interfaces (not typed nil pointers) when not configured.
	var (
		embedder  domain.Embedder
		provider  healthuc.ProviderChecker
		generator domain.Generator
	)
	if cfg.embedder != nil {
		adapter := &embedderAdapter{inner: cfg.embedder}
		embedder, provider = adapter, adapter
	}
	if cfg.generator != nil {
		generator = cfg.generator
	}

	client := embeddinguc.NewClient(embedder, cfg.vectorDimensions, cfg.model, logger)
	suggest := suggestuc.New(history, products, generator, logger)
	search := searchuc.New(
		products, embeddings, ranking.NewStoreSource(embeddings),
		client, analysisuc.New(generator, 0, logger), logger,
	).
		WithThresholds(cfg.threshold, cfg.similarThreshold).
		WithHistory(history).
		WithSuggester(suggest)

	return &Client{
		store:      store,
		catalog:    products,
		embeddings: embeddings,
		searchSvc:  search,
		reindexSvc: reindexuc.New(products, embeddings, client, logger).
			WithItemDelay(cfg.itemDelay).
			WithRetries(cfg.maxRetries, cfg.retryBase),
		healthSvc:  healthuc.New(store, provider),
		now:        time.Now,
		obs:        obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Products returns the catalog service.
func (c *Client) Products() *ProductService {
	return &ProductService{catalog: c.catalog, embeddings: c.embeddings, now: c.now, obs: c.obs}
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck forwards to the wrapped embedder when it supports it.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
