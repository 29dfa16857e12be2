// Package app wires the prodex services from configuration. It is the
// composition root shared by the API server and the offline reindex CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/config"
	dbRedis "github.com/kailas-cloud/prodex/internal/db/redis"
	"github.com/kailas-cloud/prodex/internal/domain"
	"github.com/kailas-cloud/prodex/internal/metrics"
	"github.com/kailas-cloud/prodex/internal/repository/embcache"
	embeddingrepo "github.com/kailas-cloud/prodex/internal/repository/embedding"
	historyrepo "github.com/kailas-cloud/prodex/internal/repository/history"
	productrepo "github.com/kailas-cloud/prodex/internal/repository/product"
	openaiTransport "github.com/kailas-cloud/prodex/internal/transport/openai"
	analysisuc "github.com/kailas-cloud/prodex/internal/usecase/analysis"
	embeddinguc "github.com/kailas-cloud/prodex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/prodex/internal/usecase/health"
	"github.com/kailas-cloud/prodex/internal/usecase/ranking"
	reindexuc "github.com/kailas-cloud/prodex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/prodex/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/prodex/internal/usecase/suggest"
)

const (
	providerName = "openai-compatible"
	// sharedCacheTTL bounds how long a cached vector outlives a model change.
	sharedCacheTTL = 7 * 24 * time.Hour
)

// App holds the wired services.
type App struct {
	Store      *dbRedis.Store
	Products   *productrepo.Repo
	Embeddings *embeddingrepo.Repo
	History    *historyrepo.Repo
	Embedder   *embeddinguc.Client
	Search     *searchuc.Service
	Suggest    *suggestuc.Engine
	Reindex    *reindexuc.Service
	Health     *healthuc.Service
}

// New connects to the store and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	prefix := cfg.Database.KeyPrefix
	a := &App{
		Store:      store,
		Products:   productrepo.New(store, prefix),
		Embeddings: embeddingrepo.New(store, prefix),
		History:    historyrepo.New(store, prefix, cfg.History.MaxEntries, cfg.History.TrendingTTLDays),
	}

	// Pass nil interfaces (not typed nil pointers) when a provider is not configured.
	var (
		embedder  domain.Embedder
		provider  healthuc.ProviderChecker
		generator domain.Generator
	)
	if cfg.Embedding.APIKey != "" {
		inst := buildEmbedder(cfg, store, logger)
		embedder, provider = inst, inst
		logger.Info("Embedding provider configured",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions))
	} else {
		logger.Warn("No embedding API key, search runs in keyword mode")
	}
	if cfg.Generation.APIKey != "" && cfg.Generation.Model != "" {
		generator = openaiTransport.NewGenerator(&openaiTransport.Config{
			APIKey:   cfg.Generation.APIKey,
			BaseURL:  cfg.Generation.BaseURL,
			Model:    cfg.Generation.Model,
			Provider: providerName,
			Logger:   logger,
		})
	}

	a.Embedder = embeddinguc.NewClient(embedder, cfg.Embedding.Dimensions, cfg.Embedding.Model, logger).
		WithMaxInputChars(cfg.Embedding.MaxInputChars).
		WithQueryMemo(cfg.Embedding.QueryCacheSize, cfg.Embedding.QueryCacheTTL())

	a.Suggest = suggestuc.New(a.History, a.Products, generator, logger).
		WithTimeout(cfg.Generation.Timeout())

	a.Search = searchuc.New(
		a.Products, a.Embeddings, ranking.NewStoreSource(a.Embeddings),
		a.Embedder, analysisuc.New(generator, cfg.Generation.Timeout(), logger), logger,
	).
		WithThresholds(cfg.Search.Threshold, cfg.Search.SimilarThreshold).
		WithHistory(a.History).
		WithSuggester(a.Suggest)

	a.Reindex = reindexuc.New(a.Products, a.Embeddings, a.Embedder, logger).
		WithItemDelay(cfg.Indexing.ItemDelay()).
		WithRetries(cfg.Indexing.Retries(), cfg.Indexing.RetryBaseDelay()).
		WithProgressEvery(cfg.Indexing.ProgressEvery)

	a.Health = healthuc.New(store, provider)

	return a, nil
}

// Close releases the store connection.
func (a *App) Close() {
	a.Store.Close()
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(cfg *config.Config, store *dbRedis.Store, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   providerName,
		Logger:     logger,
	})

	var inner domain.Embedder = base
	if cfg.Embedding.SharedCache {
		inner = embcache.New(base, store, cfg.Database.KeyPrefix, cfg.Embedding.Model,
			sharedCacheTTL, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(
		inner, providerName, cfg.Embedding.Model, cfg.Embedding.RequestTimeout(), logger,
	)
}
