package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/app"
	"github.com/kailas-cloud/prodex/internal/config"
	"github.com/kailas-cloud/prodex/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/prodex/internal/logger"
	"github.com/kailas-cloud/prodex/internal/metrics"
	chiTransport "github.com/kailas-cloud/prodex/internal/transport/chi"
	reindexuc "github.com/kailas-cloud/prodex/internal/usecase/reindex"
	"github.com/kailas-cloud/prodex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting prodex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Background jobs (reindex, scheduler) live until shutdown.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}
	defer a.Close()

	scheduler := reindexuc.NewScheduler(a.Reindex, cfg.Indexing.ScheduleInterval(), logger)
	scheduler.Start(ctx)

	server := chiTransport.NewServer(a.Search, a.Suggest, a.Reindex, a.Health, logger).
		WithBackground(ctx).
		WithSearchLimits(request.Limits{
			DefaultLimit:   cfg.Search.DefaultLimit,
			MaxLimit:       cfg.Search.MaxLimit,
			MaxQueryLength: cfg.Search.MaxQueryLength,
		})

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	metrics.RegisterHTTPMetrics()
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Stop background reindexing; a running job keeps its partial progress.
	stop()
	select {
	case <-scheduler.Done():
	case <-shutdownCtx.Done():
		logger.Warn("Scheduler did not stop before shutdown deadline")
	}

	logger.Info("Server stopped gracefully")
}
