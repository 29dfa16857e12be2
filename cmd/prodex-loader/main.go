// Command prodex-loader bulk-loads a product catalog from parquet files
// into the prodex store. Loads resume from a cursor file kept in the data
// directory; --reindex embeds the new products once loading finishes.
//
// Usage:
//
//	prodex-loader --data-dir /data --workers 8 --reindex
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/app"
	"github.com/kailas-cloud/prodex/internal/config"
	logpkg "github.com/kailas-cloud/prodex/internal/logger"
	"github.com/kailas-cloud/prodex/internal/version"
)

type options struct {
	env            string
	dataDir        string
	maxRows        int
	workers        int
	batchSize      int
	metricsPort    string
	cursorInterval int
	reset          bool
	reindex        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "prodex-loader",
		Short:        "Load a product catalog from parquet files",
		Version:      version.String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.env, "env", config.GetEnv(), "Config environment (local, dev, prod)")
	f.StringVar(&opts.dataDir, "data-dir", "/data", "Directory with *.parquet files and the cursor")
	f.IntVar(&opts.maxRows, "max-rows", 0, "Max rows to load (0 = unlimited)")
	f.IntVar(&opts.workers, "workers", 4, "Parallel writers")
	f.IntVar(&opts.batchSize, "batch-size", 100, "Rows per batch")
	f.StringVar(&opts.metricsPort, "metrics-port", "9090", "Prometheus metrics port (empty = disabled)")
	f.IntVar(&opts.cursorInterval, "cursor-interval", 1000, "Save the cursor every N rows")
	f.BoolVar(&opts.reset, "reset", false, "Ignore the saved cursor and start from scratch")
	f.BoolVar(&opts.reindex, "reindex", false, "Embed missing or stale products after loading")
	return cmd
}

func run(ctx context.Context, opts *options) error {
	if opts.workers < 1 || opts.batchSize < 1 {
		return fmt.Errorf("workers and batch-size must be positive")
	}
	start := time.Now()

	cfg, err := config.Load(opts.env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	metrics := newLoaderMetrics(reg)
	if opts.metricsPort != "" {
		srv := serveMetrics(opts.metricsPort, reg, logger)
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	cursor, err := newCursorTracker(opts.dataDir, opts.cursorInterval, logger)
	if err != nil {
		return fmt.Errorf("cursor: %w", err)
	}
	if opts.reset {
		cursor.Reset()
		logger.Info("Cursor reset, starting from scratch")
	}

	reader, err := newParquetReader(opts.dataDir)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	poller := &catalogPoller{catalog: a.Products, metrics: metrics, interval: 30 * time.Second, logger: logger}
	poller.Start(ctx)

	cursor.SetStage("products")
	ing := &ingester{
		catalog:   a.Products,
		workers:   opts.workers,
		batchSize: opts.batchSize,
		metrics:   metrics,
		cursor:    cursor,
		logger:    logger,
		now:       time.Now,
	}
	result, err := ing.Run(ctx, reader, opts.maxRows)
	if err != nil {
		logger.Warn("Load interrupted, progress saved",
			zap.Int64("processed", result.Processed), zap.Error(err))
		return err
	}
	cursor.Done()

	logger.Info("Load complete",
		zap.Int64("processed", result.Processed),
		zap.Int64("failed", result.Failed),
		zap.Float64("rows_per_sec", float64(result.Processed)/result.Duration.Seconds()),
		zap.Duration("elapsed", time.Since(start).Round(time.Second)))

	if !opts.reindex {
		return nil
	}
	report, err := a.Reindex.Run(ctx, false)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	logger.Info("Reindex complete",
		zap.Int("selected", report.Total),
		zap.Int("processed", report.Processed),
		zap.Int("errors", report.Errors))
	return nil
}
