package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// loaderMetrics are the loader's Prometheus metrics on a private registry.
type loaderMetrics struct {
	rowsProcessed  prometheus.Counter
	rowsFailed     *prometheus.CounterVec
	batchesTotal   prometheus.Counter
	batchDuration  prometheus.Histogram
	cursorPosition prometheus.Gauge
	catalogSize    prometheus.Gauge
}

func newLoaderMetrics(reg prometheus.Registerer) *loaderMetrics {
	m := &loaderMetrics{
		rowsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "prodex_loader",
			Name:      "rows_processed_total",
			Help:      "Total products saved",
		}),
		rowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prodex_loader",
			Name:      "rows_failed_total",
			Help:      "Total rows not saved",
		}, []string{"reason"}),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "prodex_loader",
			Name:      "batches_total",
			Help:      "Total batches written",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "prodex_loader",
			Name:      "batch_duration_seconds",
			Help:      "Batch write duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		cursorPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "prodex_loader",
			Name:      "cursor_position",
			Help:      "Committed row offset in the current file",
		}),
		catalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "prodex_loader",
			Name:      "catalog_products",
			Help:      "Products currently in the catalog",
		}),
	}

	reg.MustRegister(
		m.rowsProcessed, m.rowsFailed,
		m.batchesTotal, m.batchDuration,
		m.cursorPosition, m.catalogSize,
	)
	return m
}

// serveMetrics starts an HTTP server exposing reg for scraping.
func serveMetrics(port string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()
	return srv
}

// catalogCounter is satisfied by the product repository.
type catalogCounter interface {
	Count(ctx context.Context) (int, error)
}

// catalogPoller periodically samples the catalog size.
type catalogPoller struct {
	catalog  catalogCounter
	metrics  *loaderMetrics
	interval time.Duration
	logger   *zap.Logger
}

// Start runs the poller until ctx is done.
func (p *catalogPoller) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.poll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

func (p *catalogPoller) poll(ctx context.Context) {
	n, err := p.catalog.Count(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Debug("Catalog count failed", zap.Error(err))
		}
		return
	}
	p.metrics.catalogSize.Set(float64(n))
}
