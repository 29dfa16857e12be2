package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain/product"
)

// catalogWriter is the part of the product repository the loader needs.
type catalogWriter interface {
	Save(ctx context.Context, p *product.Product) error
}

// ingester batches parquet rows and saves them through a bounded worker pool.
// Submitting blocks while every worker is busy, which throttles the reader.
type ingester struct {
	catalog   catalogWriter
	workers   int
	batchSize int
	metrics   *loaderMetrics
	cursor    *cursorTracker
	logger    *zap.Logger
	now       func() time.Time
}

// batch is one unit of work. seq orders batches for cursor commits.
type batch struct {
	seq       int
	products  []product.Product
	invalid   int
	fileIndex int
	rowOffset int
}

type ingestResult struct {
	Processed int64
	Failed    int64
	Duration  time.Duration
}

// Run loads rows from the cursor position until the reader is exhausted,
// maxRows is reached or ctx is cancelled.
func (ing *ingester) Run(ctx context.Context, reader *parquetReader, maxRows int) (ingestResult, error) {
	pool, err := ants.NewPool(ing.workers)
	if err != nil {
		return ingestResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	cur := ing.cursor.Get()
	commits := newWatermark(cur.FileIndex, cur.RowOffset)

	var (
		wg                sync.WaitGroup
		processed, failed atomic.Int64
	)
	start := time.Now()

	submit := func(b batch) error {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			ing.processBatch(ctx, &b, commits, &processed, &failed)
		})
		if err != nil {
			wg.Done()
			return fmt.Errorf("submit batch %d: %w", b.seq, err)
		}
		return nil
	}

	readerErr := ing.produce(ctx, reader, cur.FileIndex, cur.RowOffset, maxRows, submit)
	wg.Wait()
	ing.cursor.Flush()

	result := ingestResult{
		Processed: processed.Load(),
		Failed:    failed.Load(),
		Duration:  time.Since(start),
	}
	if readerErr != nil {
		return result, readerErr
	}
	return result, ctx.Err()
}

func (ing *ingester) produce(
	ctx context.Context, reader *parquetReader,
	fileIndex, rowOffset, maxRows int, submit func(batch) error,
) error {
	cur := batch{fileIndex: fileIndex, rowOffset: rowOffset}
	seq := 0
	var submitErr error
	flush := func() bool {
		cur.seq = seq
		seq++
		if err := submit(cur); err != nil {
			submitErr = err
			return false
		}
		cur = batch{fileIndex: cur.fileIndex, rowOffset: cur.rowOffset}
		return true
	}

	err := reader.ReadProducts(fileIndex, rowOffset, maxRows, func(row *productRow, fi, next int) bool {
		if ctx.Err() != nil {
			return false
		}
		if fi != cur.fileIndex && len(cur.products)+cur.invalid > 0 && !flush() {
			return false
		}
		cur.fileIndex, cur.rowOffset = fi, next

		p, ok := ing.toProduct(row)
		if ok {
			cur.products = append(cur.products, p)
		} else {
			cur.invalid++
		}
		if len(cur.products)+cur.invalid >= ing.batchSize {
			return flush()
		}
		return true
	})

	if submitErr == nil && len(cur.products)+cur.invalid > 0 {
		flush()
	}
	if submitErr != nil {
		return submitErr
	}
	return err
}

func (ing *ingester) toProduct(row *productRow) (product.Product, bool) {
	attrs, err := row.toAttributes()
	if err == nil {
		var p product.Product
		if p, err = product.New(row.ID, attrs, ing.now()); err == nil {
			return p, true
		}
	}
	ing.logger.Debug("Skipping invalid row", zap.String("id", row.ID), zap.Error(err))
	if ing.metrics != nil {
		ing.metrics.rowsFailed.WithLabelValues("invalid").Inc()
	}
	return product.Product{}, false
}

func (ing *ingester) processBatch(
	ctx context.Context, b *batch,
	commits *watermark, processed, failed *atomic.Int64,
) {
	start := time.Now()
	ok, bad := 0, b.invalid
	for i := range b.products {
		if err := ing.catalog.Save(ctx, &b.products[i]); err != nil {
			bad++
			ing.logger.Warn("Failed to save product",
				zap.Int("batch", b.seq),
				zap.String("product_id", b.products[i].ID()),
				zap.Error(err))
			if ing.metrics != nil {
				ing.metrics.rowsFailed.WithLabelValues("save_error").Inc()
			}
			continue
		}
		ok++
	}

	if ing.metrics != nil {
		ing.metrics.batchDuration.Observe(time.Since(start).Seconds())
		ing.metrics.batchesTotal.Inc()
		ing.metrics.rowsProcessed.Add(float64(ok))
	}
	processed.Add(int64(ok))
	failed.Add(int64(bad))

	// Rows of an interrupted batch are retried on resume.
	if ctx.Err() != nil {
		return
	}
	if fi, off, advanced := commits.complete(b.seq, b.fileIndex, b.rowOffset); advanced {
		ing.cursor.Advance(fi, off, ok, bad)
		if ing.metrics != nil {
			ing.metrics.cursorPosition.Set(float64(off))
		}
	} else {
		ing.cursor.Add(ok, bad)
	}

	if total := processed.Load(); total%1000 < int64(ing.batchSize) {
		ing.logger.Info("Load progress",
			zap.Int64("processed", total),
			zap.Int64("failed", failed.Load()))
	}
}

// watermark tracks out-of-order batch completion so the saved cursor only
// covers rows whose batch and every earlier batch finished.
type watermark struct {
	mu        sync.Mutex
	next      int
	pending   map[int][2]int
	fileIndex int
	rowOffset int
}

func newWatermark(fileIndex, rowOffset int) *watermark {
	return &watermark{pending: make(map[int][2]int), fileIndex: fileIndex, rowOffset: rowOffset}
}

// complete records batch seq and returns the new contiguous position.
func (w *watermark) complete(seq, fileIndex, rowOffset int) (int, int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[seq] = [2]int{fileIndex, rowOffset}
	advanced := false
	for {
		pos, ok := w.pending[w.next]
		if !ok {
			break
		}
		delete(w.pending, w.next)
		w.next++
		w.fileIndex, w.rowOffset = pos[0], pos[1]
		advanced = true
	}
	return w.fileIndex, w.rowOffset, advanced
}
