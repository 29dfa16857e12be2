package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain/product"
)

func writeCatalog(t *testing.T, dir, name string, rows []productRow) {
	t.Helper()
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, name), rows))
}

func sampleRows(prefix string, n int) []productRow {
	rows := make([]productRow, n)
	for i := range rows {
		rows[i] = productRow{
			ID:       prefix + string(rune('a'+i)),
			Name:     "Product " + string(rune('A'+i)),
			Category: "electronics",
			Price:    float64(10 * (i + 1)),
			Features: []string{"fast", "light"},
		}
	}
	return rows
}

type memCatalog struct {
	mu    sync.Mutex
	saved map[string]product.Product
	fail  map[string]bool
}

func newMemCatalog() *memCatalog {
	return &memCatalog{saved: map[string]product.Product{}, fail: map[string]bool{}}
}

func (m *memCatalog) Save(_ context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[p.ID()] {
		return errors.New("write failed")
	}
	m.saved[p.ID()] = *p
	return nil
}

func TestReader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := []productRow{{
		ID:             "p1",
		Name:           "Laptop Pro",
		Brand:          "Acme",
		Category:       "electronics",
		Features:       []string{"16GB RAM", "OLED"},
		Specifications: `{"cpu":"M3"}`,
		Price:          1299.5,
		Rating:         4.5,
		ReviewCount:    42,
		Tags:           []string{"work"},
	}}
	writeCatalog(t, dir, "a.parquet", rows)

	r, err := newParquetReader(dir)
	require.NoError(t, err)

	var got []productRow
	require.NoError(t, r.ReadProducts(0, 0, 0, func(row *productRow, _, _ int) bool {
		got = append(got, *row)
		return true
	}))
	require.Len(t, got, 1)
	assert.Equal(t, "Laptop Pro", got[0].Name)
	assert.Equal(t, "Acme", got[0].Brand)
	assert.Equal(t, []string{"16GB RAM", "OLED"}, got[0].Features)
	assert.InDelta(t, 1299.5, got[0].Price, 1e-9)
	assert.Equal(t, int64(42), got[0].ReviewCount)

	attrs, err := got[0].toAttributes()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cpu": "M3"}, attrs.Specifications)
}

func TestReader_SkipAndLimitAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "01.parquet", sampleRows("x", 3))
	writeCatalog(t, dir, "02.parquet", sampleRows("y", 3))

	r, err := newParquetReader(dir)
	require.NoError(t, err)

	var ids []string
	require.NoError(t, r.ReadProducts(0, 2, 3, func(row *productRow, _, _ int) bool {
		ids = append(ids, row.ID)
		return true
	}))
	assert.Equal(t, []string{"xc", "ya", "yb"}, ids)
}

func TestReader_NoFiles(t *testing.T) {
	_, err := newParquetReader(t.TempDir())
	assert.Error(t, err)
}

func TestWatermark_OutOfOrder(t *testing.T) {
	w := newWatermark(0, 0)

	_, _, ok := w.complete(1, 0, 200)
	assert.False(t, ok, "batch 1 must wait for batch 0")

	fi, off, ok := w.complete(0, 0, 100)
	require.True(t, ok)
	assert.Equal(t, 0, fi)
	assert.Equal(t, 200, off)

	fi, off, ok = w.complete(2, 1, 50)
	require.True(t, ok)
	assert.Equal(t, 1, fi)
	assert.Equal(t, 50, off)
}

func TestCursor_PersistsAndResumes(t *testing.T) {
	dir := t.TempDir()
	ct, err := newCursorTracker(dir, 10, zap.NewNop())
	require.NoError(t, err)

	ct.Advance(1, 40, 8, 2)
	ct.Flush()

	again, err := newCursorTracker(dir, 10, zap.NewNop())
	require.NoError(t, err)
	cur := again.Get()
	assert.Equal(t, 1, cur.FileIndex)
	assert.Equal(t, 40, cur.RowOffset)
	assert.Equal(t, 8, cur.TotalProcessed)
	assert.Equal(t, 2, cur.TotalFailed)

	again.Reset()
	assert.Equal(t, Cursor{}, again.Get())
}

func newTestIngester(t *testing.T, catalog catalogWriter, dir string) *ingester {
	t.Helper()
	ct, err := newCursorTracker(dir, 1, zap.NewNop())
	require.NoError(t, err)
	return &ingester{
		catalog:   catalog,
		workers:   3,
		batchSize: 2,
		metrics:   newLoaderMetrics(prometheus.NewRegistry()),
		cursor:    ct,
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestIngester_LoadsAndCountsFailures(t *testing.T) {
	dir := t.TempDir()
	rows := sampleRows("p", 5)
	rows[1].Name = "" // invalid
	writeCatalog(t, dir, "catalog.parquet", rows)

	catalog := newMemCatalog()
	catalog.fail["pc"] = true

	ing := newTestIngester(t, catalog, dir)
	reader, err := newParquetReader(dir)
	require.NoError(t, err)

	res, err := ing.Run(context.Background(), reader, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Processed)
	assert.Equal(t, int64(2), res.Failed)
	assert.Len(t, catalog.saved, 3)
	assert.Contains(t, catalog.saved, "pe")

	cur := ing.cursor.Get()
	assert.Equal(t, 0, cur.FileIndex)
	assert.Equal(t, 5, cur.RowOffset)
}

func TestIngester_ResumesFromCursor(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "catalog.parquet", sampleRows("p", 4))

	ing := newTestIngester(t, newMemCatalog(), dir)
	ing.cursor.Advance(0, 3, 3, 0)

	catalog := newMemCatalog()
	ing.catalog = catalog
	reader, err := newParquetReader(dir)
	require.NoError(t, err)

	res, err := ing.Run(context.Background(), reader, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Processed)
	assert.Contains(t, catalog.saved, "pd")
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"data-dir", "workers", "batch-size", "reset", "reindex", "max-rows"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
