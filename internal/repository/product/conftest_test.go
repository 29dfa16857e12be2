package product

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/prodex/internal/db"
	domprod "github.com/kailas-cloud/prodex/internal/domain/product"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) (bool, error)
	hreplaceFn     func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	existsFn       func(ctx context.Context, key string) (bool, error)
	delFn          func(ctx context.Context, key string) error
	scanPages      [][]string
	scanErr        error
}

func (m *mockStore) HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error) {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return false, nil
}

func (m *mockStore) HReplace(ctx context.Context, key string, fields map[string]string) error {
	if m.hreplaceFn != nil {
		return m.hreplaceFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) ScanEach(_ context.Context, _ string, fn func(keys []string) error) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	for _, page := range m.scanPages {
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "prodex:"), ms
}

func testProduct(t *testing.T) domprod.Product {
	t.Helper()
	p, err := domprod.New("p-1", domprod.Attributes{
		Name:           "Trail Runner 3",
		Brand:          "Stride",
		Category:       "sports",
		Description:    "Lightweight trail running shoe",
		Features:       []string{"Vibram sole", "Waterproof"},
		Specifications: map[string]string{"drop": "6mm"},
		Price:          129.5,
		Rating:         4.2,
		ReviewCount:    87,
		Tags:           []string{"running"},
	}, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("domprod.New: %v", err)
	}
	return p
}
