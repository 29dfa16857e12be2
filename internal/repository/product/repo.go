package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/prodex/internal/db"
	"github.com/kailas-cloud/prodex/internal/domain"
	domprod "github.com/kailas-cloud/prodex/internal/domain/product"
)

// store is the consumer interface for products (ISP).
type store interface {
	HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error)
	HReplace(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, key string) error
	ScanEach(ctx context.Context, pattern string, fn func(keys []string) error) error
}

// Repo is the catalog collaborator: products stored as Redis hashes.
type Repo struct {
	store  store
	prefix string
}

// New creates a product repository. prefix namespaces keys (e.g. "prodex:").
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix + "product:"}
}

// Save writes the whole product, replacing any previous version.
func (r *Repo) Save(ctx context.Context, p *domprod.Product) error {
	key := r.key(p.ID())
	if err := r.store.HReplace(ctx, key, buildHashFields(p)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Get returns a product by ID.
func (r *Repo) Get(ctx context.Context, id string) (domprod.Product, error) {
	key := r.key(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domprod.Product{}, domain.ErrProductNotFound
		}
		return domprod.Product{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return parseHashFields(id, m), nil
}

// Delete removes a product.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Each streams every product to fn, one SCAN page at a time.
// Keys that vanish between SCAN and HGETALL are skipped.
// An error from fn stops the iteration and is returned as is.
func (r *Repo) Each(ctx context.Context, fn func(p domprod.Product) error) error {
	err := r.store.ScanEach(ctx, r.prefix+"*", func(keys []string) error {
		maps, err := r.store.HGetAllMulti(ctx, keys)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		for i, m := range maps {
			if len(m) == 0 {
				continue
			}
			if err := fn(parseHashFields(r.idFromKey(keys[i]), m)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan products: %w", err)
	}
	return nil
}

// Count returns the number of stored products.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.store.ScanEach(ctx, r.prefix+"*", func(keys []string) error {
		n += len(keys)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// MarkEmbeddingUpdated stamps the product as embedded at t. A product
// deleted concurrently is never recreated as a partial hash.
func (r *Repo) MarkEmbeddingUpdated(ctx context.Context, id string, t time.Time) error {
	key := r.key(id)
	ok, err := r.store.HSetIfExists(ctx, key, map[string]string{fieldEmbeddingUpdated: formatTime(t)})
	if err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if !ok {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}

func (r *Repo) idFromKey(key string) string {
	return strings.TrimPrefix(key, r.prefix)
}
