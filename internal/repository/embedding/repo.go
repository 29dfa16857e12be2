package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/prodex/internal/db"
	"github.com/kailas-cloud/prodex/internal/domain"
	domemb "github.com/kailas-cloud/prodex/internal/domain/embedding"
)

// store is the consumer interface for embedding records (ISP).
type store interface {
	HReplace(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	ScanEach(ctx context.Context, pattern string, fn func(keys []string) error) error
}

// Repo stores one embedding record per product, keyed by product ID.
type Repo struct {
	store  store
	prefix string
}

// New creates an embedding repository. prefix namespaces keys (e.g. "prodex:").
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix + "embedding:"}
}

// Upsert replaces the record for its product.
func (r *Repo) Upsert(ctx context.Context, rec *domemb.Record) error {
	key := r.key(rec.ProductID())
	if err := r.store.HReplace(ctx, key, buildHashFields(rec)); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Get returns the record of a product.
// Records with an unreadable vector count as missing.
func (r *Repo) Get(ctx context.Context, productID string) (domemb.Record, error) {
	key := r.key(productID)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domemb.Record{}, domain.ErrEmbeddingNotFound
		}
		return domemb.Record{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	rec := parseHashFields(productID, m)
	if rec.Dim() == 0 {
		return domemb.Record{}, domain.ErrEmbeddingNotFound
	}
	return rec, nil
}

// GetMany loads records for the given products in one round-trip.
// Products without a readable record are absent from the result.
func (r *Repo) GetMany(ctx context.Context, productIDs []string) (map[string]domemb.Record, error) {
	out := make(map[string]domemb.Record, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = r.key(id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		rec := parseHashFields(productIDs[i], m)
		if rec.Dim() == 0 {
			continue
		}
		out[productIDs[i]] = rec
	}
	return out, nil
}

// Delete removes the record of a product. Missing records are not an error.
func (r *Repo) Delete(ctx context.Context, productID string) error {
	key := r.key(productID)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Each streams every readable record to fn.
func (r *Repo) Each(ctx context.Context, fn func(rec domemb.Record) error) error {
	err := r.store.ScanEach(ctx, r.prefix+"*", func(keys []string) error {
		maps, err := r.store.HGetAllMulti(ctx, keys)
		if err != nil {
			return fmt.Errorf("load embeddings: %w", err)
		}
		for i, m := range maps {
			if len(m) == 0 {
				continue
			}
			rec := parseHashFields(strings.TrimPrefix(keys[i], r.prefix), m)
			if rec.Dim() == 0 {
				continue
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan embeddings: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.store.ScanEach(ctx, r.prefix+"*", func(keys []string) error {
		n += len(keys)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

func (r *Repo) key(productID string) string {
	return r.prefix + productID
}
