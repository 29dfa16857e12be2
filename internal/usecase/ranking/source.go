package ranking

import (
	"context"

	domemb "github.com/kailas-cloud/prodex/internal/domain/embedding"
)

// recordScanner is the embedding store seen by the default source (ISP).
type recordScanner interface {
	Each(ctx context.Context, fn func(rec domemb.Record) error) error
}

// StoreSource is the full-scan CandidateSource over the embedding store.
type StoreSource struct {
	store recordScanner
}

// NewStoreSource wraps an embedding store as a candidate source.
func NewStoreSource(s recordScanner) *StoreSource {
	return &StoreSource{store: s}
}

// Each implements CandidateSource.
func (s *StoreSource) Each(ctx context.Context, fn func(c Candidate) error) error {
	return s.store.Each(ctx, func(rec domemb.Record) error { //nolint:wrapcheck // caller wraps
		return fn(Candidate{ID: rec.ProductID(), Vector: rec.Vector()})
	})
}

// SliceSource serves a fixed candidate list.
type SliceSource []Candidate

// Each implements CandidateSource.
func (s SliceSource) Each(_ context.Context, fn func(c Candidate) error) error {
	for _, c := range s {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}
