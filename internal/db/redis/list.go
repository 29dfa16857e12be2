package redis

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/prodex/internal/db"
)

// LPushTrim prepends value and caps the list at maxLen in one round-trip.
func (s *Store) LPushTrim(ctx context.Context, key, value string, maxLen int) error {
	if maxLen <= 0 {
		return fmt.Errorf("LPushTrim %s: maxLen must be positive", key)
	}
	results := s.client.DoMulti(ctx,
		s.b().Lpush().Key(key).Element(value).Build(),
		s.b().Ltrim().Key(key).Start(0).Stop(int64(maxLen-1)).Build(),
	)
	for _, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpLPush, Err: err}
		}
	}
	return nil
}

// LRange returns list elements between start and stop (inclusive).
func (s *Store) LRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	cmd := s.b().Lrange().Key(key).Start(int64(start)).Stop(int64(stop)).Build()
	vals, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return vals, nil
}
