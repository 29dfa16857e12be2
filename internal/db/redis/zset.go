package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/prodex/internal/db"
)

// ZIncrBy increments member's score in a sorted set.
func (s *Store) ZIncrBy(ctx context.Context, key, member string, incr float64) error {
	cmd := s.b().Zincrby().Key(key).Increment(incr).Member(member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZIncrBy, Err: err}
	}
	return nil
}

// ZRevRangeWithScores returns the top limit members by score, highest first.
func (s *Store) ZRevRangeWithScores(ctx context.Context, key string, limit int) ([]db.ScoredMember, error) {
	if limit <= 0 {
		return nil, nil
	}
	cmd := s.b().Zrevrange().Key(key).Start(0).Stop(int64(limit - 1)).Withscores().Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRevRange, Err: err}
	}
	return toScored(scores), nil
}

// ZUnionWithScores returns the union of sorted sets with summed scores.
func (s *Store) ZUnionWithScores(ctx context.Context, keys []string) ([]db.ScoredMember, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmd := s.b().Zunion().Numkeys(int64(len(keys))).Key(keys...).Withscores().Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZUnion, Err: err}
	}
	return toScored(scores), nil
}

func toScored(scores []rueidis.ZScore) []db.ScoredMember {
	out := make([]db.ScoredMember, len(scores))
	for i, z := range scores {
		out[i] = db.ScoredMember{Member: z.Member, Score: z.Score}
	}
	return out
}
