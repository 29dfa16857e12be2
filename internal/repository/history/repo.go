package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/prodex/internal/db"
	domhist "github.com/kailas-cloud/prodex/internal/domain/history"
)

const dayLayout = "2006-01-02"

// store is the consumer interface for search history (ISP).
type store interface {
	LPushTrim(ctx context.Context, key, value string, maxLen int) error
	LRange(ctx context.Context, key string, start, stop int) ([]string, error)
	ZIncrBy(ctx context.Context, key, member string, incr float64) error
	ZRevRangeWithScores(ctx context.Context, key string, limit int) ([]db.ScoredMember, error)
	ZUnionWithScores(ctx context.Context, keys []string) ([]db.ScoredMember, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo keeps the search log and the query counters behind popular and
// trending suggestions:
//
//	{prefix}history:log            capped list of JSON entries, newest first
//	{prefix}history:freq           all-time query counts
//	{prefix}history:day:YYYY-MM-DD per-day query counts, expiring
type Repo struct {
	store      store
	prefix     string
	maxEntries int
	dayTTL     time.Duration
	now        func() time.Time
}

// New creates a history repository.
func New(s store, prefix string, maxEntries, trendingTTLDays int) *Repo {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if trendingTTLDays <= 0 {
		trendingTTLDays = 31
	}
	return &Repo{
		store:      s,
		prefix:     prefix + "history:",
		maxEntries: maxEntries,
		dayTTL:     time.Duration(trendingTTLDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (r *Repo) WithClock(now func() time.Time) *Repo {
	r.now = now
	return r
}

// Record appends the entry to the log. Queries that found something also
// bump the all-time and daily counters; zero-result searches are logged
// but never suggested.
func (r *Repo) Record(ctx context.Context, e domhist.Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	if err := r.store.LPushTrim(ctx, r.logKey(), string(data), r.maxEntries); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	q := domhist.Normalize(e.Query)
	if e.ResultsCount <= 0 || q == "" {
		return nil
	}
	if err := r.store.ZIncrBy(ctx, r.freqKey(), q, 1); err != nil {
		return fmt.Errorf("bump query count: %w", err)
	}
	dayKey := r.dayKey(e.Timestamp)
	if err := r.store.ZIncrBy(ctx, dayKey, q, 1); err != nil {
		return fmt.Errorf("bump daily count: %w", err)
	}
	if err := r.store.Expire(ctx, dayKey, r.dayTTL, true); err != nil {
		return fmt.Errorf("expire %s: %w", dayKey, err)
	}
	return nil
}

// Popular returns the most frequent successful queries of all time.
func (r *Repo) Popular(ctx context.Context, limit int) ([]domhist.Count, error) {
	members, err := r.store.ZRevRangeWithScores(ctx, r.freqKey(), limit)
	if err != nil {
		return nil, fmt.Errorf("popular queries: %w", err)
	}
	return toCounts(members, limit), nil
}

// Trending returns the most frequent successful queries over the last
// days calendar days (UTC), today included.
func (r *Repo) Trending(ctx context.Context, days, limit int) ([]domhist.Count, error) {
	if days <= 0 {
		days = 1
	}
	today := r.now().UTC()
	keys := make([]string, days)
	for i := range days {
		keys[i] = r.dayKey(today.AddDate(0, 0, -i))
	}
	members, err := r.store.ZUnionWithScores(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("trending queries: %w", err)
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Member < members[j].Member
	})
	return toCounts(members, limit), nil
}

// Recent returns up to limit logged entries, newest first.
// Entries that fail to decode are skipped.
func (r *Repo) Recent(ctx context.Context, limit int) ([]domhist.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := r.store.LRange(ctx, r.logKey(), 0, limit-1)
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	out := make([]domhist.Entry, 0, len(raw))
	for _, s := range raw {
		var e domhist.Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Repo) logKey() string  { return r.prefix + "log" }
func (r *Repo) freqKey() string { return r.prefix + "freq" }

func (r *Repo) dayKey(t time.Time) string {
	return r.prefix + "day:" + t.UTC().Format(dayLayout)
}

func toCounts(members []db.ScoredMember, limit int) []domhist.Count {
	if limit > 0 && len(members) > limit {
		members = members[:limit]
	}
	out := make([]domhist.Count, len(members))
	for i, m := range members {
		out[i] = domhist.Count{Query: m.Member, Count: int(m.Score)}
	}
	return out
}
