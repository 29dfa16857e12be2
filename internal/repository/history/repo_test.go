package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/prodex/internal/db"
	domhist "github.com/kailas-cloud/prodex/internal/domain/history"
)

// memStore is an in-memory list/zset store.
type memStore struct {
	lists   map[string][]string
	zsets   map[string]map[string]float64
	expires map[string]time.Duration
	failErr error
}

func newMemStore() *memStore {
	return &memStore{
		lists:   map[string][]string{},
		zsets:   map[string]map[string]float64{},
		expires: map[string]time.Duration{},
	}
}

func (m *memStore) LPushTrim(_ context.Context, key, value string, maxLen int) error {
	if m.failErr != nil {
		return m.failErr
	}
	l := append([]string{value}, m.lists[key]...)
	if len(l) > maxLen {
		l = l[:maxLen]
	}
	m.lists[key] = l
	return nil
}

func (m *memStore) LRange(_ context.Context, key string, start, stop int) ([]string, error) {
	l := m.lists[key]
	if start >= len(l) {
		return nil, nil
	}
	if stop >= len(l) {
		stop = len(l) - 1
	}
	return l[start : stop+1], nil
}

func (m *memStore) ZIncrBy(_ context.Context, key, member string, incr float64) error {
	if m.failErr != nil {
		return m.failErr
	}
	if m.zsets[key] == nil {
		m.zsets[key] = map[string]float64{}
	}
	m.zsets[key][member] += incr
	return nil
}

func (m *memStore) ZRevRangeWithScores(_ context.Context, key string, limit int) ([]db.ScoredMember, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []db.ScoredMember
	for k, v := range m.zsets[key] {
		out = append(out, db.ScoredMember{Member: k, Score: v})
	}
	sortScored(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ZUnionWithScores(_ context.Context, keys []string) ([]db.ScoredMember, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	sum := map[string]float64{}
	for _, k := range keys {
		for mem, s := range m.zsets[k] {
			sum[mem] += s
		}
	}
	var out []db.ScoredMember
	for k, v := range sum {
		out = append(out, db.ScoredMember{Member: k, Score: v})
	}
	return out, nil
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	if _, ok := m.expires[key]; ok && nx {
		return nil
	}
	m.expires[key] = ttl
	return nil
}

func sortScored(s []db.ScoredMember) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && (s[j].Score > s[j-1].Score ||
			(s[j].Score == s[j-1].Score && s[j].Member < s[j-1].Member)); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

var testNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repo, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(ms, "prodex:", 3, 31).WithClock(func() time.Time { return testNow }), ms
}

func TestRecord_LogsAndCounts(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	err := repo.Record(ctx, domhist.Entry{Query: "Wireless  Headphones", ResultsCount: 4, ElapsedMs: 12, Mode: "semantic"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if len(ms.lists["prodex:history:log"]) != 1 {
		t.Fatalf("log = %v", ms.lists)
	}
	if ms.zsets["prodex:history:freq"]["wireless headphones"] != 1 {
		t.Errorf("freq = %v", ms.zsets["prodex:history:freq"])
	}
	day := "prodex:history:day:2024-05-10"
	if ms.zsets[day]["wireless headphones"] != 1 {
		t.Errorf("day counter = %v", ms.zsets[day])
	}
	if ms.expires[day] != 31*24*time.Hour {
		t.Errorf("day ttl = %s", ms.expires[day])
	}

	recent, err := repo.Recent(ctx, 10)
	if err != nil || len(recent) != 1 {
		t.Fatalf("Recent = %v, %v", recent, err)
	}
	if !recent[0].Timestamp.Equal(testNow) || recent[0].Mode != "semantic" {
		t.Errorf("entry = %+v", recent[0])
	}
}

func TestRecord_ZeroResultsNotCounted(t *testing.T) {
	repo, ms := newTestRepo(t)

	if err := repo.Record(context.Background(), domhist.Entry{Query: "qwerty", ResultsCount: 0}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(ms.lists["prodex:history:log"]) != 1 {
		t.Error("zero-result search must still be logged")
	}
	if len(ms.zsets) != 0 {
		t.Errorf("zero-result search must not be counted: %v", ms.zsets)
	}
}

func TestRecord_LogIsCapped(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	for _, q := range []string{"a", "b", "c", "d"} {
		_ = repo.Record(ctx, domhist.Entry{Query: q, ResultsCount: 1})
	}
	recent, _ := repo.Recent(ctx, 10)
	if len(recent) != 3 || recent[0].Query != "d" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestPopular(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	for _, q := range []string{"laptop", "mouse", "laptop", "chair", "laptop", "mouse"} {
		_ = repo.Record(ctx, domhist.Entry{Query: q, ResultsCount: 2})
	}

	got, err := repo.Popular(ctx, 2)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	want := []domhist.Count{{Query: "laptop", Count: 3}, {Query: "mouse", Count: 2}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Popular = %v, want %v", got, want)
	}
}

func TestTrending_WindowAndOrder(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	ms.zsets["prodex:history:day:2024-05-10"] = map[string]float64{"desk": 3, "lamp": 1}
	ms.zsets["prodex:history:day:2024-05-08"] = map[string]float64{"lamp": 2}
	ms.zsets["prodex:history:day:2024-04-01"] = map[string]float64{"old": 50}

	got, err := repo.Trending(ctx, 7, 10)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Trending = %v", got)
	}
	// desk and lamp tie at 3; ties break alphabetically.
	if got[0].Query != "desk" || got[0].Count != 3 || got[1].Query != "lamp" || got[1].Count != 3 {
		t.Errorf("Trending = %v", got)
	}

	today, _ := repo.Trending(ctx, 1, 10)
	if len(today) != 2 || today[0].Query != "desk" {
		t.Errorf("Trending(day) = %v", today)
	}
}

func TestRecord_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.failErr = &db.Error{Op: db.OpLPush, Err: errors.New("down")}

	err := repo.Record(context.Background(), domhist.Entry{Query: "x", ResultsCount: 1})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}
