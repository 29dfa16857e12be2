package ranking

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/prodex/internal/domain"
	domemb "github.com/kailas-cloud/prodex/internal/domain/embedding"
)

func randomVector(r *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(r.NormFloat64())
	}
	return v
}

func randomCandidates(r *rand.Rand, n, dim int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{ID: string(rune('a'+i%26)) + string(rune('0'+i/26)), Vector: randomVector(r, dim)}
	}
	return out
}

func TestSimilarity_SelfIsOne(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for range 50 {
		v := randomVector(r, 16)
		assert.InDelta(t, 1.0, Similarity(v, v), 1e-6)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for range 50 {
		a, b := randomVector(r, 8), randomVector(r, 8)
		assert.Equal(t, Similarity(a, b), Similarity(b, a))
	}
}

func TestSimilarity_Range(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for range 100 {
		s := Similarity(randomVector(r, 4), randomVector(r, 4))
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
	assert.InDelta(t, 0.0, Similarity([]float32{1, 0}, []float32{-1, 0}), 1e-12)
}

func TestCosine_ZeroNormGuard(t *testing.T) {
	zero := make([]float32, 4)
	assert.Equal(t, 0.0, Cosine([]float32{1, 2, 3, 4}, zero))
	assert.Equal(t, 0.0, Cosine(zero, zero))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestRankSlice_OrthogonalScenario(t *testing.T) {
	cands := []Candidate{
		{ID: "p1", Vector: []float32{1, 0, 0, 0}},
		{ID: "p2", Vector: []float32{0, 1, 0, 0}},
	}
	query := []float32{1, 0, 0, 0}

	page := RankSlice(query, cands, Options{Threshold: 0.3, Limit: 10})
	require.Len(t, page.Items, 2)
	assert.Equal(t, "p1", page.Items[0].ID)
	assert.InDelta(t, 1.0, page.Items[0].Score, 1e-9)
	assert.Equal(t, "p2", page.Items[1].ID)
	assert.InDelta(t, 0.5, page.Items[1].Score, 1e-9)

	strict := RankSlice(query, cands, Options{Threshold: 0.6, Limit: 10})
	require.Len(t, strict.Items, 1)
	assert.Equal(t, "p1", strict.Items[0].ID)
	assert.Equal(t, 1, strict.Total)
}

func TestRankSlice_ThresholdInclusive(t *testing.T) {
	cands := []Candidate{{ID: "p2", Vector: []float32{0, 1}}}
	page := RankSlice([]float32{1, 0}, cands, Options{Threshold: 0.5})
	assert.Len(t, page.Items, 1)
}

func TestRankSlice_ZeroCandidateExcluded(t *testing.T) {
	cands := []Candidate{
		{ID: "zero", Vector: make([]float32, 4)},
		{ID: "ok", Vector: []float32{0, 0, 1, 0}},
		{ID: "short", Vector: []float32{1}},
	}
	for _, threshold := range []float64{0, -1} {
		page := RankSlice([]float32{1, 0, 0, 0}, cands, Options{Threshold: threshold})
		require.Len(t, page.Items, 1, "threshold %v", threshold)
		assert.Equal(t, "ok", page.Items[0].ID)
	}
}

func TestRankSlice_TiesKeepInputOrder(t *testing.T) {
	v := []float32{1, 1}
	cands := []Candidate{{ID: "c", Vector: v}, {ID: "a", Vector: v}, {ID: "b", Vector: v}}
	page := RankSlice([]float32{1, 1}, cands, Options{})
	ids := []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestRankSlice_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	cands := randomCandidates(r, 200, 8)
	query := randomVector(r, 8)
	opts := Options{Threshold: 0.3, Limit: 50}

	first := RankSlice(query, cands, opts)
	second := RankSlice(query, cands, opts)
	assert.Equal(t, first, second)
}

func TestRankSlice_PaginationInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	cands := randomCandidates(r, 120, 6)
	// Duplicate vectors to force ties.
	cands = append(cands, Candidate{ID: "dup1", Vector: cands[0].Vector}, Candidate{ID: "dup2", Vector: cands[0].Vector})
	query := randomVector(r, 6)

	full := RankSlice(query, cands, Options{Threshold: 0.3})
	for _, tc := range []struct{ k, m int }{{0, 5}, {3, 7}, {10, 20}, {full.Total - 2, 5}, {full.Total, 3}} {
		page := RankSlice(query, cands, Options{Threshold: 0.3, Offset: tc.k, Limit: tc.m})
		end := min(tc.k+tc.m, len(full.Items))
		want := full.Items[min(tc.k, len(full.Items)):end]
		assert.Equal(t, want, page.Items, "offset=%d limit=%d", tc.k, tc.m)
		assert.Equal(t, full.Total, page.Total)
	}
}

func TestRankSlice_SortedDescending(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	page := RankSlice(randomVector(r, 5), randomCandidates(r, 100, 5), Options{})
	for i := 1; i < len(page.Items); i++ {
		assert.GreaterOrEqual(t, page.Items[i-1].Score, page.Items[i].Score)
	}
}

func TestRankSlice_ExcludeAndAllow(t *testing.T) {
	v := []float32{1, 0}
	cands := []Candidate{{ID: "ref", Vector: v}, {ID: "a", Vector: v}, {ID: "b", Vector: v}}
	page := RankSlice(v, cands, Options{
		Exclude: "ref",
		Allow:   func(id string) bool { return id != "b" },
	})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a", page.Items[0].ID)
}

func TestRanker_ZeroQueryUnavailable(t *testing.T) {
	_, err := New().Rank(context.Background(), make([]float32, 4), SliceSource{}, Options{})
	assert.ErrorIs(t, err, domain.ErrRankingUnavailable)
}

func TestRanker_MatchesRankSlice(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	cands := randomCandidates(r, 80, 4)
	query := randomVector(r, 4)
	opts := Options{Threshold: 0.4, Offset: 3, Limit: 10}

	got, err := New().Rank(context.Background(), query, SliceSource(cands), opts)
	require.NoError(t, err)
	assert.Equal(t, RankSlice(query, cands, opts), got)
}

func TestRanker_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("store down")
	_, err := New().Rank(context.Background(), []float32{1}, failingSource{err: boom}, Options{})
	assert.ErrorIs(t, err, boom)
}

func TestRanker_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Rank(ctx, []float32{1}, SliceSource{{ID: "a", Vector: []float32{1}}}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingSource struct{ err error }

func (f failingSource) Each(context.Context, func(Candidate) error) error { return f.err }

type recordStore []domemb.Record

func (s recordStore) Each(_ context.Context, fn func(domemb.Record) error) error {
	for _, r := range s {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func TestStoreSource(t *testing.T) {
	now := time.Now()
	store := recordStore{
		domemb.Reconstruct("p1", []float32{1, 0}, "m", "h1", now),
		domemb.Reconstruct("p2", []float32{0, 1}, "m", "h2", now),
	}
	page, err := New().Rank(context.Background(), []float32{0, 1}, NewStoreSource(store), Options{Threshold: 0.6})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p2", page.Items[0].ID)
}
