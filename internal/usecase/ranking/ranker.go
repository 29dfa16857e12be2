package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/prodex/internal/domain"
	"github.com/kailas-cloud/prodex/internal/metrics"
)

// Candidate is one stored vector eligible for ranking.
type Candidate struct {
	ID     string
	Vector []float32
}

// Scored is a ranked candidate.
type Scored struct {
	ID    string
	Score float64
}

// Options control thresholding and pagination.
type Options struct {
	// Threshold is inclusive: candidates with Score >= Threshold are kept.
	Threshold float64
	Limit     int
	Offset    int
	// Exclude drops one ID from the output (the reference item of a
	// similar-to query).
	Exclude string
	// Allow, when set, pre-filters candidates by ID before scoring.
	Allow func(id string) bool
}

// Page is a slice of the ranked list. Total counts every candidate that
// passed the threshold, before offset/limit.
type Page struct {
	Items []Scored
	Total int
}

// CandidateSource streams candidates to the ranker. The default source is
// a full scan of the embedding store; an approximate nearest-neighbour
// index can implement the same contract.
type CandidateSource interface {
	Each(ctx context.Context, fn func(c Candidate) error) error
}

// Cosine returns the cosine similarity of a and b, or 0 when either
// vector has zero norm or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Similarity maps cosine from [-1,1] to a [0,1] relevance score.
func Similarity(a, b []float32) float64 {
	s := (Cosine(a, b) + 1) / 2
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// RankSlice scores candidates against query, drops zero vectors and
// everything below the threshold, orders by descending score with ties in
// input order, then applies offset and limit.
func RankSlice(query []float32, candidates []Candidate, opts Options) Page {
	acc := newAccumulator(query, opts)
	for _, c := range candidates {
		acc.add(c)
	}
	return acc.page()
}

// Ranker ranks a streamed candidate source. The scan is O(N) per query.
type Ranker struct{}

// New creates a Ranker.
func New() *Ranker { return &Ranker{} }

// Rank scores every candidate from src. A zero query vector means no
// embedding could be produced and yields domain.ErrRankingUnavailable.
func (r *Ranker) Rank(ctx context.Context, query []float32, src CandidateSource, opts Options) (Page, error) {
	if domain.IsZeroVector(query) {
		return Page{}, domain.ErrRankingUnavailable
	}
	acc := newAccumulator(query, opts)
	err := src.Each(ctx, func(c Candidate) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		acc.add(c)
		return nil
	})
	if err != nil {
		return Page{}, fmt.Errorf("scan candidates: %w", err)
	}
	metrics.RankingCandidates.Observe(float64(acc.seen))
	return acc.page(), nil
}

type accumulator struct {
	query  []float32
	opts   Options
	scored []Scored
	seen   int
}

func newAccumulator(query []float32, opts Options) *accumulator {
	return &accumulator{query: query, opts: opts}
}

func (a *accumulator) add(c Candidate) {
	a.seen++
	if c.ID == a.opts.Exclude && a.opts.Exclude != "" {
		return
	}
	if a.opts.Allow != nil && !a.opts.Allow(c.ID) {
		return
	}
	if domain.IsZeroVector(c.Vector) || domain.IsZeroVector(a.query) {
		return
	}
	if len(c.Vector) != len(a.query) {
		return
	}
	score := Similarity(a.query, c.Vector)
	if score < a.opts.Threshold {
		return
	}
	a.scored = append(a.scored, Scored{ID: c.ID, Score: score})
}

func (a *accumulator) page() Page {
	sort.SliceStable(a.scored, func(i, j int) bool {
		return a.scored[i].Score > a.scored[j].Score
	})
	total := len(a.scored)
	return Page{Items: paginate(a.scored, a.opts.Offset, a.opts.Limit), Total: total}
}

// paginate returns items[offset:offset+limit], clamped. limit <= 0 means no limit.
func paginate(items []Scored, offset, limit int) []Scored {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []Scored{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]Scored, end-offset)
	copy(out, items[offset:end])
	return out
}
