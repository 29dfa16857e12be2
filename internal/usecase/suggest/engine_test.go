package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domhist "github.com/kailas-cloud/prodex/internal/domain/history"
	"github.com/kailas-cloud/prodex/internal/domain/product"
)

// --- Fakes ---

type fakeHistory struct {
	popular   []domhist.Count
	trending  []domhist.Count
	recent    []domhist.Entry
	err       error
	trendDays int
}

func (h *fakeHistory) Recent(_ context.Context, _ int) ([]domhist.Entry, error) {
	return h.recent, h.err
}

func (h *fakeHistory) Popular(_ context.Context, limit int) ([]domhist.Count, error) {
	if h.err != nil {
		return nil, h.err
	}
	if limit < len(h.popular) {
		return h.popular[:limit], nil
	}
	return h.popular, nil
}

func (h *fakeHistory) Trending(_ context.Context, days, _ int) ([]domhist.Count, error) {
	h.trendDays = days
	return h.trending, h.err
}

type fakeCatalog struct {
	names []string
	seen  int
}

func (c *fakeCatalog) Each(_ context.Context, fn func(p product.Product) error) error {
	for i, n := range c.names {
		p, _ := product.New("p"+string(rune('a'+i)), product.Attributes{Name: n}, time.Now())
		c.seen++
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

type fakeGenerator struct {
	out    string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

// --- Autocomplete ---

func TestAutocomplete_NoHistoryNoAI(t *testing.T) {
	e := New(nil, nil, nil, nil)

	got := e.Autocomplete(context.Background(), "  wireless   head ", 10)
	require.NotEmpty(t, got)
	assert.Equal(t, []string{
		"wireless head for work",
		"wireless head reviews",
		"best wireless head",
		"cheap wireless head",
		"wireless head comparison",
	}, got)

	assert.Len(t, e.Autocomplete(context.Background(), "x", 2), 2)
	assert.Empty(t, e.Autocomplete(context.Background(), "   ", 10))
}

func TestAutocomplete_MergesHistoryAndProducts(t *testing.T) {
	h := &fakeHistory{popular: []domhist.Count{
		{Query: "laptop stand", Count: 9},
		{Query: "mouse pad", Count: 7},
		{Query: "laptop bag", Count: 3},
	}}
	c := &fakeCatalog{names: []string{"Laptop Bag", "Desk Lamp", "Laptop Pro 14", "Laptop Air", "Laptop Mini"}}
	e := New(h, c, nil, nil)

	got := e.Autocomplete(context.Background(), "Lap", 6)
	// "Laptop Bag" duplicates a history entry; product names are capped at limit/2.
	assert.Equal(t, []string{"laptop stand", "laptop bag", "Laptop Pro 14", "Laptop Air"}, got)
	assert.Less(t, c.seen, len(c.names), "scan should stop once enough names are found")
}

func TestAutocomplete_RecentFirst(t *testing.T) {
	h := &fakeHistory{
		recent: []domhist.Entry{
			{Query: "Phone  Case"},
			{Query: "tablet"},
			{Query: "phone charger"},
		},
		popular: []domhist.Count{{Query: "phone case", Count: 40}, {Query: "phone holder", Count: 12}},
	}
	e := New(h, nil, nil, nil)

	got := e.Autocomplete(context.Background(), "pho", 5)
	assert.Equal(t, []string{"phone case", "phone charger", "phone holder"}, got)
}

func TestAutocomplete_HistoryErrorIgnored(t *testing.T) {
	e := New(&fakeHistory{err: errors.New("down")}, &fakeCatalog{}, nil, nil)
	assert.NotEmpty(t, e.Autocomplete(context.Background(), "tv", 5))
}

// --- Related ---

func TestRelated_Generated(t *testing.T) {
	g := &fakeGenerator{out: "1. gaming headset\n- Wireless Earbuds\n\n\"gaming headset\"\nHeadphones\n* noise cancelling headphones\n"}
	e := New(nil, nil, g, nil)

	got := e.Related(context.Background(), "headphones", 5)
	assert.Equal(t, []string{"gaming headset", "Wireless Earbuds", "noise cancelling headphones"}, got)
	assert.Contains(t, g.prompt, "headphones")
}

func TestRelated_Fallback(t *testing.T) {
	for _, g := range []*fakeGenerator{nil, {err: errors.New("timeout")}, {out: "  \n"}} {
		var e *Engine
		if g == nil {
			e = New(nil, nil, nil, nil)
		} else {
			e = New(nil, nil, g, nil)
		}
		got := e.Related(context.Background(), "coffee maker", 3)
		assert.Equal(t, []string{"best coffee maker", "coffee maker reviews", "cheap coffee maker"}, got)
	}
}

func TestParseLines_KeepsLeadingDigits(t *testing.T) {
	got := parseLines("4k monitor\n2) 27 inch monitor", "monitor", 5)
	assert.Equal(t, []string{"4k monitor", "27 inch monitor"}, got)
}

// --- Popular ---

func TestPopular_FromHistory(t *testing.T) {
	h := &fakeHistory{popular: []domhist.Count{
		{Query: "gaming laptop", Count: 10},
		{Query: "running shoes", Count: 8},
		{Query: "laptop bag", Count: 5},
	}}
	e := New(h, nil, nil, nil)

	assert.Equal(t, []string{"gaming laptop", "running shoes"}, e.Popular(context.Background(), "", 2))
	assert.Equal(t, []string{"gaming laptop", "laptop bag"}, e.Popular(context.Background(), "Laptop", 10))
}

func TestPopular_StaticFallback(t *testing.T) {
	e := New(&fakeHistory{}, nil, nil, nil)

	got := e.Popular(context.Background(), "", 3)
	assert.Equal(t, []string{"wireless headphones", "laptop for work", "running shoes"}, got)

	assert.Equal(t, []string{"coffee maker"}, e.Popular(context.Background(), "coffee", 5))
	assert.Len(t, e.Popular(context.Background(), "yachts", 4), 4)
}

// --- Trending ---

func TestTrending(t *testing.T) {
	h := &fakeHistory{trending: []domhist.Count{{Query: "tv", Count: 3}}}
	e := New(h, nil, nil, nil)

	assert.Equal(t, h.trending, e.Trending(context.Background(), domhist.Month, 5))
	assert.Equal(t, 30, h.trendDays)

	h.trending = nil
	got := e.Trending(context.Background(), domhist.Day, 2)
	assert.Equal(t, 1, h.trendDays)
	require.Len(t, got, 2)
	assert.Equal(t, "wireless headphones", got[0].Query)
}
