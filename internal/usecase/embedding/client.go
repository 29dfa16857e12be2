package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/domain"
	"github.com/kailas-cloud/prodex/internal/metrics"
)

// DefaultMaxInputChars bounds the text sent to the provider.
const DefaultMaxInputChars = 8000

// Status tags the outcome of an embedding call.
type Status int

// Embedding outcomes.
const (
	StatusOK Status = iota
	// StatusUnavailable: no provider configured. Permanent for the process.
	StatusUnavailable
	// StatusFailed: transient provider error or unusable vector.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// Result is the tagged outcome of Client.Embed. Vector is set only for StatusOK.
type Result struct {
	Status Status
	Vector []float32
	Err    error
}

// OK reports whether the result carries a usable vector.
func (r Result) OK() bool { return r.Status == StatusOK }

// Client turns text into vectors and never lets provider failures escape
// as Go errors: every call returns a Result the caller must inspect.
type Client struct {
	embedder domain.Embedder
	dim      int
	model    string
	maxChars int
	memo     *expirable.LRU[string, []float32]
	logger   *zap.Logger
}

// NewClient creates an embedding client. A nil embedder means the provider
// is not configured and every call reports StatusUnavailable.
func NewClient(embedder domain.Embedder, dim int, model string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		embedder: embedder,
		dim:      dim,
		model:    model,
		maxChars: DefaultMaxInputChars,
		logger:   logger,
	}
}

// WithMaxInputChars overrides the input character budget.
func (c *Client) WithMaxInputChars(n int) *Client {
	if n > 0 {
		c.maxChars = n
	}
	return c
}

// WithQueryMemo enables a bounded in-process memo of query vectors.
func (c *Client) WithQueryMemo(size int, ttl time.Duration) *Client {
	if size > 0 {
		c.memo = expirable.NewLRU[string, []float32](size, nil, ttl)
	}
	return c
}

// Available reports whether a provider is configured.
func (c *Client) Available() bool { return c.embedder != nil }

// Dimension returns the configured vector dimension D.
func (c *Client) Dimension() int { return c.dim }

// Model returns the configured model version.
func (c *Client) Model() string { return c.model }

// Embed vectorizes product text. No memo, no retries.
func (c *Client) Embed(ctx context.Context, text string) Result {
	res := c.embed(ctx, PrepareText(text, c.maxChars))
	c.observe("product", res)
	return res
}

// EmbedQuery vectorizes a search query, consulting the memo first.
// Memo hits return a copy the caller may modify.
func (c *Client) EmbedQuery(ctx context.Context, query string) Result {
	text := PrepareText(query, c.maxChars)
	if c.memo != nil && text != "" {
		if vec, ok := c.memo.Get(text); ok {
			metrics.EmbeddingCacheTotal.WithLabelValues("memo", "hit").Inc()
			if u := domain.UsageFromContext(ctx); u != nil {
				u.Used = true
			}
			return Result{Status: StatusOK, Vector: append([]float32(nil), vec...)}
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("memo", "miss").Inc()
	}

	res := c.embed(ctx, text)
	if res.OK() && c.memo != nil {
		c.memo.Add(text, append([]float32(nil), res.Vector...))
	}
	c.observe("query", res)
	return res
}

// EmbedOrZero returns the query vector, or the zero vector of dimension D
// when the provider is unavailable or failed.
func (c *Client) EmbedOrZero(ctx context.Context, query string) []float32 {
	res := c.EmbedQuery(ctx, query)
	if !res.OK() {
		return domain.ZeroVector(c.dim)
	}
	return res.Vector
}

func (c *Client) embed(ctx context.Context, text string) Result {
	if c.embedder == nil {
		return Result{Status: StatusUnavailable, Err: domain.ErrProviderUnavailable}
	}
	if text == "" {
		return failed(fmt.Errorf("empty input: %w: %w", domain.ErrInvalidVector, domain.ErrProviderError))
	}

	out, err := c.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return Result{Status: StatusUnavailable, Err: err}
		}
		if !errors.Is(err, domain.ErrProviderError) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", domain.ErrProviderError, err)
		}
		return failed(err)
	}
	if len(out.Embedding) != c.dim {
		return failed(fmt.Errorf("expected %d dimensions, got %d: %w: %w",
			c.dim, len(out.Embedding), domain.ErrInvalidVector, domain.ErrProviderError))
	}
	if domain.IsZeroVector(out.Embedding) {
		return failed(fmt.Errorf("provider returned zero vector: %w: %w",
			domain.ErrInvalidVector, domain.ErrProviderError))
	}

	domain.UsageFromContext(ctx).AddTokens(out.TotalTokens)
	return Result{Status: StatusOK, Vector: out.Embedding}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

func (c *Client) observe(purpose string, res Result) {
	metrics.EmbeddingOutcomesTotal.WithLabelValues(purpose, res.Status.String()).Inc()
	if res.Status == StatusFailed {
		c.logger.Warn("Embedding failed", zap.String("purpose", purpose), zap.Error(res.Err))
	}
}

// PrepareText collapses whitespace and truncates to maxChars characters,
// cutting back to the last word boundary when the limit falls inside a word.
func PrepareText(text string, maxChars int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	cut := runes[:maxChars]
	if runes[maxChars] != ' ' {
		for i := len(cut) - 1; i > 0; i-- {
			if cut[i] == ' ' {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimRight(string(cut), " ")
}
