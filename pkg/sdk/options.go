package prodex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	embedder         Embedder
	generator        Generator
	model            string
	vectorDimensions int

	threshold        float64
	similarThreshold float64

	itemDelay  time.Duration
	maxRetries int
	retryBase  time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the Redis connection.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix namespaces every key. Default: "prodex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEmbedder sets the text embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets the text generation model used for query analysis
// and related suggestions.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithModel names the embedding model. Stored with every embedding;
// changing it marks all embeddings stale.
func WithModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
	})
}

// WithVectorDimensions sets the embedding dimension. Default: 768.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithThresholds sets the minimum scores for search and similar products.
// Zero keeps the defaults (0.3 and 0.5).
func WithThresholds(search, similar float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = search
		c.similarThreshold = similar
	})
}

// WithItemDelay sets the pause between products during Reindex, which
// rate-limits provider calls. Default: 200ms. Zero disables pacing.
func WithItemDelay(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.itemDelay = d
	})
}

// WithRetries sets how many times Reindex retries a failed provider call
// and the first backoff (doubled on each retry). Default: 3 and 500ms.
func WithRetries(n int, base time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRetries = n
		c.retryBase = base
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
