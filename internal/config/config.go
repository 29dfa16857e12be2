package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the prodex service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Search     SearchConfig     `yaml:"search"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	History    HistoryConfig    `yaml:"history"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // only redis is supported
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
// An empty APIKey disables the provider: search degrades to the keyword path.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	MaxInputChars    int    `yaml:"max_input_chars"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
	QueryCacheSize   int    `yaml:"query_cache_size"`
	QueryCacheTTLSec int    `yaml:"query_cache_ttl_sec"`
	SharedCache      bool   `yaml:"shared_cache"`
}

// GenerationConfig holds the text-generation model used for query analysis
// and related-search suggestions. Empty Model disables AI analysis.
type GenerationConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// SearchConfig holds ranking and pagination settings.
type SearchConfig struct {
	DefaultLimit     int     `yaml:"default_limit"`
	MaxLimit         int     `yaml:"max_limit"`
	Threshold        float64 `yaml:"threshold"`
	SimilarThreshold float64 `yaml:"similar_threshold"`
	MaxQueryLength   int     `yaml:"max_query_length"`
}

// IndexingConfig holds reindex pipeline settings.
// ItemDelayMs and MaxRetries accept an explicit 0; nil means unset.
type IndexingConfig struct {
	ItemDelayMs         *int `yaml:"item_delay_ms"`
	MaxRetries          *int `yaml:"max_retries"`
	RetryBaseDelayMs    int  `yaml:"retry_base_delay_ms"`
	ScheduleIntervalSec int  `yaml:"schedule_interval_sec"` // 0 = disabled
	ProgressEvery       int  `yaml:"progress_every"`
}

// HistoryConfig holds query-history settings.
type HistoryConfig struct {
	MaxEntries      int `yaml:"max_entries"`
	TrendingTTLDays int `yaml:"trending_ttl_days"`
}

// RequestTimeout returns the embedding request timeout.
func (c EmbeddingConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// QueryCacheTTL returns the query embedding memo TTL.
func (c EmbeddingConfig) QueryCacheTTL() time.Duration {
	return time.Duration(c.QueryCacheTTLSec) * time.Second
}

// Timeout returns the generation call timeout.
func (c GenerationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ItemDelay returns the pause between reindexed items (0 = no pacing).
func (c IndexingConfig) ItemDelay() time.Duration {
	if c.ItemDelayMs == nil {
		return 0
	}
	return time.Duration(*c.ItemDelayMs) * time.Millisecond
}

// Retries returns the retry budget per item after the first attempt.
func (c IndexingConfig) Retries() int {
	if c.MaxRetries == nil {
		return 0
	}
	return *c.MaxRetries
}

// RetryBaseDelay returns the first backoff delay for provider retries.
func (c IndexingConfig) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// ScheduleInterval returns the background reindex interval (0 = disabled).
func (c IndexingConfig) ScheduleInterval() time.Duration {
	return time.Duration(c.ScheduleIntervalSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, expanding ${VAR} references,
// applying defaults and validating the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.applyHTTPDefaults()
	c.applyEmbeddingDefaults()
	c.applySearchDefaults()
	c.applyIndexingDefaults()

	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "prodex:"
	}
	if c.Generation.TimeoutMs <= 0 {
		c.Generation.TimeoutMs = 5000
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = c.Embedding.APIKey
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = c.Embedding.BaseURL
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = 10000
	}
	if c.History.TrendingTTLDays <= 0 {
		c.History.TrendingTTLDays = 31
	}
}

func (c *Config) applyHTTPDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

func (c *Config) applyEmbeddingDefaults() {
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-004"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Embedding.MaxInputChars <= 0 {
		c.Embedding.MaxInputChars = 8000
	}
	if c.Embedding.RequestTimeoutMs <= 0 {
		c.Embedding.RequestTimeoutMs = 10000
	}
	if c.Embedding.QueryCacheSize <= 0 {
		c.Embedding.QueryCacheSize = 1024
	}
	if c.Embedding.QueryCacheTTLSec <= 0 {
		c.Embedding.QueryCacheTTLSec = 600
	}
}

func (c *Config) applySearchDefaults() {
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
	if c.Search.Threshold <= 0 {
		c.Search.Threshold = 0.3
	}
	if c.Search.SimilarThreshold <= 0 {
		c.Search.SimilarThreshold = 0.5
	}
	if c.Search.MaxQueryLength <= 0 {
		c.Search.MaxQueryLength = 500
	}
}

func (c *Config) applyIndexingDefaults() {
	if c.Indexing.ItemDelayMs == nil || *c.Indexing.ItemDelayMs < 0 {
		c.Indexing.ItemDelayMs = intPtr(200)
	}
	if c.Indexing.MaxRetries == nil || *c.Indexing.MaxRetries < 0 {
		c.Indexing.MaxRetries = intPtr(3)
	}
	if c.Indexing.RetryBaseDelayMs <= 0 {
		c.Indexing.RetryBaseDelayMs = 500
	}
	if c.Indexing.ProgressEvery <= 0 {
		c.Indexing.ProgressEvery = 10
	}
}

func intPtr(v int) *int { return &v }

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be in [0,1], got %g", c.Search.Threshold)
	}
	if c.Search.SimilarThreshold > 1 {
		return fmt.Errorf("search.similar_threshold must be in [0,1], got %g", c.Search.SimilarThreshold)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Indexing.ScheduleIntervalSec < 0 {
		return fmt.Errorf("indexing.schedule_interval_sec must be >= 0, got %d", c.Indexing.ScheduleIntervalSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
