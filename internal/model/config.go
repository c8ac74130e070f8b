package model

import (
	"os"
	"time"
)

// Config holds all ChainLens configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Segment      SegmentConfig      `yaml:"segment" mapstructure:"segment"`
	Compare      CompareConfig      `yaml:"compare" mapstructure:"compare"`
	Embedding    EmbeddingConfig    `yaml:"embedding" mapstructure:"embedding"`
	Classify     ClassifyConfig     `yaml:"classify" mapstructure:"classify"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls article fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// SegmentConfig controls sentence segmentation
type SegmentConfig struct {
	MinChars int `yaml:"min_chars" mapstructure:"min_chars"` // Shorter fragments are dropped
}

// CompareConfig controls the similarity matcher.
// Thresholds apply to similarities normalized into [0,1]; a score equal to
// the threshold counts as matched.
type CompareConfig struct {
	EmbeddingThreshold float64 `yaml:"embedding_threshold" mapstructure:"embedding_threshold"`
	LexicalThreshold   float64 `yaml:"lexical_threshold" mapstructure:"lexical_threshold"`
	MaxSentences       int     `yaml:"max_sentences" mapstructure:"max_sentences"` // Source sentences scanned per pass
	MaxUnmatched       int     `yaml:"max_unmatched" mapstructure:"max_unmatched"` // Scan stops at this many unmatched
}

// EmbeddingConfig selects and tunes embedding providers
type EmbeddingConfig struct {
	Providers     []string      `yaml:"providers" mapstructure:"providers"` // Priority order
	OpenAIModel   string        `yaml:"openai_model" mapstructure:"openai_model"`
	GeminiModel   string        `yaml:"gemini_model" mapstructure:"gemini_model"`
	OllamaModel   string        `yaml:"ollama_model" mapstructure:"ollama_model"`
	MaxInputChars int           `yaml:"max_input_chars" mapstructure:"max_input_chars"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ClassifyConfig selects and tunes classification providers
type ClassifyConfig struct {
	Providers        []string          `yaml:"providers" mapstructure:"providers"` // Priority order, also the tie-break order
	Models           map[string]string `yaml:"models" mapstructure:"models"`       // Per-provider model override
	MaxDiscrepancies int               `yaml:"max_discrepancies" mapstructure:"max_discrepancies"`
	MaxTokens        int               `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout          time.Duration     `yaml:"timeout" mapstructure:"timeout"` // Per provider call
	MaxAttempts      int               `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseBackoff      time.Duration     `yaml:"base_backoff" mapstructure:"base_backoff"`
	MaxBackoff       time.Duration     `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// CacheConfig controls the optional embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitingConfig bounds outbound requests per provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	// Providers overrides the rate for individual providers, e.g. ollama: 0
	// for a local server. Embedding providers are keyed "embed_<name>".
	Providers map[string]float64 `yaml:"providers,omitempty" mapstructure:"providers"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "ChainLens/0.1 (+https://github.com/sambitsargam/ChainLens)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
		Segment: SegmentConfig{
			MinChars: 20,
		},
		Compare: CompareConfig{
			EmbeddingThreshold: 0.85,
			LexicalThreshold:   0.90,
			MaxSentences:       40,
			MaxUnmatched:       10,
		},
		Embedding: EmbeddingConfig{
			Providers:     []string{"openai", "gemini", "ollama"},
			OpenAIModel:   "text-embedding-3-small",
			GeminiModel:   "text-embedding-004",
			OllamaModel:   "nomic-embed-text",
			MaxInputChars: 8000,
			Timeout:       30 * time.Second,
		},
		Classify: ClassifyConfig{
			Providers:        []string{"openai", "gemini", "grok", "anthropic", "ollama"},
			Models:           map[string]string{},
			MaxDiscrepancies: 10,
			MaxTokens:        400,
			Timeout:          30 * time.Second,
			MaxAttempts:      3,
			BaseBackoff:      time.Second,
			MaxBackoff:       8 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       home + "/.chainlens/cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Credentials holds provider secrets. Loaded once at startup, read-only afterwards.
type Credentials struct {
	OpenAIKey     string `yaml:"-"`
	GeminiKey     string `yaml:"-"`
	XAIKey        string `yaml:"-"`
	AnthropicKey  string `yaml:"-"`
	OllamaBaseURL string `yaml:"-"`

	// Base URL overrides, mostly for tests and proxies
	OpenAIBaseURL    string `yaml:"-"`
	XAIBaseURL       string `yaml:"-"`
	AnthropicBaseURL string `yaml:"-"`
}

// CredentialsFromEnv reads provider credentials from the environment
func CredentialsFromEnv() Credentials {
	xai := os.Getenv("XAI_API_KEY")
	if xai == "" {
		xai = os.Getenv("GROK_API_KEY")
	}
	gemini := os.Getenv("GEMINI_API_KEY")
	if gemini == "" {
		gemini = os.Getenv("GOOGLE_API_KEY")
	}

	return Credentials{
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		GeminiKey:        gemini,
		XAIKey:           xai,
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		OllamaBaseURL:    os.Getenv("OLLAMA_BASE_URL"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		XAIBaseURL:       os.Getenv("XAI_BASE_URL"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
	}
}
