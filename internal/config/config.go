// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. PERSONA_EMBEDDING__PROVIDER.
const EnvPrefix = "PERSONA_"

// FileEnvVar names the environment variable holding an optional YAML config path.
const FileEnvVar = "PERSONA_CONFIG"

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config is the full process configuration.
type Config struct {
	LogLevel string `koanf:"log_level"`

	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Cache     CacheConfig     `koanf:"cache"`
	LLM       LLMConfig       `koanf:"llm"`
	Search    SearchConfig    `koanf:"search"`
	Storage   StorageConfig   `koanf:"storage"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Chunking  ChunkingConfig  `koanf:"chunking"`
	Fetch     FetchConfig     `koanf:"fetch"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
	WarnUploadBytes int64         `koanf:"warn_upload_bytes"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
}

// DatabaseConfig configures the PostgreSQL source store. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider string        `koanf:"provider"` // openai | gemini | ollama
	Model    string        `koanf:"model"`
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`

	// Azure OpenAI, used when AzureEndpoint is set.
	AzureEndpoint   string `koanf:"azure_endpoint"`
	AzureAPIVersion string `koanf:"azure_api_version"`
}

// CacheConfig configures the embedding cache. Backend "" disables caching.
type CacheConfig struct {
	Backend  string        `koanf:"backend"` // "", memory, redis
	RedisURL string        `koanf:"redis_url"`
	TTL      time.Duration `koanf:"ttl"`
	Prefix   string        `koanf:"prefix"`
}

// LLMConfig configures the Gemini client used for persona generation.
type LLMConfig struct {
	APIKey        string `koanf:"api_key"`
	StandardModel string `koanf:"standard_model"`
	AdvancedModel string `koanf:"advanced_model"`
}

// SearchConfig configures the company search backends.
type SearchConfig struct {
	Backend             string        `koanf:"backend"` // google | perplexity
	GoogleAPIKey        string        `koanf:"google_api_key"`
	GoogleCX            string        `koanf:"google_cx"`
	PerplexityAPIKey    string        `koanf:"perplexity_api_key"`
	PerplexityBaseURL   string        `koanf:"perplexity_base_url"`
	Timeout             time.Duration `koanf:"timeout"`
	MaxOfficialResults  int           `koanf:"max_official_results"`
	MaxNewsResults      int           `koanf:"max_news_results"`
	MaxCaseStudyResults int           `koanf:"max_case_study_results"`
	MaxPerDomain        int           `koanf:"max_per_domain"`
}

// StorageConfig configures archival of uploaded originals. An empty bucket disables it.
type StorageConfig struct {
	Bucket string `koanf:"bucket"`
	Prefix string `koanf:"prefix"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores; path-style addressing is used when set.
	Endpoint string `koanf:"endpoint"`
}

// AuthConfig configures optional bearer-token authentication.
// Tokens are issued to the single service client whose bcrypt secret hash is configured.
type AuthConfig struct {
	JWTSecret        string `koanf:"jwt_secret"`
	ExpirationHours  int    `koanf:"expiration_hours"`
	ClientID         string `koanf:"client_id"`
	ClientSecretHash string `koanf:"client_secret_hash"`
	BcryptCost       int    `koanf:"bcrypt_cost"`
	Pepper           string `koanf:"pepper"`
}

// RateLimitConfig configures the HTTP token-bucket limiter.
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	DefaultLimit    int           `koanf:"default_limit"`
	DefaultWindow   time.Duration `koanf:"default_window"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	Whitelist       []string      `koanf:"whitelist"`
	Blacklist       []string      `koanf:"blacklist"`
}

// ChunkingConfig configures the recursive text chunker.
type ChunkingConfig struct {
	ChunkSize    int `koanf:"chunk_size"`
	Overlap      int `koanf:"overlap"`
	MinChunkSize int `koanf:"min_chunk_size"`
}

// FetchConfig configures web page scraping.
type FetchConfig struct {
	UseBrowser bool          `koanf:"use_browser"`
	Timeout    time.Duration `koanf:"timeout"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:            8080,
			MaxUploadBytes:  20 * 1024 * 1024,
			WarnUploadBytes: 10 * 1024 * 1024,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    300 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:        "openai",
			Model:           "text-embedding-3-small",
			Timeout:         60 * time.Second,
			AzureAPIVersion: "2024-12-01-preview",
		},
		Cache: CacheConfig{
			TTL:    7 * 24 * time.Hour,
			Prefix: "persona:emb:",
		},
		LLM: LLMConfig{
			StandardModel: "gemini-2.5-flash",
			AdvancedModel: "gemini-2.5-pro",
		},
		Search: SearchConfig{
			Backend:             "google",
			PerplexityBaseURL:   "https://api.perplexity.ai",
			Timeout:             30 * time.Second,
			MaxOfficialResults:  2,
			MaxNewsResults:      10,
			MaxCaseStudyResults: 10,
			MaxPerDomain:        3,
		},
		Auth: AuthConfig{
			ExpirationHours: 24,
			ClientID:        "persona-client",
			BcryptCost:      12,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    500,
			Overlap:      50,
			MinChunkSize: 200,
		},
		Fetch: FetchConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Load builds a Config by layering, low to high precedence:
//  1. defaults
//  2. YAML file named by PERSONA_CONFIG, if set
//  3. PERSONA_* environment variables (double underscore nests: PERSONA_SERVER__PORT)
//  4. well-known un-prefixed variables for anything still empty (DATABASE_URL, OPENAI_API_KEY, ...)
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnvVar))
}

// LoadFile is Load with an explicit YAML path ("" skips the file layer).
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", ErrLoadConfig, err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrLoadConfig, err)
	}

	cfg.applyLegacyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLegacyEnv fills empty secrets and endpoints from the conventional variable names.
func (c *Config) applyLegacyEnv() {
	fill := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*dst = v
				return
			}
		}
	}

	fill(&c.Database.URL, "DATABASE_URL")
	switch c.Embedding.Provider {
	case "gemini":
		fill(&c.Embedding.APIKey, "GEMINI_API_KEY")
	case "ollama":
		fill(&c.Embedding.BaseURL, "OLLAMA_HOST")
	default:
		fill(&c.Embedding.APIKey, "OPENAI_API_KEY")
	}
	fill(&c.Embedding.AzureEndpoint, "AZURE_OPENAI_ENDPOINT")
	fill(&c.Cache.RedisURL, "REDIS_URL")
	fill(&c.LLM.APIKey, "GEMINI_API_KEY")
	fill(&c.Search.GoogleAPIKey, "GOOGLE_CSE_API_KEY")
	fill(&c.Search.GoogleCX, "GOOGLE_CSE_CX")
	fill(&c.Search.PerplexityAPIKey, "PERPLEXITY_API_KEY")
	fill(&c.Storage.Bucket, "S3_BUCKET")
	fill(&c.Auth.JWTSecret, "JWT_SECRET")
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai", "gemini", "ollama":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}

	switch c.Cache.Backend {
	case "", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("%w: cache backend redis requires redis_url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}

	switch c.Search.Backend {
	case "google", "perplexity":
	default:
		return fmt.Errorf("%w: unknown search backend %q", ErrInvalidConfig, c.Search.Backend)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}

	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidConfig)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, chunk_size)", ErrInvalidConfig)
	}
	if c.Chunking.MinChunkSize < 0 {
		return fmt.Errorf("%w: min_chunk_size must be non-negative", ErrInvalidConfig)
	}

	if c.Auth.JWTSecret != "" && c.Auth.ExpirationHours < 1 {
		return fmt.Errorf("%w: expiration_hours must be at least 1, got %d", ErrInvalidConfig, c.Auth.ExpirationHours)
	}

	return nil
}

// AuthEnabled reports whether bearer-token authentication is switched on.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}
