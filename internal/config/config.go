package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"docrag/internal/chunking"
	"docrag/internal/embedding"
)

// Config holds all configuration for the application.
type Config struct {
	Chunking        chunking.Params `yaml:"chunking"`
	Search          SearchConfig    `yaml:"search"`
	Embedding       EmbeddingConfig `yaml:"embedding"`
	DBPath          string          `yaml:"db_path"`
	Qdrant          QdrantConfig    `yaml:"qdrant"`
	SegmentDictPath string          `yaml:"segment_dict_path"`
	Log             LogConfig       `yaml:"log"`
}

// SearchConfig holds the defaults applied to search requests.
type SearchConfig struct {
	TopK  int     `yaml:"top_k"`
	Alpha float64 `yaml:"alpha"`
}

// EmbeddingConfig selects and configures the embedding provider.
// A zero Dimension lets the provider pick its own vector size.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Dimension  int           `yaml:"dimension"`
	Workers    int           `yaml:"workers"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// QdrantConfig configures the optional vector mirror. An empty URL disables it.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Options converts the embedding settings for embedding.New.
func (e EmbeddingConfig) Options() embedding.Options {
	return embedding.Options{
		Provider:   e.Provider,
		BaseURL:    e.BaseURL,
		APIKey:     e.APIKey,
		Model:      e.Model,
		Dimension:  e.Dimension,
		MaxRetries: e.MaxRetries,
		RetryDelay: e.RetryDelay,
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Chunking: chunking.DefaultParams(),
		Search: SearchConfig{
			TopK:  5,
			Alpha: 0.5,
		},
		Embedding: EmbeddingConfig{
			Provider:   embedding.ProviderHash,
			Workers:    4,
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		Qdrant: QdrantConfig{
			Collection: "docrag_chunks",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment,
// in increasing order of precedence. path may be empty, in which case DOCRAG_CONFIG is used.
// If a .env file exists in the current directory or up to five parents, it is loaded first;
// variables already set take precedence over .env file values.
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := Default()

	if path == "" {
		path = os.Getenv("DOCRAG_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create the database directory if caching is enabled
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// loadDotEnv loads the nearest .env file, ignoring a missing one.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

func applyEnv(cfg *Config) error {
	var err error
	if cfg.Chunking.MinSize, err = getEnvInt("CHUNK_MIN_SIZE", cfg.Chunking.MinSize); err != nil {
		return err
	}
	if cfg.Chunking.MaxSize, err = getEnvInt("CHUNK_MAX_SIZE", cfg.Chunking.MaxSize); err != nil {
		return err
	}
	if cfg.Chunking.Overlap, err = getEnvInt("CHUNK_OVERLAP", cfg.Chunking.Overlap); err != nil {
		return err
	}
	if cfg.Search.TopK, err = getEnvInt("SEARCH_TOP_K", cfg.Search.TopK); err != nil {
		return err
	}
	if cfg.Search.Alpha, err = getEnvFloat("SEARCH_ALPHA", cfg.Search.Alpha); err != nil {
		return err
	}

	cfg.Embedding.Provider = strings.ToLower(getEnv("EMBEDDING_PROVIDER", cfg.Embedding.Provider))
	cfg.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL_NAME", cfg.Embedding.Model)
	cfg.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", cfg.Embedding.APIKey)
	if cfg.Embedding.Provider == embedding.ProviderOpenAI && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Embedding.Dimension, err = getEnvInt("EMBEDDING_DIMENSION", cfg.Embedding.Dimension); err != nil {
		return err
	}
	if cfg.Embedding.Workers, err = getEnvInt("EMBEDDING_WORKERS", cfg.Embedding.Workers); err != nil {
		return err
	}
	if cfg.Embedding.MaxRetries, err = getEnvInt("OPENAI_MAX_RETRIES", cfg.Embedding.MaxRetries); err != nil {
		return err
	}
	if cfg.Embedding.RetryDelay, err = getEnvDuration("OPENAI_RETRY_DELAY", cfg.Embedding.RetryDelay); err != nil {
		return err
	}

	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.Qdrant.URL = getEnv("QDRANT_URL", cfg.Qdrant.URL)
	cfg.Qdrant.Collection = getEnv("QDRANT_COLLECTION", cfg.Qdrant.Collection)
	cfg.SegmentDictPath = getEnv("SEGMENT_DICT_PATH", cfg.SegmentDictPath)
	cfg.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", cfg.Log.Format))
	return nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("invalid chunking config: %w", err)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("SEARCH_TOP_K must be greater than 0")
	}
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return fmt.Errorf("SEARCH_ALPHA must be between 0 and 1, got %v", c.Search.Alpha)
	}

	switch c.Embedding.Provider {
	case embedding.ProviderHash:
	case embedding.ProviderHTTP:
		if c.Embedding.BaseURL == "" {
			return fmt.Errorf("EMBEDDING_BASE_URL is required for the http provider")
		}
	case embedding.ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY or EMBEDDING_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of hash, http, openai; got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must not be negative")
	}
	if c.Embedding.Workers <= 0 {
		return fmt.Errorf("EMBEDDING_WORKERS must be greater than 0")
	}
	if c.Embedding.RetryDelay < 0 {
		return fmt.Errorf("OPENAI_RETRY_DELAY must not be negative")
	}
	if c.Qdrant.URL != "" && c.Qdrant.Collection == "" {
		return fmt.Errorf("QDRANT_COLLECTION is required when QDRANT_URL is set")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("500ms") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
