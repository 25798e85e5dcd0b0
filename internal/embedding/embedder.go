package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension is the length of every vector Embed returns.
	Dimension() int
	// Model identifies the embedding model, for cache keys and logs.
	Model() string
}

// ErrEmptyText is returned when asked to embed empty input.
var ErrEmptyText = errors.New("cannot embed empty text")

// Provider names accepted by New.
const (
	ProviderHash   = "hash"
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// Options configures the embedder returned by New.
type Options struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	MaxRetries int
	RetryDelay time.Duration
}

// New builds the embedder selected by opts.Provider.
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case ProviderHash, "":
		return NewHashEmbedder(opts.Dimension), nil
	case ProviderHTTP:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("http embedder requires a base URL")
		}
		return NewHTTPClient(opts.BaseURL, opts.APIKey, opts.Model, opts.Dimension), nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     opts.APIKey,
			BaseURL:    opts.BaseURL,
			Model:      opts.Model,
			Dimension:  opts.Dimension,
			MaxRetries: opts.MaxRetries,
			RetryDelay: opts.RetryDelay,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}
}
