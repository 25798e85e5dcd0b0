package embedding

import (
	"context"
	"fmt"
	"time"

	"docrag/internal/contextutil"
	"docrag/internal/util"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = string(openai.SmallEmbedding3)

	defaultOpenAIRetries = 3
	defaultRetryDelay    = 2 * time.Second
	requestTimeout       = 30 * time.Second
)

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint (Azure proxies, tests). Empty uses api.openai.com.
	BaseURL    string
	Model      string
	Dimension  int
	MaxRetries int
	RetryDelay time.Duration
}

// OpenAIEmbedder embeds text through the OpenAI embeddings API, retrying failed calls
// with exponential backoff.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dim        int
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIEmbedder creates an embedder. The API key is required.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dim := cfg.Dimension
	if dim <= 0 {
		dim = 1536 // text-embedding-3-small
		if model == string(openai.LargeEmbedding3) {
			dim = 3072
		}
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = defaultOpenAIRetries
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		dim:        dim,
		maxRetries: retries,
		retryDelay: delay,
	}, nil
}

// Embed returns the embedding of text, retrying up to MaxRetries times.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			logger.DebugContext(ctx, "retrying embedding request", "attempt", attempt+1, "error", lastErr)
			if err := util.Sleep(ctx, util.CalculateBackoff(e.retryDelay, attempt)); err != nil {
				return nil, err
			}
		}

		vec, err := e.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
	}

	return nil, fmt.Errorf("failed to generate embedding after %d attempts: %w", e.maxRetries+1, lastErr)
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	raw := resp.Data[0].Embedding
	if len(raw) != e.dim {
		return nil, fmt.Errorf("embedding has size %d, expected %d", len(raw), e.dim)
	}
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimension returns the vector size of the configured model.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

// Model returns the model name.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}
