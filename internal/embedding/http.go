package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPClient calls an OpenAI-compatible /v1/embeddings endpoint (llama.cpp, Ollama, vLLM).
type HTTPClient struct {
	BaseURL      string
	APIKey       string
	ModelName    string
	ExpectedSize int // every returned vector must have this length
	client       *http.Client
}

// NewHTTPClient creates a client for the server at baseURL.
func NewHTTPClient(baseURL, apiKey, model string, expectedSize int) *HTTPClient {
	return &HTTPClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		ModelName:    model,
		ExpectedSize: expectedSize,
		client:       http.DefaultClient,
	}
}

// EmbeddingsRequest is the request payload of the embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData is a single embedding in the response.
type EmbeddingData struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingsResponse is the response of the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// Embed returns the embedding of a single text.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Dimension returns the expected vector size.
func (c *HTTPClient) Dimension() int {
	return c.ExpectedSize
}

// Model returns the configured model name.
func (c *HTTPClient) Model() string {
	return c.ModelName
}

// EmbedTexts embeds a batch in one request, returning vectors in input order.
func (c *HTTPClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)
	body, err := json.Marshal(EmbeddingsRequest{Model: c.ModelName, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(embeddingsResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data))
	}

	result := make([][]float32, len(texts))
	for i, data := range embeddingsResp.Data {
		if c.ExpectedSize > 0 && len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), c.ExpectedSize)
		}
		pos := i
		if data.Index >= 0 && data.Index < len(texts) && result[data.Index] == nil {
			pos = data.Index
		}
		result[pos] = toFloat32(data.Embedding)
	}
	for i, vec := range result {
		if vec == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return result, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
