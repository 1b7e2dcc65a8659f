package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// openaiBackend implements Backend against an OpenAI-compatible embeddings
// endpoint (OpenAI proper, or an Azure/OpenAI-shaped gateway).
type openaiBackend struct {
	baseURL string
	apiKey  string
	model   string
	dim     int
	client  *http.Client
}

func newOpenAIBackend(cfg *BackendConfig) *openaiBackend {
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &openaiBackend{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		dim:     cfg.Dimensions,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type openaiEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (b *openaiBackend) Dimension() int { return b.dim }

func (b *openaiBackend) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	payload, err := json.Marshal(openaiEmbedRequest{Model: b.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("embed/openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("embed/openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed/openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed/openai: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, fmt.Errorf("embed/openai: %s", msg)
	}
	if len(result.Data) != len(inputs) {
		return nil, fmt.Errorf("embed/openai: expected %d embeddings, got %d", len(inputs), len(result.Data))
	}

	out := make([][]float32, len(inputs))
	for _, d := range result.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}
