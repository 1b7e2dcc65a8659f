package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ollamaBackend implements Backend against a local Ollama instance's
// /api/embed route, text-only, used for the TEXT modality container.
type ollamaBackend struct {
	host   string
	model  string
	dim    int
	client *http.Client
}

func newOllamaBackend(cfg *BackendConfig) *ollamaBackend {
	host := cfg.Endpoint
	if host == "" {
		host = "http://localhost:11434"
	}
	return &ollamaBackend{
		host:   host,
		model:  cfg.Model,
		dim:    cfg.Dimensions,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (b *ollamaBackend) Dimension() int { return b.dim }

func (b *ollamaBackend) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	payload, err := json.Marshal(ollamaEmbedRequest{Model: b.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("embed/ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.host+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("embed/ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed/ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed/ollama: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != "" {
			msg = result.Error
		}
		return nil, fmt.Errorf("embed/ollama: %s", msg)
	}
	if len(result.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("embed/ollama: expected %d embeddings, got %d", len(inputs), len(result.Embeddings))
	}
	return result.Embeddings, nil
}
