package embed

import (
	"context"
	"fmt"

	"github.com/raggify/raggify-go/internal/metadata"
)

// Provider is the sum type of embedding backends pluggable per modality.
// New providers are added by extending this enum and adding a case to
// NewBackend — no reflection, no dynamic registry lookup.
type Provider string

const (
	// ProviderOllama embeds via a local Ollama instance's /api/embed route.
	ProviderOllama Provider = "ollama"
	// ProviderOpenAI embeds via the OpenAI-compatible embeddings endpoint.
	ProviderOpenAI Provider = "openai"
	// ProviderLocal is a deterministic, dependency-free backend used for
	// modalities with no configured production provider (tests, IMAGE/AUDIO/
	// VIDEO defaults when no encoder is wired) — see DESIGN.md.
	ProviderLocal Provider = "local"
)

// BackendConfig resolves one modality's embedding backend.
type BackendConfig struct {
	Modality   metadata.Modality
	Provider   Provider
	Model      string
	Dimensions int
	// Endpoint overrides the provider's default base URL (Ollama host,
	// OpenAI-compatible base URL).
	Endpoint string
	// APIKey authenticates against the provider, if required.
	APIKey string
}

// Validate checks that required fields for the selected provider are present.
func (c *BackendConfig) Validate() error {
	switch c.Provider {
	case ProviderOllama:
		if c.Model == "" {
			return fmt.Errorf("embed: provider %q requires a model", c.Provider)
		}
	case ProviderOpenAI:
		if c.Model == "" {
			return fmt.Errorf("embed: provider %q requires a model", c.Provider)
		}
		if c.APIKey == "" {
			return fmt.Errorf("embed: provider %q requires an API key", c.Provider)
		}
	case ProviderLocal:
		if c.Dimensions <= 0 {
			return fmt.Errorf("embed: provider %q requires dimensions > 0", c.Provider)
		}
	default:
		return fmt.Errorf("embed: %w: %q", errUnsupportedProvider, c.Provider)
	}
	return nil
}

var errUnsupportedProvider = fmt.Errorf("unsupported embed provider")

// NewBackend dispatches to the concrete Backend implementation for cfg.Provider.
func NewBackend(ctx context.Context, cfg *BackendConfig) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newErr(MissingConfig, "NewBackend", err)
	}
	switch cfg.Provider {
	case ProviderOllama:
		return newOllamaBackend(cfg), nil
	case ProviderOpenAI:
		return newOpenAIBackend(cfg), nil
	case ProviderLocal:
		return newLocalBackend(cfg.Dimensions), nil
	default:
		return nil, newErr(UnsupportedProvider, "NewBackend", fmt.Errorf("%q", cfg.Provider))
	}
}
