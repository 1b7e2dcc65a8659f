// Package llm dispatches to a chat-completion backend used for optional
// chunk summarization (internal/ingestion) and as the rerank package's
// LLM-judge fallback. The provider sum type and Validate()/NewChatModel() shape is
// trimmed to the backends this module actually wires: ollama, openai,
// ark (Volcengine, standing in for a managed-cloud LLM backend), and
// gemini.
package llm

import (
	"context"
	"fmt"

	einoark "github.com/cloudwego/eino-ext/components/model/ark"
	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Provider enumerates the supported chat-completion backends.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
	ProviderArk    Provider = "ark"
	ProviderGemini Provider = "gemini"
)

// Config resolves one chat model instance.
type Config struct {
	Provider    Provider
	Model       string
	Endpoint    string // Ollama host, OpenAI-compatible base URL
	APIKey      string
	MaxTokens   int
	Temperature float32
}

// Validate checks that the fields required by the selected provider are set.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOllama:
		if c.Model == "" {
			return fmt.Errorf("llm: provider %q requires a model", c.Provider)
		}
	case ProviderOpenAI:
		if c.Model == "" || c.APIKey == "" {
			return fmt.Errorf("llm: provider %q requires model and API key", c.Provider)
		}
	case ProviderArk:
		if c.Model == "" {
			return fmt.Errorf("llm: provider %q requires a model", c.Provider)
		}
	case ProviderGemini:
		if c.Model == "" || c.APIKey == "" {
			return fmt.Errorf("llm: provider %q requires model and API key", c.Provider)
		}
	default:
		return fmt.Errorf("llm: unknown provider %q — valid values: ollama, openai, ark, gemini", c.Provider)
	}
	return nil
}

// NewChatModel dispatches to the concrete eino ToolCallingChatModel for
// cfg.Provider.
func NewChatModel(ctx context.Context, cfg *Config) (model.ToolCallingChatModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderOllama:
		host := cfg.Endpoint
		if host == "" {
			host = "http://localhost:11434"
		}
		return einoollama.NewChatModel(ctx, &einoollama.ChatModelConfig{ //nolint:wrapcheck // constructor passthrough
			BaseURL: host,
			Model:   cfg.Model,
		})
	case ProviderOpenAI:
		maxTokens := cfg.MaxTokens
		temp := cfg.Temperature
		return einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{ //nolint:wrapcheck // constructor passthrough
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.Endpoint,
			MaxTokens:   &maxTokens,
			Temperature: &temp,
		})
	case ProviderArk:
		maxTokens := cfg.MaxTokens
		temp := cfg.Temperature
		return einoark.NewChatModel(ctx, &einoark.ChatModelConfig{ //nolint:wrapcheck // constructor passthrough
			Model:       cfg.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temp,
		})
	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("llm: create gemini client: %w", err)
		}
		return einogemini.NewChatModel(ctx, &einogemini.Config{ //nolint:wrapcheck // constructor passthrough
			Client: client,
			Model:  cfg.Model,
		})
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
