package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const summarizePrompt = "Summarize the following document chunk in at most a few sentences, preserving names, numbers, and any facts a search query might target. Respond with the summary only."

// Summarizer implements ingestion.Summarizer against an eino chat model,
// used to degrade long text chunks before embedding (spec: "optional LLM
// summarization, degrades to original text on failure").
type Summarizer struct {
	Model model.ToolCallingChatModel
}

// NewSummarizer constructs a Summarizer from a resolved Config.
func NewSummarizer(ctx context.Context, cfg *Config) (*Summarizer, error) {
	m, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: new summarizer: %w", err)
	}
	return &Summarizer{Model: m}, nil
}

// Summarize asks the backend to compress text. Callers are expected to
// fall back to the original text on a non-nil error, per the ingestion
// pipeline's degrade-on-failure contract — this method does not do that
// fallback itself so it stays a pure LLM call.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(summarizePrompt),
		schema.UserMessage(text),
	}
	resp, err := s.Model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("llm: summarize: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return "", fmt.Errorf("llm: summarize: empty response")
	}
	return resp.Content, nil
}
