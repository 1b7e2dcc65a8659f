package rerank

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/raggify/raggify-go/internal/store/vector"
)

const judgeSystemPrompt = "You rank search results by relevance to a query. " +
	"You will be given a numbered list of candidate passages and a query. " +
	"Respond with ONLY a comma-separated list of the passage numbers, most " +
	"relevant first. Do not include any other text."

// LLMJudgeBackend reranks hits by asking a chat model to judge relevance to
// the query, standing in for a cross-encoder rerank service (Cohere,
// FlagEmbedding): no such reranker SDK is wired here, so the rerank step is
// expressed as an LLM-judge prompt over the existing eino chat stack instead.
type LLMJudgeBackend struct {
	Model model.ToolCallingChatModel

	mu   sync.Mutex
	topN int
}

// NewLLMJudgeBackend constructs a backend with an initial topN cap.
func NewLLMJudgeBackend(m model.ToolCallingChatModel, topN int) *LLMJudgeBackend {
	return &LLMJudgeBackend{Model: m, topN: topN}
}

func (b *LLMJudgeBackend) TopN() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.topN
}

func (b *LLMJudgeBackend) SetTopN(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topN = n
}

// PostprocessNodes asks the chat model to rank hits against query and
// returns them reordered, capped at the backend's current TopN.
func (b *LLMJudgeBackend) PostprocessNodes(ctx context.Context, hits []vector.Hit, query string) ([]vector.Hit, error) {
	if len(hits) == 0 {
		return hits, nil
	}
	topN := b.TopN()

	msgs := []*schema.Message{
		schema.SystemMessage(judgeSystemPrompt),
		schema.UserMessage(buildJudgePrompt(hits, query)),
	}
	resp, err := b.Model.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("rerank: llm judge generate: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("rerank: llm judge returned nil response")
	}

	order, err := parseRanking(resp.Content, len(hits))
	if err != nil {
		return nil, fmt.Errorf("rerank: parse llm judge ranking: %w", err)
	}

	if topN <= 0 || topN > len(order) {
		topN = len(order)
	}
	out := make([]vector.Hit, 0, topN)
	for _, idx := range order {
		out = append(out, hits[idx])
		if len(out) >= topN {
			break
		}
	}
	return out, nil
}

// buildJudgePrompt renders hits as a 1-based numbered list of text snippets.
func buildJudgePrompt(hits []vector.Hit, query string) string {
	var sb strings.Builder
	sb.WriteString("Query: ")
	sb.WriteString(query)
	sb.WriteString("\n\nCandidates:\n")
	for i, h := range hits {
		text := h.Node.Text
		if len(text) > 500 {
			text = text[:500]
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}
	return sb.String()
}

// parseRanking extracts a 0-based, deduplicated, bounds-checked ordering of
// indices from a comma/whitespace-separated list of 1-based numbers.
// Numbers outside [1, n] are skipped; numbers the model never mentions are
// appended in their original order so every hit still appears exactly once.
func parseRanking(content string, n int) ([]int, error) {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\t' || r == ' '
	})

	seen := make(map[int]bool, n)
	order := make([]int, 0, n)
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			continue
		}
		idx := v - 1
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		order = append(order, idx)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("rerank: no valid ranking indices found in response")
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			order = append(order, i)
		}
	}
	return order, nil
}
