// Package rerank implements the optional postprocessor that reorders a
// retriever's scored hits against the original query text (spec §4.5).
package rerank

import (
	"context"
	"fmt"

	"github.com/raggify/raggify-go/internal/store/vector"
)

// Backend reorders/truncates a set of scored hits for a query. TopN/SetTopN
// expose the backend's result cap as mutable state, mirroring the original
// rerank manager's borrow-and-restore idiom for postprocessors that carry
// top_n as instance state rather than taking it per call.
type Backend interface {
	PostprocessNodes(ctx context.Context, hits []vector.Hit, query string) ([]vector.Hit, error)
	TopN() int
	SetTopN(n int)
}

// Container pairs a Backend with the provider name Manager.Name reports.
type Container struct {
	ProviderName string
	Backend      Backend
}

// Manager wraps an optional rerank Backend. A nil Container makes Rerank a
// no-op, matching the spec's "reranker is an optional postprocessor".
type Manager struct {
	cont *Container
}

// NewManager constructs a Manager. cont may be nil to disable reranking.
func NewManager(cont *Container) *Manager {
	return &Manager{cont: cont}
}

// Name reports the configured provider, or "none" when reranking is disabled.
func (m *Manager) Name() string {
	if m.cont == nil {
		return "none"
	}
	return m.cont.ProviderName
}

// Rerank reorders hits against query, temporarily overriding the backend's
// top_n to topK for the call and restoring the original value on every exit
// path — including when PostprocessNodes itself errors.
func (m *Manager) Rerank(ctx context.Context, hits []vector.Hit, query string, topK int) ([]vector.Hit, error) {
	if m.cont == nil {
		return hits, nil
	}

	original := m.cont.Backend.TopN()
	m.cont.Backend.SetTopN(topK)
	defer m.cont.Backend.SetTopN(original)

	out, err := m.cont.Backend.PostprocessNodes(ctx, hits, query)
	if err != nil {
		return nil, fmt.Errorf("rerank: failed to rerank documents: %w", err)
	}
	return out, nil
}
