package rerank

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raggify/raggify-go/internal/metadata"
	"github.com/raggify/raggify-go/internal/store/vector"
)

type fakeBackend struct {
	topN       int
	topNDuring int // topN observed inside PostprocessNodes
	failNext   bool
}

func (f *fakeBackend) TopN() int     { return f.topN }
func (f *fakeBackend) SetTopN(n int) { f.topN = n }

func (f *fakeBackend) PostprocessNodes(_ context.Context, hits []vector.Hit, _ string) ([]vector.Hit, error) {
	f.topNDuring = f.topN
	if f.failNext {
		return nil, fmt.Errorf("boom")
	}
	return hits, nil
}

func hitsOf(n int) []vector.Hit {
	out := make([]vector.Hit, n)
	for i := range out {
		out[i] = vector.Hit{Node: metadata.Node{ID: fmt.Sprintf("n%d", i)}, Score: float32(n - i)}
	}
	return out
}

func TestManagerNilContainerIsNoop(t *testing.T) {
	m := NewManager(nil)
	assert.Equal(t, "none", m.Name())

	hits := hitsOf(3)
	out, err := m.Rerank(context.Background(), hits, "q", 2)
	require.NoError(t, err)
	assert.Equal(t, hits, out)
}

func TestManagerOverridesAndRestoresTopN(t *testing.T) {
	backend := &fakeBackend{topN: 10}
	m := NewManager(&Container{ProviderName: "fake", Backend: backend})
	assert.Equal(t, "fake", m.Name())

	_, err := m.Rerank(context.Background(), hitsOf(5), "q", 3)
	require.NoError(t, err)

	assert.Equal(t, 3, backend.topNDuring, "backend should see the caller's topK during the call")
	assert.Equal(t, 10, backend.topN, "original top_n must be restored after the call")
}

func TestManagerRestoresTopNOnBackendError(t *testing.T) {
	backend := &fakeBackend{topN: 10, failNext: true}
	m := NewManager(&Container{ProviderName: "fake", Backend: backend})

	_, err := m.Rerank(context.Background(), hitsOf(5), "q", 3)
	require.Error(t, err)
	assert.Equal(t, 10, backend.topN, "top_n must be restored even when the backend call fails")
}

func TestParseRankingOrdersAndAppendsUnmentioned(t *testing.T) {
	order, err := parseRanking("3, 1, 2", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1, 3}, order, "mentioned indices first, unmentioned index 4 appended last")
}

func TestParseRankingSkipsOutOfBoundsAndDuplicates(t *testing.T) {
	order, err := parseRanking("1, 1, 99, 2", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, order)
}

func TestParseRankingErrorsWithNoValidIndices(t *testing.T) {
	_, err := parseRanking("not a ranking", 3)
	assert.Error(t, err)
}
