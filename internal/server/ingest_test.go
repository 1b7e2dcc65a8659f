package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raggify/raggify-go/internal/worker"
)

func TestIngestKindFromPath(t *testing.T) {
	cases := []struct {
		path string
		kind worker.Kind
		ok   bool
	}{
		{"/v1/ingest/path", worker.KindIngestPath, true},
		{"/v1/ingest/path_list", worker.KindIngestPathList, true},
		{"/v1/ingest/url", worker.KindIngestURL, true},
		{"/v1/ingest/url_list", worker.KindIngestURLList, true},
		{"/v1/ingest/nonsense", "", false},
		{"/v1/query/text_text", "", false},
	}
	for _, c := range cases {
		kind, ok := ingestKindFromPath(c.path)
		assert.Equal(t, c.ok, ok, c.path)
		assert.Equal(t, c.kind, kind, c.path)
	}
}

func TestSplitIngestInputs_SingleKindsIgnoreCommas(t *testing.T) {
	out := splitIngestInputs(worker.KindIngestPath, "a,b,c")
	assert.Equal(t, []string{"a,b,c"}, out)
}

func TestSplitIngestInputs_ListKindsSplitAndTrim(t *testing.T) {
	out := splitIngestInputs(worker.KindIngestPathList, "a, b ,, c")
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestSplitIngestInputs_URLListSplitsOnCommas(t *testing.T) {
	out := splitIngestInputs(worker.KindIngestURLList, "https://a.example,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, out)
}
