package reader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raggify/raggify-go/internal/metadata"
)

func TestRegistryDispatchesByExtension(t *testing.T) {
	r := NewRegistry()
	pdfReader := &stubReader{}
	r.Register(pdfReader, ".pdf")

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := r.Read(t.Context(), path)
	require.NoError(t, err)
	assert.True(t, pdfReader.called)
}

func TestRegistryFallsBackWhenUnregistered(t *testing.T) {
	r := NewRegistry()
	fallback := &stubReader{}
	r.SetFallback(fallback)

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.unknown")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := r.Read(t.Context(), path)
	require.NoError(t, err)
	assert.True(t, fallback.called)
}

func TestRegistryErrorsWithNoFallback(t *testing.T) {
	r := NewRegistry()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.unknown")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := r.Read(t.Context(), path)
	assert.Error(t, err)
}

func TestAssetURLCacheDedupes(t *testing.T) {
	c := NewAssetURLCache()
	assert.False(t, c.SeenOrMark("http://example.com/a.png"))
	assert.True(t, c.SeenOrMark("http://example.com/a.png"))
	assert.False(t, c.SeenOrMark("http://example.com/b.png"))
}

type stubReader struct {
	called bool
}

func (s *stubReader) Read(_ context.Context, _ string) ([]metadata.Document, error) {
	s.called = true
	return nil, nil
}
