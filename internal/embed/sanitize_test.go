package embed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raggify/raggify-go/internal/metadata"
)

func TestSanitizeMatchesPattern(t *testing.T) {
	cases := []string{
		"openai text-embedding-3-small",
		"x",
		"",
		"ollama/nomic-embed-text:latest",
		strings.Repeat("a", 200),
		"___",
	}
	for _, c := range cases {
		out := Sanitize(c)
		assert.Truef(t, ValidSpaceKey(out), "Sanitize(%q) = %q does not match required pattern", c, out)
	}
}

func TestSanitizePaddingNeverCrossesLengthBound(t *testing.T) {
	// 63 chars, non-alnum at both ends after replacement: padding both
	// ends would push this to 65 chars if the length check ran first.
	raw := "." + strings.Repeat("a", 61) + "."
	out := Sanitize(raw)
	assert.LessOrEqual(t, len(out), 63)
	assert.True(t, ValidSpaceKey(out), "Sanitize(%q) = %q does not match required pattern", raw, out)
}

func TestSpaceKeyChangesWithModalityOrModel(t *testing.T) {
	a := SpaceKey("openai", "text-embedding-3-small", metadata.Text)
	b := SpaceKey("openai", "text-embedding-3-small", metadata.Image)
	c := SpaceKey("openai", "text-embedding-3-large", metadata.Text)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestEmbedManagerEmptyInputShortCircuits(t *testing.T) {
	m := NewManager()
	m.Register(&Container{
		Modality: metadata.Text,
		Backend:  newLocalBackend(8),
	})

	out, err := m.Embed(t.Context(), metadata.Text, nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedManagerRejectsBlankText(t *testing.T) {
	m := NewManager()
	m.Register(&Container{
		Modality: metadata.Text,
		Backend:  newLocalBackend(8),
	})

	_, err := m.Embed(t.Context(), metadata.Text, []string{"  "})
	assert.Error(t, err)
}

func TestEmbedManagerPreservesOrder(t *testing.T) {
	m := NewManager()
	m.Register(&Container{
		Modality:    metadata.Text,
		Backend:     newLocalBackend(8),
		BatchSize:   2,
		Concurrency: 2,
	})

	inputs := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	out, err := m.Embed(t.Context(), metadata.Text, inputs)
	assert.NoError(t, err)
	assert.Len(t, out, len(inputs))

	for i, text := range inputs {
		want := hashVector(text, 8)
		assert.Equal(t, want, out[i])
	}
}
