package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raggify/raggify-go/internal/metadata"
)

// PassthroughMediaReader emits a single Document referencing the file path
// unchanged, preventing the default text reader from trying to split
// binary media as text. Used for already-ingestible media (e.g. a plain
// image file with an embedder that reads the file directly).
type PassthroughMediaReader struct{}

func NewPassthroughMediaReader() *PassthroughMediaReader { return &PassthroughMediaReader{} }

func (r *PassthroughMediaReader) Read(_ context.Context, path string) ([]metadata.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reader/media: stat %s: %w", abs, err)
	}

	return []metadata.Document{{
		Text: abs,
		Meta: metadata.BasicMetaData{
			FilePath:      abs,
			FileType:      filepath.Ext(abs),
			FileSize:      info.Size(),
			FileLastModAt: info.ModTime(),
			FileCreatedAt: info.ModTime(),
		},
	}}, nil
}
