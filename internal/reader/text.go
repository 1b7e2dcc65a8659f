package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/raggify/raggify-go/internal/metadata"
)

// TextReader is the default fallback reader: it reads a file's raw bytes
// as UTF-8 text and emits the whole file as one Document, left for the
// pipeline's chunker to split.
type TextReader struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewTextReader builds a TextReader using the bundled English sentence
// model. Read runs the tokenizer over the text and discards the result;
// the reader emits the whole file as one Document.
func NewTextReader() (*TextReader, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("reader: load sentence tokenizer: %w", err)
	}
	return &TextReader{tokenizer: tok}, nil
}

func (r *TextReader) Read(_ context.Context, path string) ([]metadata.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reader/text: read %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reader/text: stat %s: %w", path, err)
	}

	content := string(raw)
	// The sentence list is not used; chunk boundaries are decided by the
	// ingestion pipeline's token-based chunker.
	_ = r.tokenizer.Tokenize(content)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	meta := metadata.BasicMetaData{
		FilePath:      abs,
		FileType:      filepath.Ext(path),
		FileSize:      info.Size(),
		FileLastModAt: info.ModTime(),
		FileCreatedAt: info.ModTime(),
	}

	return []metadata.Document{{
		Text: content,
		Hash: fmt.Sprintf("%d-%d", info.Size(), info.ModTime().Unix()),
		Meta: meta,
	}}, nil
}

// Sentences splits text into sentence strings using the bundled English
// model. Nothing in this module calls it; the pipeline's chunker does not
// align chunk boundaries to sentence ends.
func Sentences(tok *sentences.DefaultSentenceTokenizer, text string) []string {
	sents := tok.Tokenize(text)
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		out = append(out, s.Text)
	}
	return out
}
