package retrieve

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/raggify/raggify-go/internal/store/document"
)

// bm25Doc is the shape indexed per ref_doc_id. Only Text is analyzed; the
// docstore's own hash/text fields stay the source of truth, this index is a
// derived, rebuildable artifact.
type bm25Doc struct {
	Text string `json:"text"`
}

// bm25Hit pairs a ref_doc_id with its BM25 score and indexed text, avoiding
// a second docstore round trip to fill in the text for a BM25-only match.
type bm25Hit struct {
	RefDocID string
	Score    float64
	Text     string
}

// BM25Index is an in-memory full-text index over the document store's
// corpus (spec: "BM25 over the docstore corpus, requires non-empty
// docstore"). It is rebuilt from the docstore rather than persisted
// independently, since the docstore is already the durable source of text.
type BM25Index struct {
	idx bleve.Index
}

// NewBM25Index constructs an empty in-memory index.
func NewBM25Index() (*BM25Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("retrieve: new bm25 index: %w", err)
	}
	return &BM25Index{idx: idx}, nil
}

// BuildFromDocStore indexes every non-empty-text record the docstore holds,
// keyed by ref_doc_id. Callers rebuild the index after ingestion changes the
// docstore's contents.
func (b *BM25Index) BuildFromDocStore(ctx context.Context, docs document.Store) error {
	return docs.All(ctx, func(rec document.Record) error {
		if rec.Text == "" {
			return nil
		}
		if err := b.idx.Index(rec.RefDocID, bm25Doc{Text: rec.Text}); err != nil {
			return fmt.Errorf("retrieve: index %s: %w", rec.RefDocID, err)
		}
		return nil
	})
}

// Search runs a BM25 match query and returns up to topK hits, highest score
// first, including each hit's original indexed text.
func (b *BM25Index) Search(query string, topK int) ([]bm25Hit, error) {
	if topK <= 0 {
		topK = 10
	}
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, topK, 0, false)
	req.Fields = []string{"text"}

	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("retrieve: bm25 search: %w", err)
	}

	hits := make([]bm25Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		text, _ := h.Fields["text"].(string)
		hits = append(hits, bm25Hit{RefDocID: h.ID, Score: h.Score, Text: text})
	}
	return hits, nil
}

func (b *BM25Index) Close() error {
	return b.idx.Close()
}
