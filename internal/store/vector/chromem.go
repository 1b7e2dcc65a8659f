package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/raggify/raggify-go/internal/metadata"
)

// ChromemStore implements Store backed by an embedded chromem-go collection.
// It is the single-node alternative to QdrantStore, selected via
// vector_store.backend=chromem in config — useful for local installs and
// tests that should not depend on a running Qdrant instance.
type ChromemStore struct {
	mu   sync.RWMutex
	db   *chromem.DB
	col  *chromem.Collection
	name string
}

// NewChromemStore opens (or creates) a persistent chromem-go database at
// dbPath and the named collection within it.
func NewChromemStore(dbPath, collection string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("store/vector: open chromem db: %w", err)
	}
	// passthroughEmbed tells chromem-go we supply our own vectors rather than
	// having it compute embeddings from documents — the embed manager owns
	// that responsibility.
	col, err := db.GetOrCreateCollection(collection, nil, passthroughEmbed)
	if err != nil {
		return nil, fmt.Errorf("store/vector: get or create collection %q: %w", collection, err)
	}
	return &ChromemStore{db: db, col: col, name: collection}, nil
}

// passthroughEmbed satisfies chromem.EmbeddingFunc without calling any
// backend: callers always pass a pre-computed embedding alongside the
// document, so this is only invoked when chromem-go needs a reference
// embedder identity — it is never actually called on our write/query paths.
func passthroughEmbed(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("store/vector: chromem embed function should not be invoked; vectors are supplied explicitly")
}

func (s *ChromemStore) Upsert(ctx context.Context, nodes []metadata.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]chromem.Document, 0, len(nodes))
	for _, n := range nodes {
		docs = append(docs, chromem.Document{
			ID:        n.ID,
			Content:   n.Text,
			Embedding: n.Embedding,
			Metadata: map[string]string{
				"ref_doc_id": n.RefDocID,
				"modality":   string(n.Modality),
				"file_path":  n.Meta.FilePath,
				"base_source": n.Meta.BaseSource,
			},
		})
	}
	if err := s.col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("store/vector: chromem upsert: %w", err)
	}
	return nil
}

func (s *ChromemStore) DeleteByRefDocIDs(ctx context.Context, refDocIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range refDocIDs {
		if err := s.col.Delete(ctx, map[string]string{"ref_doc_id": id}, nil); err != nil {
			return fmt.Errorf("store/vector: chromem delete by ref_doc_id %s: %w", id, err)
		}
	}
	return nil
}

func (s *ChromemStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("store/vector: chromem clear: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, passthroughEmbed)
	if err != nil {
		return fmt.Errorf("store/vector: chromem recreate collection: %w", err)
	}
	s.col = col
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, queryVec []float32, topK int, filters *Filters) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where map[string]string
	if filters != nil && len(filters.RefDocIDs) == 1 {
		where = map[string]string{"ref_doc_id": filters.RefDocIDs[0]}
	}

	// chromem-go rejects nResults <= 0 or above the collection's size.
	if n := s.col.Count(); topK > n {
		topK = n
	}
	if topK <= 0 {
		return nil, nil
	}
	results, err := s.col.QueryEmbedding(ctx, queryVec, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("store/vector: chromem query: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			Node: metadata.Node{
				ID:       r.ID,
				RefDocID: r.Metadata["ref_doc_id"],
				Modality: metadata.Modality(r.Metadata["modality"]),
				Text:     r.Content,
				Meta: metadata.BasicMetaData{
					FilePath:   r.Metadata["file_path"],
					BaseSource: r.Metadata["base_source"],
				},
			},
			Score: r.Similarity,
		})
	}
	return hits, nil
}

func (s *ChromemStore) Close() error { return nil }
