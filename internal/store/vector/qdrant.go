package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/raggify/raggify-go/internal/metadata"
)

// QdrantConfig holds connection parameters for one space's Qdrant collection.
// One collection per logical space, named by the caller's derived table name.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	VectorSize uint64
	APIKey     string
	UseTLS     bool
}

// QdrantStore implements Store backed by a Qdrant collection.
type QdrantStore struct {
	client *qdrant.Client
	cfg    *QdrantConfig
}

// NewQdrantStore creates a QdrantStore, ensuring the collection exists.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("store/vector: qdrant client: %w", err)
	}

	s := &QdrantStore{client: client, cfg: cfg}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("store/vector: check collection: %w", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("store/vector: create collection %q: %w", s.cfg.Collection, err)
	}
	return nil
}

// nodePayload is the JSON-encoded Qdrant payload carrying a node's metadata
// so it can be reconstructed on Query without a round-trip to the meta store.
type nodePayload struct {
	RefDocID string                 `json:"ref_doc_id"`
	Modality metadata.Modality      `json:"modality"`
	Text     string                 `json:"text"`
	Meta     metadata.BasicMetaData `json:"meta"`
}

func (s *QdrantStore) Upsert(ctx context.Context, nodes []metadata.Node) error {
	points := make([]*qdrant.PointStruct, 0, len(nodes))
	for _, n := range nodes {
		payload := nodePayload{RefDocID: n.RefDocID, Modality: n.Modality, Text: n.Text, Meta: n.Meta}
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("store/vector: marshal payload for %s: %w", n.ID, err)
		}
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("store/vector: unmarshal payload for %s: %w", n.ID, err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(n.ID),
			Vectors: qdrant.NewVectors(n.Embedding...),
			Payload: qdrant.NewValueMap(m),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("store/vector: upsert: %w", err)
	}
	return nil
}

func (s *QdrantStore) DeleteByRefDocIDs(ctx context.Context, refDocIDs []string) error {
	if len(refDocIDs) == 0 {
		return nil
	}
	values := make([]*qdrant.Value, 0, len(refDocIDs))
	for _, id := range refDocIDs {
		values = append(values, qdrant.NewValue(id))
	}
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatchKeywords("ref_doc_id", refDocIDs...),
		},
	}
	_ = values // kept for backend alternatives that require raw values rather than a match filter
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return fmt.Errorf("store/vector: delete by ref_doc_ids: %w", err)
	}
	return nil
}

func (s *QdrantStore) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.cfg.Collection); err != nil {
		return fmt.Errorf("store/vector: clear (delete collection): %w", err)
	}
	return s.ensureCollection(ctx)
}

func (s *QdrantStore) Query(ctx context.Context, queryVec []float32, topK int, filters *Filters) ([]Hit, error) {
	limit := uint64(topK) //nolint:gosec // topK is always small and non-negative
	req := &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryVec...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if filters != nil && len(filters.RefDocIDs) > 0 {
		req.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchKeywords("ref_doc_id", filters.RefDocIDs...)},
		}
	}

	results, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("store/vector: query: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		var n metadata.Node
		n.ID = r.Id.GetUuid()
		if p := r.Payload; p != nil {
			raw, _ := json.Marshal(valuesToJSON(p))
			var np nodePayload
			if err := json.Unmarshal(raw, &np); err == nil {
				n.RefDocID = np.RefDocID
				n.Modality = np.Modality
				n.Text = np.Text
				n.Meta = np.Meta
			}
		}
		hits = append(hits, Hit{Node: n, Score: r.Score})
	}
	return hits, nil
}

func (s *QdrantStore) Close() error { return s.client.Close() }

// valuesToJSON converts a Qdrant payload map into a plain map[string]any
// suitable for re-marshaling into nodePayload.
func valuesToJSON(p map[string]*qdrant.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v.AsInterface()
	}
	return out
}
