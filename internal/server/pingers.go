package server

import (
	"context"
	"fmt"

	"github.com/raggify/raggify-go/internal/metadata"
	"github.com/raggify/raggify-go/internal/runtime"
)

// buildPingers constructs the five /health probes (spec §6) from rt's
// current state. Each probe exercises the cheapest real call its component
// offers — a Qdrant-style HealthCheck-equivalent, not a request that burns
// provider tokens (an LLM-backed health probe should never bill a model
// call; embed is checked by registration state alone for the same reason).
func buildPingers(rt *runtime.Runtime) []Pinger {
	return []Pinger{
		&funcPinger{name: "vector_store", fn: vectorStorePing(rt)},
		&funcPinger{name: "embed", fn: embedPing(rt)},
		&funcPinger{name: "rerank", fn: rerankPing(rt)},
		&funcPinger{name: "ingest_cache", fn: ingestCachePing(rt)},
		&funcPinger{name: "document_store", fn: documentStorePing(rt)},
	}
}

// vectorStorePing queries every registered space with a zero vector of its
// own dimension. A zero vector is a valid kNN query for every backend here
// (chromem, Qdrant) and touches the same code path a real query would.
func vectorStorePing(rt *runtime.Runtime) func(context.Context) error {
	return func(ctx context.Context) error {
		mgr := rt.EmbedManager()
		vectors := rt.Vectors()
		if mgr == nil || len(vectors) == 0 {
			return nil // no modality configured — nothing to probe
		}
		for _, mod := range metadata.All() {
			c := mgr.Container(mod)
			if c == nil {
				continue
			}
			store, ok := vectors[c.SpaceKey]
			if !ok {
				continue
			}
			if _, err := store.Query(ctx, make([]float32, c.Dim), 1, nil); err != nil {
				return fmt.Errorf("space %s: %w", c.SpaceKey, err)
			}
		}
		return nil
	}
}

// embedPing reports whether at least one modality has a registered embed
// container. It deliberately does not call Embed — that would consume
// provider tokens/credits on every /health poll.
func embedPing(rt *runtime.Runtime) func(context.Context) error {
	return func(context.Context) error {
		mgr := rt.EmbedManager()
		if mgr == nil {
			return fmt.Errorf("embed manager not built")
		}
		for _, mod := range metadata.All() {
			if mgr.Container(mod) != nil {
				return nil
			}
		}
		return fmt.Errorf("no modality has a registered embed backend")
	}
}

// rerankPing checks only that the rerank manager has been built, treating a
// disabled reranker as healthy — it is an optional postprocessor, not a
// required dependency.
func rerankPing(rt *runtime.Runtime) func(context.Context) error {
	return func(context.Context) error {
		if rt.RerankManager() == nil {
			return fmt.Errorf("rerank manager not built")
		}
		return nil
	}
}

// ingestCachePing does a cheap key lookup against the ingest cache's
// backing store, exercising its connection without mutating anything.
func ingestCachePing(rt *runtime.Runtime) func(context.Context) error {
	return func(ctx context.Context) error {
		cache := rt.IngestCache()
		if cache == nil {
			return fmt.Errorf("ingest cache not built")
		}
		_, _, err := cache.Get(ctx, "__health__")
		return err
	}
}

// documentStorePing does a cheap existence lookup against the document
// store, exercising its connection without mutating anything.
func documentStorePing(rt *runtime.Runtime) func(context.Context) error {
	return func(ctx context.Context) error {
		store := rt.DocStore()
		if store == nil {
			return fmt.Errorf("document store not built")
		}
		_, err := store.Exists(ctx, "__health__")
		return err
	}
}
