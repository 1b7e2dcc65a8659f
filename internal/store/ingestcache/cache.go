// Package ingestcache implements the IngestCache contract: a KV cache keyed
// by hash(transform)+node_id that lets the pipeline skip re-running a
// transform (e.g. embedding) over a node it has already processed.
package ingestcache

import "context"

// Cache is the IngestCache contract (spec §4.2).
type Cache interface {
	// Get returns the cached value for key, or ("", false) if absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	// Persist flushes the cache to durable storage at path, used after an
	// ingestion run completes so a later process can rehydrate it.
	Persist(ctx context.Context, path string) error
	Close() error
}

// Key derives the cache key for a (transform hash, node id) pair. The
// transform hash identifies the transform's configuration (e.g. the embed
// provider+model+dimension), so changing the transform invalidates prior
// cache entries for the same node without an explicit migration.
func Key(transformHash, nodeID string) string {
	return transformHash + ":" + nodeID
}
