// Package metastore implements the structured Meta store: a SQL-like,
// transactional record of every ingested node's metadata, used to rehydrate
// the fingerprint de-duplication cache on startup and to cascade deletes
// across the other three stores.
package metastore

import (
	"context"

	"github.com/raggify/raggify-go/internal/metadata"
)

// Row is one meta-store record: a node's identity plus its fingerprint and
// the metadata needed to reconstruct it without reading the vector payload.
type Row struct {
	NodeID        string
	RefDocID      string
	BaseSource    string
	Fingerprint   string
	Modality      metadata.Modality
	NodeLastModAt int64 // unix seconds, for ORDER BY ... DESC rehydration
	Meta          metadata.BasicMetaData
}

// Store is the structured Meta store contract (spec §4.2).
type Store interface {
	// UpsertBatch writes rows transactionally: all rows commit, or none do.
	UpsertBatch(ctx context.Context, rows []Row) error
	// SelectRecent returns up to limit rows ordered by node_lastmod_at DESC,
	// used to rehydrate the fingerprint cache on startup.
	SelectRecent(ctx context.Context, limit int) ([]Row, error)
	// FingerprintExists reports whether fingerprint is already recorded.
	FingerprintExists(ctx context.Context, fingerprint string) (bool, error)
	// DeleteByBaseSource removes every row for baseSource and reports the
	// ref_doc_ids affected, so the caller can cascade the delete to the
	// vector store, document store, and ingest cache.
	DeleteByBaseSource(ctx context.Context, baseSource string) ([]string, error)
	Close() error
}
