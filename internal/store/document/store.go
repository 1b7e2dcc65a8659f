// Package document implements the DocumentStore contract: a persistent,
// ref_doc_id-keyed record of ingested content hashes, iterable for BM25
// corpus construction.
package document

import "context"

// Record is one document-store row. Hash is the content hash recorded at
// last successful ingestion, used by the pipeline's duplicate filter to
// decide whether a ref_doc_id needs re-embedding.
type Record struct {
	RefDocID string
	Hash     string
	Text     string
}

// Store is the DocumentStore contract (spec §4.2). Implementations must
// persist across process restarts.
type Store interface {
	// Exists reports whether refDocID has any record.
	Exists(ctx context.Context, refDocID string) (bool, error)
	// CurrentHash returns the hash stored for refDocID, or ("", false) if
	// it has no record.
	CurrentHash(ctx context.Context, refDocID string) (string, bool, error)
	// Upsert writes or overwrites the record for refDocID.
	Upsert(ctx context.Context, rec Record) error
	// DeleteByRefDocIDs removes every record whose ref_doc_id is in the set.
	DeleteByRefDocIDs(ctx context.Context, refDocIDs []string) error
	// All iterates every record for BM25 corpus construction. Iteration
	// stops and returns the callback's error, if any.
	All(ctx context.Context, fn func(Record) error) error
	Close() error
}
