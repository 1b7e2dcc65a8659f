// Package ingestion implements the multimodal ingestion pipeline: reader
// dispatch, duplicate filtering, modality classification, chunk indexing,
// optional summarization, batched embedding, and the transactional commit
// across the vector store, document store, ingest cache, and meta store.
package ingestion

import "time"

// Config holds pipeline-wide tuning knobs (spec §4.4, §6 ingest section).
type Config struct {
	// ChunkSize is the maximum number of tokens per text chunk, measured
	// with the cl100k_base tiktoken encoding.
	ChunkSize int
	// ChunkOverlap is the token overlap between consecutive chunks.
	ChunkOverlap int
	// CacheLoadLimit bounds how many meta-store rows are loaded, newest
	// first, to rehydrate the fingerprint de-duplication cache on startup.
	CacheLoadLimit int
	// UseModalityFallback routes video ingestion through per-frame image
	// embedding when no video embedder backend is configured, rather than
	// failing the batch (resolves the video-embedder Open Question).
	UseModalityFallback bool
	// SummarizeMaxChars gates whether a chunk is sent to the LLM
	// summarizer before embedding; chunks at or under this length skip
	// summarization. Zero disables summarization outright.
	SummarizeMaxChars int
	// CheckUpdate, when false, short-circuits a source once its content
	// fingerprint is already known instead of re-embedding and
	// re-committing it. true (the default) always re-processes.
	CheckUpdate bool
}

// resolved returns a copy of cfg with defaults applied.
func (cfg Config) resolved() Config {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}
	if cfg.CacheLoadLimit <= 0 {
		cfg.CacheLoadLimit = 10000
	}
	return cfg
}

// defaultBatchInterval throttles embedding batches when a Container does
// not specify its own; see internal/embed.Container.BatchInterval.
const defaultBatchInterval = 0 * time.Second
