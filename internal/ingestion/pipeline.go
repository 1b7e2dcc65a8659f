package ingestion

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/raggify/raggify-go/internal/embed"
	"github.com/raggify/raggify-go/internal/metadata"
	"github.com/raggify/raggify-go/internal/reader"
	"github.com/raggify/raggify-go/internal/store/document"
	"github.com/raggify/raggify-go/internal/store/ingestcache"
	"github.com/raggify/raggify-go/internal/store/metastore"
	"github.com/raggify/raggify-go/internal/store/vector"
)

// Summarizer degrades a chunk's text before embedding. On error the
// pipeline keeps the chunk's original text rather than failing the batch
// (spec: "optional LLM summarization (degrades to original text on
// failure)").
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Spaces resolves the vector store and embed container for one modality,
// keyed by the embed package's sanitized space key.
type Spaces struct {
	Embed   *embed.Manager
	Vectors map[string]vector.Store // space key -> store
}

func (s Spaces) vectorFor(mod metadata.Modality) (vector.Store, *embed.Container, error) {
	c := s.Embed.Container(mod)
	if c == nil {
		return nil, nil, fmt.Errorf("ingestion: no embed container registered for modality %s", mod)
	}
	vs, ok := s.Vectors[c.SpaceKey]
	if !ok {
		return nil, nil, fmt.Errorf("ingestion: no vector store registered for space %s", c.SpaceKey)
	}
	return vs, c, nil
}

// Pipeline wires the readers and four per-space stores together to run the
// full ingest → embed → commit flow (spec §4.4).
type Pipeline struct {
	Readers     *reader.Registry
	Spaces      Spaces
	DocStore    document.Store
	MetaStore   metastore.Store
	IngestCache ingestcache.Cache
	Summarizer  Summarizer // nil disables summarization regardless of Config
	Cfg         Config

	fingerprints map[string]bool // rehydrated cache of already-committed fingerprints
}

// NewPipeline constructs a Pipeline and rehydrates its fingerprint
// de-duplication cache from the meta store (spec: "Fingerprint cache
// rehydrated on startup from meta store, cache_load_limit rows, newest
// first").
func NewPipeline(ctx context.Context, readers *reader.Registry, spaces Spaces, docStore document.Store,
	metaStore metastore.Store, cache ingestcache.Cache, summarizer Summarizer, cfg Config) (*Pipeline, error) {
	cfg = cfg.resolved()
	p := &Pipeline{
		Readers:      readers,
		Spaces:       spaces,
		DocStore:     docStore,
		MetaStore:    metaStore,
		IngestCache:  cache,
		Summarizer:   summarizer,
		Cfg:          cfg,
		fingerprints: make(map[string]bool),
	}

	rows, err := metaStore.SelectRecent(ctx, cfg.CacheLoadLimit)
	if err != nil {
		return nil, fmt.Errorf("ingestion: rehydrate fingerprint cache: %w", err)
	}
	for _, row := range rows {
		p.fingerprints[row.Fingerprint] = true
	}
	return p, nil
}

// Result summarizes one Run invocation for the job worker to report.
type Result struct {
	InputsProcessed int
	NodesCommitted  int
	NodesSkipped    int // duplicates
	Errors          []error
}

// Run ingests every input (a local file path or URL, dispatched by the
// reader registry) through the full pipeline, stopping early — but after
// finishing any in-flight batch — if cancel reports true.
func (p *Pipeline) Run(ctx context.Context, inputs []string, cancel CancelFunc) (Result, error) {
	if cancel == nil {
		cancel = neverCanceled
	}

	tempDir, cleanup, err := scopedTempDir("", "raggify-ingest-")
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	var result Result
	for _, input := range inputs {
		if cancel() {
			return result, Canceled{}
		}

		n, err := p.ingestOne(ctx, input, tempDir)
		result.NodesCommitted += n.committed
		result.NodesSkipped += n.skipped
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("ingestion: %s: %w", input, err))
			continue
		}
		result.InputsProcessed++
	}

	if err := p.IngestCache.Persist(ctx, tempDir+".cache"); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("ingestion: persist cache: %w", err))
	}

	if len(result.Errors) > 0 && result.InputsProcessed == 0 {
		return result, result.Errors[0]
	}
	return result, nil
}

type stageCounts struct {
	committed int
	skipped   int
}

// ingestOne runs stages 1-9 for the documents produced by a single input.
func (p *Pipeline) ingestOne(ctx context.Context, input string, tempDir string) (stageCounts, error) {
	docs, err := p.Readers.Read(ctx, input)
	if err != nil {
		return stageCounts{}, err
	}

	var counts stageCounts
	byModality := make(map[metadata.Modality][]metadata.Node)
	docHashes := make(map[string]string) // ref_doc_id -> reader-reported content hash

	for _, doc := range docs {
		// Stage 1: assign ref_doc_id.
		refDocID := doc.Meta.RefDocID()
		doc.ID, doc.DocID = refDocID, refDocID

		// Stage 2: docstore duplicate filter (DUPLICATES_ONLY).
		currentHash, found, err := p.DocStore.CurrentHash(ctx, refDocID)
		if err == nil && found && currentHash == doc.Hash && doc.Hash != "" {
			counts.skipped++
			continue
		}
		docHashes[refDocID] = doc.Hash

		// Stage 3: modality split by extension.
		mod := classifyModality(doc)
		if mod == metadata.Video && p.Spaces.Embed.Container(metadata.Video) == nil && p.Cfg.UseModalityFallback {
			mod = metadata.Image
		}

		// Stage 4 (media splitting) already happened inside the reader for
		// audio/video sources, which emit one Document per segment/frame.

		// Stage 5: chunk indexing, contiguous chunk_no per ref_doc_id.
		nodes := splitIntoChunks(doc, mod, p.Cfg.ChunkSize, p.Cfg.ChunkOverlap)

		// Fingerprint dedup: check_update=false short-circuits a source
		// once its content fingerprint is already known, skipping nodes
		// the docstore hash filter above would otherwise let back in
		// (e.g. after the docstore's cache_load_limit window rolls past
		// it). check_update=true (the default) always re-processes, so
		// the short-circuit is opt-in.
		if !p.Cfg.CheckUpdate {
			nodes, err = p.filterKnownFingerprints(ctx, nodes, &counts)
			if err != nil {
				return counts, err
			}
		}

		byModality[mod] = append(byModality[mod], nodes...)
	}

	for mod, nodes := range byModality {
		committed, err := p.commitModalityBatch(ctx, mod, nodes, docHashes)
		counts.committed += committed
		if err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// filterKnownFingerprints drops nodes whose fingerprint was already
// committed, checking the in-memory rehydrated cache first and falling back
// to the meta store for fingerprints outside the rehydrated window.
func (p *Pipeline) filterKnownFingerprints(ctx context.Context, nodes []metadata.Node, counts *stageCounts) ([]metadata.Node, error) {
	kept := make([]metadata.Node, 0, len(nodes))
	for _, n := range nodes {
		fp := n.Fingerprint()
		if p.fingerprints[fp] {
			counts.skipped++
			continue
		}
		exists, err := p.MetaStore.FingerprintExists(ctx, fp)
		if err != nil {
			return nil, fmt.Errorf("ingestion: check fingerprint: %w", err)
		}
		if exists {
			p.fingerprints[fp] = true
			counts.skipped++
			continue
		}
		kept = append(kept, n)
	}
	return kept, nil
}

// commitModalityBatch runs stages 6-9 for one modality's nodes: optional
// summarization, batched embedding, temp-file cleanup, and the
// transactional four-store commit.
func (p *Pipeline) commitModalityBatch(ctx context.Context, mod metadata.Modality, nodes []metadata.Node, docHashes map[string]string) (int, error) {
	if len(nodes) == 0 {
		return 0, nil
	}

	// Stage 6: optional LLM summarization, degrading to original text on failure.
	if p.Summarizer != nil && mod == metadata.Text && p.Cfg.SummarizeMaxChars > 0 {
		for i := range nodes {
			if len(nodes[i].Text) <= p.Cfg.SummarizeMaxChars {
				continue
			}
			summarized, err := p.Summarizer.Summarize(ctx, nodes[i].Text)
			if err == nil && summarized != "" {
				nodes[i].Text = summarized
			}
		}
	}

	_, container, err := p.Spaces.vectorFor(mod)
	if err != nil {
		return 0, err
	}

	// Stage 7: batched embedding, abort-on-mismatch via embed.Manager.Embed.
	inputs := make([]string, len(nodes))
	for i, n := range nodes {
		if mod == metadata.Text {
			inputs[i] = n.Text
		} else {
			inputs[i] = n.Meta.FilePath
		}
	}
	vectors, err := p.Spaces.Embed.Embed(ctx, mod, inputs)
	if err != nil {
		return 0, fmt.Errorf("embedding batch for space %s: %w", container.SpaceKey, err)
	}
	for i := range nodes {
		nodes[i].Embedding = vectors[i]
	}

	// Stage 8: temp-file cleanup — delete the file, clear TempFilePath, and
	// restore FilePath to the stable BaseSource so no committed row ever
	// points at a transient path.
	for i := range nodes {
		if nodes[i].Meta.TempFilePath == "" {
			continue
		}
		_ = os.Remove(nodes[i].Meta.TempFilePath)
		nodes[i].Meta.TempFilePath = ""
		if nodes[i].Meta.BaseSource != "" {
			nodes[i].Meta.FilePath = nodes[i].Meta.BaseSource
		}
	}

	// Stage 9: transactional commit, vector→docstore→meta→cache ordering.
	if err := p.commit(ctx, mod, nodes, docHashes); err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// commit writes one batch to all four stores in order. A failure at any
// step rolls back the writes already made for this batch, matching the
// "commit writes vector∧docstore∧meta∧cache before returning" invariant.
func (p *Pipeline) commit(ctx context.Context, mod metadata.Modality, nodes []metadata.Node, docHashes map[string]string) error {
	vs, container, err := p.Spaces.vectorFor(mod)
	if err != nil {
		return err
	}

	refDocIDs := make([]string, 0, len(nodes))
	seen := make(map[string]bool)
	for _, n := range nodes {
		if !seen[n.RefDocID] {
			seen[n.RefDocID] = true
			refDocIDs = append(refDocIDs, n.RefDocID)
		}
	}

	if err := vs.Upsert(ctx, nodes); err != nil {
		return fmt.Errorf("commit: vector upsert: %w", err)
	}

	if err := p.upsertDocStore(ctx, nodes, docHashes); err != nil {
		_ = vs.DeleteByRefDocIDs(ctx, refDocIDs)
		return fmt.Errorf("commit: docstore upsert: %w", err)
	}

	metaRows, err := p.metaRows(nodes, mod)
	if err != nil {
		_ = vs.DeleteByRefDocIDs(ctx, refDocIDs)
		_ = p.DocStore.DeleteByRefDocIDs(ctx, refDocIDs)
		return err
	}
	if err := p.MetaStore.UpsertBatch(ctx, metaRows); err != nil {
		_ = vs.DeleteByRefDocIDs(ctx, refDocIDs)
		_ = p.DocStore.DeleteByRefDocIDs(ctx, refDocIDs)
		return fmt.Errorf("commit: meta upsert: %w", err)
	}

	for _, n := range nodes {
		key := ingestcache.Key(container.SpaceKey, n.ID)
		if err := p.IngestCache.Put(ctx, key, n.Fingerprint()); err != nil {
			_ = vs.DeleteByRefDocIDs(ctx, refDocIDs)
			_ = p.DocStore.DeleteByRefDocIDs(ctx, refDocIDs)
			_, _ = p.MetaStore.DeleteByBaseSource(ctx, nodes[0].Meta.BaseSource)
			return fmt.Errorf("commit: ingest cache put: %w", err)
		}
		p.fingerprints[n.Fingerprint()] = true
	}

	return nil
}

// upsertDocStore writes one Record per distinct ref_doc_id, using the
// reader-reported content hash (not the per-node fingerprint) so the next
// run's duplicate filter compares like with like.
func (p *Pipeline) upsertDocStore(ctx context.Context, nodes []metadata.Node, docHashes map[string]string) error {
	written := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if written[n.RefDocID] {
			continue
		}
		written[n.RefDocID] = true
		if err := p.DocStore.Upsert(ctx, document.Record{
			RefDocID: n.RefDocID,
			Hash:     docHashes[n.RefDocID],
			Text:     n.Text,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) metaRows(nodes []metadata.Node, mod metadata.Modality) ([]metastore.Row, error) {
	rows := make([]metastore.Row, 0, len(nodes))
	now := time.Now().Unix()
	for _, n := range nodes {
		rows = append(rows, metastore.Row{
			NodeID:        n.ID,
			RefDocID:      n.RefDocID,
			BaseSource:    n.Meta.BaseSource,
			Fingerprint:   n.Fingerprint(),
			Modality:      mod,
			NodeLastModAt: now,
			Meta:          n.Meta,
		})
	}
	return rows, nil
}
