// Package runtime holds the process-wide lazily-initialized context (spec
// §4.6): config, embed manager, vector stores, docstore, ingest cache,
// rerank manager, readers, and the derived ingestion pipeline and retrieval
// engine. A Runtime is an explicit dependency passed to the server and
// worker, not a package-level singleton, so it can be constructed fresh in
// tests (spec §9: "stateful global runtime → a Runtime value owned by the
// server's composition root").
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/raggify/raggify-go/internal/config"
	"github.com/raggify/raggify-go/internal/embed"
	"github.com/raggify/raggify-go/internal/ingestion"
	"github.com/raggify/raggify-go/internal/llm"
	"github.com/raggify/raggify-go/internal/logging"
	"github.com/raggify/raggify-go/internal/metadata"
	"github.com/raggify/raggify-go/internal/reader"
	"github.com/raggify/raggify-go/internal/rerank"
	"github.com/raggify/raggify-go/internal/retrieve"
	"github.com/raggify/raggify-go/internal/store/document"
	"github.com/raggify/raggify-go/internal/store/ingestcache"
	"github.com/raggify/raggify-go/internal/store/metastore"
	"github.com/raggify/raggify-go/internal/store/vector"
)

// Runtime is the composition root: every long-lived dependency the server
// and worker need, rebuilt as a unit on /reload.
type Runtime struct {
	mu         sync.RWMutex
	log        *slog.Logger
	configPath string

	cfg         config.Config
	embedMgr    *embed.Manager
	vectors     map[string]vector.Store // space key -> store
	docStore    document.Store
	metaStore   metastore.Store
	ingestCache ingestcache.Cache
	rerankMgr   *rerank.Manager
	readers     *reader.Registry
	pipeline    *ingestion.Pipeline
	bm25        *retrieve.BM25Index

	textRetriever  *retrieve.TextRetriever
	imageRetriever *retrieve.ImageRetriever
	audioRetriever *retrieve.AudioRetriever
	videoRetriever *retrieve.VideoRetriever

	shutdownOnce sync.Once
}

// New constructs an unbuilt Runtime. Call Build before using it.
func New(configPath string, log *slog.Logger) *Runtime {
	if log == nil {
		log = logging.New()
	}
	return &Runtime{configPath: configPath, log: log}
}

// Config returns the currently active configuration snapshot.
func (rt *Runtime) Config() config.Config {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.cfg
}

// Pipeline returns the current ingestion pipeline.
func (rt *Runtime) Pipeline() *ingestion.Pipeline {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.pipeline
}

// TextRetriever, ImageRetriever, AudioRetriever, VideoRetriever expose the
// current retrieval engine, rebuilt on every Build/Rebuild.
func (rt *Runtime) TextRetriever() *retrieve.TextRetriever   { rt.mu.RLock(); defer rt.mu.RUnlock(); return rt.textRetriever }
func (rt *Runtime) ImageRetriever() *retrieve.ImageRetriever { rt.mu.RLock(); defer rt.mu.RUnlock(); return rt.imageRetriever }
func (rt *Runtime) AudioRetriever() *retrieve.AudioRetriever { rt.mu.RLock(); defer rt.mu.RUnlock(); return rt.audioRetriever }
func (rt *Runtime) VideoRetriever() *retrieve.VideoRetriever { rt.mu.RLock(); defer rt.mu.RUnlock(); return rt.videoRetriever }

// RerankManager returns the current rerank manager (never nil; a disabled
// reranker is represented by a Manager with a nil Container).
func (rt *Runtime) RerankManager() *rerank.Manager {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.rerankMgr
}

// DocStore returns the current document store, used by /health.
func (rt *Runtime) DocStore() document.Store {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.docStore
}

// MetaStore returns the current meta store, used by /health.
func (rt *Runtime) MetaStore() metastore.Store {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.metaStore
}

// IngestCache returns the current ingest cache, used by /health.
func (rt *Runtime) IngestCache() ingestcache.Cache {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.ingestCache
}

// EmbedManager returns the current embed manager, used by /health.
func (rt *Runtime) EmbedManager() *embed.Manager {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.embedMgr
}

// Vectors returns the current space-key -> vector store map, used by
// /health.
func (rt *Runtime) Vectors() map[string]vector.Store {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.vectors
}

// Build releases all current resources and re-resolves everything from the
// on-disk config, including re-reading the config file itself (spec §4.6:
// "build() releases all and re-resolves from disk config").
func (rt *Runtime) Build(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.releaseLocked()

	path, err := config.Load(rt.configPath, rt.log)
	if err != nil {
		return fmt.Errorf("runtime: load config: %w", err)
	}
	if path == "" {
		path = rt.configPath
	}
	cfg, err := config.Read(path)
	if err != nil {
		return fmt.Errorf("runtime: read config: %w", err)
	}
	rt.configPath = path
	rt.cfg = cfg

	return rt.buildDownstreamLocked(ctx)
}

// Rebuild preserves the in-memory config and recreates every downstream
// dependency from it — used when config is mutated programmatically
// without a file round-trip (spec §4.6: "rebuild() preserves the in-memory
// config but recreates downstream").
func (rt *Runtime) Rebuild(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.releaseLocked()
	return rt.buildDownstreamLocked(ctx)
}

// buildDownstreamLocked constructs embed manager, stores, readers, pipeline,
// and retrievers from rt.cfg. Caller must hold rt.mu.
func (rt *Runtime) buildDownstreamLocked(ctx context.Context) error {
	cfg := rt.cfg

	embedMgr := embed.NewManager()
	modalityConfigs := map[metadata.Modality]config.ModalityEmbedConfig{
		metadata.Text:  cfg.Embed.Text,
		metadata.Image: cfg.Embed.Image,
		metadata.Audio: cfg.Embed.Audio,
		metadata.Video: cfg.Embed.Video,
	}

	vectors := make(map[string]vector.Store)
	for mod, mc := range modalityConfigs {
		if mc.Provider == "" {
			continue // modality has no configured backend — fallback handled by pipeline
		}
		backend, err := embed.NewBackend(ctx, &embed.BackendConfig{
			Modality:   mod,
			Provider:   embed.Provider(mc.Provider),
			Model:      mc.Model,
			Dimensions: mc.Dimensions,
			Endpoint:   mc.Endpoint,
			APIKey:     mc.APIKey,
		})
		if err != nil {
			return fmt.Errorf("runtime: build embed backend for %s: %w", mod, err)
		}

		spaceKey := embed.SpaceKey(mc.Provider, aliasOrModel(mc), mod)
		embedMgr.Register(&embed.Container{
			Modality: mod, Provider: mc.Provider, Model: mc.Model,
			SpaceKey: spaceKey, Dim: backend.Dimension(), Backend: backend,
			BatchSize: mc.BatchSize, Concurrency: mc.Concurrency,
		})

		vs, err := rt.openVectorStore(ctx, cfg, spaceKey, backend.Dimension())
		if err != nil {
			return err
		}
		vectors[spaceKey] = vs
	}

	baseTable := tableName(cfg.General.Project, cfg.General.KnowledgeBase, "global")
	docStore, err := document.OpenSQLite(resolvePath(cfg.DocumentStore.DBPath), baseTable+"_doc")
	if err != nil {
		return fmt.Errorf("runtime: open document store: %w", err)
	}
	metaStore, err := metastore.OpenSQLite(resolvePath(cfg.DocumentStore.DBPath), baseTable+"_meta")
	if err != nil {
		_ = docStore.Close()
		return fmt.Errorf("runtime: open meta store: %w", err)
	}
	cachePath := resolvePath(cfg.IngestCache.DBPath)
	if err := restoreCacheSnapshot(cfg, cachePath, rt.log); err != nil {
		rt.log.Warn("runtime: cache snapshot restore skipped", slog.Any("error", err))
	}
	ingestCache, err := ingestcache.OpenSQLite(cachePath, baseTable+"_ic")
	if err != nil {
		_ = docStore.Close()
		_ = metaStore.Close()
		return fmt.Errorf("runtime: open ingest cache: %w", err)
	}

	readers, err := buildReaders(cfg)
	if err != nil {
		_ = docStore.Close()
		_ = metaStore.Close()
		_ = ingestCache.Close()
		return err
	}

	var summarizer ingestion.Summarizer
	if cfg.Ingest.SummarizeMaxChars > 0 && cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(ctx, &llm.Config{
			Provider: llm.Provider(cfg.LLM.Provider), Model: cfg.LLM.Model,
			Endpoint: cfg.LLM.Endpoint, APIKey: cfg.LLM.APIKey,
			MaxTokens: cfg.LLM.MaxTokens, Temperature: cfg.LLM.Temperature,
		})
		if err != nil {
			rt.log.Warn("runtime: summarizer disabled", slog.Any("error", err))
		} else {
			summarizer = s
		}
	}

	pipeline, err := ingestion.NewPipeline(ctx, readers, ingestion.Spaces{Embed: embedMgr, Vectors: vectors},
		docStore, metaStore, ingestCache, summarizer, ingestion.Config{
			ChunkSize: cfg.Ingest.ChunkSize, ChunkOverlap: cfg.Ingest.ChunkOverlap,
			CacheLoadLimit: cfg.VectorStore.CacheLoadLimit, UseModalityFallback: cfg.Embed.UseModalityFallback,
			SummarizeMaxChars: cfg.Ingest.SummarizeMaxChars, CheckUpdate: cfg.VectorStore.CheckUpdate,
		})
	if err != nil {
		_ = docStore.Close()
		_ = metaStore.Close()
		_ = ingestCache.Close()
		return fmt.Errorf("runtime: build pipeline: %w", err)
	}

	rerankMgr, err := buildRerankManager(ctx, cfg)
	if err != nil {
		rt.log.Warn("runtime: rerank disabled", slog.Any("error", err))
		rerankMgr = rerank.NewManager(nil)
	}

	bm25, err := retrieve.NewBM25Index()
	if err != nil {
		return fmt.Errorf("runtime: build bm25 index: %w", err)
	}
	if err := bm25.BuildFromDocStore(ctx, docStore); err != nil {
		rt.log.Warn("runtime: bm25 index build failed", slog.Any("error", err))
	}

	textRetriever := &retrieve.TextRetriever{
		Vectors: vectors[embedMgr.Container(metadata.Text).SpaceKey],
		Embedder: embedMgr, BM25: bm25,
		FusionLambdaVector: cfg.Retrieve.FusionLambdaVector, FusionLambdaBM25: cfg.Retrieve.FusionLambdaBM25,
	}
	if embedMgr.Container(metadata.Text) == nil {
		textRetriever.Vectors = nil
	}

	rt.embedMgr = embedMgr
	rt.vectors = vectors
	rt.docStore = docStore
	rt.metaStore = metaStore
	rt.ingestCache = ingestCache
	rt.readers = readers
	rt.pipeline = pipeline
	rt.rerankMgr = rerankMgr
	rt.bm25 = bm25
	rt.textRetriever = textRetriever
	rt.imageRetriever = buildImageRetriever(embedMgr, vectors)
	rt.audioRetriever = buildAudioRetriever(embedMgr, vectors)
	rt.videoRetriever = buildVideoRetriever(embedMgr, vectors)

	return nil
}

func aliasOrModel(mc config.ModalityEmbedConfig) string {
	if mc.Model != "" {
		return mc.Model
	}
	return "default"
}

func (rt *Runtime) openVectorStore(ctx context.Context, cfg config.Config, spaceKey string, dim int) (vector.Store, error) {
	table := tableName(cfg.General.Project, cfg.General.KnowledgeBase, spaceKey) + "_vec"
	switch cfg.VectorStore.Backend {
	case "qdrant":
		return vector.NewQdrantStore(ctx, &vector.QdrantConfig{
			Host: cfg.VectorStore.Host, Port: cfg.VectorStore.Port,
			Collection: table, VectorSize: uint64(dim), //nolint:gosec // dim is always small and non-negative
			APIKey: cfg.VectorStore.APIKey, UseTLS: cfg.VectorStore.TLS,
		})
	default:
		dbPath := cfg.VectorStore.DBPath
		if dbPath == "" {
			dbPath = "raggify-vectors.db"
		}
		return vector.NewChromemStore(resolvePath(dbPath), table)
	}
}

// buildReaders wires the default file-extension registry plus the
// top-level web loader (spec §4.6: "two top-level loaders (file/html)").
func buildReaders(cfg config.Config) (*reader.Registry, error) {
	converter, err := reader.NewMediaConverter(resolvePath(cfg.Ingest.UploadDir))
	if err != nil {
		return nil, fmt.Errorf("runtime: build media converter: %w", err)
	}
	audio := reader.NewAudioReader(converter, 44100, "128k")
	video := reader.NewVideoReader(converter, 1, 44100)
	media := reader.NewPassthroughMediaReader()
	pdf := reader.NewPDFReader()
	text, err := reader.NewTextReader()
	if err != nil {
		return nil, fmt.Errorf("runtime: build text reader: %w", err)
	}

	registry := reader.NewDefaultRegistry(pdf, audio, video, media, text)
	for _, ext := range cfg.Ingest.AdditionalExts {
		registry.Register(media, ext)
	}

	fetcher := reader.NewFetcher(cfg.Ingest.ReqPerSec, 4, time.Duration(cfg.Ingest.TimeoutSec)*time.Second)
	assets := reader.NewAssetURLCache()
	htmlCfg := reader.HTMLReaderConfig{
		LoadAssets: true, SameOrigin: cfg.Ingest.SameOrigin,
		MaxAssetBytes: cfg.Ingest.MaxAssetBytes,
		AllowedAssetExts: []string{".png", ".jpg", ".jpeg", ".gif", ".webp"},
	}
	html := reader.NewHTMLReader(fetcher, assets, htmlCfg)
	wikipedia := reader.NewWikipediaReader(html)
	registry.SetWebLoader(reader.NewWebLoader(fetcher, html, wikipedia))

	return registry, nil
}

func buildRerankManager(ctx context.Context, cfg config.Config) (*rerank.Manager, error) {
	if !cfg.Rerank.Enabled || cfg.LLM.Provider == "" {
		return rerank.NewManager(nil), nil
	}
	model, err := llm.NewChatModel(ctx, &llm.Config{
		Provider: llm.Provider(cfg.LLM.Provider), Model: cfg.Rerank.Model,
		Endpoint: cfg.LLM.Endpoint, APIKey: cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens, Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, err
	}
	backend := rerank.NewLLMJudgeBackend(model, cfg.Rerank.TopK)
	return rerank.NewManager(&rerank.Container{ProviderName: cfg.LLM.Provider, Backend: backend}), nil
}

func buildImageRetriever(m *embed.Manager, vectors map[string]vector.Store) *retrieve.ImageRetriever {
	c := m.Container(metadata.Image)
	if c == nil {
		return &retrieve.ImageRetriever{}
	}
	enc := embed.BackendEncoder{Backend: c.Backend}
	return &retrieve.ImageRetriever{Vectors: vectors[c.SpaceKey], TextEncoder: enc, MediaEncoder: enc}
}

func buildAudioRetriever(m *embed.Manager, vectors map[string]vector.Store) *retrieve.AudioRetriever {
	c := m.Container(metadata.Audio)
	if c == nil {
		return &retrieve.AudioRetriever{}
	}
	enc := embed.BackendEncoder{Backend: c.Backend}
	return &retrieve.AudioRetriever{Vectors: vectors[c.SpaceKey], TextEncoder: enc, AudioEncoder: enc}
}

func buildVideoRetriever(m *embed.Manager, vectors map[string]vector.Store) *retrieve.VideoRetriever {
	c := m.Container(metadata.Video)
	if c == nil {
		return &retrieve.VideoRetriever{}
	}
	enc := embed.BackendEncoder{Backend: c.Backend}
	return &retrieve.VideoRetriever{
		Vectors: vectors[c.SpaceKey], TextEncoder: enc,
		ImageEncoder: enc, AudioEncoder: enc, VideoEncoder: enc,
	}
}

// Release closes every downstream resource. Safe to call more than once;
// RegisterAtExit wraps it in a sync.Once for process-exit use.
func (rt *Runtime) Release() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.releaseLocked()
}

func (rt *Runtime) releaseLocked() error {
	var errs []error
	for _, vs := range rt.vectors {
		if err := vs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.vectors = nil
	if rt.docStore != nil {
		if err := rt.docStore.Close(); err != nil {
			errs = append(errs, err)
		}
		rt.docStore = nil
	}
	if rt.metaStore != nil {
		if err := rt.metaStore.Close(); err != nil {
			errs = append(errs, err)
		}
		rt.metaStore = nil
	}
	if rt.ingestCache != nil {
		if err := rt.ingestCache.Close(); err != nil {
			errs = append(errs, err)
		}
		rt.ingestCache = nil
	}
	if rt.bm25 != nil {
		if err := rt.bm25.Close(); err != nil {
			errs = append(errs, err)
		}
		rt.bm25 = nil
	}
	rt.embedMgr = nil
	rt.readers = nil
	rt.pipeline = nil
	rt.rerankMgr = nil
	rt.textRetriever = nil
	rt.imageRetriever = nil
	rt.audioRetriever = nil
	rt.videoRetriever = nil

	if len(errs) > 0 {
		return fmt.Errorf("runtime: release: %v", errs)
	}
	return nil
}

// RegisterAtExit arranges for Release to run exactly once, at process exit,
// via the caller's own shutdown path (e.g. a deferred call in main). It is
// idempotent across repeated calls with the same Runtime.
func (rt *Runtime) RegisterAtExit() func() {
	return func() {
		rt.shutdownOnce.Do(func() {
			if err := rt.Release(); err != nil {
				rt.log.Error("runtime: release on exit", slog.Any("error", err))
			}
		})
	}
}

// tableName derives the deterministic per-space table prefix
// {project}__{knowledge_base}__{space} (spec §6 persisted state layout).
func tableName(project, kb, space string) string {
	if project == "" {
		project = "raggify"
	}
	if kb == "" {
		kb = "default"
	}
	return embed.Sanitize(project) + "__" + embed.Sanitize(kb) + "__" + embed.Sanitize(space)
}

// resolvePath expands a configured relative path against the user cache
// directory so repeated runs from different working directories share
// state, matching the platform-path persistence spec §6 requires of config
// itself.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return p
	}
	return filepath.Join(dir, "raggify", p)
}

// restoreCacheSnapshot copies a previously persisted ingest-cache snapshot
// into place before opening it, when the live database file is missing but
// a snapshot exists under ingest_cache.persist_dir — the counterpart to
// Pipeline.Run's end-of-run Persist call.
func restoreCacheSnapshot(cfg config.Config, dbPath string, log *slog.Logger) error {
	if dbPath == ":memory:" {
		return nil
	}
	if _, err := os.Stat(dbPath); err == nil {
		return nil // live database already present, nothing to restore
	}
	snapshotDir := resolvePath(cfg.IngestCache.PersistDir)
	if snapshotDir == "" {
		return nil
	}
	snapshot := filepath.Join(snapshotDir, "ingestcache.snapshot")
	if _, err := os.Stat(snapshot); err != nil {
		return nil // no snapshot to restore from
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}
	log.Info("runtime: restoring ingest cache from snapshot", slog.String("snapshot", snapshot))
	return ingestcache.RestoreFile(dbPath, snapshot)
}
