// Package config provides YAML-based configuration for raggify.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win, so existing deployments are unaffected by a
// checked-in config file.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. RAGGIFY_CONFIG environment variable
//  3. os.UserConfigDir()/raggify/config.yaml
//  4. ./raggify.yaml
//
// If no file is found, defaults are written to the --config path when one
// was given, otherwise to the platform path, and the system runs from them
// (plus any env var overrides).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure (spec §6). Each
// section is immutable once the runtime builds from it — a reload always
// constructs a fresh Config rather than mutating one in place.
type Config struct {
	General       GeneralConfig       `yaml:"general"`
	VectorStore   VectorStoreConfig   `yaml:"vector_store"`
	DocumentStore DocumentStoreConfig `yaml:"document_store"`
	IngestCache   IngestCacheConfig   `yaml:"ingest_cache"`
	Embed         EmbedConfig         `yaml:"embed"`
	Ingest        IngestConfig        `yaml:"ingest"`
	Rerank        RerankConfig        `yaml:"rerank"`
	Retrieve      RetrieveConfig      `yaml:"retrieve"`
	LLM           LLMConfig           `yaml:"llm"`
}

// GeneralConfig holds process-wide settings: knowledge base scoping, the
// HTTP bind address, device hint, and log verbosity.
type GeneralConfig struct {
	// Project and KnowledgeBase partition every per-space table name
	// ({project}__{knowledge_base}__{space}__{role}).
	Project       string `yaml:"project"`
	KnowledgeBase string `yaml:"knowledge_base"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	// Device hints the embed/rerank backends ("cpu", "cuda", "mps") — an
	// external collaborator concern, carried through but not interpreted here.
	Device   string `yaml:"device"`
	LogLevel string `yaml:"log_level"`
	// APIKey is the Bearer token the server requires. Prefer env var
	// RAGGIFY_API_KEY. Empty disables auth.
	APIKey string `yaml:"api_key"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Backend selects "qdrant" or "chromem".
	Backend string `yaml:"backend"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	// APIKey is the vector store credential. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	TLS    bool   `yaml:"tls"`
	// DBPath is the on-disk database file for the chromem backend.
	DBPath string `yaml:"db_path"`
	// CacheLoadLimit bounds fingerprint-cache rehydration (spec §4.4).
	CacheLoadLimit int `yaml:"cache_load_limit"`
	// CheckUpdate, when false, lets the pipeline short-circuit a whole
	// source once its fingerprint is already known (spec §4.4).
	CheckUpdate bool `yaml:"check_update"`
}

// DocumentStoreConfig configures the SQLite-backed document store.
type DocumentStoreConfig struct {
	DBPath string `yaml:"db_path"`
}

// IngestCacheConfig configures the SQLite-backed ingest cache and its
// snapshot path.
type IngestCacheConfig struct {
	DBPath     string `yaml:"db_path"`
	PersistDir string `yaml:"persist_dir"`
}

// ModalityEmbedConfig holds one modality's embed backend settings.
type ModalityEmbedConfig struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	APIKey        string `yaml:"api_key"`
	Endpoint      string `yaml:"endpoint"`
	BatchSize     int    `yaml:"batch_size"`
	Concurrency   int    `yaml:"concurrency"`
	BatchInterval int    `yaml:"batch_interval_ms"`
}

// EmbedConfig holds the per-modality model+dim+alias dicts (spec §6).
type EmbedConfig struct {
	Text  ModalityEmbedConfig `yaml:"text"`
	Image ModalityEmbedConfig `yaml:"image"`
	Audio ModalityEmbedConfig `yaml:"audio"`
	Video ModalityEmbedConfig `yaml:"video"`
	// UseModalityFallback routes video ingestion through per-frame image
	// embedding when no video embedder is configured (resolves the
	// video-embedder Open Question — see DESIGN.md).
	UseModalityFallback bool `yaml:"use_modality_fallback"`
}

// IngestConfig holds pipeline and reader tuning knobs (spec §6).
type IngestConfig struct {
	ChunkSize         int      `yaml:"chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	AudioChunkSeconds int      `yaml:"audio_chunk_seconds"`
	VideoChunkSeconds int      `yaml:"video_chunk_seconds"`
	ReqPerSec         float64  `yaml:"req_per_sec"`
	TimeoutSec        int      `yaml:"timeout_sec"`
	SameOrigin        bool     `yaml:"same_origin"`
	MaxAssetBytes     int64    `yaml:"max_asset_bytes"`
	UserAgent         string   `yaml:"user_agent"`
	UploadDir         string   `yaml:"upload_dir"`
	PipePersistDir    string   `yaml:"pipe_persist_dir"`
	BatchSize         int      `yaml:"batch_size"`
	AdditionalExts    []string `yaml:"additional_exts"`
	// SummarizeMaxChars gates optional LLM summarization (spec §4.4 stage 6).
	SummarizeMaxChars int `yaml:"summarize_max_chars"`
}

// RerankConfig configures the optional rerank postprocessor.
type RerankConfig struct {
	Enabled bool   `yaml:"enabled"`
	TopK    int    `yaml:"topk"`
	Model   string `yaml:"model"`
}

// RetrieveConfig configures the text retriever's default mode and fusion.
type RetrieveConfig struct {
	// Mode is one of vector_only, bm25_only, fusion.
	Mode               string  `yaml:"mode"`
	BM25TopK           int     `yaml:"bm25_topk"`
	FusionLambdaVector float64 `yaml:"fusion_lambda_vector"`
	FusionLambdaBM25   float64 `yaml:"fusion_lambda_bm25"`
}

// LLMConfig configures the optional summarizer chat model backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// Defaults returns a Config populated with the values written on first run.
func Defaults() Config {
	return Config{
		General: GeneralConfig{
			Project:       "raggify",
			KnowledgeBase: "default",
			Host:          "127.0.0.1",
			Port:          8080,
			Device:        "cpu",
			LogLevel:      "info",
		},
		VectorStore: VectorStoreConfig{
			Backend:        "chromem",
			Host:           "localhost",
			Port:           6334,
			CacheLoadLimit: 10000,
			CheckUpdate:    true,
		},
		DocumentStore: DocumentStoreConfig{DBPath: "raggify-docstore.db"},
		IngestCache:   IngestCacheConfig{DBPath: "raggify-ingestcache.db", PersistDir: "raggify-cache"},
		Embed: EmbedConfig{
			Text:  ModalityEmbedConfig{Provider: "ollama", Model: "nomic-embed-text", Dimensions: 768, BatchSize: 16, Concurrency: 4},
			Image: ModalityEmbedConfig{Provider: "local", Dimensions: 512, BatchSize: 8, Concurrency: 2},
			Audio: ModalityEmbedConfig{Provider: "local", Dimensions: 512, BatchSize: 8, Concurrency: 2},
			Video: ModalityEmbedConfig{Provider: "local", Dimensions: 512, BatchSize: 4, Concurrency: 1},
		},
		Ingest: IngestConfig{
			ChunkSize: 1000, ChunkOverlap: 100,
			AudioChunkSeconds: 600, VideoChunkSeconds: 600,
			ReqPerSec: 2, TimeoutSec: 30,
			SameOrigin: true, MaxAssetBytes: 20 << 20,
			UserAgent:      "raggify/1.0",
			UploadDir:      "raggify-uploads",
			PipePersistDir: "raggify-cache",
			BatchSize:      16,
		},
		Rerank:   RerankConfig{Enabled: false, TopK: 5},
		Retrieve: RetrieveConfig{Mode: "fusion", BM25TopK: 20, FusionLambdaVector: 0.5, FusionLambdaBM25: 0.5},
		LLM:      LLMConfig{MaxTokens: 512, Temperature: 0.2},
	}
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"RAGGIFY_PROJECT", func(c *Config) string { return c.General.Project }},
	{"RAGGIFY_KNOWLEDGE_BASE", func(c *Config) string { return c.General.KnowledgeBase }},
	{"RAGGIFY_HOST", func(c *Config) string { return c.General.Host }},
	{"RAGGIFY_PORT", func(c *Config) string { return intStr(c.General.Port) }},
	{"RAGGIFY_DEVICE", func(c *Config) string { return c.General.Device }},
	{"LOG_LEVEL", func(c *Config) string { return c.General.LogLevel }},
	{"RAGGIFY_API_KEY", func(c *Config) string { return c.General.APIKey }},
	{"VECTOR_STORE_BACKEND", func(c *Config) string { return c.VectorStore.Backend }},
	{"QDRANT_HOST", func(c *Config) string { return c.VectorStore.Host }},
	{"QDRANT_PORT", func(c *Config) string { return intStr(c.VectorStore.Port) }},
	{"QDRANT_API_KEY", func(c *Config) string { return c.VectorStore.APIKey }},
	{"QDRANT_TLS", func(c *Config) string { return boolStr(c.VectorStore.TLS) }},
	{"VECTOR_STORE_DB_PATH", func(c *Config) string { return c.VectorStore.DBPath }},
	{"DOCUMENT_STORE_DB_PATH", func(c *Config) string { return c.DocumentStore.DBPath }},
	{"INGEST_CACHE_DB_PATH", func(c *Config) string { return c.IngestCache.DBPath }},
	{"EMBEDDING_TEXT_PROVIDER", func(c *Config) string { return c.Embed.Text.Provider }},
	{"EMBEDDING_TEXT_MODEL", func(c *Config) string { return c.Embed.Text.Model }},
	{"EMBEDDING_TEXT_API_KEY", func(c *Config) string { return c.Embed.Text.APIKey }},
	{"OLLAMA_HOST", func(c *Config) string { return c.Embed.Text.Endpoint }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Embed.Text.APIKey }},
	{"GOOGLE_API_KEY", func(c *Config) string { return c.LLM.APIKey }},
	{"LLM_PROVIDER", func(c *Config) string { return c.LLM.Provider }},
	{"LLM_MODEL", func(c *Config) string { return c.LLM.Model }},
	{"LLM_API_KEY", func(c *Config) string { return c.LLM.APIKey }},
	{"RERANK_ENABLED", func(c *Config) string { return boolStr(c.Rerank.Enabled) }},
	{"RERANK_MODEL", func(c *Config) string { return c.Rerank.Model }},
	{"RETRIEVE_MODE", func(c *Config) string { return c.Retrieve.Mode }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins). If
// no file is found, defaults are written to the resolved platform path
// before being applied. Returns the path that was loaded.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		var err error
		path, err = writeDefaults(explicitPath)
		if err != nil {
			return "", err
		}
		log.Info("config: wrote default YAML config", slog.String("path", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" || yamlVal == "0" || yamlVal == "false" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env var already set — do not override
		}
		os.Setenv(m.envKey, yamlVal)
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// Read parses the YAML file at path into a Config seeded with Defaults, for
// callers (the runtime, the CLI) that need the typed struct rather than the
// env-var side effects of Load.
func Read(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// writeDefaults marshals Defaults() to explicit (if set) or the platform
// default path, creating parent directories as needed, and returns the path
// written.
func writeDefaults(explicit string) (string, error) {
	path := explicit
	if path == "" {
		path = platformDefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("config: create config dir: %w", err)
	}
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return "", fmt.Errorf("config: marshal defaults: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("config: write defaults to %s: %w", path, err)
	}
	return path, nil
}

// platformDefaultPath returns os.UserConfigDir()/raggify/config.yaml,
// falling back to ./raggify.yaml if the user config directory cannot be
// resolved (e.g. $HOME unset in a minimal container).
func platformDefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "raggify.yaml"
	}
	return filepath.Join(dir, "raggify", "config.yaml")
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("RAGGIFY_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	if _, err := os.Stat(platformDefaultPath()); err == nil {
		return platformDefaultPath()
	}

	if _, err := os.Stat("raggify.yaml"); err == nil {
		return "raggify.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
