package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFileWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nested", "config.yaml")

	log := slog.Default()
	path, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != cfgPath {
		t.Errorf("expected defaults written to %q, got %q", cfgPath, path)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("expected defaults file to exist: %v", err)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
general:
  project: acme
  host: 0.0.0.0
  port: 9090
vector_store:
  backend: qdrant
  host: qdrant.internal
  port: 6334
embed:
  text:
    provider: ollama
    model: nomic-embed-text
retrieve:
  mode: bm25_only
`)

	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	envKeys := []string{
		"RAGGIFY_PROJECT", "RAGGIFY_HOST", "RAGGIFY_PORT",
		"VECTOR_STORE_BACKEND", "QDRANT_HOST", "QDRANT_PORT",
		"EMBEDDING_TEXT_PROVIDER", "EMBEDDING_TEXT_MODEL", "RETRIEVE_MODE",
	}
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	log := slog.Default()
	loaded, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}

	checks := map[string]string{
		"RAGGIFY_PROJECT":         "acme",
		"RAGGIFY_HOST":            "0.0.0.0",
		"RAGGIFY_PORT":            "9090",
		"VECTOR_STORE_BACKEND":    "qdrant",
		"QDRANT_HOST":             "qdrant.internal",
		"QDRANT_PORT":             "6334",
		"EMBEDDING_TEXT_PROVIDER": "ollama",
		"EMBEDDING_TEXT_MODEL":    "nomic-embed-text",
		"RETRIEVE_MODE":           "bm25_only",
	}
	for k, want := range checks {
		got := os.Getenv(k)
		if got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
general:
  project: fromyaml
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Set env var BEFORE loading — it should NOT be overwritten.
	t.Setenv("RAGGIFY_PROJECT", "fromenv")

	log := slog.Default()
	_, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := os.Getenv("RAGGIFY_PROJECT"); got != "fromenv" {
		t.Errorf("RAGGIFY_PROJECT: expected env override %q, got %q", "fromenv", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := slog.Default()
	_, err := Load(cfgPath, log)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestRead_FallsBackToDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("general:\n  project: partial\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Read(cfgPath)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.General.Project != "partial" {
		t.Errorf("General.Project = %q, want %q", cfg.General.Project, "partial")
	}
	if cfg.Ingest.ChunkSize != Defaults().Ingest.ChunkSize {
		t.Errorf("Ingest.ChunkSize = %d, want default %d", cfg.Ingest.ChunkSize, Defaults().Ingest.ChunkSize)
	}
}

func TestBoolStr(t *testing.T) {
	t.Parallel()
	if got := boolStr(true); got != "true" {
		t.Errorf("boolStr(true) = %q, want \"true\"", got)
	}
	if got := boolStr(false); got != "" {
		t.Errorf("boolStr(false) = %q, want \"\"", got)
	}
}
