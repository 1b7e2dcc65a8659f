// Package audit provides a structured audit logger for CLI command invocations.
// It logs the command name, resolved configuration path, and a sanitised
// summary of the active backends so operators can trace what ran without
// exposing secret values.
//
// Secrets are logged as presence/absence only — never their values.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/raggify/raggify-go/internal/config"
)

// LogCommandStart emits a structured audit log entry when a CLI command
// begins. It records the command name, config file source, and a sanitised
// summary of the resolved backend configuration.
func LogCommandStart(log *slog.Logger, command string, configPath string, cfg config.Config) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
		slog.String("vector_store_backend", valOrUnset(cfg.VectorStore.Backend)),
		slog.String("document_store", presence(cfg.DocumentStore.DBPath)),
		slog.String("embed_text_provider", valOrUnset(cfg.Embed.Text.Provider)),
		slog.String("embed_image_provider", valOrUnset(cfg.Embed.Image.Provider)),
		slog.String("embed_audio_provider", valOrUnset(cfg.Embed.Audio.Provider)),
		slog.String("embed_video_provider", valOrUnset(cfg.Embed.Video.Provider)),
		slog.Bool("rerank_enabled", cfg.Rerank.Enabled),
		slog.String("retrieve_mode", valOrUnset(cfg.Retrieve.Mode)),
		slog.String("api_key", SanitiseKey("api_key", cfg.General.APIKey)),
	}

	log.LogAttrs(context.TODO(), slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey returns "set" or "unset" for a key conventionally holding a
// secret (api keys, tokens), or the actual value otherwise. Safe to use in
// log messages for any resolved config field.
func SanitiseKey(key, value string) string {
	lk := strings.ToLower(key)
	if strings.Contains(lk, "key") || strings.Contains(lk, "token") {
		return presence(value)
	}
	return valOrUnset(value)
}

// presence returns "set" if the value is non-empty, "unset" otherwise.
func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

// valOrUnset returns the value if non-empty, "unset" otherwise.
func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// sanitiseConfigPath returns the config path or "none" if empty, redacting
// the home directory prefix for privacy in logs.
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
