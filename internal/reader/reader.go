// Package reader dispatches file and URL ingestion inputs to extension- or
// scheme-specific readers, each producing Document values the pipeline then
// splits by modality.
package reader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/raggify/raggify-go/internal/metadata"
)

// Error reports a reader-level failure. Reader failures are logged and
// skipped by the caller for individual assets; only caller-level misuse
// (e.g. dispatching an unregistered extension explicitly) surfaces as an
// error from Registry.Read.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("reader: %s: %v", e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Reader loads one local file path into zero or more documents.
type Reader interface {
	Read(ctx context.Context, path string) ([]metadata.Document, error)
}

// Registry dispatches a path to a Reader by its lowercased extension,
// falling back to a default Reader (normally the plain text reader) for
// unregistered extensions. Inputs that parse as an http(s) URL are routed
// to the web loader instead of the extension table (spec §4.6: "two
// top-level loaders (file/html)").
type Registry struct {
	mu       sync.RWMutex
	byExt    map[string]Reader
	fallback Reader
	web      Reader
}

// NewRegistry creates an empty Registry. Register a fallback with
// SetFallback before use — Read on an unregistered extension with no
// fallback set returns an error.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Reader)}
}

// Register associates a Reader with one or more extensions (with or
// without the leading dot; matching is case-insensitive).
func (r *Registry) Register(rd Reader, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		r.byExt[normalizeExt(ext)] = rd
	}
}

// SetFallback registers the Reader used for extensions with no explicit
// registration (spec: "default text reader fallback").
func (r *Registry) SetFallback(rd Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = rd
}

// SetWebLoader registers the Reader used for inputs that parse as an
// http(s) URL, ahead of the extension-based file dispatch table.
func (r *Registry) SetWebLoader(rd Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.web = rd
}

// Read dispatches path to the Reader registered for its extension, or the
// fallback if none matches. An http(s) input is routed to the web loader
// regardless of its trailing extension, since a URL's path component may
// coincidentally look like a file extension.
func (r *Registry) Read(ctx context.Context, path string) ([]metadata.Document, error) {
	r.mu.RLock()
	web := r.web
	r.mu.RUnlock()

	if web != nil && isHTTPURL(path) {
		docs, err := web.Read(ctx, path)
		if err != nil {
			return nil, &Error{Path: path, Err: err}
		}
		return docs, nil
	}

	r.mu.RLock()
	rd, ok := r.byExt[normalizeExt(filepath.Ext(path))]
	fallback := r.fallback
	r.mu.RUnlock()

	if !ok {
		if fallback == nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("no reader registered for extension %q and no fallback set", filepath.Ext(path))}
		}
		rd = fallback
	}

	docs, err := rd.Read(ctx, path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return docs, nil
}

// isHTTPURL reports whether path looks like an absolute http(s) URL rather
// than a local filesystem path.
func isHTTPURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
