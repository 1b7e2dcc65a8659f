package reader

import (
	"crypto/md5" //nolint:gosec // deterministic temp filename derivation, not security
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// writeAssetTempFile writes body to a deterministic temp path derived from
// sourceURL, so re-crawling the same asset reuses the same filename and the
// ingest cache can recognize it as already processed.
func writeAssetTempFile(sourceURL string, body []byte) (string, error) {
	sum := md5.Sum([]byte(sourceURL)) //nolint:gosec // deterministic naming, not security
	ext := path.Ext(sourceURL)
	if ext == "" {
		ext = ".bin"
	}
	name := fmt.Sprintf("raggify_asset_%x%s", sum, ext)
	dst := filepath.Join(os.TempDir(), name)

	if err := os.WriteFile(dst, body, 0o600); err != nil {
		return "", fmt.Errorf("reader: write asset temp file %s: %w", dst, err)
	}
	return dst, nil
}
