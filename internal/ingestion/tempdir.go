package ingestion

import (
	"fmt"
	"os"
)

// scopedTempDir creates a run-scoped temp directory and returns it along
// with a cleanup func that removes it and everything under it. Callers
// defer cleanup immediately on all exit paths, including cancellation and
// panic, so a crashed or canceled run never leaks extracted frames,
// converted audio, or downloaded assets.
func scopedTempDir(baseDir, prefix string) (string, func(), error) {
	dir, err := os.MkdirTemp(baseDir, prefix)
	if err != nil {
		return "", nil, fmt.Errorf("ingestion: create scoped temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	return dir, cleanup, nil
}
