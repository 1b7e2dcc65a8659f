package reader

import (
	"context"
	"crypto/md5" //nolint:gosec // deterministic temp filename derivation, not security
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// MediaConverter shells out to the ffmpeg binary on PATH to transcode and
// split audio/video, verifying the binary exists at construction time and
// running each operation as one subprocess call.
type MediaConverter struct {
	tempDir string
}

// NewMediaConverter returns a MediaConverter, failing fast if ffmpeg is not
// on PATH rather than deferring the failure to the first conversion call.
func NewMediaConverter(tempDir string) (*MediaConverter, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("reader: ffmpeg binary not found on PATH — install ffmpeg to ingest audio/video")
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &MediaConverter{tempDir: tempDir}, nil
}

// deterministicTempPath derives a stable temp file path from seed so the
// same source always converts to the same destination, letting the
// ingestion cache recognize an already-converted asset.
func (c *MediaConverter) deterministicTempPath(seed, suffix string) string {
	sum := md5.Sum([]byte(seed)) //nolint:gosec // deterministic naming, not security
	return filepath.Join(c.tempDir, fmt.Sprintf("raggify_%x%s", sum, suffix))
}

// AudioToMP3 transcodes src to mp3 at the given sample rate and bitrate.
func (c *MediaConverter) AudioToMP3(ctx context.Context, src string, sampleRate int, bitrate string) (string, error) {
	dst := c.deterministicTempPath(src, ".mp3")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", src,
		"-ar", fmt.Sprintf("%d", sampleRate), "-b:a", bitrate, dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("reader: ffmpeg audio convert %s: %w: %s", src, err, out)
	}
	return dst, nil
}

// ExtractPNGFramesFromVideo extracts one PNG frame per 1/frameRate seconds
// into a dedicated subdirectory under tempDir, returning that directory.
func (c *MediaConverter) ExtractPNGFramesFromVideo(ctx context.Context, src string, frameRate int) (string, error) {
	dir := c.deterministicTempPath(src, "_frames")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("reader: create frame dir: %w", err)
	}
	pattern := filepath.Join(dir, "frame_%05d.png")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", src,
		"-vf", fmt.Sprintf("fps=%d", frameRate), pattern)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("reader: ffmpeg frame extract %s: %w: %s", src, err, out)
	}
	return dir, nil
}

// ExtractMP3AudioFromVideo pulls the mono audio track out of a video file.
// Returns ("", nil) if the video has no audio stream — not an error.
func (c *MediaConverter) ExtractMP3AudioFromVideo(ctx context.Context, src string, sampleRate int) (string, error) {
	dst := c.deterministicTempPath(src, "_audio.mp3")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", src,
		"-vn", "-ac", "1", "-ar", fmt.Sprintf("%d", sampleRate), dst)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if isNoAudioStreamError(out) {
			return "", nil
		}
		return "", fmt.Errorf("reader: ffmpeg audio extract %s: %w: %s", src, err, out)
	}
	return dst, nil
}

func isNoAudioStreamError(out []byte) bool {
	return strings.Contains(string(out), "does not contain any stream")
}
