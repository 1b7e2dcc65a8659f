package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/raggify/raggify-go/internal/metadata"
)

// videoAudioPageNo marks the video's audio-track Document. It must never
// collide with a real frame index (0..N-1).
const videoAudioPageNo = -1

// VideoReader splits a video into frame images at a configured fps plus its
// mono audio track, each becoming its own Document. Frame extraction is
// unconditional; audio extraction is skipped (not an error) for
// video-only sources.
type VideoReader struct {
	converter        *MediaConverter
	fps              int
	audioSampleRate  int
}

// NewVideoReader builds a VideoReader. fps defaults to 1 and
// audioSampleRate to 16000 when zero.
func NewVideoReader(converter *MediaConverter, fps, audioSampleRate int) *VideoReader {
	if fps <= 0 {
		fps = 1
	}
	if audioSampleRate <= 0 {
		audioSampleRate = 16000
	}
	return &VideoReader{converter: converter, fps: fps, audioSampleRate: audioSampleRate}
}

func (r *VideoReader) Read(ctx context.Context, path string) ([]metadata.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reader/video: stat %s: %w", abs, err)
	}

	frameDir, err := r.converter.ExtractPNGFramesFromVideo(ctx, abs, r.fps)
	if err != nil {
		return nil, err
	}
	frames, err := listFrames(frameDir)
	if err != nil {
		return nil, err
	}

	audio, err := r.converter.ExtractMP3AudioFromVideo(ctx, abs, r.audioSampleRate)
	if err != nil {
		return nil, err
	}

	// FileLastModAt/FileCreatedAt come from the source video, not the
	// freshly-extracted temp frame/audio files, which get a new mtime on
	// every run — using those would make every re-ingest look like a
	// content change.
	modAt := info.ModTime()
	docs := make([]metadata.Document, 0, len(frames)+1)
	for i, frame := range frames {
		docs = append(docs, metadata.Document{
			Text: abs,
			Hash: fmt.Sprintf("%d-%d-frame-%d", info.Size(), modAt.Unix(), i),
			Meta: metadata.BasicMetaData{
				FilePath:      frame,
				FileType:      ".png",
				TempFilePath:  frame,
				BaseSource:    abs,
				PageNo:        i,
				FileSize:      info.Size(),
				FileLastModAt: modAt,
				FileCreatedAt: modAt,
			},
		})
	}
	if audio != "" {
		docs = append(docs, metadata.Document{
			Text: abs,
			Hash: fmt.Sprintf("%d-%d-audio", info.Size(), modAt.Unix()),
			Meta: metadata.BasicMetaData{
				FilePath:      audio,
				FileType:      ".mp3",
				TempFilePath:  audio,
				BaseSource:    abs,
				PageNo:        videoAudioPageNo,
				FileSize:      info.Size(),
				FileLastModAt: modAt,
				FileCreatedAt: modAt,
			},
		})
	}
	return docs, nil
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reader/video: list frames: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
