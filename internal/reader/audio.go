package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raggify/raggify-go/internal/metadata"
)

// AudioReader converts audio files to mp3 for downstream ingestion,
// recording the original path as BaseSource and the converted path as
// both FilePath and TempFilePath so the pipeline cleans it up after
// embedding.
type AudioReader struct {
	converter  *MediaConverter
	sampleRate int
	bitrate    string
}

// NewAudioReader builds an AudioReader. sampleRate defaults to 16000 and
// bitrate to "192k" when zero/empty.
func NewAudioReader(converter *MediaConverter, sampleRate int, bitrate string) *AudioReader {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if bitrate == "" {
		bitrate = "192k"
	}
	return &AudioReader{converter: converter, sampleRate: sampleRate, bitrate: bitrate}
}

func (r *AudioReader) Read(ctx context.Context, path string) ([]metadata.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reader/audio: stat %s: %w", abs, err)
	}

	converted, err := r.converter.AudioToMP3(ctx, abs, r.sampleRate, r.bitrate)
	if err != nil {
		return nil, err
	}

	return []metadata.Document{{
		Text: abs,
		Hash: fmt.Sprintf("%d-%d", info.Size(), info.ModTime().Unix()),
		Meta: metadata.BasicMetaData{
			FilePath:      converted,
			FileType:      ".mp3",
			TempFilePath:  converted,
			BaseSource:    abs,
			FileSize:      info.Size(),
			FileLastModAt: info.ModTime(),
			FileCreatedAt: info.ModTime(),
		},
	}}, nil
}
