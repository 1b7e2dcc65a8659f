package ingestion

import (
	"path/filepath"
	"strings"

	"github.com/raggify/raggify-go/internal/metadata"
)

var extModality = map[string]metadata.Modality{
	".pdf": metadata.Text,
	".txt": metadata.Text, ".md": metadata.Text, ".html": metadata.Text,
	".png": metadata.Image, ".jpg": metadata.Image, ".jpeg": metadata.Image,
	".gif": metadata.Image, ".bmp": metadata.Image, ".webp": metadata.Image,
	".mp3": metadata.Audio, ".wav": metadata.Audio, ".m4a": metadata.Audio,
	".flac": metadata.Audio, ".ogg": metadata.Audio,
	".mp4": metadata.Video, ".mov": metadata.Video, ".mkv": metadata.Video,
	".avi": metadata.Video, ".webm": metadata.Video,
}

// classifyModality derives the modality for a reader-emitted document from
// its FilePath extension, falling back to Text for anything unrecognized
// (e.g. web-sourced text with no local FilePath).
func classifyModality(doc metadata.Document) metadata.Modality {
	path := doc.Meta.FilePath
	if path == "" {
		return metadata.Text
	}
	ext := strings.ToLower(filepath.Ext(path))
	if mod, ok := extModality[ext]; ok {
		return mod
	}
	return metadata.Text
}
