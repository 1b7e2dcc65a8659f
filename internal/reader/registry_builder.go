package reader

// NewDefaultRegistry wires the standard extension dispatch table: PDF,
// audio, video, and pass-through media readers by extension, falling back
// to the plain text reader for everything else (spec §4.3).
func NewDefaultRegistry(pdf *PDFReader, audio *AudioReader, video *VideoReader, media *PassthroughMediaReader, text *TextReader) *Registry {
	r := NewRegistry()
	r.Register(pdf, ".pdf")
	r.Register(audio, ".mp3", ".wav", ".m4a", ".flac", ".ogg")
	r.Register(video, ".mp4", ".mov", ".mkv", ".avi", ".webm")
	r.Register(media, ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp")
	r.SetFallback(text)
	return r
}
