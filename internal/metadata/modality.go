// Package metadata defines the canonical per-chunk metadata record, the
// closed set of modalities, content fingerprinting, and the Node variants
// that flow through the ingestion pipeline and retrieval engine.
package metadata

import "fmt"

// Modality is the closed set of media kinds a Node can carry.
type Modality string

const (
	// Text identifies a text chunk.
	Text Modality = "text"
	// Image identifies a still-image chunk.
	Image Modality = "image"
	// Audio identifies an audio-segment chunk.
	Audio Modality = "audio"
	// Video identifies a video-segment chunk.
	Video Modality = "video"
)

// modTags maps each modality to the two-letter tag used in space-key
// derivation (embed.SpaceKey).
var modTags = map[Modality]string{
	Text:  "te",
	Image: "im",
	Audio: "au",
	Video: "vi",
}

// Tag returns the two-letter space-key tag for m, or "" if m is not a
// recognized modality.
func (m Modality) Tag() string {
	return modTags[m]
}

// Valid reports whether m is one of the four recognized modalities.
func (m Modality) Valid() bool {
	_, ok := modTags[m]
	return ok
}

// All returns the four modalities in a stable order, used wherever a
// component must iterate every modality container (embed managers, store
// managers, runtime warm-up).
func All() []Modality {
	return []Modality{Text, Image, Audio, Video}
}

// ParseModality converts a string to a Modality, rejecting anything outside
// the closed set.
func ParseModality(s string) (Modality, error) {
	m := Modality(s)
	if !m.Valid() {
		return "", fmt.Errorf("metadata: unknown modality %q", s)
	}
	return m, nil
}
