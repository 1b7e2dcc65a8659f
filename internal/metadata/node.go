package metadata

// Node is the common shape shared by every modality-specific node variant:
// an id, the canonical metadata record, optional text payload, and (after
// embedding) a fixed-dimension vector. ImageNode/AudioNode/VideoNode are
// distinguished purely by which modality produced them; classification at
// the pipeline boundary happens once, from the source Document's extension.
type Node struct {
	// ID is the node's unique identifier, assigned once modality-classified.
	ID string
	// RefDocID is the stable source id this node belongs to (see
	// BasicMetaData.RefDocID), used for docstore lookups and chunk grouping.
	RefDocID string
	// Modality is the node's media kind.
	Modality Modality
	// Meta is the canonical metadata record.
	Meta BasicMetaData
	// Text is the node's textual payload: chunk text for Text nodes, an
	// optional caption/transcript for Image/Audio/Video nodes.
	Text string
	// MediaPath is the local file path of the node's media content; empty
	// for Text nodes whose content lives entirely in Text.
	MediaPath string
	// Embedding is the node's vector, populated by the embed stage. Nil
	// until embedding completes.
	Embedding []float32
}

// Fingerprint computes this node's content fingerprint from its metadata.
func (n Node) Fingerprint() string {
	return Fingerprint(n.Meta)
}

// NewNode constructs a Node of the given modality, deriving RefDocID from
// the metadata record.
func NewNode(id string, mod Modality, meta BasicMetaData) Node {
	return Node{
		ID:       id,
		RefDocID: meta.RefDocID(),
		Modality: mod,
		Meta:     meta,
	}
}
