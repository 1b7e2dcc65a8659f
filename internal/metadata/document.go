package metadata

// Document is what a reader produces: raw content plus metadata, before
// modality classification and chunk indexing. A reader never embeds; it
// only materializes content and populates Meta.
type Document struct {
	// ID is assigned by the pipeline (stage 1, RefDocID) once the document
	// enters ingestion; empty when freshly emitted by a reader.
	ID string
	// DocID mirrors ID — the pipeline sets both per the ref_doc_id stage
	// so downstream code can read either name depending on which store API
	// it is calling, matching the dual id_/doc_id fields of the source model.
	DocID string
	// Text is the raw extracted text, if any.
	Text string
	// Hash is a content hash used by the docstore's current_hash comparison,
	// distinct from Fingerprint (which additionally covers chunk/page/asset
	// disambiguators not yet assigned at reader time).
	Hash string
	Meta BasicMetaData
}
