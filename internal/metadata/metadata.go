package metadata

import "time"

// BasicMetaData is the canonical per-node metadata record. Every field has a
// stable zero value so persistence never needs a presence check, and the
// column set in the meta store is fixed — unrecognized columns from an older
// schema are simply treated as defaults.
type BasicMetaData struct {
	// FilePath is the canonical local path of the source artifact after
	// ingestion. Empty if web-origin and not downloaded.
	FilePath string `json:"file_path"`
	// FileType is the MIME type or extension label assigned by the reader.
	FileType string `json:"file_type"`
	// FileSize is the size in bytes of the source artifact, best-effort.
	FileSize int64 `json:"file_size"`
	// FileCreatedAt is the filesystem creation time, best-effort.
	FileCreatedAt time.Time `json:"file_created_at"`
	// FileLastModAt is the filesystem modification time, best-effort.
	FileLastModAt time.Time `json:"file_lastmod_at"`
	// ChunkNo is the 0-based index of this chunk within its source document.
	ChunkNo int `json:"chunk_no"`
	// URL is the origin URL if web-sourced, else empty.
	URL string `json:"url"`
	// BaseSource is the parent artifact URL/path for derived media — e.g.
	// the HTML page hosting an image, or the PDF hosting a page.
	BaseSource string `json:"base_source"`
	// TempFilePath is the path of a transient download or split. The
	// pipeline deletes the file and clears this field before commit; it
	// MUST be empty for any row visible to a query.
	TempFilePath string `json:"temp_file_path"`
	// PageNo disambiguates multi-page sources (PDF pages).
	PageNo int `json:"page_no"`
	// AssetNo disambiguates multi-asset nodes within a page (embedded images).
	AssetNo int `json:"asset_no"`
}

// RefDocID computes the stable, content-derived source id consulted by the
// docstore for duplicate detection across runs. Two ingestion runs over the
// same physical source (same path/size/mtime/page/url) produce the same id.
//
// pathIfNotTemp is FilePath when TempFilePath is empty, otherwise the empty
// string — a node materialized only as a temp download has no stable path
// component of its own, it is identified by its parent's URL/page instead.
func (m BasicMetaData) RefDocID() string {
	pathIfNotTemp := m.FilePath
	if m.TempFilePath != "" {
		pathIfNotTemp = ""
	}
	return fmtRefDocID(pathIfNotTemp, m.FileSize, m.FileLastModAt, m.PageNo, m.URL)
}
