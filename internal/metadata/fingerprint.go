package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// fmtRefDocID builds the stable ref_doc_id string. Kept separate from
// Fingerprint because the two ids are consulted by different stores for
// different purposes (docstore duplicate filter vs. fingerprint cache) even
// though both derive from overlapping fields.
func fmtRefDocID(path string, size int64, lastmod interface{ Unix() int64 }, pageNo int, url string) string {
	return fmt.Sprintf("file_path:%s_file_size:%d_file_lastmod_at:%d_page_no:%d_url:%s",
		path, size, lastmod.Unix(), pageNo, url)
}

// Fingerprint computes a stable, order-independent content hash over
// {FilePath, FileSize, FileLastModAt, ChunkNo, PageNo, AssetNo, URL}. Two
// nodes with equal fingerprints are considered identical content for the
// same logical source — the pipeline skips re-embedding them.
//
// Order-independence is achieved by hashing a fixed, explicitly-labeled
// field order rather than relying on struct layout, so a future field
// reordering in BasicMetaData cannot silently change fingerprint values.
func Fingerprint(m BasicMetaData) string {
	h := sha256.New()
	fmt.Fprintf(h, "file_path=%s\x00file_size=%d\x00file_lastmod_at=%d\x00chunk_no=%d\x00page_no=%d\x00asset_no=%d\x00url=%s",
		m.FilePath, m.FileSize, m.FileLastModAt.Unix(), m.ChunkNo, m.PageNo, m.AssetNo, m.URL)
	return hex.EncodeToString(h.Sum(nil))
}
