package ingestion

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/raggify/raggify-go/internal/metadata"
)

// encodingName is the tiktoken encoding used for chunk-size token counts.
// cl100k_base is shared by the OpenAI and Ollama chat models this module
// talks to via internal/llm, so one token count is meaningful across
// backends without per-provider encodings.
const encodingName = "cl100k_base"

var (
	tkOnce sync.Once
	tkEnc  *tiktoken.Tiktoken
	tkErr  error
)

func tokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tkEnc, tkErr = tiktoken.GetEncoding(encodingName)
	})
	return tkEnc, tkErr
}

// chunkText splits text into overlapping chunks of size tokens: the split
// boundaries are token offsets from a tiktoken encoding rather than byte
// offsets, so chunk sizes track what an embedding/chat model actually bills
// for. Falls back to a byte-offset split if the encoding can't be loaded.
func chunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}

	enc, err := tokenizer()
	if err != nil {
		return chunkTextByBytes(text, size, overlap)
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(tokens); start += size - overlap {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, enc.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// chunkTextByBytes is the byte-offset fallback used when no tiktoken
// encoding is available.
func chunkTextByBytes(text string, size, overlap int) []string {
	var chunks []string
	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}

// splitIntoChunks turns one reader Document into one or more chunk Nodes,
// assigning contiguous ChunkNo values starting at 0 within this
// ref_doc_id. Media documents (Text already holding a file path reference,
// Meta.FilePath non-empty with no splittable text) pass through as a
// single chunk.
func splitIntoChunks(doc metadata.Document, mod metadata.Modality, size, overlap int) []metadata.Node {
	if mod != metadata.Text || doc.Text == "" {
		meta := doc.Meta
		meta.ChunkNo = 0
		return []metadata.Node{metadata.NewNode(nodeID(doc.Meta.RefDocID(), 0), mod, meta)}
	}

	pieces := chunkText(doc.Text, size, overlap)
	nodes := make([]metadata.Node, 0, len(pieces))
	for i, piece := range pieces {
		meta := doc.Meta
		meta.ChunkNo = i
		n := metadata.NewNode(nodeID(doc.Meta.RefDocID(), i), mod, meta)
		n.Text = piece
		nodes = append(nodes, n)
	}
	return nodes
}

// nodeID generates a deterministic UUID-format id from a ref_doc_id and
// chunk index (SHA-256 truncated and coerced into UUID version/variant
// bits) so every store that expects a UUID-shaped point id — notably
// Qdrant — accepts it without an additional google/uuid round trip.
func nodeID(refDocID string, chunkNo int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", refDocID, chunkNo)))
	h[6] = (h[6] & 0x0f) | 0x50
	h[8] = (h[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		h[0:4], h[4:6], h[6:8], h[8:10], h[10:16])
}
