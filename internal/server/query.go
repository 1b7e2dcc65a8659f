package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/raggify/raggify-go/internal/logging"
	"github.com/raggify/raggify-go/internal/retrieve"
	"github.com/raggify/raggify-go/internal/store/vector"
	"github.com/raggify/raggify-go/internal/tracing"
)

// defaultQueryTopK is used when a /query/* request omits topk.
const defaultQueryTopK = 5

// handleQuery dispatches POST /query/{9 modality combos} (spec §6) to the
// matching retriever, reranking text-source queries, and maps failure
// classes per spec §7: 400 when the addressed modality has no configured
// backend at all, 500 for a configured-but-unsupported direction or any
// other backend failure.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	route := strings.TrimPrefix(r.URL.Path, "/v1/query/")
	start := time.Now()

	ctx := tracing.SetQueryTrace(r.Context(), route, newRequestID())
	hits, query, err := s.runQuery(ctx, route, r)
	outcome := "ok"
	defer func() {
		s.metrics.queryRequestsTotal.WithLabelValues(route, outcome).Inc()
		s.metrics.queryDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}()

	if err != nil {
		outcome = "error"
		status, msg := queryErrorStatus(err)
		if status >= 500 {
			log.Error("query failed", slog.String("route", route), slog.Any("error", err))
		}
		writeJSONError(w, r, status, msg)
		return
	}

	if query != "" {
		hits, err = s.rt.RerankManager().Rerank(ctx, hits, query, len(hits))
		if err != nil {
			outcome = "error"
			log.Error("rerank failed", slog.String("route", route), slog.Any("error", err))
			writeJSONError(w, r, http.StatusInternalServerError, "rerank: "+err.Error())
			return
		}
	}

	if len(hits) == 0 {
		log.Warn("query returned no documents", slog.String("route", route))
	}

	writeJSON(w, r, http.StatusOK, queryResponse{Documents: toQueryDocuments(hits)})
}

// modalityUnconfiguredError signals that a /query/* route addresses a
// modality with no embed backend configured at all (spec §6: 400).
type modalityUnconfiguredError struct{ modality string }

func (e *modalityUnconfiguredError) Error() string {
	return fmt.Sprintf("%s modality is not configured", e.modality)
}

// requestBodyError signals a malformed or incomplete request body, mapped
// to 400 regardless of which retriever would have handled the request.
type requestBodyError struct{ detail string }

func (e *requestBodyError) Error() string { return e.detail }

// runQuery resolves the route, decodes the matching request body, and
// returns the retrieved hits plus the text query (if any, for reranking).
func (s *Server) runQuery(ctx context.Context, route string, r *http.Request) ([]vector.Hit, string, error) {
	switch route {
	case "text_text":
		req, err := decodeTextQuery(r)
		if err != nil {
			return nil, "", err
		}
		tr := s.rt.TextRetriever()
		if tr == nil || tr.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"text"}
		}
		hits, err := tr.Retrieve(ctx, req.Query, topKOrDefault(req.TopK), retrieve.Mode(req.Mode))
		return hits, req.Query, err

	case "text_image":
		req, err := decodeTextQuery(r)
		if err != nil {
			return nil, "", err
		}
		ir := s.rt.ImageRetriever()
		if ir == nil || ir.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"image"}
		}
		hits, err := ir.TextToImageRetrieve(ctx, req.Query, topKOrDefault(req.TopK))
		return hits, req.Query, err

	case "image_image":
		req, err := decodeMediaQuery(r)
		if err != nil {
			return nil, "", err
		}
		ir := s.rt.ImageRetriever()
		if ir == nil || ir.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"image"}
		}
		hits, err := ir.ImageToImageRetrieve(ctx, req.Path, topKOrDefault(req.TopK))
		return hits, "", err

	case "text_audio":
		req, err := decodeTextQuery(r)
		if err != nil {
			return nil, "", err
		}
		ar := s.rt.AudioRetriever()
		if ar == nil || ar.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"audio"}
		}
		hits, err := ar.TextToAudioRetrieve(ctx, req.Query, topKOrDefault(req.TopK))
		return hits, req.Query, err

	case "audio_audio":
		req, err := decodeMediaQuery(r)
		if err != nil {
			return nil, "", err
		}
		ar := s.rt.AudioRetriever()
		if ar == nil || ar.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"audio"}
		}
		hits, err := ar.AudioToAudioRetrieve(ctx, req.Path, topKOrDefault(req.TopK))
		return hits, "", err

	case "text_video":
		req, err := decodeTextQuery(r)
		if err != nil {
			return nil, "", err
		}
		vr := s.rt.VideoRetriever()
		if vr == nil || vr.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"video"}
		}
		hits, err := vr.TextToVideoRetrieve(ctx, req.Query, topKOrDefault(req.TopK))
		return hits, req.Query, err

	case "image_video":
		req, err := decodeMediaQuery(r)
		if err != nil {
			return nil, "", err
		}
		vr := s.rt.VideoRetriever()
		if vr == nil || vr.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"video"}
		}
		hits, err := vr.ImageToVideoRetrieve(ctx, req.Path, topKOrDefault(req.TopK))
		return hits, "", err

	case "audio_video":
		req, err := decodeMediaQuery(r)
		if err != nil {
			return nil, "", err
		}
		vr := s.rt.VideoRetriever()
		if vr == nil || vr.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"video"}
		}
		hits, err := vr.AudioToVideoRetrieve(ctx, req.Path, topKOrDefault(req.TopK))
		return hits, "", err

	case "video_video":
		req, err := decodeMediaQuery(r)
		if err != nil {
			return nil, "", err
		}
		vr := s.rt.VideoRetriever()
		if vr == nil || vr.Vectors == nil {
			return nil, "", &modalityUnconfiguredError{"video"}
		}
		hits, err := vr.VideoToVideoRetrieve(ctx, req.Path, topKOrDefault(req.TopK))
		return hits, "", err

	default:
		return nil, "", fmt.Errorf("server: unknown query route %q", route)
	}
}

func topKOrDefault(topK int) int {
	if topK <= 0 {
		return defaultQueryTopK
	}
	return topK
}

func decodeTextQuery(r *http.Request) (textQueryRequest, error) {
	var req textQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, &requestBodyError{"invalid request body: " + err.Error()}
	}
	if req.Query == "" {
		return req, &requestBodyError{`request body must set "query"`}
	}
	return req, nil
}

func decodeMediaQuery(r *http.Request) (mediaQueryRequest, error) {
	var req mediaQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, &requestBodyError{"invalid request body: " + err.Error()}
	}
	if req.Path == "" {
		return req, &requestBodyError{`request body must set "path"`}
	}
	return req, nil
}

// queryErrorStatus maps an error from runQuery to an HTTP status per spec
// §7: 400 for a client body error or a wholly unconfigured modality, 500
// for a configured-but-unsupported cross-modal direction or any other
// backend failure.
func queryErrorStatus(err error) (int, string) {
	var bodyErr *requestBodyError
	if errors.As(err, &bodyErr) {
		return http.StatusBadRequest, bodyErr.Error()
	}
	var unconfigured *modalityUnconfiguredError
	if errors.As(err, &unconfigured) {
		return http.StatusBadRequest, unconfigured.Error()
	}
	var unsupported *retrieve.UnsupportedCrossModalQueryError
	if errors.As(err, &unsupported) {
		return http.StatusInternalServerError, unsupported.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

// toQueryDocuments converts retrieved hits into the wire shape (spec §6).
func toQueryDocuments(hits []vector.Hit) []queryDocument {
	docs := make([]queryDocument, 0, len(hits))
	for _, h := range hits {
		meta := map[string]any{}
		if b, err := json.Marshal(h.Node.Meta); err == nil {
			_ = json.Unmarshal(b, &meta)
		}
		docs = append(docs, queryDocument{Text: h.Node.Text, Metadata: meta, Score: h.Score})
	}
	return docs
}
