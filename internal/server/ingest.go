package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/raggify/raggify-go/internal/worker"
)

// handleIngest handles POST /ingest/{path,path_list,url,url_list}. For every
// well-formed request it returns 200 with status "accepted" (spec §7):
// actual success or failure is discoverable later via POST /job. An unknown
// route gets 404 and a malformed or empty body gets 400.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	kind, ok := ingestKindFromPath(r.URL.Path)
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "unknown ingest route")
		return
	}

	var req ingestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	input := req.Path
	if input == "" {
		input = req.URL
	}
	if input == "" {
		writeJSONError(w, r, http.StatusBadRequest, "request body must set \"path\" or \"url\"")
		return
	}

	inputs := splitIngestInputs(kind, input)
	job := s.worker.Submit(kind, inputs, s.rt.Config())
	s.metrics.ingestRequestsTotal.WithLabelValues(string(kind)).Inc()

	writeJSON(w, r, http.StatusOK, ingestResponse{Status: "accepted", JobID: job.ID})
}

func ingestKindFromPath(path string) (worker.Kind, bool) {
	const prefix = "/v1/ingest/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	switch strings.TrimPrefix(path, prefix) {
	case "path":
		return worker.KindIngestPath, true
	case "path_list":
		return worker.KindIngestPathList, true
	case "url":
		return worker.KindIngestURL, true
	case "url_list":
		return worker.KindIngestURLList, true
	default:
		return "", false
	}
}

// splitIngestInputs turns the single "path"/"url" body field into the
// worker's []string Inputs. The _list kinds accept a comma-separated value
// in the same field, since the body shape (spec §6) carries one string.
func splitIngestInputs(kind worker.Kind, raw string) []string {
	if kind != worker.KindIngestPathList && kind != worker.KindIngestURLList {
		return []string{raw}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
