package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/raggify/raggify-go/internal/worker"
)

// handleJob handles POST /job (spec §6). Empty job_id lists every known
// job, optionally pruning completed ones when rm=true; a present job_id
// returns (or removes) that job's detail. Unknown job_id is 400.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	if req.JobID == "" {
		if req.RM {
			s.worker.PruneCompleted()
		}
		jobs := s.worker.List()
		views := make([]jobView, 0, len(jobs))
		for _, j := range jobs {
			views = append(views, toJobView(j))
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"jobs": views})
		return
	}

	job, ok := s.worker.Get(req.JobID)
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "unknown job_id")
		return
	}

	if req.RM {
		if !s.worker.Remove(req.JobID) {
			writeJSONError(w, r, http.StatusBadRequest, "job is not in a terminal state")
			return
		}
		writeJSON(w, r, http.StatusOK, toJobView(job))
		return
	}

	writeJSON(w, r, http.StatusOK, toJobView(job))
}

func toJobView(j *worker.Job) jobView {
	v := jobView{
		JobID:           j.ID,
		Kind:            string(j.Kind),
		Status:          string(j.Status),
		Error:           j.Error,
		CreatedAt:       j.CreatedAt.Format(time.RFC3339Nano),
		InputsProcessed: j.Result.InputsProcessed,
		NodesCommitted:  j.Result.NodesCommitted,
		NodesSkipped:    j.Result.NodesSkipped,
	}
	if !j.StartedAt.IsZero() {
		v.StartedAt = j.StartedAt.Format(time.RFC3339Nano)
	}
	if !j.FinishedAt.IsZero() {
		v.FinishedAt = j.FinishedAt.Format(time.RFC3339Nano)
	}
	return v
}
