package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/raggify/raggify-go/internal/ingestion"
	"github.com/raggify/raggify-go/internal/worker"
)

func TestToJobView_PendingJobOmitsStartedAndFinished(t *testing.T) {
	j := &worker.Job{
		ID:        "job-1",
		Kind:      worker.KindIngestPath,
		Status:    worker.StatusPending,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	v := toJobView(j)
	assert.Equal(t, "job-1", v.JobID)
	assert.Equal(t, string(worker.KindIngestPath), v.Kind)
	assert.Equal(t, string(worker.StatusPending), v.Status)
	assert.Empty(t, v.StartedAt)
	assert.Empty(t, v.FinishedAt)
}

func TestToJobView_SucceededJobIncludesResultAndTimestamps(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	j := &worker.Job{
		ID:         "job-2",
		Kind:       worker.KindIngestURL,
		Status:     worker.StatusSucceeded,
		CreatedAt:  now,
		StartedAt:  now.Add(time.Second),
		FinishedAt: now.Add(2 * time.Second),
		Result: ingestion.Result{
			InputsProcessed: 3,
			NodesCommitted:  10,
			NodesSkipped:    1,
		},
	}

	v := toJobView(j)
	assert.Equal(t, now.Format(time.RFC3339Nano), v.CreatedAt)
	assert.Equal(t, now.Add(time.Second).Format(time.RFC3339Nano), v.StartedAt)
	assert.Equal(t, now.Add(2*time.Second).Format(time.RFC3339Nano), v.FinishedAt)
	assert.Equal(t, 3, v.InputsProcessed)
	assert.Equal(t, 10, v.NodesCommitted)
	assert.Equal(t, 1, v.NodesSkipped)
}

func TestToJobView_FailedJobIncludesError(t *testing.T) {
	j := &worker.Job{
		ID:     "job-3",
		Status: worker.StatusFailed,
		Error:  "reader/pdf: open: no such file",
	}

	v := toJobView(j)
	assert.Equal(t, "reader/pdf: open: no such file", v.Error)
}
