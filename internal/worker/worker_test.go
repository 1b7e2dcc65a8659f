package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raggify/raggify-go/internal/config"
	"github.com/raggify/raggify-go/internal/ingestion"
)

type testLogger struct{}

func (testLogger) Info(msg string, args ...any)  {}
func (testLogger) Error(msg string, args ...any) {}

func waitForStatus(t *testing.T, m *Manager, id string, want Status) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if j, ok := m.Get(id); ok && j.Status == want {
			return j
		}
		time.Sleep(time.Millisecond)
	}
	j, _ := m.Get(id)
	t.Fatalf("job %s never reached status %s (last seen: %+v)", id, want, j)
	return nil
}

func TestSubmit_RunsJobToSuccess(t *testing.T) {
	run := func(ctx context.Context, inputs []string, cancel ingestion.CancelFunc) (ingestion.Result, error) {
		return ingestion.Result{InputsProcessed: len(inputs)}, nil
	}
	m := New(run, testLogger{}, 0)
	defer m.Shutdown(context.Background())

	job := m.Submit(KindIngestPath, []string{"a.txt", "b.txt"}, config.Config{})
	if job.Status != StatusPending {
		t.Fatalf("expected immediate PENDING status, got %s", job.Status)
	}

	done := waitForStatus(t, m, job.ID, StatusSucceeded)
	if done.Result.InputsProcessed != 2 {
		t.Fatalf("expected InputsProcessed=2, got %d", done.Result.InputsProcessed)
	}
	if done.StartedAt.IsZero() || done.FinishedAt.IsZero() {
		t.Fatal("expected StartedAt/FinishedAt to be set")
	}
}

func TestSubmit_RunsJobToFailure(t *testing.T) {
	wantErr := errors.New("boom")
	run := func(ctx context.Context, inputs []string, cancel ingestion.CancelFunc) (ingestion.Result, error) {
		return ingestion.Result{}, wantErr
	}
	m := New(run, testLogger{}, 0)
	defer m.Shutdown(context.Background())

	job := m.Submit(KindIngestURL, []string{"http://example.com"}, config.Config{})
	done := waitForStatus(t, m, job.ID, StatusFailed)
	if done.Error != wantErr.Error() {
		t.Fatalf("expected error %q, got %q", wantErr.Error(), done.Error)
	}
}

func TestCancel_MarksJobCanceledWhenPipelineObservesIt(t *testing.T) {
	started := make(chan struct{})
	run := func(ctx context.Context, inputs []string, cancel ingestion.CancelFunc) (ingestion.Result, error) {
		close(started)
		for !cancel() {
			time.Sleep(time.Millisecond)
		}
		return ingestion.Result{}, nil
	}
	m := New(run, testLogger{}, 0)
	defer m.Shutdown(context.Background())

	job := m.Submit(KindIngestPath, []string{"a.txt"}, config.Config{})
	<-started
	if !m.Cancel(job.ID) {
		t.Fatal("expected Cancel to find the job")
	}
	waitForStatus(t, m, job.ID, StatusCanceled)
}

func TestCancel_UnknownJobReturnsFalse(t *testing.T) {
	m := New(func(context.Context, []string, ingestion.CancelFunc) (ingestion.Result, error) {
		return ingestion.Result{}, nil
	}, testLogger{}, 0)
	defer m.Shutdown(context.Background())

	if m.Cancel("nonexistent") {
		t.Fatal("expected Cancel to return false for an unknown job id")
	}
}

func TestList_ReturnsJobsInSubmissionOrder(t *testing.T) {
	block := make(chan struct{})
	run := func(ctx context.Context, inputs []string, cancel ingestion.CancelFunc) (ingestion.Result, error) {
		<-block
		return ingestion.Result{}, nil
	}
	m := New(run, testLogger{}, 8)
	defer func() {
		close(block)
		m.Shutdown(context.Background())
	}()

	var ids []string
	for i := 0; i < 3; i++ {
		job := m.Submit(KindIngestPath, []string{"x"}, config.Config{})
		ids = append(ids, job.ID)
	}

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(list))
	}
	for i, j := range list {
		if j.ID != ids[i] {
			t.Fatalf("expected order %v, got %s at index %d", ids, j.ID, i)
		}
	}
}

func TestRemove_FailsOnNonTerminalJobSucceedsAfterCompletion(t *testing.T) {
	block := make(chan struct{})
	run := func(ctx context.Context, inputs []string, cancel ingestion.CancelFunc) (ingestion.Result, error) {
		<-block
		return ingestion.Result{}, nil
	}
	m := New(run, testLogger{}, 0)
	defer m.Shutdown(context.Background())

	job := m.Submit(KindIngestPath, []string{"a.txt"}, config.Config{})
	if m.Remove(job.ID) {
		t.Fatal("expected Remove to fail on a non-terminal job")
	}
	close(block)
	waitForStatus(t, m, job.ID, StatusSucceeded)

	if !m.Remove(job.ID) {
		t.Fatal("expected Remove to succeed on a terminal job")
	}
	if _, ok := m.Get(job.ID); ok {
		t.Fatal("expected job to be gone after Remove")
	}
}

func TestPruneCompleted_RemovesOnlyTerminalJobs(t *testing.T) {
	block := make(chan struct{})
	run := func(ctx context.Context, inputs []string, cancel ingestion.CancelFunc) (ingestion.Result, error) {
		<-block
		return ingestion.Result{}, nil
	}
	m := New(run, testLogger{}, 8)

	running := m.Submit(KindIngestPath, []string{"a"}, config.Config{})
	time.Sleep(10 * time.Millisecond) // let the consumer pick it up as RUNNING

	close(block)
	m.Shutdown(context.Background())
	waitForStatus(t, m, running.ID, StatusSucceeded)

	pending := &Job{ID: "manual-pending", Status: StatusPending}
	m.mu.Lock()
	m.jobs[pending.ID] = pending
	m.order = append(m.order, pending.ID)
	m.mu.Unlock()

	removed := m.PruneCompleted()
	if removed != 1 {
		t.Fatalf("expected 1 removed (the succeeded job), got %d", removed)
	}
	if _, ok := m.Get(running.ID); ok {
		t.Fatal("expected succeeded job to be pruned")
	}
	if _, ok := m.Get(pending.ID); !ok {
		t.Fatal("expected pending job to survive pruning")
	}
}

func TestShutdown_IsIdempotent(t *testing.T) {
	m := New(func(context.Context, []string, ingestion.CancelFunc) (ingestion.Result, error) {
		return ingestion.Result{}, nil
	}, testLogger{}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
