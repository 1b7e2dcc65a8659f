// Package worker implements the single-consumer background ingestion queue
// (spec §4.6): a FIFO of Job records drained by one goroutine, with
// per-job cancellation and a status map the /job endpoint polls.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raggify/raggify-go/internal/config"
	"github.com/raggify/raggify-go/internal/ingestion"
)

// Kind is the ingestion job's input shape.
type Kind string

const (
	KindIngestPath     Kind = "ingest_path"
	KindIngestPathList Kind = "ingest_path_list"
	KindIngestURL      Kind = "ingest_url"
	KindIngestURLList  Kind = "ingest_url_list"
)

// Status is a Job's lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
)

// Job is one background ingestion unit. Fields are read-mostly after
// submission; Status/Error/FinishedAt/Result are updated only by the
// worker's consumer goroutine, which holds Manager.mu while doing so.
type Job struct {
	ID     string
	Kind   Kind
	Inputs []string

	// ConfigSnapshot is the runtime config at submission time, so a
	// concurrent /reload does not change an in-flight job's behavior.
	ConfigSnapshot config.Config

	Status     Status
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
	Result     ingestion.Result

	canceled atomic.Bool
}

// cancel reports true once Manager.Cancel has been called for this job;
// the pipeline polls it as a CancelFunc.
func (j *Job) cancel() bool {
	return j.canceled.Load()
}

// PipelineFunc runs a Job's inputs through the ingestion pipeline, matching
// ingestion.Pipeline.Run's signature so production code can pass it
// directly and tests can substitute a fake.
type PipelineFunc func(ctx context.Context, inputs []string, cancel ingestion.CancelFunc) (ingestion.Result, error)

// Manager owns the FIFO queue and the job status map.
type Manager struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	order  []string // insertion order, for stable listing
	nextID atomic.Uint64

	queue chan *Job
	run   PipelineFunc
	log   Logger

	shutdown   chan struct{}
	done       chan struct{}
	shutdownOnce sync.Once
}

// Logger is the minimal logging surface the worker needs, satisfied by
// *slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// New starts the worker's consumer goroutine and returns its Manager.
// queueSize bounds how many PENDING jobs can be buffered before Submit
// blocks; callers should size it well above expected concurrent ingest
// bursts since Submit must return synchronously (spec: "submit returns the
// Job immediately").
func New(run PipelineFunc, log Logger, queueSize int) *Manager {
	if queueSize <= 0 {
		queueSize = 256
	}
	m := &Manager{
		jobs:     make(map[string]*Job),
		queue:    make(chan *Job, queueSize),
		run:      run,
		log:      log,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.loop()
	return m
}

// Submit enqueues a new PENDING job and returns it immediately.
func (m *Manager) Submit(kind Kind, inputs []string, cfg config.Config) *Job {
	job := &Job{
		ID:             m.nextJobID(),
		Kind:           kind,
		Inputs:         inputs,
		ConfigSnapshot: cfg,
		Status:         StatusPending,
		CreatedAt:      time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.mu.Unlock()

	m.queue <- job
	return job
}

func (m *Manager) nextJobID() string {
	return fmt.Sprintf("job-%d", m.nextID.Add(1))
}

// Get returns the job by id, if known.
func (m *Manager) Get(id string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	return j, ok
}

// List returns every known job, oldest first.
func (m *Manager) List() []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Job, 0, len(m.order))
	for _, id := range m.order {
		if j, ok := m.jobs[id]; ok {
			out = append(out, j)
		}
	}
	return out
}

// Cancel sets the per-job cancel flag the pipeline polls. Returns false if
// the job is unknown; canceling an already-terminal or PENDING-not-yet-run
// job is a no-op the pipeline (or the next dequeue) observes immediately.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	job.canceled.Store(true)
	return true
}

// Remove deletes a terminal job from the status map. Returns false if the
// job is unknown or still PENDING/RUNNING.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || !isTerminal(job.Status) {
		return false
	}
	delete(m.jobs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// PruneCompleted removes every terminal job, for the /job rm=true,
// job_id-empty combination.
func (m *Manager) PruneCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.order[:0]
	removed := 0
	for _, id := range m.order {
		job := m.jobs[id]
		if isTerminal(job.Status) {
			delete(m.jobs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed
}

func isTerminal(s Status) bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Shutdown cancels the worker goroutine and waits for the in-flight job (if
// any) to return, without starting any further PENDING jobs (spec:
// "shutdown() cancels the worker task and drains pending without starting
// new work").
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() { close(m.shutdown) })
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop is the single consumer. It runs until Shutdown is called, at which
// point it stops pulling new jobs off the queue but lets an in-flight
// PipelineFunc call finish naturally (the pipeline itself observes
// cancellation via the per-job flag, not via loop exit).
func (m *Manager) loop() {
	defer close(m.done)
	for {
		select {
		case <-m.shutdown:
			return
		case job := <-m.queue:
			m.runJob(job)
		}
	}
}

func (m *Manager) runJob(job *Job) {
	m.mu.Lock()
	job.Status = StatusRunning
	job.StartedAt = time.Now()
	m.mu.Unlock()

	result, err := m.run(context.Background(), job.Inputs, job.cancel)

	m.mu.Lock()
	job.Result = result
	job.FinishedAt = time.Now()
	switch {
	case job.cancel():
		job.Status = StatusCanceled
	case err != nil:
		job.Status = StatusFailed
		job.Error = err.Error()
	default:
		job.Status = StatusSucceeded
	}
	m.mu.Unlock()

	if err != nil && !job.cancel() {
		m.log.Error("worker: job failed", "job_id", job.ID, "kind", job.Kind, "error", err)
	} else {
		m.log.Info("worker: job finished", "job_id", job.ID, "status", job.Status)
	}
}
