// Package jobs tracks asynchronous launch jobs.
//
// Each submitted job runs on its own goroutine. The goroutine is the only
// writer of its job record; pollers read records and remove them once a
// terminal state has been delivered.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/artpar/launchpad/internal/core/domain"
	"github.com/google/uuid"
)

// ErrJobNotFound is returned by Poll for unknown or already consumed jobs.
var ErrJobNotFound = errors.New("job not found")

// Progress lets a running job publish a human-readable status message.
type Progress func(message string)

// Result is the outcome of successful work.
type Result struct {
	Message string
	Details *domain.JobDetails
}

// Work is the body of a job. Returning an error marks the job as failed with
// the error text as its message.
type Work func(ctx context.Context, progress Progress) (Result, error)

// Tracker is the process-wide job registry.
type Tracker struct {
	mu     sync.Mutex
	jobs   map[string]*domain.Job
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		jobs:   make(map[string]*domain.Job),
		logger: logger.With("component", "jobs"),
		now:    time.Now,
	}
}

// Submit registers a queued job and starts work on a new goroutine.
// It returns the job ID without waiting for the work to begin.
func (t *Tracker) Submit(work Work) string {
	id := uuid.NewString()
	now := t.now()

	t.mu.Lock()
	t.jobs[id] = &domain.Job{
		ID:        id,
		Status:    domain.JobQueued,
		Message:   "Job queued.",
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.wg.Add(1)
	t.mu.Unlock()

	t.logger.Info("job submitted", "job_id", id)
	go t.run(id, work)
	return id
}

// Poll returns the current view of a job. Terminal jobs are removed, so their
// result is delivered to exactly one caller.
func (t *Tracker) Poll(id string) (domain.JobView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return domain.JobView{}, ErrJobNotFound
	}
	view := job.View()
	if job.Status.IsTerminal() {
		delete(t.jobs, id)
		t.logger.Debug("job result delivered", "job_id", id, "status", job.Status)
	}
	return view, nil
}

// Len returns the number of jobs still held in the registry.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// Wait blocks until every running job has finished or ctx is done.
// Jobs are never cancelled.
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for jobs: %w", ctx.Err())
	}
}

func (t *Tracker) run(id string, work Work) {
	defer t.wg.Done()
	logger := t.logger.With("job_id", id)

	t.update(id, domain.JobRunning, "Job started.", nil)
	progress := func(message string) {
		t.update(id, domain.JobRunning, message, nil)
	}

	result, err := safeRun(work, progress)
	if err != nil {
		logger.Warn("job failed", "error", err)
		t.update(id, domain.JobError, err.Error(), nil)
		return
	}

	logger.Info("job succeeded", "message", result.Message)
	t.update(id, domain.JobSuccess, result.Message, result.Details)
}

// safeRun turns a panic in work into an error so the job still terminates.
func safeRun(work Work, progress Progress) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return work(context.Background(), progress)
}

func (t *Tracker) update(id string, status domain.JobStatus, message string, details *domain.JobDetails) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.Status = status
	job.Message = message
	job.Details = details
	job.UpdatedAt = t.now()
}
