// Package storage keeps in-memory job records for the lifetime of the
// process. Records are snapshots for the HTTP layer; the running pipeline is
// the only writer for its own session.
package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/entity"
	"tokvault/internal/errs"
	"tokvault/internal/observability"
)

// Storer defines the interface for job record operations.
type Storer interface {
	SetJob(ctx context.Context, job entity.Job)
	GetJobByID(ctx context.Context, session string) (entity.Job, bool)
	GetJobs(ctx context.Context) ([]entity.Job, error)
	UpdateJobStatus(ctx context.Context, session string, status entity.JobStatus, errorMsg string)
	AppendOutcome(ctx context.Context, session string, outcome entity.LinkOutcome)

	CleanupExpiredJobs(ctx context.Context, interval time.Duration)
}

type storage struct {
	log     *slog.Logger
	cfg     *config.Config
	metrics *observability.Metrics

	mu   sync.RWMutex
	jobs map[string]*entity.Job // session id : job
}

// New creates a new in-memory job record store and starts its cleanup loop.
func New(ctx context.Context, log *slog.Logger, cfg *config.Config, metrics *observability.Metrics) Storer {
	stg := &storage{
		log:     log.With(slog.String("package", "storage")),
		cfg:     cfg,
		metrics: metrics,
		jobs:    make(map[string]*entity.Job),
	}

	go stg.CleanupExpiredJobs(ctx, cfg.Job.CleanupInterval)

	return stg
}

func (stg *storage) SetJob(ctx context.Context, job entity.Job) {
	if job.SessionID == "" {
		stg.log.ErrorContext(ctx, "set job", slog.Any("error", errs.ErrSessionEmpty))

		return
	}

	stg.mu.Lock()
	stg.jobs[job.SessionID] = &job
	total := len(stg.jobs)
	stg.mu.Unlock()

	stg.metrics.SetStoredJobs(total)
}

func (stg *storage) GetJobByID(_ context.Context, session string) (entity.Job, bool) {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	job, ok := stg.jobs[session]
	if !ok {
		return entity.Job{}, false
	}

	return snapshot(job), true
}

func (stg *storage) GetJobs(_ context.Context) ([]entity.Job, error) {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	if len(stg.jobs) == 0 {
		return nil, errs.ErrNoJobs
	}

	jobs := make([]entity.Job, 0, len(stg.jobs))
	for _, job := range stg.jobs {
		jobs = append(jobs, snapshot(job))
	}

	return jobs, nil
}

func (stg *storage) UpdateJobStatus(ctx context.Context, session string, status entity.JobStatus, errorMsg string) {
	stg.mu.Lock()
	defer stg.mu.Unlock()

	job, ok := stg.jobs[session]
	if !ok {
		stg.log.ErrorContext(ctx, "update job status: unknown session", slog.String("session", session))

		return
	}

	job.Status = status
	job.UpdatedAt = time.Now()

	if errorMsg != "" {
		job.Error = errorMsg
	}

	stg.log.DebugContext(ctx, "job status updated", "job", *job)
}

func (stg *storage) AppendOutcome(ctx context.Context, session string, outcome entity.LinkOutcome) {
	stg.mu.Lock()
	defer stg.mu.Unlock()

	job, ok := stg.jobs[session]
	if !ok {
		stg.log.ErrorContext(ctx, "append outcome: unknown session", slog.String("session", session))

		return
	}

	job.Outcomes = append(job.Outcomes, outcome)
	job.UpdatedAt = time.Now()

	if outcome.OK {
		job.Succeeded++
	} else {
		job.Failed++
	}

	stg.log.DebugContext(ctx, "outcome recorded", "outcome", outcome)
}

// snapshot copies a job so readers never share slices with the writer.
func snapshot(job *entity.Job) entity.Job {
	out := *job
	out.Outcomes = append([]entity.LinkOutcome(nil), job.Outcomes...)
	out.URLs = append([]string(nil), job.URLs...)

	return out
}
