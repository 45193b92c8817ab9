package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/adapter"
	"travel-ai-planner/internal/domain/ports/repository"
	"travel-ai-planner/internal/infra/metrics"
)

// GeneratorClient is what the queue needs from the resilient client: a
// call that always yields a structured result.
type GeneratorClient interface {
	Generate(ctx context.Context, req *model.GenerationRequest) *adapter.GenerationResult
}

type Config struct {
	MaxPending int // bound on queued jobs; Submit rejects beyond this
}

// Queue owns the in-memory job table and drains it through exactly one
// consumer goroutine fed by a bounded channel. Job records are created
// on submission and mutated only by the worker loop; they are never
// deleted while the process runs.
type Queue struct {
	plans repository.PlanRepository
	gen   GeneratorClient
	log   *zerolog.Logger

	mu   sync.RWMutex
	jobs map[string]*model.GenerationJob

	pending chan string
	start   sync.Once
	wg      sync.WaitGroup
}

func NewQueue(plans repository.PlanRepository, gen GeneratorClient, cfg Config, logger *zerolog.Logger) *Queue {
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 256
	}
	l := logger.With().Str("component", "GenerationQueue").Logger()
	return &Queue{
		plans:   plans,
		gen:     gen,
		log:     &l,
		jobs:    make(map[string]*model.GenerationJob),
		pending: make(chan string, cfg.MaxPending),
	}
}

// Start launches the single drain loop. Safe to call more than once;
// only the first call spawns the consumer.
func (q *Queue) Start(ctx context.Context) {
	q.start.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.log.Info().Msg("generation worker started")
			for {
				select {
				case <-ctx.Done():
					q.log.Info().Msg("generation worker stopping")
					return
				case jobID := <-q.pending:
					metrics.SetQueueDepth(len(q.pending))
					q.processOne(ctx, jobID)
				}
			}
		}()
	})
}

// Stop blocks until the drain loop has exited. Call after canceling the
// context passed to Start.
func (q *Queue) Stop() { q.wg.Wait() }

// Submit registers a new pending job and enqueues it. Returns
// domain.ErrQueueFull when the pending channel is saturated; the
// submitter is expected to surface that as backpressure.
func (q *Queue) Submit(jobID, planID string) error {
	job := model.NewGenerationJob(jobID, planID)

	q.mu.Lock()
	if _, exists := q.jobs[jobID]; exists {
		q.mu.Unlock()
		return domain.ErrAlreadyExists
	}
	q.jobs[jobID] = job
	q.mu.Unlock()

	select {
	case q.pending <- jobID:
		metrics.SetQueueDepth(len(q.pending))
		return nil
	default:
		q.mu.Lock()
		delete(q.jobs, jobID)
		q.mu.Unlock()
		metrics.IncSubmissionRejected("queue_full")
		return domain.ErrQueueFull
	}
}

// GetStatus returns a copy of the job record. Never blocks on I/O.
func (q *Queue) GetStatus(jobID string) (model.GenerationJob, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return model.GenerationJob{}, false
	}
	return *job, true
}

// Depth reports how many jobs are waiting.
func (q *Queue) Depth() int { return len(q.pending) }

// processOne drives a single job to a terminal state. Any failure is
// confined to this job; the drain loop always moves on to the next one.
func (q *Queue) processOne(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Str("job_id", jobID).Msg("panic while processing job")
			q.failJob(ctx, jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	job, ok := q.GetStatus(jobID)
	if !ok {
		q.log.Error().Str("job_id", jobID).Msg("job vanished from table")
		return
	}

	q.log.Info().Str("job_id", jobID).Str("plan_id", job.PlanID).Msg("processing generation job")
	start := time.Now()

	q.setJob(jobID, model.JobStatusProcessing, 10, "")
	_ = q.plans.UpdateStatus(ctx, job.PlanID, model.PlanStatusProcessing)

	req, err := q.plans.FetchRequest(ctx, job.PlanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			q.failJob(ctx, jobID, "generation request not found")
		} else {
			q.failJob(ctx, jobID, fmt.Sprintf("could not load generation request: %v", err))
		}
		return
	}
	q.setJob(jobID, model.JobStatusProcessing, 30, "")

	res := q.gen.Generate(ctx, req)
	if !res.Success {
		q.failJob(ctx, jobID, failureMessage(res.Err))
		return
	}
	q.setJob(jobID, model.JobStatusProcessing, 70, "")

	if err := q.plans.SaveItinerary(ctx, job.PlanID, res.Itinerary); err != nil {
		q.failJob(ctx, jobID, fmt.Sprintf("could not save itinerary: %v", err))
		return
	}
	if err := q.plans.UpdateStatus(ctx, job.PlanID, model.PlanStatusCompleted); err != nil {
		q.failJob(ctx, jobID, fmt.Sprintf("could not finalize plan: %v", err))
		return
	}

	q.setJob(jobID, model.JobStatusCompleted, 100, "")
	metrics.IncJob(string(model.JobStatusCompleted))
	q.log.Info().
		Str("job_id", jobID).
		Str("plan_id", job.PlanID).
		Bool("from_cache", res.FromCache).
		Dur("duration", time.Since(start)).
		Msg("generation job completed")
}

// failJob marks the job failed and best-effort records the failure on
// the plan row; a secondary persistence failure is logged, never allowed
// to mask the original error.
func (q *Queue) failJob(ctx context.Context, jobID, message string) {
	if message == "" {
		message = "plan generation failed"
	}
	q.setJob(jobID, model.JobStatusFailed, 0, message)
	metrics.IncJob(string(model.JobStatusFailed))

	job, ok := q.GetStatus(jobID)
	if ok {
		if err := q.plans.RecordFailure(ctx, job.PlanID, message); err != nil {
			q.log.Error().Err(err).Str("plan_id", job.PlanID).Msg("could not record plan failure")
		}
	}
	q.log.Error().Str("job_id", jobID).Str("error", message).Msg("generation job failed")
}

// setJob applies a status/progress mutation under the transition guard.
// Progress never decreases while processing.
func (q *Queue) setJob(jobID string, status model.JobStatus, progress int, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return
	}
	if job.Status != status && !job.Status.CanTransition(status) {
		q.log.Error().
			Str("job_id", jobID).
			Str("from", string(job.Status)).
			Str("to", string(status)).
			Msg("illegal job transition blocked")
		return
	}
	job.Status = status
	if status == model.JobStatusFailed {
		job.Progress = 0
		job.LastError = errMsg
	} else if progress > job.Progress {
		job.Progress = progress
	}
	job.UpdatedAt = time.Now()
}

func failureMessage(err error) string {
	switch {
	case err == nil:
		return "plan generation failed"
	case errors.Is(err, domain.ErrCircuitOpen):
		return "plan generation is temporarily unavailable, please try again shortly"
	case errors.Is(err, domain.ErrGeneratorTimeout):
		return "plan generation timed out"
	default:
		return "plan generation failed: " + err.Error()
	}
}
