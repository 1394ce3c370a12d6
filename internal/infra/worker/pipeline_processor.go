// File: internal/infra/worker/pipeline_processor.go
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
	"shorts-factory/internal/infra/logging"
	"shorts-factory/internal/infra/metrics"
	"shorts-factory/internal/usecase"
)

// Compile-time check
var _ usecase.Dispatcher = (*PipelineProcessor)(nil)

// PipelineProcessor feeds persisted jobs into the worker pool. Dispatch is
// the fast path after a trigger; the recovery loop re-claims jobs that were
// persisted but never dispatched (crash, full queue) once they go stale.
type PipelineProcessor struct {
	jobs             repository.JobRepository
	pipeline         usecase.PipelineUseCase
	pool             *Pool
	recoveryInterval time.Duration
	log              *zerolog.Logger
}

func NewPipelineProcessor(
	jobs repository.JobRepository,
	pipeline usecase.PipelineUseCase,
	pool *Pool,
	recoveryInterval time.Duration,
	log *zerolog.Logger,
) *PipelineProcessor {
	return &PipelineProcessor{
		jobs:             jobs,
		pipeline:         pipeline,
		pool:             pool,
		recoveryInterval: recoveryInterval,
		log:              log,
	}
}

// Dispatch submits the claim-and-run task for a freshly created job.
func (p *PipelineProcessor) Dispatch(jobID string) error {
	return p.pool.Submit(func(ctx context.Context) error {
		job, err := p.jobs.ClaimPending(ctx, jobID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				p.log.Error().Err(err).Str("job_id", jobID).Msg("claim failed")
			}
			return nil // already claimed elsewhere, nothing to do
		}
		p.runJob(ctx, job)
		return nil
	})
}

// Start runs the stale-job recovery loop. Run in a goroutine.
func (p *PipelineProcessor) Start(ctx context.Context) {
	p.log.Info().Dur("interval", p.recoveryInterval).Msg("pipeline processor started")
	ticker := time.NewTicker(p.recoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("pipeline processor stopping")
			return
		case <-ticker.C:
			_ = p.pool.Submit(func(ctx context.Context) error {
				p.recoverOne(ctx)
				return nil
			})
		}
	}
}

func (p *PipelineProcessor) recoverOne(ctx context.Context) {
	job, err := p.jobs.FetchAndMarkProcessing(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("stale job recovery failed")
		}
		return
	}
	p.log.Warn().Str("job_id", job.ID).Msg("recovered stale job")
	p.runJob(ctx, job)
}

func (p *PipelineProcessor) runJob(ctx context.Context, job *model.Job) {
	ctx = logging.WithJobID(logging.WithUserID(ctx, job.UserID), job.ID)
	log := logging.With(ctx, p.log)

	metrics.JobStarted()
	defer metrics.JobFinished()

	start := time.Now()
	err := p.pipeline.Run(ctx, job)
	elapsed := time.Since(start)

	status := string(model.JobStatusCompleted)
	if err != nil {
		status = string(model.JobStatusFailed)
		log.Error().Err(err).Msg("pipeline run failed")
	}
	metrics.IncJob(status, string(job.Mode))
	metrics.ObserveJobDuration(string(job.Mode), elapsed.Seconds())
	log.Info().Str("status", status).Dur("duration", elapsed).Msg("pipeline run finished")
}
