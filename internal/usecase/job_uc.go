// File: internal/usecase/job_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
	"shorts-factory/internal/infra/logging"
)

// Dispatcher hands a persisted job to the processing pool. A dispatch
// rejection is not fatal: the recovery poller claims stranded pending jobs.
type Dispatcher interface {
	Dispatch(jobID string) error
}

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// JobUseCase is the trigger surface: create a job, poll it, list history.
type JobUseCase interface {
	Create(ctx context.Context, userID string, spec model.JobSpec) (*model.Job, error)
	Get(ctx context.Context, userID, id string) (*model.Job, error)
	List(ctx context.Context, userID string, f repository.JobFilter) ([]*model.Job, int, error)
	Status(ctx context.Context, userID, id string) (*model.JobStatusView, error)
}

type jobUC struct {
	jobs       repository.JobRepository
	dispatcher Dispatcher
	log        *zerolog.Logger
}

func NewJobUseCase(jobs repository.JobRepository, dispatcher Dispatcher, logger *zerolog.Logger) *jobUC {
	return &jobUC{jobs: jobs, dispatcher: dispatcher, log: logger}
}

func (u *jobUC) Create(ctx context.Context, userID string, spec model.JobSpec) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.Create")()

	// Validation happens before any ledger write: a rejected spec leaves
	// no pending row behind.
	job, err := model.NewJob(userID, spec)
	if err != nil {
		return nil, err
	}
	if err := u.jobs.Create(ctx, repository.NoTX, job); err != nil {
		return nil, err
	}
	if err := u.dispatcher.Dispatch(job.ID); err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("dispatch deferred to recovery")
	}
	return job, nil
}

func (u *jobUC) Get(ctx context.Context, userID, id string) (*model.Job, error) {
	job, err := u.jobs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (u *jobUC) List(ctx context.Context, userID string, f repository.JobFilter) ([]*model.Job, int, error) {
	f.UserID = userID
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Per <= 0 || f.Per > 100 {
		f.Per = 20
	}
	return u.jobs.List(ctx, repository.NoTX, f)
}

func (u *jobUC) Status(ctx context.Context, userID, id string) (*model.JobStatusView, error) {
	view, err := u.jobs.Status(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if view.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return view, nil
}

// IsNotFound is a convenience for transport layers.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
