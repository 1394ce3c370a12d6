package repository

import (
	"context"

	"shorts-factory/internal/domain/model"
)

// JobFilter narrows List results.
type JobFilter struct {
	UserID string
	Status model.JobStatus
	Page   int
	Per    int
}

// JobRepository is the ledger the orchestrator reads and writes and that
// external callers poll. Progress writes carry the state machine:
// UpdateProgress with the -1 sentinel transitions to failed and records the
// message as the error; a terminal status sets completed_at.
type JobRepository interface {
	Create(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	List(ctx context.Context, tx Tx, f JobFilter) ([]*model.Job, int, error)
	Status(ctx context.Context, tx Tx, id string) (*model.JobStatusView, error)

	UpdateProgress(ctx context.Context, tx Tx, id string, progress int, message string, status *model.JobStatus) error
	UpdateCompletion(ctx context.Context, tx Tx, id string, out model.JobOutput) error

	// ClaimPending atomically moves one specific pending job to processing.
	// Returns ErrNotFound when the job is missing or already claimed.
	ClaimPending(ctx context.Context, id string) (*model.Job, error)

	// FetchAndMarkProcessing atomically claims the oldest stale pending job,
	// so jobs orphaned by a crash between trigger and dispatch are recovered.
	FetchAndMarkProcessing(ctx context.Context) (*model.Job, error)
}
