package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

const jobColumns = `
id, user_id, status, progress, progress_message, mode,
title, description, voice, tags, category, privacy,
video_source, transcript, output_location, youtube_video_id, youtube_url,
error_message, processing_time_seconds, created_at, updated_at, completed_at`

type jobRepo struct {
	pool       *pgxpool.Pool
	tm         repository.TransactionManager
	staleAfter time.Duration
}

func NewJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager, staleAfter time.Duration) *jobRepo {
	return &jobRepo{pool: pool, tm: tm, staleAfter: staleAfter}
}

func (r *jobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	const q = `
INSERT INTO jobs (
  id, user_id, status, progress, progress_message, mode,
  title, description, voice, tags, category, privacy,
  video_source, transcript, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16);`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.UserID, string(job.Status), job.Progress, job.ProgressMessage, string(job.Mode),
		job.Title, job.Description, job.Voice, job.Tags, job.Category, job.Privacy,
		job.VideoSource, job.Transcript, job.CreatedAt, job.UpdatedAt)
	return err
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var status, mode string
	err := row.Scan(
		&j.ID, &j.UserID, &status, &j.Progress, &j.ProgressMessage, &mode,
		&j.Title, &j.Description, &j.Voice, &j.Tags, &j.Category, &j.Privacy,
		&j.VideoSource, &j.Transcript, &j.OutputLocation, &j.YouTubeVideoID, &j.YouTubeURL,
		&j.ErrorMessage, &j.ProcessingTimeSeconds, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.Status = model.JobStatus(status)
	j.Mode = model.JobMode(mode)
	return &j, nil
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) List(ctx context.Context, tx repository.Tx, f repository.JobFilter) ([]*model.Job, int, error) {
	q := `SELECT ` + jobColumns + `, COUNT(*) OVER() AS total FROM jobs WHERE user_id=$1`
	args := []interface{}{f.UserID}
	if f.Status != "" {
		q += ` AND status=$2`
		args = append(args, string(f.Status))
	}
	q += ` ORDER BY created_at DESC`
	args = append(args, f.Per, (f.Page-1)*f.Per)
	if f.Status != "" {
		q += ` LIMIT $3 OFFSET $4;`
	} else {
		q += ` LIMIT $2 OFFSET $3;`
	}

	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Job
	total := 0
	for rows.Next() {
		var j model.Job
		var status, mode string
		if err := rows.Scan(
			&j.ID, &j.UserID, &status, &j.Progress, &j.ProgressMessage, &mode,
			&j.Title, &j.Description, &j.Voice, &j.Tags, &j.Category, &j.Privacy,
			&j.VideoSource, &j.Transcript, &j.OutputLocation, &j.YouTubeVideoID, &j.YouTubeURL,
			&j.ErrorMessage, &j.ProcessingTimeSeconds, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt,
			&total,
		); err != nil {
			return nil, 0, domain.ErrReadDatabaseRow
		}
		j.Status = model.JobStatus(status)
		j.Mode = model.JobMode(mode)
		out = append(out, &j)
	}
	return out, total, rows.Err()
}

func (r *jobRepo) Status(ctx context.Context, tx repository.Tx, id string) (*model.JobStatusView, error) {
	const q = `
SELECT id, user_id, status, progress, progress_message, error_message, output_location,
       created_at, updated_at, completed_at
  FROM jobs WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var v model.JobStatusView
	var status string
	if err := row.Scan(&v.ID, &v.UserID, &status, &v.Progress, &v.ProgressMessage,
		&v.ErrorMessage, &v.OutputLocation, &v.CreatedAt, &v.UpdatedAt, &v.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	v.Status = model.JobStatus(status)
	v.CurrentStep = model.CurrentStep(v.Progress, v.Status)
	return &v, nil
}

// UpdateProgress writes one checkpoint. The -1 sentinel forces the failed
// status and copies the message into error_message; any terminal transition
// stamps completed_at and the elapsed processing time.
func (r *jobRepo) UpdateProgress(ctx context.Context, tx repository.Tx, id string, progress int, message string, status *model.JobStatus) error {
	var statusArg interface{}
	if status != nil {
		statusArg = string(*status)
	}

	const q = `
UPDATE jobs SET
  progress = $2,
  progress_message = $3,
  status = CASE
             WHEN $2 = -1 THEN 'failed'
             WHEN $4::text IS NOT NULL THEN $4::text
             ELSE status
           END,
  error_message = CASE WHEN $2 = -1 THEN $3 ELSE error_message END,
  completed_at = CASE
                   WHEN $2 = -1 OR $4::text IN ('completed','failed') THEN now()
                   ELSE completed_at
                 END,
  processing_time_seconds = CASE
                              WHEN $2 = -1 OR $4::text IN ('completed','failed')
                              THEN EXTRACT(EPOCH FROM (now() - created_at))::int
                              ELSE processing_time_seconds
                            END,
  updated_at = now()
WHERE id = $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, progress, message, statusArg)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepo) UpdateCompletion(ctx context.Context, tx repository.Tx, id string, out model.JobOutput) error {
	const q = `
UPDATE jobs SET
  status = 'completed',
  progress = 100,
  progress_message = 'Completed',
  output_location = $2,
  youtube_video_id = $3,
  youtube_url = $4,
  completed_at = now(),
  processing_time_seconds = EXTRACT(EPOCH FROM (now() - created_at))::int,
  updated_at = now()
WHERE id = $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, out.OutputLocation, out.YouTubeVideoID, out.YouTubeURL)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClaimPending is the dispatch handoff: exactly one worker wins the
// pending-to-processing transition.
func (r *jobRepo) ClaimPending(ctx context.Context, id string) (*model.Job, error) {
	const q = `
UPDATE jobs SET status='processing', updated_at=now()
 WHERE id=$1 AND status='pending'
RETURNING ` + jobColumns + `;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// FetchAndMarkProcessing claims the oldest pending job that has sat
// unclaimed past the staleness window. Row locking keeps concurrent pollers
// off the same job.
func (r *jobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.Job, error) {
	var job *model.Job

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + jobColumns + `
  FROM jobs
 WHERE status = 'pending' AND updated_at < $1
 ORDER BY created_at
 LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery, time.Now().UTC().Add(-r.staleAfter))
		if err != nil {
			return err
		}
		fetched, err := scanJob(row)
		if err != nil {
			return err
		}

		if _, err := execSQL(ctx, r.pool, tx,
			`UPDATE jobs SET status='processing', updated_at=now() WHERE id=$1;`, fetched.ID); err != nil {
			return err
		}
		fetched.Status = model.JobStatusProcessing
		job = fetched
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return job, err
}
