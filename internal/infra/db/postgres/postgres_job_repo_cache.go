package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
	"shorts-factory/internal/infra/metrics"
	red "shorts-factory/internal/infra/redis"
)

var _ repository.JobRepository = (*jobRepoCacheDecorator)(nil)

// jobRepoCacheDecorator caches status projections in Redis. Status is the
// hot path: clients poll it continuously while a job runs, and the answer
// only changes when the pipeline writes a checkpoint.
type jobRepoCacheDecorator struct {
	inner repository.JobRepository
	cache red.RedisClient
	ttl   time.Duration
}

// cachedStatus wraps the view with the owner, which the JSON projection
// deliberately omits.
type cachedStatus struct {
	UserID string              `json:"user_id"`
	View   model.JobStatusView `json:"view"`
}

func NewJobRepoCacheDecorator(inner repository.JobRepository, cache red.RedisClient, ttl time.Duration) repository.JobRepository {
	return &jobRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func statusKey(id string) string { return fmt.Sprintf("job:status:%s", id) }

func (d *jobRepoCacheDecorator) Status(ctx context.Context, tx repository.Tx, id string) (*model.JobStatusView, error) {
	key := statusKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var cs cachedStatus
		if json.Unmarshal([]byte(val), &cs) == nil {
			metrics.IncCacheRequest("status", "hit")
			cs.View.UserID = cs.UserID
			return &cs.View, nil
		}
	}

	metrics.IncCacheRequest("status", "miss")
	view, err := d.inner.Status(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	bytes, _ := json.Marshal(cachedStatus{UserID: view.UserID, View: *view})
	_ = d.cache.Set(ctx, key, bytes, d.ttl)
	return view, nil
}

// Write operations invalidate the cached projection.

func (d *jobRepoCacheDecorator) UpdateProgress(ctx context.Context, tx repository.Tx, id string, progress int, message string, status *model.JobStatus) error {
	_ = d.cache.Del(ctx, statusKey(id))
	return d.inner.UpdateProgress(ctx, tx, id, progress, message, status)
}

func (d *jobRepoCacheDecorator) UpdateCompletion(ctx context.Context, tx repository.Tx, id string, out model.JobOutput) error {
	_ = d.cache.Del(ctx, statusKey(id))
	return d.inner.UpdateCompletion(ctx, tx, id, out)
}

func (d *jobRepoCacheDecorator) ClaimPending(ctx context.Context, id string) (*model.Job, error) {
	_ = d.cache.Del(ctx, statusKey(id))
	return d.inner.ClaimPending(ctx, id)
}

// Pass-through methods that don't need caching

func (d *jobRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	return d.inner.Create(ctx, tx, job)
}

func (d *jobRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	return d.inner.FindByID(ctx, tx, id)
}

func (d *jobRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, f repository.JobFilter) ([]*model.Job, int, error) {
	return d.inner.List(ctx, tx, f)
}

func (d *jobRepoCacheDecorator) FetchAndMarkProcessing(ctx context.Context) (*model.Job, error) {
	return d.inner.FetchAndMarkProcessing(ctx)
}
