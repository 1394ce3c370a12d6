//go:build !integration

package postgres

import (
	"context"
	"time"

	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
	red "shorts-factory/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerJobRepo mocks the database repository that the decorator wraps.
type mockInnerJobRepo struct {
	CreateFunc                 func(ctx context.Context, tx repository.Tx, job *model.Job) error
	FindByIDFunc               func(ctx context.Context, tx repository.Tx, id string) (*model.Job, error)
	ListFunc                   func(ctx context.Context, tx repository.Tx, f repository.JobFilter) ([]*model.Job, int, error)
	StatusFunc                 func(ctx context.Context, tx repository.Tx, id string) (*model.JobStatusView, error)
	UpdateProgressFunc         func(ctx context.Context, tx repository.Tx, id string, progress int, message string, status *model.JobStatus) error
	UpdateCompletionFunc       func(ctx context.Context, tx repository.Tx, id string, out model.JobOutput) error
	ClaimPendingFunc           func(ctx context.Context, id string) (*model.Job, error)
	FetchAndMarkProcessingFunc func(ctx context.Context) (*model.Job, error)
}

func (m *mockInnerJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	return m.CreateFunc(ctx, tx, job)
}
func (m *mockInnerJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerJobRepo) List(ctx context.Context, tx repository.Tx, f repository.JobFilter) ([]*model.Job, int, error) {
	return m.ListFunc(ctx, tx, f)
}
func (m *mockInnerJobRepo) Status(ctx context.Context, tx repository.Tx, id string) (*model.JobStatusView, error) {
	return m.StatusFunc(ctx, tx, id)
}
func (m *mockInnerJobRepo) UpdateProgress(ctx context.Context, tx repository.Tx, id string, progress int, message string, status *model.JobStatus) error {
	return m.UpdateProgressFunc(ctx, tx, id, progress, message, status)
}
func (m *mockInnerJobRepo) UpdateCompletion(ctx context.Context, tx repository.Tx, id string, out model.JobOutput) error {
	return m.UpdateCompletionFunc(ctx, tx, id, out)
}
func (m *mockInnerJobRepo) ClaimPending(ctx context.Context, id string) (*model.Job, error) {
	return m.ClaimPendingFunc(ctx, id)
}
func (m *mockInnerJobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.Job, error) {
	return m.FetchAndMarkProcessingFunc(ctx)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc   func(ctx context.Context, key string) (string, error)
	SetFunc   func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc   func(ctx context.Context, keys ...string) error
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
func (m *mockRedisClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
