// File: internal/infra/web/mock_test.go

//go:build !integration

package web

import (
	"context"

	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
	"shorts-factory/internal/usecase"
)

type mockJobUC struct {
	CreateFn func(ctx context.Context, userID string, spec model.JobSpec) (*model.Job, error)
	GetFn    func(ctx context.Context, userID, id string) (*model.Job, error)
	ListFn   func(ctx context.Context, userID string, f repository.JobFilter) ([]*model.Job, int, error)
	StatusFn func(ctx context.Context, userID, id string) (*model.JobStatusView, error)
}

func (m *mockJobUC) Create(ctx context.Context, userID string, spec model.JobSpec) (*model.Job, error) {
	return m.CreateFn(ctx, userID, spec)
}

func (m *mockJobUC) Get(ctx context.Context, userID, id string) (*model.Job, error) {
	return m.GetFn(ctx, userID, id)
}

func (m *mockJobUC) List(ctx context.Context, userID string, f repository.JobFilter) ([]*model.Job, int, error) {
	return m.ListFn(ctx, userID, f)
}

func (m *mockJobUC) Status(ctx context.Context, userID, id string) (*model.JobStatusView, error) {
	return m.StatusFn(ctx, userID, id)
}

var _ usecase.JobUseCase = (*mockJobUC)(nil)

type mockVaultUC struct {
	StoreFn    func(ctx context.Context, userID string, raw []byte) (*model.CredentialStatus, error)
	ClientFn   func(ctx context.Context, userID string) (*model.ClientCredentials, error)
	TokenFn    func(ctx context.Context, userID string, autoRefresh bool) (string, error)
	AuthURLFn  func(ctx context.Context, userID, state string) (string, error)
	CompleteFn func(ctx context.Context, userID, code string) error
	RefreshFn  func(ctx context.Context, userID string, force bool) error
	RevokeFn   func(ctx context.Context, userID string) error
	StatusVaFn func(ctx context.Context, userID string) (*model.CredentialStatus, error)
}

func (m *mockVaultUC) StoreClientCredentials(ctx context.Context, userID string, raw []byte) (*model.CredentialStatus, error) {
	return m.StoreFn(ctx, userID, raw)
}

func (m *mockVaultUC) ClientCredentials(ctx context.Context, userID string) (*model.ClientCredentials, error) {
	return m.ClientFn(ctx, userID)
}

func (m *mockVaultUC) ValidAccessToken(ctx context.Context, userID string, autoRefresh bool) (string, error) {
	return m.TokenFn(ctx, userID, autoRefresh)
}

func (m *mockVaultUC) AuthorizationURL(ctx context.Context, userID, state string) (string, error) {
	return m.AuthURLFn(ctx, userID, state)
}

func (m *mockVaultUC) CompleteAuthorization(ctx context.Context, userID, code string) error {
	return m.CompleteFn(ctx, userID, code)
}

func (m *mockVaultUC) Refresh(ctx context.Context, userID string, force bool) error {
	return m.RefreshFn(ctx, userID, force)
}

func (m *mockVaultUC) Revoke(ctx context.Context, userID string) error {
	return m.RevokeFn(ctx, userID)
}

func (m *mockVaultUC) Status(ctx context.Context, userID string) (*model.CredentialStatus, error) {
	return m.StatusVaFn(ctx, userID)
}

var _ usecase.VaultUseCase = (*mockVaultUC)(nil)

type mockTranscriptUC struct {
	GenerateFn func(ctx context.Context, topic string) (string, error)
}

func (m *mockTranscriptUC) Generate(ctx context.Context, topic string) (string, error) {
	return m.GenerateFn(ctx, topic)
}

var _ usecase.TranscriptUseCase = (*mockTranscriptUC)(nil)
