package repository

import (
	"context"

	"shorts-factory/internal/domain/model"
)

// CredentialRepository persists encrypted OAuth material, one active record
// per user. Only ciphertext crosses this boundary.
type CredentialRepository interface {
	GetActive(ctx context.Context, tx Tx, userID string) (*model.CredentialRecord, error)
	ListForUser(ctx context.Context, tx Tx, userID string) ([]*model.CredentialRecord, error)
	DeactivateAll(ctx context.Context, tx Tx, userID string) error
	Insert(ctx context.Context, tx Tx, rec *model.CredentialRecord) error

	// UpdateTokens persists the token fields, scope list, authenticated flag
	// and last_refresh_attempt of rec in one statement.
	UpdateTokens(ctx context.Context, tx Tx, rec *model.CredentialRecord) error

	TouchLastUsed(ctx context.Context, tx Tx, id string) error
}
