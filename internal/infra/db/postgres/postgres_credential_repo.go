package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
	"shorts-factory/internal/infra/metrics"
)

var _ repository.CredentialRepository = (*credentialRepo)(nil)

const credentialColumns = `
id, user_id, project_id, client_id_enc, client_secret_enc, auth_uri, token_uri, redirect_uris,
access_token_enc, refresh_token_enc, token_expires_at, scopes, authenticated, last_refresh_attempt,
is_active, created_at, updated_at, last_used_at`

type credentialRepo struct {
	pool *pgxpool.Pool
}

func NewCredentialRepo(pool *pgxpool.Pool) *credentialRepo {
	return &credentialRepo{pool: pool}
}

func scanCredential(row pgx.Row) (*model.CredentialRecord, error) {
	var c model.CredentialRecord
	err := row.Scan(
		&c.ID, &c.UserID, &c.ProjectID, &c.ClientIDEncrypted, &c.ClientSecretEncrypted,
		&c.AuthURI, &c.TokenURI, &c.RedirectURIs,
		&c.AccessTokenEncrypted, &c.RefreshTokenEncrypted, &c.TokenExpiresAt, &c.Scopes,
		&c.Authenticated, &c.LastRefreshAttempt,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

func (r *credentialRepo) GetActive(ctx context.Context, tx repository.Tx, userID string) (*model.CredentialRecord, error) {
	const q = `
SELECT ` + credentialColumns + `
  FROM youtube_credentials
 WHERE user_id=$1 AND is_active
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanCredential(row)
}

func (r *credentialRepo) ListForUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.CredentialRecord, error) {
	const q = `
SELECT ` + credentialColumns + `
  FROM youtube_credentials
 WHERE user_id=$1
 ORDER BY created_at DESC;`
	rows, err := pickRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CredentialRecord
	for rows.Next() {
		var c model.CredentialRecord
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.ProjectID, &c.ClientIDEncrypted, &c.ClientSecretEncrypted,
			&c.AuthURI, &c.TokenURI, &c.RedirectURIs,
			&c.AccessTokenEncrypted, &c.RefreshTokenEncrypted, &c.TokenExpiresAt, &c.Scopes,
			&c.Authenticated, &c.LastRefreshAttempt,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.LastUsedAt,
		); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *credentialRepo) DeactivateAll(ctx context.Context, tx repository.Tx, userID string) error {
	_, err := execSQL(ctx, r.pool, tx,
		`UPDATE youtube_credentials SET is_active=false, updated_at=now() WHERE user_id=$1 AND is_active;`, userID)
	return err
}

func (r *credentialRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.CredentialRecord) error {
	const q = `
INSERT INTO youtube_credentials (
  id, user_id, project_id, client_id_enc, client_secret_enc, auth_uri, token_uri, redirect_uris,
  access_token_enc, refresh_token_enc, token_expires_at, scopes, authenticated, last_refresh_attempt,
  is_active, created_at, updated_at, last_used_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18);`

	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.UserID, rec.ProjectID, rec.ClientIDEncrypted, rec.ClientSecretEncrypted,
		rec.AuthURI, rec.TokenURI, rec.RedirectURIs,
		rec.AccessTokenEncrypted, rec.RefreshTokenEncrypted, rec.TokenExpiresAt, rec.Scopes,
		rec.Authenticated, rec.LastRefreshAttempt,
		rec.IsActive, rec.CreatedAt, rec.UpdatedAt, rec.LastUsedAt)
	if err != nil {
		return err
	}
	metrics.IncCredentialUpload()
	return nil
}

func (r *credentialRepo) UpdateTokens(ctx context.Context, tx repository.Tx, rec *model.CredentialRecord) error {
	const q = `
UPDATE youtube_credentials SET
  access_token_enc=$2, refresh_token_enc=$3, token_expires_at=$4, scopes=$5,
  authenticated=$6, last_refresh_attempt=$7, updated_at=now()
WHERE id=$1;`

	cmd, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.AccessTokenEncrypted, rec.RefreshTokenEncrypted, rec.TokenExpiresAt,
		rec.Scopes, rec.Authenticated, rec.LastRefreshAttempt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *credentialRepo) TouchLastUsed(ctx context.Context, tx repository.Tx, id string) error {
	_, err := execSQL(ctx, r.pool, tx,
		`UPDATE youtube_credentials SET last_used_at=now() WHERE id=$1;`, id)
	return err
}
