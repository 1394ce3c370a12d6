// File: internal/usecase/vault_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/adapter"
	"shorts-factory/internal/domain/ports/repository"
	"shorts-factory/internal/infra/logging"
)

// tokenExpiryBuffer makes tokens that expire within the window count as
// expired, so an upload never starts with a token about to lapse mid-transfer.
const tokenExpiryBuffer = 5 * time.Minute

const refreshLockTTL = 30 * time.Second

// Cipher is the credential encryption boundary the vault talks through.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Locker serializes token refreshes per user across processes.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Compile-time check
var _ VaultUseCase = (*vaultUC)(nil)

// VaultUseCase manages encrypted YouTube OAuth material: client credential
// uploads, the authorization handshake and access token lifecycle.
type VaultUseCase interface {
	// StoreClientCredentials parses an uploaded Google OAuth client JSON,
	// deactivates any previous record and stores a new encrypted one.
	StoreClientCredentials(ctx context.Context, userID string, raw []byte) (*model.CredentialStatus, error)
	// ClientCredentials returns the decrypted client material of the active record.
	ClientCredentials(ctx context.Context, userID string) (*model.ClientCredentials, error)
	// ValidAccessToken returns a usable bearer token, refreshing first when
	// the stored one is expired and autoRefresh is set.
	ValidAccessToken(ctx context.Context, userID string, autoRefresh bool) (string, error)
	AuthorizationURL(ctx context.Context, userID, state string) (string, error)
	CompleteAuthorization(ctx context.Context, userID, code string) error
	// Refresh exchanges the refresh token for a new access token. With force
	// unset it is a no-op while the stored token is still valid.
	Refresh(ctx context.Context, userID string, force bool) error
	// Revoke drops the tokens but keeps the client credentials, so the user
	// can re-authorize without re-uploading the JSON.
	Revoke(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (*model.CredentialStatus, error)
}

type vaultUC struct {
	creds     repository.CredentialRepository
	tm        repository.TransactionManager
	cipher    Cipher
	refresher adapter.TokenRefresher
	locker    Locker
	log       *zerolog.Logger
	now       func() time.Time
}

func NewVaultUseCase(creds repository.CredentialRepository, tm repository.TransactionManager, cipher Cipher, refresher adapter.TokenRefresher, locker Locker, logger *zerolog.Logger) *vaultUC {
	return &vaultUC{
		creds:     creds,
		tm:        tm,
		cipher:    cipher,
		refresher: refresher,
		locker:    locker,
		log:       logger,
		now:       time.Now,
	}
}

// clientCredentialFile mirrors the JSON Google's console exports. Both the
// "web" and "installed" application types are accepted.
type clientCredentialFile struct {
	Web       *clientCredentialBlock `json:"web"`
	Installed *clientCredentialBlock `json:"installed"`
}

type clientCredentialBlock struct {
	ProjectID    string   `json:"project_id"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

func parseClientCredentials(raw []byte) (*model.ClientCredentialMaterial, error) {
	var f clientCredentialFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: credential file is not valid JSON", domain.ErrValidation)
	}
	block := f.Web
	if block == nil {
		block = f.Installed
	}
	if block == nil {
		return nil, fmt.Errorf("%w: credential file must contain a \"web\" or \"installed\" section", domain.ErrValidation)
	}
	if block.ClientID == "" || block.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", domain.ErrValidation)
	}
	if block.TokenURI == "" {
		block.TokenURI = "https://oauth2.googleapis.com/token"
	}
	if block.AuthURI == "" {
		block.AuthURI = "https://accounts.google.com/o/oauth2/auth"
	}
	return &model.ClientCredentialMaterial{
		ProjectID:    block.ProjectID,
		ClientID:     block.ClientID,
		ClientSecret: block.ClientSecret,
		AuthURI:      block.AuthURI,
		TokenURI:     block.TokenURI,
		RedirectURIs: block.RedirectURIs,
	}, nil
}

func (v *vaultUC) StoreClientCredentials(ctx context.Context, userID string, raw []byte) (*model.CredentialStatus, error) {
	defer logging.TraceDuration(v.log, "VaultUC.StoreClientCredentials")()

	mat, err := parseClientCredentials(raw)
	if err != nil {
		return nil, err
	}

	idEnc, err := v.cipher.Encrypt(mat.ClientID)
	if err != nil {
		return nil, err
	}
	secretEnc, err := v.cipher.Encrypt(mat.ClientSecret)
	if err != nil {
		return nil, err
	}

	now := v.now().UTC()
	rec := &model.CredentialRecord{
		ID:                    uuid.NewString(),
		UserID:                userID,
		ProjectID:             mat.ProjectID,
		ClientIDEncrypted:     idEnc,
		ClientSecretEncrypted: secretEnc,
		AuthURI:               mat.AuthURI,
		TokenURI:              mat.TokenURI,
		RedirectURIs:          mat.RedirectURIs,
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	// Deactivate-then-insert inside one transaction so there is never more
	// than one active record per user.
	err = v.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := v.creds.DeactivateAll(ctx, tx, userID); err != nil {
			return err
		}
		return v.creds.Insert(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}
	return credentialStatus(rec), nil
}

func (v *vaultUC) ClientCredentials(ctx context.Context, userID string) (*model.ClientCredentials, error) {
	rec, err := v.creds.GetActive(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	creds, err := v.decryptClient(rec)
	if err != nil {
		return nil, err
	}
	if err := v.creds.TouchLastUsed(ctx, repository.NoTX, rec.ID); err != nil {
		v.log.Warn().Err(err).Str("credential_id", rec.ID).Msg("touch last_used failed")
	}
	return creds, nil
}

func (v *vaultUC) decryptClient(rec *model.CredentialRecord) (*model.ClientCredentials, error) {
	id, err := v.cipher.Decrypt(rec.ClientIDEncrypted)
	if err != nil {
		return nil, err
	}
	secret, err := v.cipher.Decrypt(rec.ClientSecretEncrypted)
	if err != nil {
		return nil, err
	}
	redirect := ""
	if len(rec.RedirectURIs) > 0 {
		redirect = rec.RedirectURIs[0]
	}
	return &model.ClientCredentials{
		ProjectID:    rec.ProjectID,
		ClientID:     id,
		ClientSecret: secret,
		AuthURI:      rec.AuthURI,
		TokenURI:     rec.TokenURI,
		RedirectURI:  redirect,
	}, nil
}

func (v *vaultUC) ValidAccessToken(ctx context.Context, userID string, autoRefresh bool) (string, error) {
	defer logging.TraceDuration(v.log, "VaultUC.ValidAccessToken")()

	rec, err := v.creds.GetActive(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrAuthRequired
		}
		return "", err
	}
	if !rec.Authenticated || rec.AccessTokenEncrypted == "" {
		return "", domain.ErrAuthRequired
	}
	if !rec.TokenExpired(v.now(), tokenExpiryBuffer) {
		return v.cipher.Decrypt(rec.AccessTokenEncrypted)
	}
	if !autoRefresh {
		return "", domain.ErrAuthRequired
	}
	if err := v.refreshRecord(ctx, rec); err != nil {
		return "", err
	}
	return v.cipher.Decrypt(rec.AccessTokenEncrypted)
}

func (v *vaultUC) AuthorizationURL(ctx context.Context, userID, state string) (string, error) {
	creds, err := v.ClientCredentials(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrAuthRequired
		}
		return "", err
	}
	return v.refresher.AuthURL(*creds, state), nil
}

func (v *vaultUC) CompleteAuthorization(ctx context.Context, userID, code string) error {
	defer logging.TraceDuration(v.log, "VaultUC.CompleteAuthorization")()

	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: authorization code is empty", domain.ErrValidation)
	}
	rec, err := v.creds.GetActive(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrAuthRequired
		}
		return err
	}
	creds, err := v.decryptClient(rec)
	if err != nil {
		return err
	}
	ts, err := v.refresher.Exchange(ctx, *creds, code)
	if err != nil {
		return fmt.Errorf("authorization code exchange: %w", err)
	}
	return v.persistTokens(ctx, rec, ts)
}

func (v *vaultUC) Refresh(ctx context.Context, userID string, force bool) error {
	defer logging.TraceDuration(v.log, "VaultUC.Refresh")()

	rec, err := v.creds.GetActive(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrAuthRequired
		}
		return err
	}
	if !force && rec.Authenticated && !rec.TokenExpired(v.now(), tokenExpiryBuffer) {
		return nil
	}
	return v.refreshRecord(ctx, rec)
}

// refreshRecord performs a locked token refresh and mutates rec in place on
// success. A failed refresh marks the record unauthenticated: the stored
// refresh token is dead and only a new browser authorization can revive it.
func (v *vaultUC) refreshRecord(ctx context.Context, rec *model.CredentialRecord) error {
	key := "vault:refresh:" + rec.UserID
	token, err := v.locker.TryLock(ctx, key, refreshLockTTL)
	if err != nil {
		// Another flight holds the lock. Re-read: it may have finished.
		fresh, rerr := v.creds.GetActive(ctx, repository.NoTX, rec.UserID)
		if rerr == nil && fresh.Authenticated && !fresh.TokenExpired(v.now(), tokenExpiryBuffer) {
			*rec = *fresh
			return nil
		}
		return err
	}
	defer func() {
		if uerr := v.locker.Unlock(ctx, key, token); uerr != nil {
			v.log.Warn().Err(uerr).Str("key", key).Msg("refresh lock release failed")
		}
	}()

	if rec.RefreshTokenEncrypted == "" {
		// No refresh token means no recovery path short of re-authorizing.
		v.markUnauthenticated(ctx, rec)
		return domain.ErrReauthRequired
	}
	creds, err := v.decryptClient(rec)
	if err != nil {
		return err
	}
	refreshToken, err := v.cipher.Decrypt(rec.RefreshTokenEncrypted)
	if err != nil {
		return err
	}

	ts, err := v.refresher.Refresh(ctx, *creds, refreshToken)
	if err != nil {
		v.markUnauthenticated(ctx, rec)
		v.log.Warn().Err(err).Str("user_id", rec.UserID).Msg("token refresh failed")
		return fmt.Errorf("%w: %v", domain.ErrReauthRequired, err)
	}
	return v.persistTokens(ctx, rec, ts)
}

// markUnauthenticated persists the irrecoverable-refresh state so status
// reads and later pipeline runs short-circuit to re-authorization.
func (v *vaultUC) markUnauthenticated(ctx context.Context, rec *model.CredentialRecord) {
	now := v.now().UTC()
	rec.Authenticated = false
	rec.LastRefreshAttempt = &now
	if perr := v.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return v.creds.UpdateTokens(ctx, tx, rec)
	}); perr != nil {
		v.log.Error().Err(perr).Str("user_id", rec.UserID).Msg("persisting failed refresh state")
	}
}

func (v *vaultUC) persistTokens(ctx context.Context, rec *model.CredentialRecord, ts *adapter.TokenSet) error {
	accessEnc, err := v.cipher.Encrypt(ts.AccessToken)
	if err != nil {
		return err
	}
	rec.AccessTokenEncrypted = accessEnc
	if ts.RefreshToken != "" {
		refreshEnc, err := v.cipher.Encrypt(ts.RefreshToken)
		if err != nil {
			return err
		}
		rec.RefreshTokenEncrypted = refreshEnc
	}
	now := v.now().UTC()
	expiry := ts.Expiry.UTC()
	rec.TokenExpiresAt = &expiry
	if len(ts.Scopes) > 0 {
		rec.Scopes = ts.Scopes
	}
	rec.Authenticated = true
	rec.LastRefreshAttempt = &now
	rec.UpdatedAt = now

	return v.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return v.creds.UpdateTokens(ctx, tx, rec)
	})
}

func (v *vaultUC) Revoke(ctx context.Context, userID string) error {
	rec, err := v.creds.GetActive(ctx, repository.NoTX, userID)
	if err != nil {
		return err
	}
	now := v.now().UTC()
	rec.AccessTokenEncrypted = ""
	rec.RefreshTokenEncrypted = ""
	rec.TokenExpiresAt = nil
	rec.Scopes = nil
	rec.Authenticated = false
	rec.UpdatedAt = now
	return v.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return v.creds.UpdateTokens(ctx, tx, rec)
	})
}

func (v *vaultUC) Status(ctx context.Context, userID string) (*model.CredentialStatus, error) {
	rec, err := v.creds.GetActive(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &model.CredentialStatus{}, nil
		}
		return nil, err
	}
	return credentialStatus(rec), nil
}

func credentialStatus(rec *model.CredentialRecord) *model.CredentialStatus {
	created := rec.CreatedAt
	return &model.CredentialStatus{
		HasCredentials: true,
		Authenticated:  rec.Authenticated,
		ProjectID:      rec.ProjectID,
		Scopes:         rec.Scopes,
		TokenExpiresAt: rec.TokenExpiresAt,
		LastUsedAt:     rec.LastUsedAt,
		UploadedAt:     &created,
	}
}
