package adapter

import (
	"context"
	"time"

	"shorts-factory/internal/domain/model"
)

// TokenSet is the plaintext result of an authorization or refresh exchange.
type TokenSet struct {
	AccessToken  string
	RefreshToken string // empty when the issuer did not rotate it
	Expiry       time.Time
	Scopes       []string
}

// TokenRefresher talks to the OAuth token endpoint of the stored client
// credentials. It never sees ciphertext; the vault decrypts on the way in
// and re-encrypts the result.
type TokenRefresher interface {
	AuthURL(creds model.ClientCredentials, state string) string
	Exchange(ctx context.Context, creds model.ClientCredentials, code string) (*TokenSet, error)
	Refresh(ctx context.Context, creds model.ClientCredentials, refreshToken string) (*TokenSet, error)
}
