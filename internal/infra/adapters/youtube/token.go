// File: internal/infra/adapters/youtube/token.go
package youtube

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	yt "google.golang.org/api/youtube/v3"

	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/adapter"
	"shorts-factory/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TokenRefresher = (*OAuthRefresher)(nil)

// OAuthRefresher drives the Google OAuth flow with the user's own client
// credentials. Offline access with forced consent guarantees a refresh token
// on the first authorization.
type OAuthRefresher struct {
	redirectURL string
}

func NewOAuthRefresher(redirectURL string) *OAuthRefresher {
	return &OAuthRefresher{redirectURL: redirectURL}
}

func (r *OAuthRefresher) config(creds model.ClientCredentials) *oauth2.Config {
	redirect := r.redirectURL
	if redirect == "" {
		redirect = creds.RedirectURI
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       []string{yt.YoutubeUploadScope, yt.YoutubeScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  creds.AuthURI,
			TokenURL: creds.TokenURI,
		},
	}
}

func (r *OAuthRefresher) AuthURL(creds model.ClientCredentials, state string) string {
	return r.config(creds).AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (r *OAuthRefresher) Exchange(ctx context.Context, creds model.ClientCredentials, code string) (*adapter.TokenSet, error) {
	cfg := r.config(creds)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	return tokenSet(tok, cfg.Scopes), nil
}

func (r *OAuthRefresher) Refresh(ctx context.Context, creds model.ClientCredentials, refreshToken string) (*adapter.TokenSet, error) {
	cfg := r.config(creds)
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		metrics.IncTokenRefresh("failure")
		return nil, fmt.Errorf("oauth refresh: %w", err)
	}
	metrics.IncTokenRefresh("success")
	return tokenSet(tok, cfg.Scopes), nil
}

func tokenSet(tok *oauth2.Token, scopes []string) *adapter.TokenSet {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = time.Now().UTC().Add(time.Hour)
	}
	ts := &adapter.TokenSet{
		AccessToken: tok.AccessToken,
		Expiry:      expiry.UTC(),
		Scopes:      scopes,
	}
	// Google only returns the refresh token on the initial grant; callers
	// keep the stored one when this stays empty.
	ts.RefreshToken = tok.RefreshToken
	return ts
}
