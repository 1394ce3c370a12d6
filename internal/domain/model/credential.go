package model

import "time"

// CredentialRecord is the encrypted-at-rest store of one user's YouTube OAuth
// material. At most one record per user is active; superseded records are
// deactivated, never deleted, so the audit trail survives credential rotation.
type CredentialRecord struct {
	ID     string
	UserID string

	ProjectID             string
	ClientIDEncrypted     string
	ClientSecretEncrypted string
	AuthURI               string
	TokenURI              string
	RedirectURIs          []string

	AccessTokenEncrypted  string
	RefreshTokenEncrypted string
	TokenExpiresAt        *time.Time
	Scopes                []string
	Authenticated         bool
	LastRefreshAttempt    *time.Time

	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastUsedAt *time.Time
}

// ClientCredentialMaterial is the plaintext input parsed from an uploaded
// Google OAuth client JSON. It exists only transiently on the way into the
// cipher.
type ClientCredentialMaterial struct {
	ProjectID    string
	ClientID     string
	ClientSecret string
	AuthURI      string
	TokenURI     string
	RedirectURIs []string
}

// ClientCredentials is the decrypted projection handed to the token
// refresher. Never persisted, never serialized.
type ClientCredentials struct {
	ProjectID    string
	ClientID     string
	ClientSecret string
	AuthURI      string
	TokenURI     string
	RedirectURI  string
}

// CredentialStatus is the non-sensitive projection exposed over the API.
type CredentialStatus struct {
	HasCredentials bool       `json:"has_credentials"`
	Authenticated  bool       `json:"authenticated"`
	ProjectID      string     `json:"project_id,omitempty"`
	Scopes         []string   `json:"scopes,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	UploadedAt     *time.Time `json:"uploaded_at,omitempty"`
}

// TokenExpired reports whether the stored access token is unusable at
// instant now, applying the given early-refresh buffer. Persisted expiries
// without a timezone are treated as UTC before comparison.
func (c *CredentialRecord) TokenExpired(now time.Time, buffer time.Duration) bool {
	if c.TokenExpiresAt == nil {
		return true
	}
	return !now.UTC().Add(buffer).Before(c.TokenExpiresAt.UTC())
}
