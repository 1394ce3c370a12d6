// File: internal/infra/security/cipher.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"shorts-factory/internal/domain"
)

const (
	kdfIterations = 100_000
	keyLen        = 32
)

// Cipher provides symmetric encryption for credential material.
// AES-GCM (AEAD) with a random nonce per message; the key is derived from
// the application secret with PBKDF2-SHA256 so the same secret always yields
// the same key across restarts. Wire format: base64(nonce || ciphertext).
type Cipher struct {
	gcm cipher.AEAD
}

// NewCipher derives the key and constructs the AEAD. The salt is itself
// derived from the secret (first 16 bytes of its SHA-256), which keeps key
// derivation deterministic without storing a salt alongside the records.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret must not be empty")
	}
	sum := sha256.Sum256([]byte(secret))
	key := pbkdf2.Key([]byte(secret), sum[:16], kdfIterations, keyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Cipher{gcm: gcm}, nil
}

// Encrypt returns base64-encoded ciphertext. Empty plaintext is rejected:
// an empty credential field is a caller bug, not a value to round-trip.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: empty plaintext", domain.ErrCrypto)
	}
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: rand nonce: %v", domain.ErrCrypto, err)
	}
	ct := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt accepts output of Encrypt and returns the original plaintext.
// Any malformed or tampered input fails with ErrCrypto.
func (c *Cipher) Decrypt(b64 string) (string, error) {
	if b64 == "" {
		return "", fmt.Errorf("%w: empty ciphertext", domain.ErrCrypto)
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", domain.ErrCrypto, err)
	}
	ns := c.gcm.NonceSize()
	if len(data) < ns {
		return "", fmt.Errorf("%w: ciphertext too short", domain.ErrCrypto)
	}
	nonce, ct := data[:ns], data[ns:]
	pt, err := c.gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: gcm open: %v", domain.ErrCrypto, err)
	}
	return string(pt), nil
}
