package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrLockBusy        = errors.New("operation already in flight")

	// Credential vault errors
	ErrAuthRequired   = errors.New("youtube authorization required")
	ErrReauthRequired = errors.New("youtube re-authorization required")
	ErrCrypto         = errors.New("credential cipher failure")

	// Stage errors
	ErrInputTooLarge   = errors.New("transcript exceeds speech synthesis limit")
	ErrInvalidVoice    = errors.New("unsupported narration voice")
	ErrToolUnavailable = errors.New("external media tool unavailable")
	ErrEncodeFailed    = errors.New("media encode failed")
	ErrUploadFailed    = errors.New("video upload failed")

	// Infrastructure errors
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
