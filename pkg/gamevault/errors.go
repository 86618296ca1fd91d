package gamevault

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrGameNotFound indicates a game was not found
	ErrGameNotFound = errors.New("game not found")

	// ErrContentNotFound indicates a stored payload was not found in the content store
	ErrContentNotFound = errors.New("content not found")
)

// ValidationError indicates a request was rejected before any side effect
// (empty or oversized content, missing fields, malformed identifiers).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// AuthorizationError indicates the caller does not own the game it tried to
// mutate. Nothing is changed when it is returned.
type AuthorizationError struct {
	GameID   uuid.UUID
	CallerID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("caller %s is not the owner of game %s", e.CallerID, e.GameID)
}

// ConcurrencyConflictError indicates an optimistic append lost a race: the
// stored current version no longer matched the expected one at write time.
// The caller should re-read the game and retry the whole save.
type ConcurrencyConflictError struct {
	GameID   uuid.UUID
	Expected int
	Actual   int
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("version conflict on game %s: expected current version %d, found %d",
		e.GameID, e.Expected, e.Actual)
}

// UploadErrorKind is the closed taxonomy of content store upload failures.
type UploadErrorKind string

// Upload failure kinds (typed).
const (
	UploadAuthentication  UploadErrorKind = "authentication"
	UploadPermission      UploadErrorKind = "permission"
	UploadRateLimit       UploadErrorKind = "rate_limit"
	UploadPayloadTooLarge UploadErrorKind = "payload_too_large"
	UploadTimeout         UploadErrorKind = "timeout"
	UploadUnknown         UploadErrorKind = "unknown"
)

// UploadError represents a content store upload failure. Callers pattern-match
// on Kind rather than inspecting backend status codes or error text.
type UploadError struct {
	Kind   UploadErrorKind
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("upload failed (%s): %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("upload failed (%s): %v", e.Kind, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may usefully retry the upload as-is.
// Authentication and permission failures need external reconfiguration first.
func (e *UploadError) Retryable() bool {
	return e.Kind == UploadTimeout || e.Kind == UploadRateLimit
}

// RepositoryError represents a generic persistence failure.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository operation %s failed: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
