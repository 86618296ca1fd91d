package gamevault

import "github.com/google/uuid"

// Request DTOs

// SaveGameRequest contains parameters for creating a game or appending a new
// version to an existing one. GameID nil means "create".
type SaveGameRequest struct {
	GameID      *uuid.UUID
	CallerID    string
	Content     []byte
	ContentType string
	Title       string
	Description string
	Tags        []string
}

// ForkGameRequest contains parameters for forking another game's latest
// version into a new lineage owned by the caller.
type ForkGameRequest struct {
	SourceGameID uuid.UUID
	CallerID     string
	// NewTitle overrides the default "<source title> (Fork)".
	NewTitle string
}

// SetPublicationRequest contains parameters for publishing or unpublishing a
// game on one channel.
type SetPublicationRequest struct {
	GameID    uuid.UUID
	Channel   Channel
	CallerID  string
	Published bool
}

// ListGamesRequest contains parameters for listing games. Exactly one of
// OwnerID or Channel must be set. Page is 1-based; Limit 0 falls back to
// DefaultListLimit.
type ListGamesRequest struct {
	OwnerID string
	Channel Channel
	Page    int
	Limit   int
	Search  string
}

// Listing defaults.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)
