package gamevault

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the gamevault library.
type Service interface {
	// CreateOrUpdateGame creates a new game (GameID nil) or appends a new
	// version to an existing one. Appending requires the caller to own the
	// game. The returned game reflects the appended version.
	CreateOrUpdateGame(ctx context.Context, req SaveGameRequest) (*Game, error)

	// ForkGame creates a new game owned by the caller whose first version's
	// content derives from the source game's latest version. Forking is
	// cross-owner; the source's fork count is bumped only after the child
	// and its first version exist.
	ForkGame(ctx context.Context, req ForkGameRequest) (*Game, error)

	// SetPublication publishes or unpublishes a game on one channel.
	// Owner-only. Channels are independent; publishing never pins the
	// game's current version.
	SetPublication(ctx context.Context, req SetPublicationRequest) (*Game, error)

	// GetGame returns a game by ID.
	GetGame(ctx context.Context, id uuid.UUID) (*Game, error)

	// ListGames lists games by owner or by publication channel.
	ListGames(ctx context.Context, req ListGamesRequest) ([]*Game, error)

	// DeleteGame removes a game record. Owner-only. Stored content is not
	// removed from the content store.
	DeleteGame(ctx context.Context, gameID uuid.UUID, callerID string) error
}
