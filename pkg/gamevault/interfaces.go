package gamevault

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// ContentStore is the boundary to the durable, content-addressed store that
// holds game payloads. Implementations validate payload size before touching
// the network, bound every upload with a timeout, and map backend failures to
// the UploadErrorKind taxonomy. They never retry; retry policy belongs to the
// caller.
type ContentStore interface {
	// Put stores a payload and returns its stable content reference. The
	// same bytes always yield the same reference ID.
	Put(ctx context.Context, req PutRequest) (*ContentRef, error)

	// Get retrieves a stored payload by its reference ID.
	Get(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes a stored payload. Deleting games never calls this
	// (retention policy for unreferenced content is out of scope), but
	// operators can.
	Delete(ctx context.Context, id string) error
}

// PutRequest contains parameters for storing one payload.
type PutRequest struct {
	Data        []byte
	ContentType string
	// Labels are descriptive metadata stored alongside the payload (title,
	// owner wallet, fork marker). They do not affect the reference ID.
	Labels map[string]string
}

// Repository is the boundary for game and version metadata persistence.
type Repository interface {
	// CreateGame persists a fresh game record with zero versions.
	CreateGame(ctx context.Context, game *Game) error

	// GetGame returns the game or ErrGameNotFound.
	GetGame(ctx context.Context, id uuid.UUID) (*Game, error)

	// AppendVersion appends version with an optimistic-concurrency check:
	// if the stored current version differs from expectedCurrentVersion at
	// write time it returns *ConcurrencyConflictError and writes nothing.
	// On success it also refreshes the game's denormalized
	// title/description/tags snapshot from the version record, bumps
	// UpdatedAt, and returns the updated game. The snapshot and the version
	// move in one repository operation so readers never see them disagree.
	AppendVersion(ctx context.Context, gameID uuid.UUID, expectedCurrentVersion int, version Version) (*Game, error)

	// IncrementForkCount atomically increments the game's fork count and
	// returns the new value. Concurrent callers never lose an increment.
	IncrementForkCount(ctx context.Context, gameID uuid.UUID) (int, error)

	// SetPublicationFlag sets one channel's publication flag and timestamp
	// without touching the other channel, and returns the updated game.
	SetPublicationFlag(ctx context.Context, gameID uuid.UUID, channel Channel, published bool, publishedAt *time.Time) (*Game, error)

	// ListGamesByOwner returns the owner's games, newest first. page is
	// 1-based.
	ListGamesByOwner(ctx context.Context, ownerID string, page, limit int) ([]*Game, error)

	// ListGamesByChannel returns games published to the channel, newest
	// publication first. search, when non-empty, is matched
	// case-insensitively against title, description and tags.
	ListGamesByChannel(ctx context.Context, channel Channel, page, limit int, search string) ([]*Game, error)

	// DeleteGame removes the game record and its versions. Stored content
	// is left in the content store.
	DeleteGame(ctx context.Context, gameID uuid.UUID) error
}
