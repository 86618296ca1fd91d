package gamevault

import (
	"time"

	"github.com/google/uuid"
)

// Channel is a publication visibility surface for a game.
type Channel string

// Publication channel constants (typed).
const (
	ChannelMarketplace Channel = "marketplace"
	ChannelCommunity   Channel = "community"
)

// IsValid reports whether the channel is one of the known publication channels.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelMarketplace, ChannelCommunity:
		return true
	}
	return false
}

// Default limits for game content payloads.
const (
	// DefaultMaxContentSize is the largest payload accepted by the save and
	// fork paths and by the provided content store backends.
	DefaultMaxContentSize int64 = 50 << 20 // 50 MB

	// DefaultPutTimeout bounds a single content store upload.
	DefaultPutTimeout = 60 * time.Second

	// DefaultContentType is assumed for game payloads when the caller does
	// not specify one.
	DefaultContentType = "text/html"
)

// ContentRef is the stable handle returned by a ContentStore for one stored
// payload. ID is content-addressed: the same bytes always produce the same
// handle, and the payload is retrievable through URL for as long as the store
// retains it.
type ContentRef struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
}

// Version is an immutable snapshot of a game. Number is 1-based and strictly
// increasing with no gaps within a game.
type Version struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Content     ContentRef `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Game is an artifact owned by exactly one wallet address. Title, Description
// and Tags are a denormalized snapshot of the latest version's metadata.
type Game struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`

	Versions       []Version `json:"versions"`
	CurrentVersion int       `json:"current_version"`

	PublishedToMarketplace bool       `json:"published_to_marketplace"`
	MarketplacePublishedAt *time.Time `json:"marketplace_published_at,omitempty"`
	PublishedToCommunity   bool       `json:"published_to_community"`
	CommunityPublishedAt   *time.Time `json:"community_published_at,omitempty"`

	ForkCount      int        `json:"fork_count"`
	OriginalGameID *uuid.UUID `json:"original_game_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LatestVersion returns the most recently appended version, or nil for a game
// with no versions yet (a save whose first upload failed leaves the game in
// that state).
func (g *Game) LatestVersion() *Version {
	if len(g.Versions) == 0 {
		return nil
	}
	return &g.Versions[len(g.Versions)-1]
}

// PublishedTo reports whether the game is currently published to the channel.
func (g *Game) PublishedTo(c Channel) bool {
	switch c {
	case ChannelMarketplace:
		return g.PublishedToMarketplace
	case ChannelCommunity:
		return g.PublishedToCommunity
	}
	return false
}

// PublishedAt returns the sticky first-publish timestamp for the channel, or
// nil if the game has never been published there.
func (g *Game) PublishedAt(c Channel) *time.Time {
	switch c {
	case ChannelMarketplace:
		return g.MarketplacePublishedAt
	case ChannelCommunity:
		return g.CommunityPublishedAt
	}
	return nil
}
