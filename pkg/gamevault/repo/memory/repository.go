package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canvasforge/gamevault/pkg/gamevault"
)

// Repository implements gamevault.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*gamevault.Game
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		games: make(map[uuid.UUID]*gamevault.Game),
	}
}

func (r *Repository) CreateGame(ctx context.Context, game *gamevault.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	r.games[game.ID] = copyGame(game)

	return nil
}

func (r *Repository) GetGame(ctx context.Context, id uuid.UUID) (*gamevault.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, exists := r.games[id]
	if !exists {
		return nil, gamevault.ErrGameNotFound
	}

	return copyGame(game), nil
}

func (r *Repository) AppendVersion(ctx context.Context, gameID uuid.UUID, expectedCurrentVersion int, version gamevault.Version) (*gamevault.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	game, exists := r.games[gameID]
	if !exists {
		return nil, gamevault.ErrGameNotFound
	}

	if game.CurrentVersion != expectedCurrentVersion {
		return nil, &gamevault.ConcurrencyConflictError{
			GameID:   gameID,
			Expected: expectedCurrentVersion,
			Actual:   game.CurrentVersion,
		}
	}

	version.Number = expectedCurrentVersion + 1
	game.Versions = append(game.Versions, version)
	game.CurrentVersion = version.Number
	game.Title = version.Title
	game.Description = version.Description
	game.Tags = append([]string(nil), version.Tags...)
	game.UpdatedAt = time.Now().UTC()

	return copyGame(game), nil
}

func (r *Repository) IncrementForkCount(ctx context.Context, gameID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	game, exists := r.games[gameID]
	if !exists {
		return 0, gamevault.ErrGameNotFound
	}

	game.ForkCount++
	game.UpdatedAt = time.Now().UTC()

	return game.ForkCount, nil
}

func (r *Repository) SetPublicationFlag(ctx context.Context, gameID uuid.UUID, channel gamevault.Channel, published bool, publishedAt *time.Time) (*gamevault.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	game, exists := r.games[gameID]
	if !exists {
		return nil, gamevault.ErrGameNotFound
	}

	gamevault.ApplyPublication(game, channel, published, copyTime(publishedAt))
	game.UpdatedAt = time.Now().UTC()

	return copyGame(game), nil
}

func (r *Repository) ListGamesByOwner(ctx context.Context, ownerID string, page, limit int) ([]*gamevault.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*gamevault.Game
	for _, game := range r.games {
		if game.OwnerID == ownerID {
			result = append(result, copyGame(game))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, page, limit), nil
}

func (r *Repository) ListGamesByChannel(ctx context.Context, channel gamevault.Channel, page, limit int, search string) ([]*gamevault.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*gamevault.Game
	for _, game := range r.games {
		if !game.PublishedTo(channel) {
			continue
		}
		if search != "" && !matchesSearch(game, search) {
			continue
		}
		result = append(result, copyGame(game))
	}

	// Newest publication first
	sort.Slice(result, func(i, j int) bool {
		ti := result[i].PublishedAt(channel)
		tj := result[j].PublishedAt(channel)
		if ti == nil || tj == nil {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return ti.After(*tj)
	})

	return paginate(result, page, limit), nil
}

func (r *Repository) DeleteGame(ctx context.Context, gameID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[gameID]; !exists {
		return gamevault.ErrGameNotFound
	}

	delete(r.games, gameID)
	return nil
}

func matchesSearch(game *gamevault.Game, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(game.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(game.Description), needle) {
		return true
	}
	for _, tag := range game.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func paginate(games []*gamevault.Game, page, limit int) []*gamevault.Game {
	start := (page - 1) * limit
	if start >= len(games) {
		return nil
	}
	end := start + limit
	if end > len(games) {
		end = len(games)
	}
	return games[start:end]
}

func copyGame(game *gamevault.Game) *gamevault.Game {
	gameCopy := *game
	gameCopy.Versions = make([]gamevault.Version, len(game.Versions))
	for i, v := range game.Versions {
		v.Tags = append([]string(nil), v.Tags...)
		gameCopy.Versions[i] = v
	}
	gameCopy.Tags = append([]string(nil), game.Tags...)
	gameCopy.MarketplacePublishedAt = copyTime(game.MarketplacePublishedAt)
	gameCopy.CommunityPublishedAt = copyTime(game.CommunityPublishedAt)
	if game.OriginalGameID != nil {
		id := *game.OriginalGameID
		gameCopy.OriginalGameID = &id
	}
	return &gameCopy
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := *t
	return &ts
}
