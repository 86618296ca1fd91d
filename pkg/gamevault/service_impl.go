package gamevault

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository     Repository
	contentStore   ContentStore
	maxContentSize int64
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithContentStore sets the content store for the service
func WithContentStore(store ContentStore) Option {
	return func(s *service) {
		s.contentStore = store
	}
}

// WithMaxContentSize overrides the payload size ceiling enforced on the save
// and fork paths.
func WithMaxContentSize(n int64) Option {
	return func(s *service) {
		s.maxContentSize = n
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		maxContentSize: DefaultMaxContentSize,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.contentStore == nil {
		return nil, fmt.Errorf("content store is required")
	}

	return s, nil
}

// validateContent rejects empty and oversized payloads before anything else
// runs: no upload is attempted and no version is appended on failure.
func (s *service) validateContent(content []byte) error {
	if len(content) == 0 {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if int64(len(content)) > s.maxContentSize {
		return &ValidationError{
			Field:  "content",
			Reason: fmt.Sprintf("exceeds maximum size of %d bytes", s.maxContentSize),
		}
	}
	return nil
}

func (s *service) CreateOrUpdateGame(ctx context.Context, req SaveGameRequest) (*Game, error) {
	callerID, err := NormalizeWalletAddress(req.CallerID)
	if err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := s.validateContent(req.Content); err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	var game *Game
	if req.GameID != nil {
		game, err = s.repository.GetGame(ctx, *req.GameID)
		if err != nil {
			return nil, err
		}
		if game.OwnerID != callerID {
			return nil, &AuthorizationError{GameID: game.ID, CallerID: callerID}
		}
	} else {
		now := time.Now().UTC()
		game = &Game{
			ID:          uuid.New(),
			OwnerID:     callerID,
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repository.CreateGame(ctx, game); err != nil {
			return nil, err
		}
	}

	// Upload before recording metadata. If the upload fails, a game created
	// above persists with zero versions; the metadata never references
	// unconfirmed content.
	ref, err := s.contentStore.Put(ctx, PutRequest{
		Data:        req.Content,
		ContentType: contentType,
		Labels: map[string]string{
			"title": req.Title,
			"owner": callerID,
		},
	})
	if err != nil {
		return nil, err
	}

	version := Version{
		Number:      game.CurrentVersion + 1,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Content:     *ref,
		CreatedAt:   time.Now().UTC(),
	}

	// The expected current version was read when the game was loaded. A
	// racing save surfaces here as a conflict; the upload is not repeated
	// on conflict — the caller decides whether to retry.
	updated, err := s.repository.AppendVersion(ctx, game.ID, game.CurrentVersion, version)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *service) ForkGame(ctx context.Context, req ForkGameRequest) (*Game, error) {
	callerID, err := NormalizeWalletAddress(req.CallerID)
	if err != nil {
		return nil, err
	}

	source, err := s.repository.GetGame(ctx, req.SourceGameID)
	if err != nil {
		return nil, err
	}

	latest := source.LatestVersion()
	if latest == nil {
		return nil, &ValidationError{Field: "source_game_id", Reason: "source game has no versions"}
	}

	title := req.NewTitle
	if title == "" {
		title = source.Title + " (Fork)"
	}

	content, err := s.readContent(ctx, latest.Content.ID)
	if err != nil {
		return nil, err
	}
	if err := s.validateContent(content); err != nil {
		return nil, err
	}

	// A fork owns an independent copy, not an alias: the payload is stored
	// again under a fresh entry before the child game exists.
	ref, err := s.contentStore.Put(ctx, PutRequest{
		Data:        content,
		ContentType: DefaultContentType,
		Labels: map[string]string{
			"title":  title,
			"owner":  callerID,
			"forked": "true",
		},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sourceID := source.ID
	child := &Game{
		ID:             uuid.New(),
		OwnerID:        callerID,
		Title:          title,
		Description:    latest.Description,
		Tags:           latest.Tags,
		OriginalGameID: &sourceID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repository.CreateGame(ctx, child); err != nil {
		return nil, err
	}

	updated, err := s.repository.AppendVersion(ctx, child.ID, 0, Version{
		Number:      1,
		Title:       title,
		Description: latest.Description,
		Tags:        latest.Tags,
		Content:     *ref,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	// The fork count moves only once the child and its first version are
	// durable, and only through the repository's atomic increment.
	if _, err := s.repository.IncrementForkCount(ctx, source.ID); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *service) SetPublication(ctx context.Context, req SetPublicationRequest) (*Game, error) {
	callerID, err := NormalizeWalletAddress(req.CallerID)
	if err != nil {
		return nil, err
	}
	if !req.Channel.IsValid() {
		return nil, &ValidationError{Field: "channel", Reason: `must be "marketplace" or "community"`}
	}

	game, err := s.repository.GetGame(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if game.OwnerID != callerID {
		return nil, &AuthorizationError{GameID: game.ID, CallerID: callerID}
	}

	t := publicationTransition{Channel: req.Channel, Publish: req.Published}
	published, at := t.next(game, time.Now().UTC())

	return s.repository.SetPublicationFlag(ctx, game.ID, req.Channel, published, at)
}

func (s *service) GetGame(ctx context.Context, id uuid.UUID) (*Game, error) {
	return s.repository.GetGame(ctx, id)
}

func (s *service) ListGames(ctx context.Context, req ListGamesRequest) ([]*Game, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	switch {
	case req.OwnerID != "" && req.Channel != "":
		return nil, &ValidationError{Field: "filter", Reason: "owner and channel filters are mutually exclusive"}
	case req.OwnerID != "":
		ownerID, err := NormalizeWalletAddress(req.OwnerID)
		if err != nil {
			return nil, err
		}
		return s.repository.ListGamesByOwner(ctx, ownerID, page, limit)
	case req.Channel != "":
		if !req.Channel.IsValid() {
			return nil, &ValidationError{Field: "channel", Reason: `must be "marketplace" or "community"`}
		}
		return s.repository.ListGamesByChannel(ctx, req.Channel, page, limit, req.Search)
	default:
		return nil, &ValidationError{Field: "filter", Reason: "owner or channel filter is required"}
	}
}

func (s *service) DeleteGame(ctx context.Context, gameID uuid.UUID, callerID string) error {
	normalized, err := NormalizeWalletAddress(callerID)
	if err != nil {
		return err
	}

	game, err := s.repository.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.OwnerID != normalized {
		return &AuthorizationError{GameID: game.ID, CallerID: normalized}
	}

	// Backing content is intentionally left in the store; see the
	// ContentStore.Delete doc for the retention stance.
	return s.repository.DeleteGame(ctx, gameID)
}

func (s *service) readContent(ctx context.Context, id string) ([]byte, error) {
	rc, err := s.contentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", id, err)
	}
	return data, nil
}
