package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/canvasforge/gamevault/pkg/gamevault"
)

// DB is the subset of pgxpool.Pool the repository needs. Accepting the
// interface keeps tests free to substitute a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository implements gamevault.Repository using PostgreSQL
type Repository struct {
	db DB
}

// New creates a new PostgreSQL repository
func New(db DB) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Schema holds the DDL for the two tables the repository uses. Applied by
// InitSchema; production deployments normally run it through their own
// migration tooling instead.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
    id                       UUID PRIMARY KEY,
    owner_id                 TEXT NOT NULL,
    title                    TEXT NOT NULL DEFAULT '',
    description              TEXT NOT NULL DEFAULT '',
    tags                     TEXT[] NOT NULL DEFAULT '{}',
    current_version          INT NOT NULL DEFAULT 0,
    published_to_marketplace BOOLEAN NOT NULL DEFAULT FALSE,
    marketplace_published_at TIMESTAMPTZ,
    published_to_community   BOOLEAN NOT NULL DEFAULT FALSE,
    community_published_at   TIMESTAMPTZ,
    fork_count               INT NOT NULL DEFAULT 0,
    original_game_id         UUID,
    created_at               TIMESTAMPTZ NOT NULL,
    updated_at               TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_owner ON games (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS game_versions (
    game_id      UUID NOT NULL REFERENCES games (id) ON DELETE CASCADE,
    number       INT NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    tags         TEXT[] NOT NULL DEFAULT '{}',
    content_id   TEXT NOT NULL,
    content_url  TEXT NOT NULL,
    content_size BIGINT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (game_id, number)
);
`

// InitSchema creates the tables if they do not exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return r.wrapError("init schema", err)
	}
	return nil
}

func (r *Repository) wrapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return &gamevault.RepositoryError{Op: op, Err: fmt.Errorf("duplicate entry: %s", pgErr.ConstraintName)}
		case "23503": // foreign_key_violation
			return &gamevault.RepositoryError{Op: op, Err: errors.New("referenced record not found")}
		case "42P01": // undefined_table
			return &gamevault.RepositoryError{Op: op, Err: errors.New("table does not exist - database migration required")}
		}
	}
	return &gamevault.RepositoryError{Op: op, Err: err}
}

const gameColumns = `id, owner_id, title, description, tags, current_version,
       published_to_marketplace, marketplace_published_at,
       published_to_community, community_published_at,
       fork_count, original_game_id, created_at, updated_at`

func scanGame(row pgx.Row) (*gamevault.Game, error) {
	var game gamevault.Game
	err := row.Scan(
		&game.ID, &game.OwnerID, &game.Title, &game.Description, &game.Tags,
		&game.CurrentVersion,
		&game.PublishedToMarketplace, &game.MarketplacePublishedAt,
		&game.PublishedToCommunity, &game.CommunityPublishedAt,
		&game.ForkCount, &game.OriginalGameID, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *Repository) CreateGame(ctx context.Context, game *gamevault.Game) error {
	query := `
		INSERT INTO games (
			id, owner_id, title, description, tags, current_version,
			published_to_marketplace, marketplace_published_at,
			published_to_community, community_published_at,
			fork_count, original_game_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		game.ID, game.OwnerID, game.Title, game.Description, tagsOrEmpty(game.Tags),
		game.CurrentVersion,
		game.PublishedToMarketplace, game.MarketplacePublishedAt,
		game.PublishedToCommunity, game.CommunityPublishedAt,
		game.ForkCount, game.OriginalGameID, game.CreatedAt, game.UpdatedAt)
	if err != nil {
		return r.wrapError("create game", err)
	}

	return nil
}

func (r *Repository) GetGame(ctx context.Context, id uuid.UUID) (*gamevault.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game, err := scanGame(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gamevault.ErrGameNotFound
		}
		return nil, r.wrapError("get game", err)
	}

	versions, err := r.loadVersions(ctx, r.db, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	game.Versions = versions[id]

	return game, nil
}

func (r *Repository) AppendVersion(ctx context.Context, gameID uuid.UUID, expectedCurrentVersion int, version gamevault.Version) (*gamevault.Game, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, r.wrapError("append version", err)
	}
	defer tx.Rollback(ctx)

	version.Number = expectedCurrentVersion + 1

	// The compare-and-bump on current_version is the sole serialization
	// point for concurrent saves: a racing append sees zero rows here.
	tag, err := tx.Exec(ctx, `
		UPDATE games SET
			current_version = $3, title = $4, description = $5, tags = $6,
			updated_at = $7
		WHERE id = $1 AND current_version = $2`,
		gameID, expectedCurrentVersion, version.Number,
		version.Title, version.Description, tagsOrEmpty(version.Tags),
		time.Now().UTC())
	if err != nil {
		return nil, r.wrapError("append version", err)
	}
	if tag.RowsAffected() == 0 {
		var actual int
		err := r.db.QueryRow(ctx, `SELECT current_version FROM games WHERE id = $1`, gameID).Scan(&actual)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gamevault.ErrGameNotFound
		}
		if err != nil {
			return nil, r.wrapError("append version", err)
		}
		return nil, &gamevault.ConcurrencyConflictError{
			GameID:   gameID,
			Expected: expectedCurrentVersion,
			Actual:   actual,
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO game_versions (
			game_id, number, title, description, tags,
			content_id, content_url, content_size, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		gameID, version.Number, version.Title, version.Description,
		tagsOrEmpty(version.Tags),
		version.Content.ID, version.Content.URL, version.Content.SizeBytes,
		version.CreatedAt)
	if err != nil {
		return nil, r.wrapError("append version", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, r.wrapError("append version", err)
	}

	return r.GetGame(ctx, gameID)
}

func (r *Repository) IncrementForkCount(ctx context.Context, gameID uuid.UUID) (int, error) {
	// Single-statement increment; never read-modify-write.
	var count int
	err := r.db.QueryRow(ctx, `
		UPDATE games SET fork_count = fork_count + 1, updated_at = $2
		WHERE id = $1
		RETURNING fork_count`,
		gameID, time.Now().UTC()).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, gamevault.ErrGameNotFound
		}
		return 0, r.wrapError("increment fork count", err)
	}

	return count, nil
}

func (r *Repository) SetPublicationFlag(ctx context.Context, gameID uuid.UUID, channel gamevault.Channel, published bool, publishedAt *time.Time) (*gamevault.Game, error) {
	var query string
	switch channel {
	case gamevault.ChannelMarketplace:
		query = `UPDATE games SET published_to_marketplace = $2, marketplace_published_at = $3, updated_at = $4 WHERE id = $1`
	case gamevault.ChannelCommunity:
		query = `UPDATE games SET published_to_community = $2, community_published_at = $3, updated_at = $4 WHERE id = $1`
	default:
		return nil, &gamevault.ValidationError{Field: "channel", Reason: "unknown channel"}
	}

	tag, err := r.db.Exec(ctx, query, gameID, published, publishedAt, time.Now().UTC())
	if err != nil {
		return nil, r.wrapError("set publication flag", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, gamevault.ErrGameNotFound
	}

	return r.GetGame(ctx, gameID)
}

func (r *Repository) ListGamesByOwner(ctx context.Context, ownerID string, page, limit int) ([]*gamevault.Game, error) {
	query := `SELECT ` + gameColumns + `
		FROM games WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.listGames(ctx, "list games by owner", query, ownerID, limit, (page-1)*limit)
}

func (r *Repository) ListGamesByChannel(ctx context.Context, channel gamevault.Channel, page, limit int, search string) ([]*gamevault.Game, error) {
	var flagCol, atCol string
	switch channel {
	case gamevault.ChannelMarketplace:
		flagCol, atCol = "published_to_marketplace", "marketplace_published_at"
	case gamevault.ChannelCommunity:
		flagCol, atCol = "published_to_community", "community_published_at"
	default:
		return nil, &gamevault.ValidationError{Field: "channel", Reason: "unknown channel"}
	}

	query := `SELECT ` + gameColumns + `
		FROM games WHERE ` + flagCol + `
		AND ($1 = '' OR title ILIKE '%' || $1 || '%'
		     OR description ILIKE '%' || $1 || '%'
		     OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE '%' || $1 || '%'))
		ORDER BY ` + atCol + ` DESC
		LIMIT $2 OFFSET $3`

	return r.listGames(ctx, "list games by channel", query, search, limit, (page-1)*limit)
}

func (r *Repository) listGames(ctx context.Context, op, query string, args ...interface{}) ([]*gamevault.Game, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.wrapError(op, err)
	}
	defer rows.Close()

	var games []*gamevault.Game
	var ids []uuid.UUID
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, r.wrapError(op, err)
		}
		games = append(games, game)
		ids = append(ids, game.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapError(op, err)
	}
	if len(games) == 0 {
		return nil, nil
	}

	versions, err := r.loadVersions(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, game := range games {
		game.Versions = versions[game.ID]
	}

	return games, nil
}

func (r *Repository) DeleteGame(ctx context.Context, gameID uuid.UUID) error {
	// game_versions rows go with the game via ON DELETE CASCADE.
	tag, err := r.db.Exec(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return r.wrapError("delete game", err)
	}
	if tag.RowsAffected() == 0 {
		return gamevault.ErrGameNotFound
	}

	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (r *Repository) loadVersions(ctx context.Context, q querier, gameIDs []uuid.UUID) (map[uuid.UUID][]gamevault.Version, error) {
	rows, err := q.Query(ctx, `
		SELECT game_id, number, title, description, tags,
		       content_id, content_url, content_size, created_at
		FROM game_versions
		WHERE game_id = ANY($1)
		ORDER BY game_id, number`,
		gameIDs)
	if err != nil {
		return nil, r.wrapError("load versions", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]gamevault.Version, len(gameIDs))
	for rows.Next() {
		var gameID uuid.UUID
		var v gamevault.Version
		if err := rows.Scan(
			&gameID, &v.Number, &v.Title, &v.Description, &v.Tags,
			&v.Content.ID, &v.Content.URL, &v.Content.SizeBytes, &v.CreatedAt); err != nil {
			return nil, r.wrapError("load versions", err)
		}
		result[gameID] = append(result[gameID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapError("load versions", err)
	}

	return result, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
