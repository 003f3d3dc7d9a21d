package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"attuned-server/game"
	"attuned-server/gameerrors"
	"attuned-server/profile"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS game_sessions (
	id              UUID PRIMARY KEY,
	owner_identity  TEXT NOT NULL,
	owner_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
	unlimited       BOOLEAN NOT NULL DEFAULT FALSE,
	players         JSONB NOT NULL,
	settings        JSONB NOT NULL,
	state           JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_game_sessions_owner ON game_sessions(owner_identity);
CREATE TABLE IF NOT EXISTS user_activity_history (
	id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	identity          TEXT NOT NULL,
	session_id        UUID NOT NULL,
	item_id           TEXT NOT NULL,
	activity_type     TEXT NOT NULL,
	primary_player_id TEXT,
	played_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_activity_history_identity ON user_activity_history(identity, played_at DESC);
CREATE INDEX IF NOT EXISTS idx_activity_history_primary ON user_activity_history(primary_player_id, played_at DESC);
CREATE INDEX IF NOT EXISTS idx_activity_history_session ON user_activity_history(session_id);
CREATE TABLE IF NOT EXISTS users (
	id                TEXT PRIMARY KEY,
	display_name      TEXT NOT NULL DEFAULT '',
	subscription_tier TEXT NOT NULL DEFAULT 'free',
	anatomy           JSONB NOT NULL DEFAULT '[]',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS player_profiles (
	user_id    TEXT PRIMARY KEY,
	profile    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store persists sessions, play history, users and profiles in
// Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the schema exists. If
// databaseURL is empty, NewStore returns (nil, nil) and callers should
// fall back to the in-memory store.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Pool exposes the underlying pool so other components (the activity
// bank) can share the connection.
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// SaveSession inserts or updates the full session row. Players,
// settings and turn state travel as JSONB.
func (s *Store) SaveSession(ctx context.Context, sess *game.Session) error {
	if s == nil || s.pool == nil {
		return errors.New("storage: no database configured")
	}
	players, err := json.Marshal(sess.Players)
	if err != nil {
		return err
	}
	settings, err := json.Marshal(sess.Settings)
	if err != nil {
		return err
	}
	state, err := json.Marshal(sess.State)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_sessions (id, owner_identity, owner_anonymous, unlimited, players, settings, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			players = EXCLUDED.players,
			settings = EXCLUDED.settings,
			state = EXCLUDED.state,
			updated_at = now()`,
		sess.ID, sess.OwnerIdentity, sess.OwnerAnonymous, sess.Unlimited, players, settings, state, sess.CreatedAt)
	return err
}

// GetSession loads a session, with its turn state migrated to the
// current version.
func (s *Store) GetSession(ctx context.Context, id string) (*game.Session, error) {
	if s == nil || s.pool == nil {
		return nil, gameerrors.ErrSessionNotFound
	}
	var (
		sess                     game.Session
		players, settings, state []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_identity, owner_anonymous, unlimited, players, settings, state, created_at
		FROM game_sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.OwnerIdentity, &sess.OwnerAnonymous, &sess.Unlimited, &players, &settings, &state, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gameerrors.ErrSessionNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(players, &sess.Players); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settings, &sess.Settings); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(state, &sess.State); err != nil {
		return nil, err
	}
	game.MigrateTurnState(&sess.State)
	return &sess, nil
}

// RecordPlay appends one consumed turn to the history table.
func (s *Store) RecordPlay(ctx context.Context, rec game.PlayRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	playedAt := rec.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_activity_history (identity, session_id, item_id, activity_type, primary_player_id, played_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Identity, rec.SessionID, rec.ItemID, string(rec.Type), rec.PrimaryPlayerID, playedAt)
	return err
}

// RecentItemIDs returns the player's most recently played item ids,
// newest first.
func (s *Store) RecentItemIDs(ctx context.Context, playerID string, limit int) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT item_id FROM user_activity_history
		WHERE primary_player_id = $1
		ORDER BY played_at DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetUser returns (nil, nil) when the id is unknown.
func (s *Store) GetUser(ctx context.Context, id string) (*game.User, error) {
	if s == nil || s.pool == nil || id == "" {
		return nil, nil
	}
	var (
		u       game.User
		anatomy []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, display_name, subscription_tier, anatomy FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.DisplayName, &u.SubscriptionTier, &anatomy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(anatomy, &u.Anatomy); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetProfile returns (nil, nil) when the player has no stored profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	if s == nil || s.pool == nil || userID == "" {
		return nil, nil
	}
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT profile FROM player_profiles WHERE user_id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var p profile.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
