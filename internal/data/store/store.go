// Package store persists fetched games and rendered images in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/penwyp/go-mine-replay/internal/util"
)

// ErrNotFound is returned when a cache entry does not exist.
var ErrNotFound = errors.New("store: entry not found")

// Render is a cached image.
type Render struct {
	Key         string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Stats summarises the cache contents.
type Stats struct {
	Games   int   `json:"games"`
	Renders int   `json:"renders"`
	Bytes   int64 `json:"bytes"`
}

// Store wraps a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and runs migrations.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	util.LogDebugf("Opened replay store at %s", path)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			provider TEXT NOT NULL,
			game_id TEXT NOT NULL,
			payload BLOB NOT NULL,
			fetched_at TIMESTAMP NOT NULL,
			PRIMARY KEY (provider, game_id)
		)`,
		`CREATE TABLE IF NOT EXISTS renders (
			key TEXT PRIMARY KEY,
			content_type TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_renders_created ON renders(created_at)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit()
}

// SaveGame stores the provider payload for a game, replacing any previous one.
func (s *Store) SaveGame(ctx context.Context, provider, gameID string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (provider, game_id, payload, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(provider, game_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		provider, gameID, payload, s.now().UTC())
	if err != nil {
		return fmt.Errorf("save game %s/%s: %w", provider, gameID, err)
	}
	return nil
}

// LoadGame returns the stored payload for a game or ErrNotFound.
func (s *Store) LoadGame(ctx context.Context, provider, gameID string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM games WHERE provider = ? AND game_id = ?`, provider, gameID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s/%s: %w", provider, gameID, err)
	}
	return payload, nil
}

// SaveRender stores image bytes under key.
func (s *Store) SaveRender(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (key, content_type, data, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET content_type = excluded.content_type, data = excluded.data, created_at = excluded.created_at`,
		key, contentType, data, s.now().UTC())
	if err != nil {
		return fmt.Errorf("save render %s: %w", key, err)
	}
	return nil
}

// LoadRender returns the image stored under key or ErrNotFound.
func (s *Store) LoadRender(ctx context.Context, key string) (*Render, error) {
	r := &Render{Key: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT content_type, data, created_at FROM renders WHERE key = ?`, key).
		Scan(&r.ContentType, &r.Data, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load render %s: %w", key, err)
	}
	return r, nil
}

// PruneRenders deletes renders created before cutoff and returns how many
// were removed.
func (s *Store) PruneRenders(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM renders WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune renders: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts stored games and renders.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&st.Games); err != nil {
		return st, fmt.Errorf("count games: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0) FROM renders`).Scan(&st.Renders, &st.Bytes); err != nil {
		return st, fmt.Errorf("count renders: %w", err)
	}
	return st, nil
}

// RenderKey builds the cache key for a provider game rendered in mode with
// the atlas identified by atlasID at the given glyph size.
func RenderKey(provider, gameID, mode, atlasID string, glyphSize int) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d", provider, gameID, mode, atlasID, glyphSize)
}
