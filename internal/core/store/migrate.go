package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tuan28064/Hono-demo/internal/core"
)

const metaSeededAt = "seeded_at"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		price REAL NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}

// SeedOnce loads seed data the first time it runs against a database and is
// a no-op afterwards. It reports whether rows were inserted.
func (s *Store) SeedOnce(ctx context.Context, seed *core.Seed) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if seed == nil {
		return false, nil
	}

	seededAt, err := s.GetMeta(ctx, metaSeededAt)
	if err != nil {
		return false, err
	}
	if seededAt != "" {
		return false, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().UnixMilli()
	for _, u := range seed.Users {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, name, email, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, u.ID, u.Name, u.Email, now, now); err != nil {
			return false, fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}
	for _, p := range seed.Products {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, price)
			VALUES (?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, p.ID, p.Name, p.Price); err != nil {
			return false, fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}
	if err := setMeta(ctx, tx, metaSeededAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SetMeta stores a metadata key/value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	return setMeta(ctx, s.DB, key, value)
}

func setMeta(ctx context.Context, db execer, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("meta key is required")
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO store_meta (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("store meta: %w", err)
	}
	return nil
}

// GetMeta returns a metadata value, or "" when unset.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	if s == nil || s.DB == nil {
		return "", errors.New("store is not initialized")
	}

	if strings.TrimSpace(key) == "" {
		return "", errors.New("meta key is required")
	}

	var value string
	if err := s.DB.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = ?`, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("fetch meta: %w", err)
	}

	return value, nil
}
