package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuan28064/Hono-demo/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./honodemo.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./honodemo.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		cfg := config.StoreConfig{}

		_, err := buildLibsqlDSN(cfg)
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		cfg := config.StoreConfig{Path: ":memory:"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestIsLocalDSN(t *testing.T) {
	require.True(t, isLocalDSN(":memory:"))
	require.True(t, isLocalDSN("file:./honodemo.db"))
	require.False(t, isLocalDSN("libsql://example.turso.io"))
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	require.False(t, isUniqueViolation(errors.New("no such table: users")))
	require.False(t, isUniqueViolation(nil))
}

func TestNilStoreRepositories(t *testing.T) {
	var s *Store
	_, err := s.Users().List(context.Background())
	require.Error(t, err)
	_, err = s.Products().Get(context.Background(), 1)
	require.Error(t, err)
}
