package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/core/memory"
	"github.com/tuan28064/Hono-demo/internal/ratelimit"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, APIPrefix: "/api"},
		Store:  config.StoreConfig{Driver: config.StoreDriverMemory},
		Auth:   config.AuthConfig{Token: "test-token"},
		RateLimit: config.RateLimitConfig{
			Backend: config.RateLimitBackendMemory,
			Limit:   5,
			Window:  time.Minute,
		},
		Static: config.StaticConfig{Index: "index.html"},
	}
}

func TestOpenRepositoriesMemory(t *testing.T) {
	ctx := context.Background()

	repos, err := openRepositories(ctx, memoryConfig())
	require.NoError(t, err)
	defer func() { _ = repos.close() }()

	assert.IsType(t, &memory.Users{}, repos.users)
	require.NotNil(t, repos.health)
	assert.NoError(t, repos.health.CheckHealth(ctx))

	users, err := repos.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	products, err := repos.products.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, products)
}

func TestOpenRepositoriesCustomSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := `users:
  - id: 1
    name: Solo
    email: solo@example.com
products: []
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	cfg := memoryConfig()
	cfg.Store.SeedFile = path

	repos, err := openRepositories(context.Background(), cfg)
	require.NoError(t, err)

	users, err := repos.users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Solo", users[0].Name)
}

func TestOpenRepositoriesMissingSeed(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := openRepositories(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildLimitersMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lims, err := buildLimiters(ctx, memoryConfig())
	require.NoError(t, err)

	assert.IsType(t, &ratelimit.Window{}, lims.window)
	assert.Nil(t, lims.throttle)
	assert.Nil(t, lims.health)
	assert.NoError(t, lims.close())
}

func TestBuildLimitersThrottle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := memoryConfig()
	cfg.RateLimit.Global = config.ThrottleConfig{Enabled: true, RPS: 10, Burst: 20}

	lims, err := buildLimiters(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, lims.throttle)
	assert.Equal(t, 20, lims.throttle.Burst())
}

func TestBuildLimitersRedisUnreachable(t *testing.T) {
	cfg := memoryConfig()
	cfg.RateLimit.Backend = config.RateLimitBackendRedis
	cfg.RateLimit.Redis.Addr = "127.0.0.1:1"

	_, err := buildLimiters(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRouteListing(t *testing.T) {
	listing, err := routeListing(memoryConfig())
	require.NoError(t, err)

	seen := make(map[string]bool, len(listing))
	for _, r := range listing {
		pattern := r.Pattern
		if pattern != "/" {
			pattern = strings.TrimSuffix(pattern, "/")
		}
		seen[r.Method+" "+pattern] = true
	}

	for _, want := range []string{
		"GET /",
		"GET /users",
		"POST /users",
		"GET /search",
		"GET /api/users/{id}",
		"GET /protected/profile",
		"GET /limited",
		"GET /health",
	} {
		assert.True(t, seen[want], "missing route %s", want)
	}
}

func TestStaticFS(t *testing.T) {
	assert.Nil(t, staticFS(config.StaticConfig{}))
	assert.Nil(t, staticFS(config.StaticConfig{Dir: filepath.Join(t.TempDir(), "nope")}))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o600))
	fsys := staticFS(config.StaticConfig{Dir: dir})
	require.NotNil(t, fsys)

	_, err := fsys.Open("index.html")
	assert.NoError(t, err)
}

func TestProbeHealthURL(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	ctx := context.Background()
	assert.NoError(t, probeHealthURL(ctx, healthy.URL+"/"))
	assert.Error(t, probeHealthURL(ctx, unhealthy.URL))
}
