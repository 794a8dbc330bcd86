// Package config provides centralized configuration management for honodemo.
// Configuration is layered with viper:
// Layer 1: built-in defaults (SetDefaults)
// Layer 2: optional YAML config file (XDG config dir, ./config, or --config)
// Layer 3: HONODEMO_* environment variables, flags, and runtime overrides
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is used for config/data directory discovery and as the binary name.
	AppName = "honodemo"

	// EnvPrefix is prepended to environment variable overrides (HONODEMO_SERVER_PORT, ...).
	EnvPrefix = "HONODEMO"

	StoreDriverMemory = "memory"
	StoreDriverLibsql = "libsql"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.api_prefix", "/api")

	// Store defaults
	v.SetDefault("store.driver", StoreDriverMemory)
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")
	v.SetDefault("store.seed_file", "")

	// Auth defaults
	v.SetDefault("auth.token", "test-token")
	v.SetDefault("auth.admin_token", "")

	// Rate limit defaults: 5 requests per minute on the limited route
	v.SetDefault("ratelimit.backend", RateLimitBackendMemory)
	v.SetDefault("ratelimit.limit", 5)
	v.SetDefault("ratelimit.window", "60s")
	v.SetDefault("ratelimit.key_header", "")
	v.SetDefault("ratelimit.trust_forwarded_for", true)
	v.SetDefault("ratelimit.janitor_interval", "2m")
	v.SetDefault("ratelimit.idle_ttl", "0s")
	v.SetDefault("ratelimit.redis.addr", "localhost:6379")
	v.SetDefault("ratelimit.redis.password", "")
	v.SetDefault("ratelimit.redis.db", 0)
	v.SetDefault("ratelimit.redis.prefix", "honodemo:ratelimit")
	v.SetDefault("ratelimit.global.enabled", false)
	v.SetDefault("ratelimit.global.rps", 50.0)
	v.SetDefault("ratelimit.global.burst", 100)

	// CORS defaults mirror a permissive development setup
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "HEAD", "PUT", "POST", "DELETE", "PATCH"})
	v.SetDefault("cors.allowed_headers", []string{})
	v.SetDefault("cors.max_age", "0s")

	// Static fallback defaults (disabled)
	v.SetDefault("static.dir", "")
	v.SetDefault("static.index", "index.html")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)
}

// BindEnv wires HONODEMO_* environment variables onto the viper key space.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the global viper instance into a typed Config.
// It is safe to call multiple times (e.g., for config reload).
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	return LoadFrom(viper.GetViper(), runtimeOverrides...)
}

// LoadFrom decodes the provided viper instance into a typed Config.
// Runtime overrides take precedence over every other layer.
func LoadFrom(v *viper.Viper, runtimeOverrides ...map[string]any) (*Config, error) {
	if v == nil {
		return nil, fmt.Errorf("viper instance is required")
	}

	SetDefaults(v)

	for _, overrides := range runtimeOverrides {
		for key, value := range flatten("", overrides) {
			v.Set(key, value)
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToFloat64HookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	// Store the loaded config
	setConfig(cfg)

	return cfg, nil
}

// Validate reports configuration values the server cannot run with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	switch cfg.Store.Driver {
	case StoreDriverMemory, StoreDriverLibsql:
	default:
		return fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	switch cfg.RateLimit.Backend {
	case RateLimitBackendMemory, RateLimitBackendRedis:
	default:
		return fmt.Errorf("unsupported rate limit backend: %s", cfg.RateLimit.Backend)
	}

	if cfg.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", cfg.RateLimit.Limit)
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", cfg.RateLimit.Window)
	}

	if cfg.RateLimit.IdleTTL < cfg.RateLimit.Window {
		return fmt.Errorf("rate limit idle_ttl (%s) must not be shorter than the window (%s)", cfg.RateLimit.IdleTTL, cfg.RateLimit.Window)
	}

	if cfg.RateLimit.Global.Enabled {
		if cfg.RateLimit.Global.RPS <= 0 || cfg.RateLimit.Global.Burst <= 0 {
			return fmt.Errorf("global throttle requires positive rps and burst")
		}
	}

	if cfg.Server.APIPrefix != "" && !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
		return fmt.Errorf("api prefix must start with '/': %s", cfg.Server.APIPrefix)
	}

	return nil
}

func normalize(cfg *Config) {
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreDriverMemory
	}
	if cfg.Store.Driver == StoreDriverLibsql && strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))
	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = RateLimitBackendMemory
	}
	if cfg.RateLimit.IdleTTL <= 0 {
		cfg.RateLimit.IdleTTL = 2 * cfg.RateLimit.Window
	}

	cfg.Server.APIPrefix = strings.TrimRight(strings.TrimSpace(cfg.Server.APIPrefix), "/")

	if strings.TrimSpace(cfg.Static.Index) == "" {
		cfg.Static.Index = "index.html"
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigDir returns the XDG-compliant config directory for the app.
func DefaultConfigDir() string {
	return gfconfig.GetAppConfigDir(AppName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	dataDir := gfconfig.GetAppDataDir(AppName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + AppName + ".db"
	}
	return filepath.Join(dataDir, AppName+".db")
}

// flatten turns nested override maps into dotted viper keys.
func flatten(prefix string, in map[string]any) map[string]any {
	out := make(map[string]any)
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := in[k].(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = in[k]
	}
	return out
}
