package config

import (
	"time"
)

// Config represents the complete application configuration.
// Values are layered: built-in defaults, then an optional YAML file,
// then HONODEMO_* environment variables and command-line flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Static    StaticConfig    `mapstructure:"static"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// APIPrefix is the mount point of the API group. Routes are also
	// served at the root for compatibility with the plain demo server.
	APIPrefix string `mapstructure:"api_prefix"`
}

// StoreConfig selects and configures the user/product store.
type StoreConfig struct {
	// Driver is "memory" or "libsql"
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`

	// SeedFile optionally replaces the built-in seed data
	SeedFile string `mapstructure:"seed_file"`
}

// AuthConfig configures the bearer-token gate of the protected group.
type AuthConfig struct {
	Token string `mapstructure:"token"`

	// AdminToken enables POST /admin/signal when set
	AdminToken string `mapstructure:"admin_token"`
}

// RateLimitConfig configures the per-route sliding window and the optional
// global throttle.
type RateLimitConfig struct {
	// Backend is "memory" or "redis"
	Backend string `mapstructure:"backend"`

	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`

	KeyHeader         string `mapstructure:"key_header"`
	TrustForwardedFor bool   `mapstructure:"trust_forwarded_for"`

	// JanitorInterval controls idle identifier eviction for the memory
	// backend. Zero disables eviction.
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`

	Redis  RedisConfig    `mapstructure:"redis"`
	Global ThrottleConfig `mapstructure:"global"`
}

// RedisConfig holds connection settings for the redis rate window backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ThrottleConfig configures the global token bucket.
type ThrottleConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// CORSConfig configures cross-origin headers.
type CORSConfig struct {
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	AllowedMethods []string      `mapstructure:"allowed_methods"`
	AllowedHeaders []string      `mapstructure:"allowed_headers"`
	MaxAge         time.Duration `mapstructure:"max_age"`
}

// StaticConfig configures the single-page-application fallback.
type StaticConfig struct {
	// Dir is the asset root. Empty disables the fallback.
	Dir   string `mapstructure:"dir"`
	Index string `mapstructure:"index"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}
