// Package config provides the configuration schema, loader, hot-reload
// watcher and storage backend registry for seedkit.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel converts l to a [slog.Level]. Empty and unknown values map to
// [slog.LevelInfo].
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Backend names a storage backend for a target.
type Backend string

const (
	// BackendMemory keeps fixtures in process memory.
	BackendMemory Backend = "memory"

	// BackendPostgres writes fixtures to a PostgreSQL database.
	BackendPostgres Backend = "postgres"
)

// IsValid reports whether b is a built-in backend name.
func (b Backend) IsValid() bool {
	return b == BackendMemory || b == BackendPostgres
}

// Config is the root configuration structure for seedkit.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	LogLevel  LogLevel        `yaml:"log_level"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Manifests lists YAML seed manifests loaded in addition to the
	// built-in seeds.
	Manifests []string `yaml:"manifests"`

	// BuiltinSeeds enables the Go-coded example seeds. Defaults to true.
	BuiltinSeeds *bool `yaml:"builtin_seeds"`

	Targets []TargetConfig `yaml:"targets"`
}

// UseBuiltinSeeds reports whether the built-in seeds should be registered.
func (c *Config) UseBuiltinSeeds() bool {
	return c.BuiltinSeeds == nil || *c.BuiltinSeeds
}

// Target returns the target named name, or nil.
func (c *Config) Target(name string) *TargetConfig {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i]
		}
	}
	return nil
}

// ServerConfig holds settings for the HTTP control surface.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on. Default ":8085".
	ListenAddr string `yaml:"listen_addr"`
}

// TelemetryConfig controls OpenTelemetry setup.
type TelemetryConfig struct {
	// ServiceName is reported in telemetry. Default "seedkit".
	ServiceName string `yaml:"service_name"`

	// Metrics exposes Prometheus metrics on /metrics when serving.
	Metrics bool `yaml:"metrics"`
}

// TargetConfig describes one fixture store that seeds are dispatched into.
// Each target gets its own seed session.
type TargetConfig struct {
	Name    string  `yaml:"name"`
	Backend Backend `yaml:"backend"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`

	// MaxConns caps the connection pool size. Zero uses the pgxpool default.
	MaxConns int32 `yaml:"max_conns"`

	// Migrate creates the fixture schema when the target is opened.
	Migrate bool `yaml:"migrate"`

	// Truncate empties the store when the target is opened.
	Truncate bool `yaml:"truncate"`

	// Breaker guards the store with a circuit breaker when MaxFailures is
	// positive.
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of a target's store.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive store failures that opens the
	// breaker. Zero disables the breaker.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeout is how long an open breaker rejects calls. Zero uses the
	// breaker default of 30s.
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// Enabled reports whether a breaker should be installed.
func (b BreakerConfig) Enabled() bool { return b.MaxFailures > 0 }

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr  = ":8085"
	DefaultServiceName = "seedkit"
)

// ApplyDefaults fills zero values in cfg with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
	for i := range cfg.Targets {
		if cfg.Targets[i].Backend == "" {
			cfg.Targets[i].Backend = BackendMemory
		}
	}
}
