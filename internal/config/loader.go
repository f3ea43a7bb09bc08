package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	for i, m := range cfg.Manifests {
		if m == "" {
			errs = append(errs, fmt.Errorf("manifests[%d] is empty", i))
		}
	}

	if !cfg.UseBuiltinSeeds() && len(cfg.Manifests) == 0 {
		slog.Warn("builtin_seeds is disabled and no manifests are configured; the catalog will be empty")
	}

	seen := make(map[string]int, len(cfg.Targets))
	for i, t := range cfg.Targets {
		prefix := fmt.Sprintf("targets[%d]", i)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := seen[t.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of targets[%d]", prefix, t.Name, prev))
			}
			seen[t.Name] = i
		}
		if t.MaxConns < 0 {
			errs = append(errs, fmt.Errorf("%s.max_conns must not be negative", prefix))
		}
		if t.Breaker.MaxFailures < 0 {
			errs = append(errs, fmt.Errorf("%s.breaker.max_failures must not be negative", prefix))
		}
		if t.Breaker.ResetTimeout < 0 {
			errs = append(errs, fmt.Errorf("%s.breaker.reset_timeout must not be negative", prefix))
		}

		switch t.Backend {
		case BackendPostgres:
			if t.PostgresDSN == "" {
				errs = append(errs, fmt.Errorf("%s.postgres_dsn is required for backend %q", prefix, t.Backend))
			}
		case BackendMemory:
			if t.PostgresDSN != "" {
				slog.Warn("postgres_dsn is ignored for the memory backend", "target", t.Name)
			}
		default:
			// Custom backends can be registered on the Registry, so an
			// unknown name is only a warning here.
			slog.Warn("unknown backend; it must be registered before targets are opened",
				"target", t.Name,
				"backend", t.Backend,
			)
		}
	}

	if len(cfg.Targets) == 0 {
		slog.Warn("no targets configured; nothing will be seeded")
	}

	return errors.Join(errs...)
}
