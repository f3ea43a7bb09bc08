package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/seedkit/internal/config"
)

// cli holds the state shared by every subcommand. It is populated by the
// root command's PersistentPreRunE.
type cli struct {
	cfgFile  string
	logLevel string

	cfg   *config.Config
	level *slog.LevelVar

	// levelPinned is set when --log-level was given, so config reloads
	// leave the level alone.
	levelPinned bool
}

func newRootCmd() *cobra.Command {
	c := &cli{level: new(slog.LevelVar)}

	root := &cobra.Command{
		Use:   "seedkit",
		Short: "Seed fixture data with dependency-aware dispatch",
		Long: `seedkit runs registered seeds against fixture stores. Each entity type
is seeded at most once per target, and seeds can require other types
which are then seeded first.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "path to config file (YAML)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		flagLevel := config.LogLevel(strings.ToLower(c.logLevel))
		if !flagLevel.IsValid() {
			return fmt.Errorf("invalid --log-level %q; valid values: debug, info, warn, error", c.logLevel)
		}
		c.initLogger(cmd.ErrOrStderr(), flagLevel)

		cfg, err := c.loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// --log-level takes precedence over the config file.
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = flagLevel
			c.levelPinned = true
		}
		c.level.Set(cfg.LogLevel.SlogLevel())
		c.cfg = cfg
		return nil
	}

	root.AddCommand(c.typesCmd(), c.seedCmd(), c.serveCmd())
	return root
}

// loadConfig reads --config, or falls back to the defaults with one
// in-memory target.
func (c *cli) loadConfig() (*config.Config, error) {
	if c.cfgFile != "" {
		return config.Load(c.cfgFile)
	}
	cfg := &config.Config{
		Targets: []config.TargetConfig{{Name: "local", Backend: config.BackendMemory}},
	}
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger installs a text logger on w whose level can be changed later
// through c.level.
func (c *cli) initLogger(w io.Writer, level config.LogLevel) {
	c.level.Set(level.SlogLevel())
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.level})))
}
