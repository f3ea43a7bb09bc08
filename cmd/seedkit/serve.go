package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/seedkit/internal/app"
	"github.com/MrWong99/seedkit/internal/config"
	"github.com/MrWong99/seedkit/internal/observe"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control API",
		Long: `Serve exposes the configured targets over HTTP so they can be seeded
and reset remotely. Prometheus metrics are served on /metrics when
telemetry.metrics is enabled. The config file is watched and log level
changes are applied without a restart. The server shuts down cleanly on
SIGTERM or SIGINT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Server.ListenAddr = addr
			}
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "listen", "", "listen address (overrides server.listen_addr)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	var opts []app.Option
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    c.cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Metrics:        c.cfg.Telemetry.Metrics,
	})
	if err != nil {
		slog.Warn("telemetry init failed; continuing without it", "err", err)
	} else {
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(shutCtx); err != nil {
				slog.Warn("telemetry shutdown error", "err", err)
			}
		}()
		if tel.MetricsHandler != nil {
			opts = append(opts, app.WithHandler("GET /metrics", tel.MetricsHandler))
		}
	}

	catalog, err := app.BuildCatalog(c.cfg)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, c.cfg, app.NewRegistry(), catalog, opts...)
	if err != nil {
		return err
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := a.Shutdown(shutCtx); err != nil {
			slog.Warn("shutdown error", "err", err)
		}
	}()

	if c.cfgFile != "" {
		w, err := config.NewWatcher(c.cfgFile, c.onConfigChange)
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			defer w.Stop()
		}
	}

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// onConfigChange applies what can change at runtime and reports the rest.
func (c *cli) onConfigChange(old, next *config.Config) {
	d := config.Diff(old, next)
	if d.LogLevelChanged && !c.levelPinned {
		c.level.Set(d.NewLogLevel.SlogLevel())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.RequiresRestart() {
		slog.Warn("config changes need a restart to take effect",
			"manifests", d.ManifestsChanged,
			"builtin_seeds", d.BuiltinSeedsChanged,
			"listen_addr", d.ListenAddrChanged,
			"targets", len(d.TargetChanges),
		)
	}
}
