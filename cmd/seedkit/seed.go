package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/seedkit/internal/app"
	"github.com/MrWong99/seedkit/pkg/seed"
)

func (c *cli) seedCmd() *cobra.Command {
	var (
		all     bool
		targets []string
	)
	cmd := &cobra.Command{
		Use:   "seed [type...]",
		Short: "Seed entity types into the configured targets",
		Long: `Seed dispatches each named entity type, together with everything it
requires, into every configured target (or only those named with --target).
With --all every registered type is seeded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass either entity types or --all")
			}
			ctx := cmd.Context()

			catalog, err := app.BuildCatalog(c.cfg)
			if err != nil {
				return err
			}
			a, err := app.New(ctx, c.cfg, app.NewRegistry(), catalog)
			if err != nil {
				return err
			}
			defer func() {
				shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				if err := a.Shutdown(shutCtx); err != nil {
					slog.Warn("shutdown error", "err", err)
				}
			}()

			types := make([]seed.EntityType, len(args))
			for i, arg := range args {
				if !catalog.Has(seed.EntityType(arg)) {
					slog.Warn("no seeds registered for entity type", "entity_type", arg)
				}
				types[i] = seed.EntityType(arg)
			}

			if err := a.SeedTargets(ctx, targets, types, all); err != nil {
				return err
			}
			for _, t := range a.Targets() {
				if len(targets) > 0 && !slices.Contains(targets, t.Name()) {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", t.Name(), t.Seeded())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "seed every registered entity type")
	cmd.Flags().StringSliceVar(&targets, "target", nil, "limit seeding to these targets (repeatable)")
	return cmd
}
