package app

import (
	"fmt"
	"log/slog"

	"github.com/MrWong99/seedkit/internal/config"
	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/internal/manifest"
	"github.com/MrWong99/seedkit/internal/seeds"
	"github.com/MrWong99/seedkit/pkg/seed"
)

// BuildCatalog assembles the seed catalog for cfg: the built-in seeds when
// enabled, followed by the seeds declared in cfg.Manifests in file order.
func BuildCatalog(cfg *config.Config) (*seed.Catalog[fixture.Store], error) {
	var regs []seed.Registration[fixture.Store]
	if cfg.UseBuiltinSeeds() {
		regs = append(regs, seeds.Builtin.Registrations()...)
	}
	if len(cfg.Manifests) > 0 {
		m, err := manifest.LoadAll(cfg.Manifests...)
		if err != nil {
			return nil, fmt.Errorf("app: load manifests: %w", err)
		}
		regs = append(regs, m.Registrations()...)
	}

	catalog := seed.NewCatalog(regs...)
	slog.Debug("catalog built", "registrations", len(regs), "entity_types", catalog.Len())
	return catalog, nil
}
