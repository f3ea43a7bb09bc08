package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/seedkit/internal/config"
	"github.com/MrWong99/seedkit/internal/fixture"
)

// NewRegistry returns a backend registry with the built-in memory and
// postgres backends registered.
func NewRegistry() *config.Registry {
	reg := config.NewRegistry()
	reg.Register(config.BackendMemory, openMemory)
	reg.Register(config.BackendPostgres, openPostgres)
	return reg
}

func openMemory(context.Context, config.TargetConfig) (fixture.Store, func(), error) {
	return &fixture.MemStore{}, nil, nil
}

// openPostgres connects a pool to tc.PostgresDSN, verifies it with a ping and
// creates the fixture schema when tc.Migrate is set.
func openPostgres(ctx context.Context, tc config.TargetConfig) (fixture.Store, func(), error) {
	cfg, err := pgxpool.ParseConfig(tc.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres backend: parse dsn: %w", err)
	}
	if tc.MaxConns > 0 {
		cfg.MaxConns = tc.MaxConns
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = "seedkit"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres backend: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres backend: ping: %w", err)
	}

	store := fixture.NewPostgresStore(pool)
	if tc.Migrate {
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres backend: migrate: %w", err)
		}
	}
	return store, pool.Close, nil
}
