// Command seedkit seeds fixture data into one or more target stores.
//
// Usage:
//
//	seedkit types                       list entity types and their seeds
//	seedkit seed npc quest [--target dev]
//	seedkit seed --all
//	seedkit serve                       run the HTTP control API
//
// Every command takes --config (YAML) and --log-level. Without a config file
// a single in-memory target named "local" is used.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
