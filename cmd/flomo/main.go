package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/4thel00z/flomo-importer/internal"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	rootCmd := NewRootCmd(version, newApp())
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

// serviceFunc builds the sync service for the vault a command targets.
type serviceFunc func(cmd *cobra.Command) (*internal.SyncService, error)

type app struct {
	resolver *internal.VaultResolver
	services map[string]*internal.SyncService
}

func newApp() *app {
	return &app{
		resolver: internal.NewVaultResolver(),
		services: make(map[string]*internal.SyncService),
	}
}

// service resolves the vault from --vault and caches one service per vault,
// so the run-in-progress guard is shared inside a process.
func (a *app) service(cmd *cobra.Command) (*internal.SyncService, error) {
	vaultFlag, _ := cmd.Flags().GetString("vault")
	verbose, _ := cmd.Flags().GetBool("verbose")

	vault, err := a.resolver.Resolve(vaultFlag)
	if err != nil {
		return nil, fmt.Errorf("resolve vault: %w", err)
	}
	if svc, ok := a.services[vault.Path]; ok {
		return svc, nil
	}

	logger, err := internal.NewLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	svc, err := internal.NewSyncService(vault.Filesystem(), logger, time.Now)
	if err != nil {
		return nil, err
	}
	a.services[vault.Path] = svc
	return svc, nil
}
