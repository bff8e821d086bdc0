package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/coachsync/internal/bootstrap"
	"github.com/aryan0dhankhar/coachsync/internal/featureflags"
	"github.com/aryan0dhankhar/coachsync/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/pkg/config"
	"github.com/aryan0dhankhar/coachsync/pkg/database"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "coachctl",
		Short:         "coachctl - maintenance tool for the CoachSync store",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(bootstrapCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(orgsCmd())
	rootCmd.AddCommand(hashPasswordCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is everything a store command needs.
type env struct {
	log         *slog.Logger
	pool        *database.ConnectionPool
	provisioner *bootstrap.Provisioner
	repos       *repository.Repositories
}

func (e *env) Close() { _ = e.pool.Close() }

// open connects to the configured store. Logs go to stderr so command
// output stays clean.
func open(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(os.Stderr, cfg.LogLevel)

	pool, err := database.NewConnectionPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	client := pool.Store()
	provisioner := bootstrap.New(client, log,
		bootstrap.WithRetry(cfg.BootstrapAttempts, 500*time.Millisecond),
		bootstrap.WithDemoOrganization(featureflags.Enabled(featureflags.SeedDemoOrg)),
	)
	return &env{
		log:         log,
		pool:        pool,
		provisioner: provisioner,
		repos:       repository.New(client, provisioner, log),
	}, nil
}
