package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/config"
	"fintrack/internal/logger"
	"fintrack/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "fintrackctl",
	Short:         "Operator tooling for fintrack",
	Long:          `fintrackctl runs database migrations, manages admin accounts, seeds the plan catalog and provisions event infrastructure.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(plansCmd())
	rootCmd.AddCommand(eventsCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env loads .env, the configuration and any Secret Manager references.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func loadEnv(ctx context.Context) (*env, error) {
	log := logger.New()
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.ResolveSecrets(ctx, cfg); err != nil {
		return nil, fmt.Errorf("resolve secrets: %w", err)
	}
	return &env{cfg: cfg, logger: log}, nil
}

func (e *env) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return repository.NewPool(ctx, e.cfg, e.logger)
}
