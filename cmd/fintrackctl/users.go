package main

import (
	"fmt"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/events"
	"fintrack/internal/repository"
	"fintrack/internal/service"

	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(usersPromoteCmd())
	return cmd
}

func usersPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadEnv(ctx)
			if err != nil {
				return err
			}
			pool, err := e.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			users := repository.NewUserRepo(pool)
			prefs := service.NewPreferencesService(repository.NewPreferencesRepo(pool), repository.NewSettingsRepo(pool), e.logger)
			svc := service.NewUserService(users, repository.NewSubscriptionRepo(pool), prefs,
				service.NewStripeGateway(e.cfg.StripeSecretKey, e.cfg.StripeReturnURL),
				auth.NewTokenManager(e.cfg.JWTSecret, time.Duration(e.cfg.JWTTTLHours)*time.Hour),
				events.NoopPublisher{}, e.logger)

			if err := svc.Promote(ctx, args[0]); err != nil {
				return fmt.Errorf("promote %s: %w", args[0], err)
			}
			e.logger.Info().Str("email", args[0]).Msg("User promoted to admin")
			return nil
		},
	}
}
