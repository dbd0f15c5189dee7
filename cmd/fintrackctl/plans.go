package main

import (
	"encoding/json"
	"fmt"
	"os"

	"fintrack/internal/model"
	"fintrack/internal/repository"
	"fintrack/internal/service"

	"github.com/spf13/cobra"
)

func plansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage the subscription plan catalog",
	}
	cmd.AddCommand(plansSeedCmd())
	return cmd
}

func plansSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert plans from a JSON file",
		Long: `Upsert plans from a JSON array of plans. Plans are matched on
stripe_price_id, so running the seed twice is safe.`,
		Example: `  fintrackctl plans seed --file plans.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			plans, err := readPlans(file)
			if err != nil {
				return err
			}
			e, err := loadEnv(ctx)
			if err != nil {
				return err
			}
			pool, err := e.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := service.NewPlanService(repository.NewPlanRepo(pool), repository.NewSubscriptionRepo(pool), e.logger)
			n, err := svc.Seed(ctx, plans)
			if err != nil {
				return fmt.Errorf("seeded %d of %d plans: %w", n, len(plans), err)
			}
			e.logger.Info().Int("plans", n).Msg("Plan catalog seeded")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "plans.json", "path to the plans JSON file")
	return cmd
}

func readPlans(path string) ([]model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var plans []model.Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range plans {
		p := &plans[i]
		if p.Currency == "" {
			p.Currency = "brl"
		}
		if p.Interval == "" {
			p.Interval = "month"
		}
	}
	return plans, nil
}
