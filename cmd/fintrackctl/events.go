package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/events"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"
)

const topicRetention = 7 * 24 * time.Hour

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Provision event infrastructure",
	}
	cmd.AddCommand(eventsSetupCmd())
	return cmd
}

func eventsSetupCmd() *cobra.Command {
	var (
		pushEndpoint string
		maxAttempts  int
		reset        bool
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the Pub/Sub topics and the notifier subscription",
		Long: `Create the events topic, its dead-letter topic and the notifier
subscription. Existing resources are checked and updated in place.

With --push-endpoint the subscription delivers to the notifier's push
endpoint; otherwise it is a pull subscription.`,
		Example: `  fintrackctl events setup
  fintrackctl events setup --push-endpoint https://notifier.example.com/push --max-attempts 10
  PUBSUB_EMULATOR_HOST=localhost:8085 fintrackctl events setup --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			e, err := loadEnv(ctx)
			if err != nil {
				return err
			}
			if e.cfg.GCPProjectID == "" {
				return errors.New("GCP_PROJECT_ID is not set")
			}
			if reset && e.cfg.PubSubEmulatorHost == "" {
				return errors.New("--reset is only allowed against the Pub/Sub emulator")
			}

			client, err := pubsub.NewClient(ctx, e.cfg.GCPProjectID, events.PubSubClientOptions(e.cfg)...)
			if err != nil {
				return fmt.Errorf("create pubsub client: %w", err)
			}
			defer func() {
				if err := client.Close(); err != nil {
					e.logger.Error().Msgf("Failed to close pubsub client: %v", err)
				}
			}()

			if reset {
				if err := resetEmulator(ctx, client, e.logger); err != nil {
					return err
				}
			}

			topicID := e.cfg.PubSubTopic
			dlqTopic, err := ensureTopic(ctx, client, topicID+"-dlq", e.logger)
			if err != nil {
				return err
			}
			mainTopic, err := ensureTopic(ctx, client, topicID, e.logger)
			if err != nil {
				return err
			}

			subCfg := pubsub.SubscriptionConfig{
				Topic:            mainTopic,
				PushConfig:       pubsub.PushConfig{Endpoint: pushEndpoint},
				AckDeadline:      60 * time.Second,
				ExpirationPolicy: time.Duration(0),
				RetryPolicy: &pubsub.RetryPolicy{
					MinimumBackoff: 10 * time.Second,
					MaximumBackoff: 600 * time.Second,
				},
				DeadLetterPolicy: &pubsub.DeadLetterPolicy{
					DeadLetterTopic:     dlqTopic.String(),
					MaxDeliveryAttempts: maxAttempts,
				},
			}
			if err := ensureSubscription(ctx, client, e.cfg.PubSubSubscription, subCfg, e.logger); err != nil {
				return err
			}
			if err := ensureSubscription(ctx, client, e.cfg.PubSubSubscription+"-dlq", pubsub.SubscriptionConfig{
				Topic:       dlqTopic,
				AckDeadline: 60 * time.Second,
			}, e.logger); err != nil {
				return err
			}

			e.logger.Info().Str("topic", topicID).Str("subscription", e.cfg.PubSubSubscription).Msg("Pub/Sub setup complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&pushEndpoint, "push-endpoint", "", "deliver to this URL instead of creating a pull subscription")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 5, "delivery attempts before a message is dead-lettered (5-100)")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete every topic and subscription first (emulator only)")
	return cmd
}

// resetEmulator deletes all subscriptions and topics in the project.
func resetEmulator(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) error {
	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("list subscriptions: %w", err)
		}
		logger.Info().Msgf("Deleting subscription: %s", sub.ID())
		if err := sub.Delete(ctx); err != nil {
			logger.Warn().Msgf("Failed to delete subscription %s: %v", sub.ID(), err)
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}
		logger.Info().Msgf("Deleting topic: %s", topic.ID())
		if err := topic.Delete(ctx); err != nil {
			logger.Warn().Msgf("Failed to delete topic %s: %v", topic.ID(), err)
		}
	}
	return nil
}

func ensureTopic(ctx context.Context, client *pubsub.Client, topicID string, logger zerolog.Logger) (*pubsub.Topic, error) {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", topicID, err)
	}
	if !exists {
		logger.Info().Msgf("Creating topic: %s with %v retention", topicID, topicRetention)
		return client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: topicRetention})
	}

	cfg, err := topic.Config(ctx)
	if err != nil {
		return nil, fmt.Errorf("read topic %s: %w", topicID, err)
	}
	if cfg.RetentionDuration != topicRetention {
		logger.Warn().Msgf("Topic %s retention is %v, expected %v", topicID, cfg.RetentionDuration, topicRetention)
	}
	return topic, nil
}

func ensureSubscription(ctx context.Context, client *pubsub.Client, subID string, want pubsub.SubscriptionConfig, logger zerolog.Logger) error {
	sub := client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check subscription %s: %w", subID, err)
	}
	if !exists {
		logger.Info().Msgf("Creating subscription %s", subID)
		if _, err := client.CreateSubscription(ctx, subID, want); err != nil {
			return fmt.Errorf("create subscription %s: %w", subID, err)
		}
		return nil
	}

	have, err := sub.Config(ctx)
	if err != nil {
		return fmt.Errorf("read subscription %s: %w", subID, err)
	}
	update := pubsub.SubscriptionConfigToUpdate{}
	changed := false
	if have.PushConfig.Endpoint != want.PushConfig.Endpoint {
		update.PushConfig = &want.PushConfig
		changed = true
	}
	if have.AckDeadline != want.AckDeadline {
		update.AckDeadline = want.AckDeadline
		changed = true
	}
	if want.RetryPolicy != nil && (have.RetryPolicy == nil || *have.RetryPolicy != *want.RetryPolicy) {
		update.RetryPolicy = want.RetryPolicy
		changed = true
	}
	if want.DeadLetterPolicy != nil && (have.DeadLetterPolicy == nil ||
		have.DeadLetterPolicy.DeadLetterTopic != want.DeadLetterPolicy.DeadLetterTopic ||
		have.DeadLetterPolicy.MaxDeliveryAttempts != want.DeadLetterPolicy.MaxDeliveryAttempts) {
		update.DeadLetterPolicy = want.DeadLetterPolicy
		changed = true
	}
	if !changed {
		logger.Info().Msgf("Subscription %s is up to date", subID)
		return nil
	}

	logger.Info().Msgf("Updating subscription %s", subID)
	if _, err := sub.Update(ctx, update); err != nil {
		return fmt.Errorf("update subscription %s: %w", subID, err)
	}
	return nil
}
