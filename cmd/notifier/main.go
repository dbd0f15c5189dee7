package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/mailer"
	"fintrack/internal/middleware"
	"fintrack/internal/notifier"
	"fintrack/internal/pgmq"
	"fintrack/internal/repository"
	"fintrack/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	mode := flag.String("mode", "", "Delivery mode: pull|push (defaults to NOTIFIER_MODE)")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}
	if *mode != "" {
		cfg.NotifierMode = *mode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := config.ResolveSecrets(ctx, cfg); err != nil {
		logger.Fatal().Msgf("Failed to resolve secrets: %v", err)
	}

	pool, err := repository.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	mail, err := mailer.New(cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to create mailer: %v", err)
	}
	prefs := service.NewPreferencesService(repository.NewPreferencesRepo(pool), repository.NewSettingsRepo(pool), logger)
	dlq := service.NewDLQService(repository.NewDLQRepository(pool), logger)
	n := notifier.New(mail, prefs, logger)

	log := logger.With().Str("mode", cfg.NotifierMode).Str("backend", cfg.EventsBackend).Logger()
	if err := run(ctx, cfg, pool, n.Handle, dlq, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Msgf("Notifier failed: %v", err)
	}
	log.Info().Msg("Notifier stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, handle events.Handler, dlq service.DLQService, logger zerolog.Logger) error {
	if cfg.NotifierMode == "push" {
		return servePush(ctx, cfg, handle, dlq, logger)
	}

	switch cfg.EventsBackend {
	case events.BackendPGMQ:
		client := pgmq.New(pool)
		for _, q := range []string{cfg.NotifierQueueName, cfg.NotifierDeadLetterQueueName} {
			if err := client.CreateQueue(ctx, q); err != nil {
				return err
			}
		}
		logger.Info().Str("queue", cfg.NotifierQueueName).Msg("Polling pgmq")
		return notifier.NewWorker(client, handle, dlq, notifier.WorkerConfigFrom(cfg), logger).Run(ctx)

	case events.BackendPubSub:
		sub, err := events.NewPubSubSubscriber(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer sub.Close()
		logger.Info().Str("subscription", cfg.PubSubSubscription).Msg("Receiving from Pub/Sub")
		return sub.Receive(ctx, handle)

	case events.BackendAMQP:
		client, err := events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		logger.Info().Str("queue", cfg.AMQPQueue).Msg("Consuming from AMQP")
		return client.Receive(ctx, handle)
	}

	logger.Warn().Msg("No events backend configured; nothing to consume")
	<-ctx.Done()
	return nil
}

func servePush(ctx context.Context, cfg *config.Config, handle events.Handler, dlq service.DLQService, logger zerolog.Logger) error {
	pushAuth := middleware.PushAuthMiddleware(middleware.PushAuth{
		SkipVerify:     cfg.PubSubEmulatorHost != "",
		Audience:       cfg.PubSubPushAudience,
		ServiceAccount: cfg.PubSubPushServiceAccount,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.NotifierPort,
		Handler:      notifier.PushRoutes(handle, dlq, pushAuth, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Push endpoint listening on port %s", cfg.NotifierPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
