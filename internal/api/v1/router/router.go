package router

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"fintrack/internal/api/v1/handler"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/middleware"
	"fintrack/internal/repository"
	"fintrack/internal/service"
	"fintrack/internal/storage"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Handlers groups every endpoint implementation mounted by the router.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Category     *handler.CategoryHandler
	Transaction  *handler.TransactionHandler
	Plan         *handler.PlanHandler
	Subscription *handler.SubscriptionHandler
	Metrics      *handler.MetricsHandler
	Webhook      *handler.WebhookHandler
}

// New wires repositories, services and handlers on top of pool and returns the
// HTTP handler together with a function releasing the event publisher.
func New(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (http.Handler, func(), error) {
	publisher, err := events.NewPublisher(ctx, cfg, pool, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create event publisher: %w", err)
	}
	logger.Info().Str("backend", cfg.EventsBackend).Msg("Event publisher initialized")

	// A nil interface disables exports, so only assign a configured store.
	var store storage.ObjectStore
	if cfg.ExportEnabled() {
		s3Store, err := storage.NewS3Store(ctx, cfg)
		if err != nil {
			publisher.Close()
			return nil, nil, fmt.Errorf("create object store: %w", err)
		}
		store = s3Store
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("Transaction export enabled")
	}

	userRepo := repository.NewUserRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)
	planRepo := repository.NewPlanRepo(pool)
	categoryRepo := repository.NewCategoryRepo(pool)
	transactionRepo := repository.NewTransactionRepo(pool)
	settingsRepo := repository.NewSettingsRepo(pool)
	prefsRepo := repository.NewPreferencesRepo(pool)
	metricsRepo := repository.NewMetricsRepo(pool)
	dlqRepo := repository.NewDLQRepository(pool)

	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	gateway := service.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeReturnURL)

	prefsSvc := service.NewPreferencesService(prefsRepo, settingsRepo, logger)
	subSvc := service.NewSubscriptionService(subRepo, userRepo, planRepo, gateway, logger)
	userSvc := service.NewUserService(userRepo, subRepo, prefsSvc, gateway, tokens, publisher, logger)
	categorySvc := service.NewCategoryService(categoryRepo, subSvc, settingsRepo, logger)
	transactionSvc := service.NewTransactionService(transactionRepo, categoryRepo, subSvc, settingsRepo, logger)
	planSvc := service.NewPlanService(planRepo, subRepo, logger)
	settingsSvc := service.NewSettingsService(settingsRepo, logger)
	insightsSvc := service.NewInsightsService(transactionRepo, categoryRepo, prefsSvc, logger)
	exportSvc := service.NewExportService(transactionRepo, categoryRepo, store, logger)
	metricsSvc := service.NewMetricsService(metricsRepo, gateway, cfg.MetricsIncludeProviderCharges,
		time.Duration(cfg.MetricsRequestTimeoutSec)*time.Second, logger)
	dlqSvc := service.NewDLQService(dlqRepo, logger)
	if cfg.StripeWebhookSecret == "" {
		logger.Warn().Msg("STRIPE_WEBHOOK_SECRET is not set; Stripe webhooks will be rejected")
	}
	stripeSvc := service.NewStripeService(cfg.StripeWebhookSecret, gateway, subRepo, userRepo, publisher, logger)

	handlers := Handlers{
		Auth:         handler.NewAuthHandler(userSvc, logger),
		User:         handler.NewUserHandler(userSvc, prefsSvc, insightsSvc, exportSvc, logger),
		Category:     handler.NewCategoryHandler(categorySvc, logger),
		Transaction:  handler.NewTransactionHandler(transactionSvc, logger),
		Plan:         handler.NewPlanHandler(planSvc, settingsSvc, logger),
		Subscription: handler.NewSubscriptionHandler(subSvc, logger),
		Metrics:      handler.NewMetricsHandler(metricsSvc, dlqSvc, logger),
		Webhook:      handler.NewWebhookHandler(stripeSvc, logger),
	}
	authMiddleware := middleware.AuthMiddleware(tokens, userRepo, IsPublic, logger)

	closePublisher := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}
	return NewHandler(cfg, handlers, authMiddleware, logger), closePublisher, nil
}

// NewHandler mounts the handlers behind logging, CORS and authentication.
func NewHandler(cfg *config.Config, h Handlers, authMiddleware func(http.Handler) http.Handler, logger zerolog.Logger) http.Handler {
	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.LoggerMiddleware(logger))
	chiRouter.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)
	chiRouter.Use(authMiddleware)

	chiRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	// The webhook signature covers the raw body, so it bypasses Huma.
	chiRouter.Post("/api/webhooks/stripe", h.Webhook.HandleStripeWebhook)

	version := os.Getenv("GIT_COMMIT_SHA")
	if version == "" {
		version = "development"
	}
	humaConfig := huma.DefaultConfig("fintrack API", version)
	humaConfig.Info.Description = "Personal finance tracking with subscription billing"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}
	api := humachi.New(chiRouter, humaConfig)

	RegisterRoutes(api, h, logger)
	return chiRouter
}

var publicRoutes = map[string]bool{
	"POST /api/auth/register":   true,
	"POST /api/auth/login":      true,
	"GET /api/plans":            true,
	"POST /api/webhooks/stripe": true,
	"GET /healthz":              true,
}

// IsPublic reports whether a request is served without a session.
func IsPublic(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	if publicRoutes[r.Method+" "+r.URL.Path] {
		return true
	}
	p := r.URL.Path
	return p == "/docs" || strings.HasPrefix(p, "/openapi") || strings.HasPrefix(p, "/schemas")
}
