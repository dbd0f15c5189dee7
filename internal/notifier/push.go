package notifier

import (
	"net/http"

	"fintrack/internal/events"
	"fintrack/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PushRoutes serves Pub/Sub push deliveries. /pubsub/push receives live events
// and /pubsub/dead-letter receives the dead-letter topic's messages.
func PushRoutes(handle events.Handler, dlq DeadLetters, pushAuth func(http.Handler) http.Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LoggerMiddleware(logger))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Group(func(r chi.Router) {
		r.Use(pushAuth)
		r.Method(http.MethodPost, "/pubsub/push", events.PushHandler(handle, logger))
		r.Post("/pubsub/dead-letter", deadLetterHandler(dlq, logger))
	})
	return r
}

func deadLetterHandler(dlq DeadLetters, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := events.DecodePush(r.Body)
		if err != nil || env.Message.MessageID == "" {
			http.Error(w, "Invalid Pub/Sub message format", http.StatusBadRequest)
			return
		}

		var eventType string
		if e, err := events.Decode(env.Message.Data); err == nil {
			eventType = e.Type
		}
		log := logger.With().Str("message_id", env.Message.MessageID).Str("subscription", env.Subscription).Logger()
		if err := dlq.Record(r.Context(), "pubsub:"+env.Subscription, eventType, env.Message.Data, env.DeliveryAttempt(), nil); err != nil {
			// Still ack: a redelivered dead letter would only fail the same way.
			log.Error().Err(err).Msg("Failed to save dead-lettered message")
		} else {
			log.Info().Str("event_type", eventType).Msg("Recorded dead-lettered message")
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
