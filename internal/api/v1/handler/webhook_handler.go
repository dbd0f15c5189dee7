package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"fintrack/internal/service"

	"github.com/rs/zerolog"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 65536

// WebhookHandler receives Stripe events. It is a plain http handler because the
// signature is computed over the exact request bytes.
type WebhookHandler struct {
	stripeService *service.StripeService
	logger        zerolog.Logger
}

func NewWebhookHandler(stripeService *service.StripeService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{stripeService: stripeService, logger: logger}
}

func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	err = h.stripeService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrMissingUserMetadata),
		errors.Is(err, service.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		h.logger.Error().Err(err).Msg("Failed to process Stripe webhook")
		http.Error(w, "Webhook handler failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]bool{"received": true}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
