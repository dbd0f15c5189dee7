package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

// PushAuth describes who may deliver Pub/Sub push requests.
type PushAuth struct {
	// SkipVerify disables the check for local emulator setups.
	SkipVerify     bool
	Audience       string
	ServiceAccount string
	// Validate defaults to idtoken.Validate.
	Validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// PushAuthMiddleware accepts only push deliveries whose OIDC token was minted
// for cfg.Audience on behalf of cfg.ServiceAccount.
func PushAuthMiddleware(cfg PushAuth, logger zerolog.Logger) func(http.Handler) http.Handler {
	validate := cfg.Validate
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SkipVerify {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.Audience == "" || cfg.ServiceAccount == "" {
				logger.Error().Msg("Push auth configured without audience or service account; denying request")
				http.Error(w, "Configuration error: audience or service account not set", http.StatusInternalServerError)
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				http.Error(w, "Unauthorized: missing bearer token", http.StatusUnauthorized)
				return
			}

			payload, err := validate(r.Context(), token, cfg.Audience)
			if err != nil {
				logger.Warn().Err(err).Msg("Rejected push token")
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}
			if email, _ := payload.Claims["email"].(string); email != cfg.ServiceAccount {
				logger.Warn().Str("token_email", email).Msg("Push token minted for unexpected service account")
				http.Error(w, "Forbidden: unexpected service account", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
