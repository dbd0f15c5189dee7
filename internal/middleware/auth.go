package middleware

import (
	"context"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/model"

	"github.com/rs/zerolog"
)

// SessionStore resolves the user behind a token so revoked sessions can be rejected.
type SessionStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMiddleware validates the bearer token, checks it against the user's
// current token version and injects the claims into the request context.
// Requests for which skip returns true pass through untouched.
func AuthMiddleware(tokens *auth.TokenManager, sessions SessionStore, skip func(*http.Request) bool, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip != nil && skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug().Str("path", r.URL.Path).Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Debug().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				logger.Debug().Err(err).Msg("Invalid token")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			user, err := sessions.GetUserByID(r.Context(), claims.UserID())
			if err != nil {
				logger.Error().Err(err).Str("user_id", claims.UserID()).Msg("Failed to load session user")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil || !user.IsActive || user.TokenVersion != claims.TokenVersion {
				http.Error(w, "Session expired", http.StatusUnauthorized)
				return
			}
			// Role changes apply immediately, without waiting for a new token.
			claims.Role = model.NormalizeRole(user.Role)
			claims.Email = user.Email

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}
