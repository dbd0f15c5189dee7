package auth

import "context"

type contextKey string

const claimsContextKey = contextKey("claims")

// WithClaims returns a copy of ctx carrying the authenticated session.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}

// FromContext returns the session injected by the auth middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok && c != nil
}
