package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/fintrack")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/fintrack")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "none", cfg.EventsBackend)
	assert.True(t, cfg.MetricsIncludeProviderCharges)
	assert.False(t, cfg.ExportEnabled())
	assert.False(t, cfg.MailEnabled())
}

func TestResolveSecrets(t *testing.T) {
	cfg := &Config{
		GCPProjectID:       "acme",
		JWTSecret:          "sm://jwt-secret",
		StripeSecretKey:    "sm://projects/other/secrets/stripe/versions/3",
		DBConnectionString: "postgres://plain",
	}

	var requested []string
	err := resolveWith(context.Background(), cfg, func(_ context.Context, name string) (string, error) {
		requested = append(requested, name)
		return "resolved-" + name + "\n", nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"projects/acme/secrets/jwt-secret/versions/latest",
		"projects/other/secrets/stripe/versions/3",
	}, requested)
	assert.Equal(t, "resolved-projects/acme/secrets/jwt-secret/versions/latest", cfg.JWTSecret)
	assert.Equal(t, "postgres://plain", cfg.DBConnectionString)
}

func TestResolveSecretsNeedsProject(t *testing.T) {
	cfg := &Config{JWTSecret: "sm://jwt-secret"}
	err := resolveWith(context.Background(), cfg, func(context.Context, string) (string, error) {
		return "", errors.New("should not be called")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCP_PROJECT_ID")
}

func TestResolveSecretsNoRefsSkipsClient(t *testing.T) {
	cfg := &Config{JWTSecret: "plain"}
	require.NoError(t, ResolveSecrets(context.Background(), cfg))
}
