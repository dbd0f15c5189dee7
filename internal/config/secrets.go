package config

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretPrefix marks a config value that must be fetched from Secret Manager.
const SecretPrefix = "sm://"

type secretFetcher func(ctx context.Context, name string) (string, error)

// ResolveSecrets replaces every sm:// reference in cfg with the latest secret
// version. A reference is either a full resource name
// (sm://projects/p/secrets/s/versions/v) or a bare secret id resolved against
// GCP_PROJECT_ID. No client is created when nothing needs resolving.
func ResolveSecrets(ctx context.Context, cfg *Config) error {
	if len(cfg.secretRefs()) == 0 {
		return nil
	}

	var opts []option.ClientOption
	if cfg.GCPCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	defer client.Close()

	return resolveWith(ctx, cfg, func(ctx context.Context, name string) (string, error) {
		result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			return "", fmt.Errorf("failed to access secret version: %w", err)
		}
		return string(result.Payload.Data), nil
	})
}

func resolveWith(ctx context.Context, cfg *Config, fetch secretFetcher) error {
	for _, ref := range cfg.secretRefs() {
		name, err := cfg.secretResourceName(*ref)
		if err != nil {
			return err
		}
		value, err := fetch(ctx, name)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		*ref = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) secretRefs() []*string {
	candidates := []*string{
		&c.DBConnectionString,
		&c.JWTSecret,
		&c.StripeSecretKey,
		&c.StripeWebhookSecret,
		&c.SMTPPassword,
		&c.S3AccessKey,
		&c.S3SecretKey,
		&c.AMQPURL,
	}
	var refs []*string
	for _, p := range candidates {
		if strings.HasPrefix(*p, SecretPrefix) {
			refs = append(refs, p)
		}
	}
	return refs
}

func (c *Config) secretResourceName(ref string) (string, error) {
	id := strings.TrimPrefix(ref, SecretPrefix)
	if strings.HasPrefix(id, "projects/") {
		return id, nil
	}
	if c.GCPProjectID == "" {
		return "", fmt.Errorf("GCP_PROJECT_ID is required to resolve secret %q", id)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.GCPProjectID, id), nil
}
