package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Core
	Port               string   `envconfig:"PORT" default:"8080"`
	Environment        string   `envconfig:"ENV" default:"development"`
	LogLevel           string   `envconfig:"LOG_LEVEL"`
	DBConnectionString string   `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string   `envconfig:"JWT_SECRET" required:"true"`
	JWTTTLHours        int      `envconfig:"JWT_TTL_HOURS" default:"168"`
	AllowedOrigins     []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	AutoMigrate        bool     `envconfig:"AUTO_MIGRATE" default:"true"`

	// Stripe
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeReturnURL     string `envconfig:"STRIPE_RETURN_URL" default:"http://localhost:3000/dashboard/billing"`

	// Metrics
	MetricsIncludeProviderCharges bool `envconfig:"METRICS_INCLUDE_PROVIDER_CHARGES" default:"true"`
	MetricsRequestTimeoutSec      int  `envconfig:"METRICS_REQUEST_TIMEOUT_SEC" default:"20"`

	// SMTP
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@fintrack.local"`

	// Events
	EventsBackend      string `envconfig:"EVENTS_BACKEND" default:"none"`
	PubSubTopic        string `envconfig:"PUBSUB_TOPIC" default:"fintrack-events"`
	PubSubSubscription string `envconfig:"PUBSUB_SUBSCRIPTION" default:"fintrack-notifier"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile string `envconfig:"GCP_CREDENTIALS_FILE"`
	AMQPURL            string `envconfig:"AMQP_URL"`
	AMQPExchange       string `envconfig:"AMQP_EXCHANGE" default:"fintrack"`
	AMQPQueue          string `envconfig:"AMQP_QUEUE" default:"fintrack.notifications"`

	// Notifier settings. Pub/Sub can deliver by pull or by push to NOTIFIER_PORT.
	NotifierMode                string `envconfig:"NOTIFIER_MODE" default:"pull"`
	NotifierPort                string `envconfig:"NOTIFIER_PORT" default:"8081"`
	PubSubPushAudience          string `envconfig:"PUBSUB_PUSH_AUDIENCE"`
	PubSubPushServiceAccount    string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT"`
	NotifierQueueName           string `envconfig:"NOTIFIER_QUEUE_NAME" default:"notifications"`
	NotifierDeadLetterQueueName string `envconfig:"NOTIFIER_DEAD_LETTER_QUEUE_NAME" default:"notifications_dlq"`
	NotifierPollTimeoutSec      int    `envconfig:"NOTIFIER_POLL_TIMEOUT_SEC" default:"30"`
	NotifierPollMaxMsg          int    `envconfig:"NOTIFIER_POLL_MAX_MSG" default:"10"`
	NotifierVisibilitySec       int    `envconfig:"NOTIFIER_VISIBILITY_SEC" default:"60"`
	NotifierMaxRetries          int    `envconfig:"NOTIFIER_MAX_RETRIES" default:"5"`
	NotifierBackoffInitialSec   int    `envconfig:"NOTIFIER_BACKOFF_INITIAL_SEC" default:"1"`
	NotifierBackoffMaxSec       int    `envconfig:"NOTIFIER_BACKOFF_MAX_SEC" default:"60"`

	// Object storage (transaction export)
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs with local development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ExportEnabled reports whether transaction export has a bucket to write to.
func (c *Config) ExportEnabled() bool {
	return c.S3Bucket != ""
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
