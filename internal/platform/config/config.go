// Package config loads server configuration from environment variables and
// an optional yaml file, with defaults suitable for local development.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the server process.
type Config struct {
	Addr     string `mapstructure:"ADDR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	// Kafka audit sink. Empty brokers disables the sink and audit events
	// stay in the in-process store.
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	AuditTopic      string `mapstructure:"AUDIT_TOPIC"`
	AuditBufferSize int    `mapstructure:"AUDIT_BUFFER_SIZE"`

	// Voice-AI provider credentials. The webhook secret hash is a bcrypt
	// hash of the shared secret the platform sends with each delivery;
	// empty disables the check.
	VoiceAPIBaseURL        string `mapstructure:"VOICE_API_BASE_URL"`
	VoiceAPIKey            string `mapstructure:"VOICE_API_KEY"`
	VoicePhoneID           string `mapstructure:"VOICE_PHONE_NUMBER_ID"`
	VoiceWebhookSecretHash string `mapstructure:"VOICE_WEBHOOK_SECRET_HASH"`

	// Payment provider credentials and the price IDs sold per tier.
	BillingAPIBaseURL    string `mapstructure:"BILLING_API_BASE_URL"`
	BillingAPIKey        string `mapstructure:"BILLING_API_KEY"`
	BillingWebhookSecret string `mapstructure:"BILLING_WEBHOOK_SECRET"`
	PriceBasic           string `mapstructure:"PRICE_BASIC"`
	PricePro             string `mapstructure:"PRICE_PRO"`
	PriceUnlimited       string `mapstructure:"PRICE_UNLIMITED"`

	JWTSigningKey string        `mapstructure:"JWT_SIGNING_KEY"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`

	// DirectoryTimeout bounds subscriber directory and usage ledger reads
	// during routing evaluation.
	DirectoryTimeout time.Duration `mapstructure:"DIRECTORY_TIMEOUT"`

	Environment string `mapstructure:"ENVIRONMENT"`
}

// Load reads configuration from config.yaml (if present) and APP_-prefixed
// environment variables. Environment variables win.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP")

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_TOPIC", "spamstopper.audit")
	v.SetDefault("AUDIT_BUFFER_SIZE", 256)
	v.SetDefault("VOICE_API_BASE_URL", "https://api.vapi.ai")
	v.SetDefault("VOICE_API_KEY", "")
	v.SetDefault("VOICE_PHONE_NUMBER_ID", "")
	v.SetDefault("VOICE_WEBHOOK_SECRET_HASH", "")
	v.SetDefault("BILLING_API_BASE_URL", "https://api.stripe.com")
	v.SetDefault("BILLING_API_KEY", "")
	v.SetDefault("BILLING_WEBHOOK_SECRET", "")
	v.SetDefault("PRICE_BASIC", "")
	v.SetDefault("PRICE_PRO", "")
	v.SetDefault("PRICE_UNLIMITED", "")
	v.SetDefault("JWT_SIGNING_KEY", "dev-secret-key-change-in-production")
	v.SetDefault("TOKEN_TTL", 15*time.Minute)
	v.SetDefault("DIRECTORY_TIMEOUT", 5*time.Second)
	v.SetDefault("ENVIRONMENT", "development")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
