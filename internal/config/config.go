// Package config loads the ccdwatch runtime configuration from the
// environment and validates it before any component is wired.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/evanpardo/ccdwatch/internal/pkg/validation"
)

const envPrefix = "CCDWATCH"

// Config is the full runtime configuration. Every field is sourced from a
// CCDWATCH_* environment variable.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"ccdwatch"`
	Network     string `envconfig:"NETWORK" default:"mainnet" validate:"oneof=mainnet testnet"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	TelemetryEnabled      bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`
	OTELExporterEndpoint  string `envconfig:"OTEL_EXPORTER_ENDPOINT" validate:"required_if=TelemetryEnabled true"`
	OTELExporterTLSCACert string `envconfig:"OTEL_EXPORTER_TLS_CA_CERT"`

	RedisAddress  string `envconfig:"REDIS_ADDRESS" default:"localhost:6379" validate:"required"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	NodeRPCEndpoint string `envconfig:"NODE_RPC_ENDPOINT" validate:"required,url"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"eu-west-1"`
	EmailFrom        string `envconfig:"EMAIL_FROM" validate:"omitempty,email"`

	WalletProxyBaseURL string `envconfig:"WALLET_PROXY_BASE_URL" validate:"omitempty,url"`

	PollInterval        time.Duration `envconfig:"POLL_INTERVAL" default:"2s" validate:"gt=0"`
	RefreshInterval     time.Duration `envconfig:"REFRESH_INTERVAL" default:"10s" validate:"gt=0"`
	FastAccountInterval time.Duration `envconfig:"FAST_ACCOUNT_INTERVAL" default:"1h" validate:"gt=0"`
	NodeLagInterval     time.Duration `envconfig:"NODE_LAG_INTERVAL" default:"5m" validate:"gt=0"`
	StallTimeout        time.Duration `envconfig:"STALL_TIMEOUT" default:"5m" validate:"gt=0"`
	BlockBatchSize      uint64        `envconfig:"BLOCK_BATCH_SIZE" default:"10" validate:"gt=0"`
	NodeLagThreshold    uint64        `envconfig:"NODE_LAG_THRESHOLD" default:"300" validate:"gt=0"`
}

// Load reads the environment and validates the resulting configuration.
// validation.Init must have been called.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := validation.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
