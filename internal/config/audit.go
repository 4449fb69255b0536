package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AuditConfig configures cmd/audit-worker.  It is separate from Config
// because the worker needs neither the database nor the JWT secret.
type AuditConfig struct {
	AMQPURL   string `envconfig:"RABBITMQ_URL"`
	Exchange  string `envconfig:"EVENTS_EXCHANGE" default:"room_booking"`
	Queue     string `envconfig:"AUDIT_QUEUE" default:"booking.audit"`
	LogPath   string `envconfig:"AUDIT_LOG_PATH" default:"logs/booking.log"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// LoadAuditConfig reads the worker settings.  A broker URL is required,
// either RABBITMQ_URL or the older AMQP_URL.
func LoadAuditConfig() (AuditConfig, error) {
	_ = godotenv.Load()
	var cfg AuditConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AuditConfig{}, fmt.Errorf("audit config: %w", err)
	}
	if cfg.AMQPURL == "" {
		cfg.AMQPURL = amqpURL()
	}
	if cfg.AMQPURL == "" {
		return AuditConfig{}, errors.New("missing required env var: RABBITMQ_URL")
	}
	return cfg, nil
}
