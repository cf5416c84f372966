package config

import (
	"log/slog"
	"time"
)

type LogLeveler string

func (l LogLeveler) Level() slog.Level {
	var level slog.Level

	_ = level.UnmarshalText([]byte(l))

	return level
}

// Config holds the server configuration.
type Config struct {
	LogLevel LogLeveler `mapstructure:"LOG_LEVEL"`
	HTTP     HTTP       `mapstructure:",squash"`
	Redis    Redis      `mapstructure:",squash"`
	Supplier Supplier   `mapstructure:",squash"`
	Payment  Payment    `mapstructure:",squash"`
	Session  Session    `mapstructure:",squash"`
}

type HTTP struct {
	Port    int           `mapstructure:"HTTP_PORT"`
	Timeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
}

type Redis struct {
	Addr     string        `mapstructure:"REDIS_ADDR"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	Timeout  time.Duration `mapstructure:"REDIS_TIMEOUT"`
}

// Supplier configures the backend booking API the pipeline searches and
// books against.
type Supplier struct {
	BaseURL      string        `mapstructure:"SUPPLIER_API_BASE_URL"`
	APIKey       string        `mapstructure:"SUPPLIER_API_KEY"`
	Timeout      time.Duration `mapstructure:"SUPPLIER_API_TIMEOUT"`
	RateLimitRPS int           `mapstructure:"SUPPLIER_API_RATE_LIMIT"`
}

// Payment configures the payment gateway collaborator.
type Payment struct {
	BaseURL string        `mapstructure:"PAYMENT_API_BASE_URL"`
	APIKey  string        `mapstructure:"PAYMENT_API_KEY"`
	Timeout time.Duration `mapstructure:"PAYMENT_API_TIMEOUT"`
}

// Session configures the durable booking session snapshots.
type Session struct {
	TTL time.Duration `mapstructure:"SESSION_TTL"`
}
