package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the Serper MCP service. Loaded once at
// process start and never mutated.
type Config struct {
	// HTTP Server
	HTTPPort  string `env:"HTTP_PORT" envDefault:"8000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json or console

	// Upstream Serper API
	SerperAPIKey      string `env:"SERPER_API_KEY"` // operator's internal key, governs paid calls
	SerperBaseURL     string `env:"SERPER_BASE_URL" envDefault:"https://google.serper.dev"`
	SerperHTTPTimeout int    `env:"SERPER_HTTP_TIMEOUT" envDefault:"30"` // seconds, per attempt

	// Retry Configuration
	SerperRetryMaxAttempts   int     `env:"SERPER_RETRY_MAX_ATTEMPTS" envDefault:"2"`
	SerperRetryInitialDelay  int     `env:"SERPER_RETRY_INITIAL_DELAY" envDefault:"250"` // milliseconds
	SerperRetryMaxDelay      int     `env:"SERPER_RETRY_MAX_DELAY" envDefault:"5000"`    // milliseconds
	SerperRetryBackoffFactor float64 `env:"SERPER_RETRY_BACKOFF_FACTOR" envDefault:"1.5"`

	// Payment protocol
	PaymentAddress     string `env:"SERVER_ADDRESS"`     // operator payment-receipt address
	FacilitatorURL     string `env:"FACILITATOR_URL"`    // verification/settlement service
	FacilitatorAPIKey  string `env:"FACILITATOR_API_KEY"`
	PaymentTestingMode bool   `env:"PAYMENT_TESTING_MODE" envDefault:"false"` // bypass facilitator, keep policy checks
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.PaymentAddress) == "" {
		return nil, fmt.Errorf("SERVER_ADDRESS is required for the payment protocol")
	}
	if strings.TrimSpace(cfg.FacilitatorURL) == "" && !cfg.PaymentTestingMode {
		return nil, fmt.Errorf("FACILITATOR_URL is required unless PAYMENT_TESTING_MODE is true")
	}
	if cfg.SerperRetryMaxAttempts < 1 {
		return nil, fmt.Errorf("SERPER_RETRY_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

// HasOperatorKey reports whether paid (Mode 2) calls can be served.
func (c *Config) HasOperatorKey() bool {
	return strings.TrimSpace(c.SerperAPIKey) != ""
}
