// Package config loads the client configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Token store backends.
const (
	TokenStoreFile   = "file"
	TokenStoreSQLite = "sqlite"
	TokenStoreMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Remote API
	APIBaseURL            string `env:"API_BASE_URL" envDefault:"http://localhost:5000"`
	APILoginPath          string `env:"API_LOGIN_PATH" envDefault:"/login"`
	APIRegisterPath       string `env:"API_REGISTER_PATH" envDefault:"/register"`
	APIGoogleLoginPath    string `env:"API_GOOGLE_LOGIN_PATH" envDefault:"/api/auth/google-login"`
	APIForgotPasswordPath string `env:"API_FORGOT_PASSWORD_PATH" envDefault:"/api/auth/forgot-password"`
	APIResetPasswordPath  string `env:"API_RESET_PASSWORD_PATH" envDefault:"/api/auth/reset-password"`
	APIMonthsPath         string `env:"API_MONTHS_PATH" envDefault:"/api/financial-months"`
	APIBillsPath          string `env:"API_BILLS_PATH" envDefault:"/api/bills"`
	APIAdminPath          string `env:"API_ADMIN_PATH" envDefault:"/api/admin"`

	// HTTP client
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Resilience
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"2"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"100ms"`
	MaxBackoff     time.Duration `env:"MAX_BACKOFF" envDefault:"2s"`
	MaxConcurrency int           `env:"MAX_CONCURRENCY" envDefault:"8"`
	BreakerTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"10s"`

	// Observability
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Session token storage
	TokenStore  string `env:"TOKEN_STORE" envDefault:"file"`
	TokenFile   string `env:"TOKEN_FILE" envDefault:".money/token"`
	TokenDBPath string `env:"TOKEN_DB_PATH" envDefault:".money/session.db"`
	TokenSecret string `env:"TOKEN_SECRET"`
}

// Load reads .env files (existing variables win) and then parses the
// environment. Missing .env files are not an error.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL))
	}
	for key, p := range map[string]string{
		"API_LOGIN_PATH":           c.APILoginPath,
		"API_REGISTER_PATH":        c.APIRegisterPath,
		"API_GOOGLE_LOGIN_PATH":    c.APIGoogleLoginPath,
		"API_FORGOT_PASSWORD_PATH": c.APIForgotPasswordPath,
		"API_RESET_PASSWORD_PATH":  c.APIResetPasswordPath,
		"API_MONTHS_PATH":          c.APIMonthsPath,
		"API_BILLS_PATH":           c.APIBillsPath,
		"API_ADMIN_PATH":           c.APIAdminPath,
	} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("%s must start with /, got %q", key, p))
		}
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must not be negative"))
	}
	if c.MaxBackoff < 0 {
		errs = append(errs, errors.New("MAX_BACKOFF must not be negative"))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, errors.New("MAX_CONCURRENCY must be at least 1"))
	}

	switch c.TokenStore {
	case TokenStoreFile:
		if c.TokenFile == "" {
			errs = append(errs, errors.New("TOKEN_FILE is required when TOKEN_STORE=file"))
		}
	case TokenStoreSQLite:
		if c.TokenDBPath == "" {
			errs = append(errs, errors.New("TOKEN_DB_PATH is required when TOKEN_STORE=sqlite"))
		}
	case TokenStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE must be file, sqlite or memory, got %q", c.TokenStore))
	}

	return errors.Join(errs...)
}
