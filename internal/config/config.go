// Package config loads server settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables always win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // hotel zones resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"

	"github.com/mmynk/stayledger/internal/ledger"
)

// Auth modes.
const (
	AuthRequired = "required"
	AuthOptional = "optional"
	AuthOff      = "off"
)

// Config holds every setting of the server.
type Config struct {
	Port     int
	DBPath   string
	Location *time.Location

	LogLevel  string
	LogFormat string

	Policy               ledger.ConsolidationPolicy
	ClientCardConfigCode string

	RefreshInterval    time.Duration
	RefreshMaxAttempts int
	RefreshBackoff     time.Duration
	SweepInterval      time.Duration

	AuthMode      string
	JWTSecret     string
	TokenDuration time.Duration
}

// Load reads the configuration. envFiles default to ".env"; a missing file is
// not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		DBPath:               getEnv("DB_PATH", "./data/stayledger.db"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		ClientCardConfigCode: getEnv("CLIENT_CARD_CONFIG_CODE", ledger.DefaultClientCardConfigCode),
		AuthMode:             strings.ToLower(getEnv("AUTH_MODE", AuthOff)),
		JWTSecret:            os.Getenv("JWT_SECRET"),
	}

	var err error
	cfg.Port, err = intFromEnv("PORT", 8080)
	collect(err)
	cfg.RefreshMaxAttempts, err = intFromEnv("REFRESH_MAX_ATTEMPTS", 8)
	collect(err)
	cfg.RefreshInterval, err = durationFromEnv("REFRESH_INTERVAL", 5*time.Second)
	collect(err)
	cfg.RefreshBackoff, err = durationFromEnv("REFRESH_BACKOFF", 10*time.Second)
	collect(err)
	cfg.SweepInterval, err = durationFromEnv("STATUS_SWEEP_INTERVAL", time.Hour)
	collect(err)
	cfg.TokenDuration, err = durationFromEnv("TOKEN_DURATION", 12*time.Hour)
	collect(err)

	cfg.Location, err = time.LoadLocation(getEnv("HOTEL_TIMEZONE", "America/Cancun"))
	if err != nil {
		collect(fmt.Errorf("HOTEL_TIMEZONE: %w", err))
	}

	cfg.Policy, err = ledger.ParsePolicy(os.Getenv("CONSOLIDATION_POLICY"))
	if err != nil {
		collect(fmt.Errorf("CONSOLIDATION_POLICY: %w", err))
	}

	collect(cfg.validate())
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AuthMode {
	case AuthRequired, AuthOptional:
		if len(c.JWTSecret) < 16 {
			return fmt.Errorf("JWT_SECRET must be at least 16 characters when AUTH_MODE=%s", c.AuthMode)
		}
	case AuthOff:
	default:
		return fmt.Errorf("AUTH_MODE must be one of %s, %s, %s: %q", AuthRequired, AuthOptional, AuthOff, c.AuthMode)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.RefreshInterval <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL and STATUS_SWEEP_INTERVAL must be positive")
	}
	if c.RefreshMaxAttempts <= 0 {
		return fmt.Errorf("REFRESH_MAX_ATTEMPTS must be positive: %d", c.RefreshMaxAttempts)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
