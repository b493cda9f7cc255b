// Package config provides centralized configuration management for the
// event hub. Configuration is loaded from environment variables with
// sensible defaults. Required configuration that is missing will cause
// the application to fail fast with helpful error messages.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Port int

	// Hub configuration
	HeartbeatInterval time.Duration
	ConnectionTimeout time.Duration
	MaxConnections    int
	EnableHeartbeat   bool

	// Auth configuration
	AuthProvider      string
	RequireAuthStream bool
	RequireAuthNotify bool
	JWTSecret         string
	OIDCIssuerURL     string
	OIDCClientID      string

	// Rate limiting (POST /api/sse/notifications)
	NotifyRateLimit int
	NotifyRateBurst int
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Default values
const (
	DefaultPort              = 8080
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultConnectionTimeout = 60 * time.Second
	DefaultMaxConnections    = 1000
	DefaultAuthProvider      = "noop"
	DefaultNotifyRateLimit   = 10
	DefaultNotifyRateBurst   = 20
)

// Load reads configuration from environment variables and returns a Config.
// It applies defaults for optional values and validates the configuration.
// Returns an error if validation fails.
func Load() (*Config, error) {
	cfg := &Config{
		Port: DefaultPort,

		HeartbeatInterval: DefaultHeartbeatInterval,
		ConnectionTimeout: DefaultConnectionTimeout,
		MaxConnections:    DefaultMaxConnections,
		EnableHeartbeat:   true,

		AuthProvider: DefaultAuthProvider,

		NotifyRateLimit: DefaultNotifyRateLimit,
		NotifyRateBurst: DefaultNotifyRateBurst,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return cfg, nil
}

// loadFromEnv populates the config from environment variables.
func (c *Config) loadFromEnv() error {
	var parseErrors ValidationErrors

	if v := os.Getenv("SSEHUB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_PORT",
				Message: fmt.Sprintf("invalid port number: %q (must be an integer)", v),
			})
		} else {
			c.Port = port
		}
	}

	if v := os.Getenv("SSEHUB_HEARTBEAT_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_HEARTBEAT_INTERVAL_MS",
				Message: fmt.Sprintf("invalid interval: %q (must be an integer number of milliseconds)", v),
			})
		} else if ms <= 0 {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_HEARTBEAT_INTERVAL_MS",
				Message: fmt.Sprintf("interval must be positive: %d", ms),
			})
		} else {
			c.HeartbeatInterval = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv("SSEHUB_CONNECTION_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_CONNECTION_TIMEOUT_MS",
				Message: fmt.Sprintf("invalid timeout: %q (must be an integer number of milliseconds)", v),
			})
		} else if ms <= 0 {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_CONNECTION_TIMEOUT_MS",
				Message: fmt.Sprintf("timeout must be positive: %d", ms),
			})
		} else {
			c.ConnectionTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv("SSEHUB_MAX_CONNECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_MAX_CONNECTIONS",
				Message: fmt.Sprintf("invalid value: %q (must be an integer)", v),
			})
		} else if n <= 0 {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_MAX_CONNECTIONS",
				Message: fmt.Sprintf("must be positive: %d", n),
			})
		} else {
			c.MaxConnections = n
		}
	}

	if v := os.Getenv("SSEHUB_ENABLE_HEARTBEAT"); v != "" {
		c.EnableHeartbeat = strings.EqualFold(v, "true") || v == "1"
	}

	if v := os.Getenv("SSEHUB_AUTH_PROVIDER"); v != "" {
		c.AuthProvider = v
	}

	if v := os.Getenv("SSEHUB_REQUIRE_AUTH_STREAM"); v != "" {
		c.RequireAuthStream = strings.EqualFold(v, "true") || v == "1"
	}

	if v := os.Getenv("SSEHUB_REQUIRE_AUTH_NOTIFY"); v != "" {
		c.RequireAuthNotify = strings.EqualFold(v, "true") || v == "1"
	}

	if v := os.Getenv("SSEHUB_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}

	if v := os.Getenv("SSEHUB_OIDC_ISSUER_URL"); v != "" {
		c.OIDCIssuerURL = v
	}

	if v := os.Getenv("SSEHUB_OIDC_CLIENT_ID"); v != "" {
		c.OIDCClientID = v
	}

	if v := os.Getenv("SSEHUB_NOTIFY_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_NOTIFY_RATE_LIMIT",
				Message: fmt.Sprintf("invalid value: %q (must be an integer)", v),
			})
		} else if n <= 0 {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_NOTIFY_RATE_LIMIT",
				Message: fmt.Sprintf("must be positive: %d", n),
			})
		} else {
			c.NotifyRateLimit = n
		}
	}

	if v := os.Getenv("SSEHUB_NOTIFY_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_NOTIFY_RATE_BURST",
				Message: fmt.Sprintf("invalid value: %q (must be an integer)", v),
			})
		} else if n <= 0 {
			parseErrors = append(parseErrors, ValidationError{
				Field:   "SSEHUB_NOTIFY_RATE_BURST",
				Message: fmt.Sprintf("must be positive: %d", n),
			})
		} else {
			c.NotifyRateBurst = n
		}
	}

	if len(parseErrors) > 0 {
		return parseErrors
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "SSEHUB_PORT",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Port),
		})
	}

	if c.MaxConnections <= 0 {
		errs = append(errs, ValidationError{
			Field:   "SSEHUB_MAX_CONNECTIONS",
			Message: fmt.Sprintf("max connections must be positive, got %d", c.MaxConnections),
		})
	}

	if c.HeartbeatInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "SSEHUB_HEARTBEAT_INTERVAL_MS",
			Message: "heartbeat interval must be positive",
		})
	}

	if c.ConnectionTimeout <= c.HeartbeatInterval {
		errs = append(errs, ValidationError{
			Field:   "SSEHUB_CONNECTION_TIMEOUT_MS",
			Message: "connection timeout must be greater than the heartbeat interval, or every connection will reap before it can be refreshed",
		})
	}

	switch c.AuthProvider {
	case "noop", "jwt", "oidc":
	default:
		errs = append(errs, ValidationError{
			Field:   "SSEHUB_AUTH_PROVIDER",
			Message: fmt.Sprintf("unknown auth provider: %q (must be noop, jwt, or oidc)", c.AuthProvider),
		})
	}

	if c.AuthProvider == "jwt" && c.JWTSecret == "" {
		errs = append(errs, ValidationError{
			Field:   "SSEHUB_JWT_SECRET",
			Message: "required when SSEHUB_AUTH_PROVIDER=jwt",
		})
	}

	if c.AuthProvider == "oidc" && (c.OIDCIssuerURL == "" || c.OIDCClientID == "") {
		errs = append(errs, ValidationError{
			Field:   "SSEHUB_OIDC_ISSUER_URL",
			Message: "SSEHUB_OIDC_ISSUER_URL and SSEHUB_OIDC_CLIENT_ID are both required when SSEHUB_AUTH_PROVIDER=oidc",
		})
	}

	return errs
}

// MustLoad loads configuration and, if it fails, prints the errors to
// stderr and exits the process with status 1.
// Use this for application startup where configuration errors are fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to load configuration\n\n%s\n\nConfiguration is read from SSEHUB_* environment variables.\n", err)
		os.Exit(1)
	}
	return cfg
}
