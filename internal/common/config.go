// Package common provides shared utilities for Courier
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Courier
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Auth        AuthConfig    `toml:"auth"`
	Clients     ClientsConfig `toml:"clients"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AuthConfig holds authentication configuration for the OAuth provider
// and the gateway's own identity tokens.
type AuthConfig struct {
	JWTSecret   string        `toml:"jwt_secret"`
	TokenExpiry string        `toml:"token_expiry"` // duration string, default "24h"
	FrontendURL string        `toml:"frontend_url"` // base URL the callback redirects to
	Google      OAuthProvider `toml:"google"`
}

// OAuthProvider holds OAuth client credentials for an external provider.
type OAuthProvider struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// GetTokenExpiry parses and returns the gateway token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// ClientsConfig holds outbound API client configurations
type ClientsConfig struct {
	Google     GoogleClientConfig `toml:"google"`
	Automation AutomationConfig   `toml:"automation"`
}

// GoogleClientConfig holds Google endpoint configuration.
// Endpoints are configurable so tests can point the client at fakes.
type GoogleClientConfig struct {
	AuthURL     string `toml:"auth_url"`
	TokenURL    string `toml:"token_url"`
	UserInfoURL string `toml:"userinfo_url"`
	RateLimit   int    `toml:"rate_limit"`
	Timeout     string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GoogleClientConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// AutomationConfig holds automation backend webhook configuration
type AutomationConfig struct {
	WebhookURL string `toml:"webhook_url"`
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AutomationConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	Tokens AreaConfig `toml:"tokens"` // Per-identity OAuth token records (BadgerHold)
}

// AreaConfig holds path configuration for a storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// ConfigError reports a missing or invalid configuration value.
// Validation failures are fatal at startup rather than surfacing later
// as masked runtime faults.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
			FrontendURL: "http://localhost:3000",
			Google: OAuthProvider{
				Scopes: []string{
					"https://mail.google.com/",
					"https://www.googleapis.com/auth/gmail.readonly",
					"https://www.googleapis.com/auth/gmail.send",
					"https://www.googleapis.com/auth/userinfo.email",
					"https://www.googleapis.com/auth/userinfo.profile",
				},
			},
		},
		Clients: ClientsConfig{
			Google: GoogleClientConfig{
				AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL:    "https://oauth2.googleapis.com/token",
				UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
				RateLimit:   10,
				Timeout:     "30s",
			},
			Automation: AutomationConfig{
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Storage: StorageConfig{
			Tokens: AreaConfig{Path: "data/tokens"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COURIER_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("COURIER_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("COURIER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("COURIER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("COURIER_DATA_PATH"); path != "" {
		config.Storage.Tokens.Path = filepath.Join(path, "tokens")
	}

	if v := os.Getenv("COURIER_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("COURIER_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
	if v := os.Getenv("COURIER_FRONTEND_URL"); v != "" {
		config.Auth.FrontendURL = v
	}
	if v := os.Getenv("COURIER_GOOGLE_CLIENT_ID"); v != "" {
		config.Auth.Google.ClientID = v
	}
	if v := os.Getenv("COURIER_GOOGLE_CLIENT_SECRET"); v != "" {
		config.Auth.Google.ClientSecret = v
	}
	if v := os.Getenv("COURIER_GOOGLE_REDIRECT_URI"); v != "" {
		config.Auth.Google.RedirectURI = v
	}
	if v := os.Getenv("COURIER_AUTOMATION_WEBHOOK_URL"); v != "" {
		config.Clients.Automation.WebhookURL = v
	}
}

// Validate checks that the configuration required to serve the OAuth flow
// and the chat proxy is present. Returns the first ConfigError found.
func (c *Config) Validate() error {
	if c.Auth.Google.ClientID == "" {
		return &ConfigError{Field: "auth.google.client_id", Reason: "required"}
	}
	if c.Auth.Google.ClientSecret == "" {
		return &ConfigError{Field: "auth.google.client_secret", Reason: "required"}
	}
	if c.Auth.Google.RedirectURI == "" {
		return &ConfigError{Field: "auth.google.redirect_uri", Reason: "required"}
	}
	if c.Auth.FrontendURL == "" {
		return &ConfigError{Field: "auth.frontend_url", Reason: "required"}
	}
	if c.Clients.Automation.WebhookURL == "" {
		return &ConfigError{Field: "clients.automation.webhook_url", Reason: "required"}
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
