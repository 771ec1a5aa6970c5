// Package app wires configuration, storage, clients, and services into the
// shared core used by cmd/courier-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/courierhq/courier/internal/clients/automation"
	"github.com/courierhq/courier/internal/clients/google"
	"github.com/courierhq/courier/internal/common"
	"github.com/courierhq/courier/internal/interfaces"
	"github.com/courierhq/courier/internal/services/session"
	"github.com/courierhq/courier/internal/storage/tokendb"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	TokenStore  interfaces.TokenStore
	Provider    interfaces.ProviderClient
	Automation  interfaces.AutomationClient
	Sessions    interfaces.SessionService
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, COURIER_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("COURIER_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "courier.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/courier.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Missing provider credentials or webhook URL are fatal here, never a
	// masked runtime fault later.
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Tokens.Path != "" && !filepath.IsAbs(config.Storage.Tokens.Path) {
		config.Storage.Tokens.Path = filepath.Join(binDir, config.Storage.Tokens.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	tokenStore, err := tokendb.NewStore(logger, config.Storage.Tokens.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token store: %w", err)
	}

	provider := google.NewClient(
		config.Auth.Google.ClientID,
		config.Auth.Google.ClientSecret,
		config.Auth.Google.RedirectURI,
		google.WithScopes(config.Auth.Google.Scopes),
		google.WithAuthEndpoint(config.Clients.Google.AuthURL),
		google.WithEndpoints(config.Clients.Google.TokenURL, config.Clients.Google.UserInfoURL),
		google.WithLogger(logger),
		google.WithRateLimit(config.Clients.Google.RateLimit),
		google.WithTimeout(config.Clients.Google.GetTimeout()),
	)

	automationClient := automation.NewClient(config.Clients.Automation.WebhookURL,
		automation.WithLogger(logger),
		automation.WithRateLimit(config.Clients.Automation.RateLimit),
		automation.WithTimeout(config.Clients.Automation.GetTimeout()),
	)

	sessions := session.NewService(provider, tokenStore, logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		TokenStore:  tokenStore,
		Provider:    provider,
		Automation:  automationClient,
		Sessions:    sessions,
		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.TokenStore != nil {
		a.TokenStore.Close()
		a.TokenStore = nil
	}
}
