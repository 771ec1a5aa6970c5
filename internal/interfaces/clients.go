// Package interfaces defines service contracts for Courier
package interfaces

import (
	"context"

	"github.com/courierhq/courier/internal/models"
)

// ProviderClient talks to the third-party identity provider.
type ProviderClient interface {
	// AuthCodeURL builds the provider consent URL. Missing client
	// credentials surface as a ConfigError, never as a bad URL.
	AuthCodeURL() (string, error)

	// Exchange swaps an authorization code for tokens and fetches the
	// account profile with the fresh access token. Both round trips must
	// succeed; a partial result is an error.
	Exchange(ctx context.Context, code string) (*models.OAuthSession, *models.UserIdentity, error)

	// Refresh exchanges a refresh token for a new access token. The
	// returned session reuses refreshToken unless the provider rotates it.
	Refresh(ctx context.Context, refreshToken string) (*models.OAuthSession, error)
}

// AutomationClient forwards chat exchanges to the automation backend's
// webhook and normalizes its untyped reply.
type AutomationClient interface {
	Send(ctx context.Context, exchange *models.ChatExchange) (*models.NormalizedReply, error)
}
