package interfaces

import (
	"context"

	"github.com/courierhq/courier/internal/models"
)

// SessionService owns the OAuth token lifecycle: code exchange, expiry
// checks, and single-flighted refresh per identity.
type SessionService interface {
	// ExchangeCode performs the code-for-token exchange plus profile fetch
	// and persists the resulting record keyed by the identity UID.
	ExchangeCode(ctx context.Context, code string) (*models.OAuthSession, *models.UserIdentity, error)

	// Refresh obtains a superseding session for the identity key. Concurrent
	// calls for the same key collapse into one provider round trip and all
	// callers observe the same resulting session.
	Refresh(ctx context.Context, key, refreshToken string) (*models.OAuthSession, error)

	// RefreshStored refreshes using the refresh token persisted for uid.
	RefreshStored(ctx context.Context, uid string) (*models.OAuthSession, error)
}
