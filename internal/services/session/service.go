// Package session owns the OAuth token lifecycle: code exchange, expiry
// evaluation, and refresh.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/courierhq/courier/internal/common"
	"github.com/courierhq/courier/internal/interfaces"
	"github.com/courierhq/courier/internal/models"
)

// ErrNoRefreshToken is returned when a stored record has no refresh token
// to redeem.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// Service implements interfaces.SessionService.
//
// Refreshes are single-flighted per identity key so concurrent requests for
// the same account produce at most one provider round trip and observe one
// consistent superseding session.
type Service struct {
	provider interfaces.ProviderClient
	store    interfaces.TokenStore
	logger   *common.Logger
	refresh  singleflight.Group
}

// NewService creates a session service.
func NewService(provider interfaces.ProviderClient, store interfaces.TokenStore, logger *common.Logger) *Service {
	return &Service{
		provider: provider,
		store:    store,
		logger:   logger,
	}
}

// ExchangeCode swaps an authorization code for a session and identity, then
// persists the record keyed by the identity UID.
//
// If the just-issued session already reads as expired (a provider returning
// expires_in=0), a best-effort refresh runs immediately. Policy at this call
// site is DEGRADE: on refresh failure the freshly issued token is kept and
// the failure logged, since failing the whole login over a token issued
// milliseconds ago would strand a valid consent.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*models.OAuthSession, *models.UserIdentity, error) {
	// The exchange must run to completion even if the browser abandons the
	// callback request: the code is single-use, and aborting mid-flight
	// would leave the provider having redeemed it for nothing.
	ctx = context.WithoutCancel(ctx)

	session, identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	if session.Expired(time.Now()) {
		s.logger.Info().Str("uid", identity.UID).Msg("Session expired at issuance, refreshing")
		refreshed, rerr := s.Refresh(ctx, identity.UID, session.RefreshToken)
		if rerr != nil {
			s.logger.Warn().Err(rerr).Str("uid", identity.UID).Msg("Post-exchange refresh failed, continuing with issued token")
		} else {
			session = refreshed
		}
	}

	// Persistence is best-effort: the session still travels to the client
	// via the redirect, so a store failure must not fail the login.
	rec := &models.TokenRecord{
		UID:     identity.UID,
		Session: *session,
		Email:   identity.Email,
		Name:    identity.Name,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("uid", identity.UID).Msg("Failed to persist token record, proceeding without storage")
	}

	return session, identity, nil
}

// Refresh obtains a superseding session for the identity key. Concurrent
// calls with the same key collapse into a single provider round trip; every
// caller receives the same resulting session. If a record is already
// persisted for the key it is updated; otherwise persistence is skipped.
func (s *Service) Refresh(ctx context.Context, key, refreshToken string) (*models.OAuthSession, error) {
	v, err, _ := s.refresh.Do(key, func() (interface{}, error) {
		// The shared round trip outlives any single caller. Detaching from
		// the initiating request's context keeps one aborted caller from
		// failing every concurrent waiter and lets the provider call finish;
		// an unwanted result is simply discarded.
		ctx := context.WithoutCancel(ctx)

		session, err := s.provider.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}

		if rec, gerr := s.store.Get(ctx, key); gerr == nil {
			rec.Session = *session
			if serr := s.store.Save(ctx, rec); serr != nil {
				s.logger.Warn().Err(serr).Str("uid", key).Msg("Failed to persist refreshed session")
			}
		}

		s.logger.Debug().Str("uid", key).Msg("Session refreshed")
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.OAuthSession), nil
}

// RefreshStored refreshes using the refresh token persisted for uid.
// Callers distinguish a missing record (no refresh token available) from a
// provider-side RefreshError via errors.Is/errors.As.
func (s *Service) RefreshStored(ctx context.Context, uid string) (*models.OAuthSession, error) {
	rec, err := s.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if rec.Session.RefreshToken == "" {
		return nil, fmt.Errorf("uid '%s': %w", uid, ErrNoRefreshToken)
	}
	return s.Refresh(ctx, uid, rec.Session.RefreshToken)
}
