package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/courierhq/courier/internal/clients/google"
	"github.com/courierhq/courier/internal/services/session"
	"github.com/courierhq/courier/internal/storage/tokendb"
)

// handleAuthURL returns the provider consent URL.
func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	authURL, err := s.app.Provider.AuthCodeURL()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate auth URL")
		WriteError(w, http.StatusInternalServerError, "Failed to generate auth URL")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"authUrl": authURL})
}

// loginErrorRedirect sends the browser back to the frontend login page with
// an error message. The callback always answers with a redirect, never a
// JSON error, because its caller is a browser mid-flow.
func (s *Server) loginErrorRedirect(w http.ResponseWriter, r *http.Request, message string) {
	target := s.app.Config.Auth.FrontendURL + "/login?error=" + url.QueryEscape(message)
	http.Redirect(w, r, target, http.StatusFound)
}

// handleAuthCallback completes the OAuth code flow: exchanges the code,
// persists the session, and redirects to the frontend with the session,
// identity, and a gateway bearer token in the query string.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		s.logger.Info().Str("error", errParam).Msg("OAuth consent denied or failed")
		s.loginErrorRedirect(w, r, "Authentication failed")
		return
	}

	code := query.Get("code")
	if code == "" {
		s.logger.Info().Msg("OAuth callback without authorization code")
		s.loginErrorRedirect(w, r, "No code provided")
		return
	}

	sess, identity, err := s.app.Sessions.ExchangeCode(r.Context(), code)
	if err != nil {
		s.logger.Error().Err(err).Msg("Code exchange failed")
		s.loginErrorRedirect(w, r, "Authentication failed")
		return
	}

	tokenData, err := encodeParam(sess)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode session for redirect")
		s.loginErrorRedirect(w, r, "Authentication failed")
		return
	}
	userData, err := encodeParam(identity)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode identity for redirect")
		s.loginErrorRedirect(w, r, "Authentication failed")
		return
	}

	gatewayToken, err := s.signIdentityJWT(identity)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign gateway token")
		s.loginErrorRedirect(w, r, "Authentication failed")
		return
	}

	// Params are escaped exactly once by encodeParam, so the target is
	// assembled by hand rather than via url.Values.
	target := s.app.Config.Auth.FrontendURL + "/chat?tokenData=" + tokenData +
		"&userData=" + userData +
		"&token=" + url.QueryEscape(gatewayToken)

	s.logger.Debug().Str("uid", identity.UID).Msg("OAuth login complete, redirecting to frontend")
	http.Redirect(w, r, target, http.StatusFound)
}

// handleAuthRefresh exchanges the stored refresh token for a new access
// token. Requires a gateway bearer token; the uid claim selects the stored
// session.
func (s *Server) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	bearer := BearerToken(r)
	if bearer == "" {
		WriteError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	uid, err := s.validateIdentityJWT(bearer)
	if err != nil {
		WriteError(w, http.StatusForbidden, "Invalid token")
		return
	}

	sess, err := s.app.Sessions.RefreshStored(r.Context(), uid)
	if err != nil {
		var refreshErr *google.RefreshError
		switch {
		case errors.Is(err, tokendb.ErrNotFound), errors.Is(err, session.ErrNoRefreshToken):
			WriteError(w, http.StatusBadRequest, "No refresh token available")
		case errors.As(err, &refreshErr):
			s.logger.Error().Err(err).Str("uid", uid).Msg("Provider rejected refresh")
			WriteError(w, http.StatusBadGateway, "Failed to refresh token")
		default:
			// Anything else is a gateway-side fault (store I/O), not a
			// missing credential.
			s.logger.Error().Err(err).Str("uid", uid).Msg("Token refresh failed")
			WriteError(w, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": sess.AccessToken,
		"expires_in":   sess.ExpiresIn,
	})
}
