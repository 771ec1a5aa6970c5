package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/courierhq/courier/internal/clients/automation"
	"github.com/courierhq/courier/internal/models"
)

// chatPromptRequest is the inbound chat body. Identity fields travel in the
// body; the session travels in the Authorization header.
type chatPromptRequest struct {
	Prompt string `json:"prompt"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// handleChatPrompt forwards one prompt to the automation backend and returns
// the normalized reply.
//
// Policy on refresh failure here is FAIL: the prompt is about to be forwarded
// with the access token attached, so proceeding with a stale token would hand
// the backend a credential known to be dead. The caller gets 401 and must
// re-authenticate.
func (s *Server) handleChatPrompt(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatPromptRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		WriteError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	bearer := BearerToken(r)
	if bearer == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	session, err := decodeSessionParam(bearer)
	if err != nil {
		s.logger.Info().Err(err).Msg("Malformed session credential on chat request")
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	identity := &models.UserIdentity{Email: req.Email, Name: req.Name}

	if session.Expired(time.Now()) {
		// The chat path has no uid, so refreshes for the same account are
		// keyed by email here.
		refreshed, rerr := s.app.Sessions.Refresh(r.Context(), req.Email, session.RefreshToken)
		if rerr != nil {
			s.logger.Error().Err(rerr).Str("email", req.Email).Msg("Refresh of expired chat session failed")
			WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		session = refreshed
	}

	exchange := models.NewChatExchange(req.Prompt, session, identity, time.Now())

	// The outbound round trip finishes even if the browser aborts; a
	// half-delivered prompt on the backend is worse than a discarded reply.
	reply, err := s.app.Automation.Send(context.WithoutCancel(r.Context()), exchange)
	if err != nil {
		var proxyErr *automation.ProxyError
		if errors.As(err, &proxyErr) {
			s.logger.Error().Err(err).Int("backend_status", proxyErr.StatusCode).Msg("Automation backend call failed")
		} else {
			s.logger.Error().Err(err).Msg("Automation backend call failed")
		}
		WriteJSON(w, http.StatusBadGateway, map[string]string{
			"error":    "Failed to process message",
			"response": "Sorry, I encountered an error processing your message.",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"response": reply.Text})
}
