package models

import "time"

// ChatExchange is the full payload forwarded to the automation backend for
// one inbound prompt. It is constructed per request, never persisted, and
// serialized flat so the webhook sees tokens, identity, and prompt as
// top-level fields.
type ChatExchange struct {
	Prompt       string `json:"prompt"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	CreatedAt    int64  `json:"created_at"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Timestamp    string `json:"timestamp"`
}

// NewChatExchange builds a ChatExchange from a session and identity.
// Session and identity are immutable for the exchange's duration.
func NewChatExchange(prompt string, session *OAuthSession, identity *UserIdentity, now time.Time) *ChatExchange {
	return &ChatExchange{
		Prompt:       prompt,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		CreatedAt:    session.CreatedAt,
		Email:        identity.Email,
		Name:         identity.Name,
		Timestamp:    now.UTC().Format(time.RFC3339),
	}
}

// NormalizedReply is the single reply contract returned to chat callers,
// derived from the automation backend's untyped payload.
type NormalizedReply struct {
	Text string `json:"text"`
}
