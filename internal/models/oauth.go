package models

import "time"

// OAuthSession is the bundle of provider-issued credentials tracked by the
// gateway. CreatedAt is set exactly once per token issuance (initial exchange
// or refresh) in epoch milliseconds; ExpiresIn is provider-supplied seconds
// and treated as authoritative. A refresh supersedes the whole session, it
// never merges into an existing one.
type OAuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	CreatedAt    int64  `json:"created_at"`
}

// Expired reports whether the session's access token has expired at the
// given instant. The boundary is inclusive: at exactly CreatedAt +
// ExpiresIn seconds the token is expired.
func (s *OAuthSession) Expired(now time.Time) bool {
	return ExpiredAt(s.CreatedAt, s.ExpiresIn, now)
}

// ExpiredAt is the pure expiry predicate: now >= created_at + expires_in*1000,
// all in epoch milliseconds. Kept free of I/O and clock reads so the boundary
// semantics are directly testable.
func ExpiredAt(createdAtMillis, expiresInSeconds int64, now time.Time) bool {
	return now.UnixMilli() >= createdAtMillis+expiresInSeconds*1000
}

// UserIdentity is the provider account's display metadata, fetched once per
// code exchange and passed by value afterwards. UID is stable per provider
// account; the other fields are not re-validated after the exchange.
type UserIdentity struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// TokenRecord is the persisted per-identity session, keyed by UID.
// At most one live record exists per identity; a refresh overwrites it.
type TokenRecord struct {
	UID       string       `json:"uid"`
	Session   OAuthSession `json:"session"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	UpdatedAt time.Time    `json:"updated_at"`
}
