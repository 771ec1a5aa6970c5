package server

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/courierhq/courier/internal/models"
)

// TransportError reports a session or identity payload that could not be
// decoded from its percent-encoded JSON form.
type TransportError struct {
	Param  string
	Reason string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %s", e.Param, e.Reason)
}

// encodeParam serializes v to JSON and percent-encodes the result for use as
// a single query parameter value. Values are escaped exactly once here and
// concatenated into the redirect by hand; running them through
// url.Values.Encode as well would double-escape them.
func encodeParam(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(data)), nil
}

// decodeSessionParam reverses encodeParam for an OAuthSession. The input is
// the percent-encoded form as it appeared in the query string or bearer
// credential.
func decodeSessionParam(raw string) (*models.OAuthSession, error) {
	if raw == "" {
		return nil, &TransportError{Param: "tokenData", Reason: "empty"}
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, &TransportError{Param: "tokenData", Reason: "invalid percent encoding"}
	}
	var session models.OAuthSession
	if err := json.Unmarshal([]byte(decoded), &session); err != nil {
		return nil, &TransportError{Param: "tokenData", Reason: "invalid JSON"}
	}
	if session.AccessToken == "" {
		return nil, &TransportError{Param: "tokenData", Reason: "missing access_token"}
	}
	return &session, nil
}

// decodeIdentityParam reverses encodeParam for a UserIdentity.
func decodeIdentityParam(raw string) (*models.UserIdentity, error) {
	if raw == "" {
		return nil, &TransportError{Param: "userData", Reason: "empty"}
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, &TransportError{Param: "userData", Reason: "invalid percent encoding"}
	}
	var identity models.UserIdentity
	if err := json.Unmarshal([]byte(decoded), &identity); err != nil {
		return nil, &TransportError{Param: "userData", Reason: "invalid JSON"}
	}
	return &identity, nil
}
