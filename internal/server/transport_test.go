package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/courier/internal/models"
)

func TestSessionParamRoundTrip(t *testing.T) {
	sessions := []*models.OAuthSession{
		{AccessToken: "ya29.plain", RefreshToken: "1//rt", ExpiresIn: 3599, CreatedAt: 1_700_000_000_000},
		{AccessToken: "token/with/slashes+and+plus", RefreshToken: "rt&with=reserved?chars", ExpiresIn: 1, CreatedAt: 0},
		{AccessToken: `quote"inside`, RefreshToken: "space inside", ExpiresIn: 86400, CreatedAt: 42},
	}

	for _, want := range sessions {
		enc, err := encodeParam(want)
		require.NoError(t, err)

		got, err := decodeSessionParam(enc)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestIdentityParamRoundTrip(t *testing.T) {
	identities := []*models.UserIdentity{
		{UID: "108", Email: "user@example.com", Name: "Test User", Picture: "https://example.com/p.png"},
		{UID: "109", Email: "u+tag@example.com", Name: "Søren Ñandú 日本語", Picture: ""},
		{UID: "110", Email: "a@b.c", Name: `O'Brien & "Friends"`, Picture: "https://x/y?z=1&w=2"},
	}

	for _, want := range identities {
		enc, err := encodeParam(want)
		require.NoError(t, err)

		got, err := decodeIdentityParam(enc)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecodeSessionParam_MalformedIsTransportError(t *testing.T) {
	cases := []string{
		"",
		"%zz",
		"not-json",
		"%7B%22access_token%22%3A%7D", // {"access_token":}
		"%7B%7D",                      // {} decodes but has no access token
	}

	for _, raw := range cases {
		_, err := decodeSessionParam(raw)
		require.Error(t, err, "input %q", raw)

		var terr *TransportError
		assert.ErrorAs(t, err, &terr, "input %q", raw)
	}
}

func TestDecodeIdentityParam_MalformedIsTransportError(t *testing.T) {
	for _, raw := range []string{"", "%zz", "not-json", "%5B1%2C2%5D"} {
		_, err := decodeIdentityParam(raw)
		require.Error(t, err, "input %q", raw)

		var terr *TransportError
		assert.ErrorAs(t, err, &terr, "input %q", raw)
	}
}
