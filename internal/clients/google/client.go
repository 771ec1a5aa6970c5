// Package google provides a client for Google's OAuth2 token and userinfo endpoints
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/courierhq/courier/internal/common"
	"github.com/courierhq/courier/internal/models"
)

const (
	DefaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL    = "https://oauth2.googleapis.com/token"
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	DefaultTimeout     = 30 * time.Second
	DefaultRateLimit   = 10 // requests per second
)

// Client implements the ProviderClient interface against Google.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       []string
	authURL      string
	tokenURL     string
	userInfoURL  string
	httpClient   *http.Client
	logger       *common.Logger
	limiter      *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithEndpoints overrides the token and userinfo endpoints (used by tests).
func WithEndpoints(tokenURL, userInfoURL string) ClientOption {
	return func(c *Client) {
		c.tokenURL = tokenURL
		c.userInfoURL = userInfoURL
	}
}

// WithAuthEndpoint overrides the consent endpoint.
func WithAuthEndpoint(authURL string) ClientOption {
	return func(c *Client) {
		c.authURL = authURL
	}
}

// WithScopes sets the consent scopes
func WithScopes(scopes []string) ClientOption {
	return func(c *Client) {
		c.scopes = scopes
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Google OAuth client
func NewClient(clientID, clientSecret, redirectURI string, opts ...ClientOption) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		authURL:     DefaultAuthURL,
		tokenURL:    DefaultTokenURL,
		userInfoURL: DefaultUserInfoURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ExchangeError reports a failed code-for-token exchange: the provider
// returned an error parameter, rejected the code, or the profile fetch
// failed after tokens were issued.
type ExchangeError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth exchange failed: %s (code: %s, status: %d)", e.Message, e.Code, e.StatusCode)
}

// RefreshError reports a failed refresh round trip: the refresh token is
// invalid or revoked, or the provider is unreachable.
type RefreshError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %s (code: %s, status: %d)", e.Message, e.Code, e.StatusCode)
}

// AuthCodeURL builds the provider consent URL with the configured scopes,
// access_type=offline and prompt=consent so a refresh token is issued.
// Missing client credentials surface as a ConfigError.
func (c *Client) AuthCodeURL() (string, error) {
	if c.clientID == "" {
		return "", &common.ConfigError{Field: "auth.google.client_id", Reason: "required to build consent URL"}
	}
	if c.redirectURI == "" {
		return "", &common.ConfigError{Field: "auth.google.redirect_uri", Reason: "required to build consent URL"}
	}

	params := url.Values{
		"client_id":     {c.clientID},
		"redirect_uri":  {c.redirectURI},
		"response_type": {"code"},
		"scope":         {strings.Join(c.scopes, " ")},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}
	return c.authURL + "?" + params.Encode(), nil
}

// tokenResponse is the provider token endpoint's reply shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// Exchange swaps an authorization code for tokens, then fetches the account
// profile with the fresh access token. Both round trips must succeed: tokens
// without an identity are treated as an incomplete exchange. CreatedAt is
// stamped at the moment tokens are received.
func (c *Client) Exchange(ctx context.Context, code string) (*models.OAuthSession, *models.UserIdentity, error) {
	tok, status, err := c.postToken(ctx, url.Values{
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {c.redirectURI},
		"grant_type":    {"authorization_code"},
	})
	if err != nil {
		return nil, nil, &ExchangeError{StatusCode: status, Message: err.Error()}
	}
	if tok.Error != "" || tok.AccessToken == "" {
		return nil, nil, &ExchangeError{StatusCode: status, Code: tok.Error, Message: tok.ErrorDesc}
	}

	session := &models.OAuthSession{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		CreatedAt:    time.Now().UnixMilli(),
	}

	identity, err := c.fetchUserInfo(ctx, session.AccessToken)
	if err != nil {
		return nil, nil, &ExchangeError{Code: "profile_failed", Message: err.Error()}
	}

	c.logger.Debug().Str("uid", identity.UID).Msg("Code exchange complete")
	return session, identity, nil
}

// Refresh exchanges a refresh token for a new access token. The original
// refresh token is reused unless the provider issues a replacement.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.OAuthSession, error) {
	tok, status, err := c.postToken(ctx, url.Values{
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return nil, &RefreshError{StatusCode: status, Message: err.Error()}
	}
	if tok.Error != "" || tok.AccessToken == "" {
		return nil, &RefreshError{StatusCode: status, Code: tok.Error, Message: tok.ErrorDesc}
	}

	session := &models.OAuthSession{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		CreatedAt:    time.Now().UnixMilli(),
	}
	if session.RefreshToken == "" {
		session.RefreshToken = refreshToken
	}
	return session, nil
}

// postToken performs a rate-limited form POST to the token endpoint.
// Returns the decoded body and the HTTP status; a non-2xx status is not an
// error here so callers can surface the provider's error code.
func (c *Client) postToken(ctx context.Context, form url.Values) (*tokenResponse, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("grant_type", form.Get("grant_type")).Msg("Token endpoint request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tok, resp.StatusCode, nil
}

// fetchUserInfo retrieves the account profile for an access token.
func (c *Client) fetchUserInfo(ctx context.Context, accessToken string) (*models.UserIdentity, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, string(body))
	}

	var info struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &models.UserIdentity{
		UID:     info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
