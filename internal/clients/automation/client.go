// Package automation provides a client for the automation backend's chat webhook.
//
// The webhook's reply contract is ad hoc: the text may appear under several
// field names or as a bare string. Normalization follows a fixed extractor
// order that backend integrators rely on; see normalize.go. The contract
// should be formalized with the backend owner before new shapes are added.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/courierhq/courier/internal/common"
	"github.com/courierhq/courier/internal/models"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the AutomationClient interface.
type Client struct {
	webhookURL string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

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

// NewClient creates a new automation webhook client
func NewClient(webhookURL string, opts ...ClientOption) *Client {
	c := &Client{
		webhookURL: webhookURL,
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

// ProxyError reports a failed webhook round trip: backend unreachable,
// non-2xx status, or an unreadable body.
type ProxyError struct {
	StatusCode int
	Message    string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("automation webhook error: %s (status: %d)", e.Message, e.StatusCode)
}

// Send forwards a chat exchange to the webhook and normalizes the reply.
// A single attempt per call; retry policy belongs to the caller's transport.
func (c *Client) Send(ctx context.Context, exchange *models.ChatExchange) (*models.NormalizedReply, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ProxyError{Message: fmt.Sprintf("rate limit wait: %v", err)}
	}

	payload, err := json.Marshal(exchange)
	if err != nil {
		return nil, &ProxyError{Message: fmt.Sprintf("failed to encode exchange: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProxyError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("email", exchange.Email).Msg("Forwarding prompt to automation webhook")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProxyError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProxyError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProxyError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	return Normalize(body), nil
}
