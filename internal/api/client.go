package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Client provides access to the Sentra analytics API.
type Client struct {
	baseURL    string
	apiKey     string
	orgUID     string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new API client for one organization.
func NewClient(baseURL, apiKey, orgUID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		orgUID:  orgUID,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout. The timeout covers the whole
// response body read, so it is generous by default: query responses stream.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
