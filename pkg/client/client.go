// Package client provides the HTTP transport for the Service Bus management
// endpoint with throttle gating, retry, and error classification.
package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/queueworks/sb-admin-client/pkg/throttle"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for management request operations.
var (
	sbRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sb_mgmt_requests_total",
		Help: "Total management requests by path and status",
	}, []string{"path", "status"})

	sbRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sb_mgmt_request_duration_seconds",
		Help:    "Management request duration in seconds by path",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"path"})

	sbErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sb_mgmt_errors_total",
		Help: "Total management errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassThrottle represents 429 throttling responses.
	ErrorClassThrottle ErrorClass = "throttle"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// DefaultAPIVersion is sent as the api-version query parameter when the
// configuration does not override it.
const DefaultAPIVersion = "2021-05"

// Response is the outcome of a successful management request.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Client is the management transport client.
type Client struct {
	httpClient *http.Client
	redis      *redis.Client
	throttler  *throttle.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis client for the shared throttle window
	Redis *redis.Client

	// Endpoint is the namespace base URL, e.g. "https://contoso.servicebus.example.net"
	Endpoint string

	// TokenProvider supplies Authorization header values
	TokenProvider TokenProvider

	// UserAgent identifies the application
	UserAgent string

	// APIVersion overrides DefaultAPIVersion when set
	APIVersion string

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, endpoint string, tokens TokenProvider) Config {
	return Config{
		Redis:          redis,
		Endpoint:       endpoint,
		TokenProvider:  tokens,
		UserAgent:      "sb-admin-client/0.1.0",
		APIVersion:     DefaultAPIVersion,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new management transport client.
func New(cfg Config) (*Client, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	if cfg.TokenProvider == nil {
		return nil, fmt.Errorf("token provider is required")
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}

	logger := log.With().Str("component", "mgmt-client").Logger()

	throttler := throttle.NewTracker(cfg.Redis, logger)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		redis:     cfg.Redis,
		throttler: throttler,
		config:    cfg,
		logger:    logger,
	}, nil
}

// Get performs a GET request against a management path.
// The request is gated on the shared throttle window, retried per error
// class, and any terminal non-2xx outcome is returned as a ManagementError
// carrying the HTTP status and the parsed error detail.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	startTime := time.Now()
	defer func() {
		sbRequestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check throttle window
	allowed, err := c.throttler.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Throttle check failed")
		return nil, fmt.Errorf("throttle check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("path", path).
			Msg("Request blocked by throttle window")
		sbRequestsTotal.WithLabelValues(path, "throttled").Inc()
		return nil, ErrThrottled
	}

	requestURL, err := c.buildURL(path, query)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("path", path).
		Str("url", requestURL).
		Msg("Executing management request")

	// Step 2: Execute with retry per error class
	var out *Response
	var terminal error

	retryErr := retryWithBackoff(ctx, func() (ErrorClass, error) {
		resp, reqErr := c.do(ctx, requestURL)
		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("path", path).Msg("HTTP request failed")
			sbErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			sbRequestsTotal.WithLabelValues(path, "network_error").Inc()
			return ErrorClassNetwork, reqErr
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			sbErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return ErrorClassNetwork, fmt.Errorf("read response body: %w", readErr)
		}

		// Record throttling signals regardless of outcome
		if err := c.throttler.UpdateFromResponse(ctx, resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update throttle state")
		}

		sbRequestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			sbErrorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("path", path).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Management request error")

			mgmtErr := &ManagementError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    parseErrorDetail(body, resp.Status),
			}

			if shouldRetry(errClass) {
				return errClass, mgmtErr
			}

			// Deterministic failure: surface without retrying
			terminal = mgmtErr
			return errClass, nil
		}

		out = &Response{
			StatusCode: resp.StatusCode,
			Body:       body,
			Header:     resp.Header,
		}
		return "", nil
	})

	if retryErr != nil {
		return nil, retryErr
	}
	if terminal != nil {
		return nil, terminal
	}

	return out, nil
}

// do builds and executes a single HTTP request.
func (c *Client) do(ctx context.Context, requestURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	token, err := c.config.TokenProvider.Token(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}

	req.Header.Set("Authorization", token)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/atom+xml")

	return c.httpClient.Do(req)
}

// buildURL joins the namespace endpoint, path, query, and api-version.
func (c *Client) buildURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.config.Endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	u.Path = u.Path + "/" + strings.TrimPrefix(path, "/")

	q := url.Values{}
	for key, values := range query {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	q.Set("api-version", c.config.APIVersion)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// classifyStatus categorizes an HTTP status for observability and handling.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassThrottle
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// errorBody is the XML error envelope management endpoints return.
type errorBody struct {
	XMLName xml.Name `xml:"Error"`
	Code    int      `xml:"Code"`
	Detail  string   `xml:"Detail"`
}

// parseErrorDetail extracts the human-readable detail from an error body,
// falling back to the HTTP status line.
func parseErrorDetail(body []byte, fallback string) string {
	var eb errorBody
	if err := xml.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return fallback
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
