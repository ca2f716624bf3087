// Package client is the HTTP client of the brokerhub backend REST API.
//
// Every request carries the bearer token and the current account of the
// session it is bound to. Every failure, whether the server rejected the
// request or the network failed, is returned as an *Error with a single
// human readable message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "http://localhost:8080/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Credentials is the source of the authentication headers.
// Both methods return "" when there is nothing to send.
type Credentials interface {
	Token() string
	AccountID() string
}

// Client is the backend API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
	limiter    *rate.Limiter
	creds      Credentials
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets the API base URL, including the /api prefix.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit, in requests per second.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout of a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client. It sends no authentication headers until
// SetCredentials is called.
func New(opts ...Option) *Client {
	silent := logrus.New()
	silent.SetOutput(io.Discard)
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     silent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCredentials binds the client to a source of authentication headers,
// typically the session manager. It must be called before any request is
// issued.
func (c *Client) SetCredentials(creds Credentials) { c.creds = creds }

// Error is a failed API call.
type Error struct {
	StatusCode int    // 0 when no response was received
	Message    string // human readable
	RequestID  string
	Err        error // transport error, if any
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// IsStatus reports whether err is an API error with the given status code.
func IsStatus(err error, code int) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == code
}

// errorMessage extracts the message of an error body. The backend reports
// failures as {"error": "..."}, some endpoints use {"message": "..."}.
func errorMessage(body []byte, status int) string {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		for _, path := range []string{"$.error", "$.message"} {
			jval, err := jsonpath.Get(path, v)
			if err != nil {
				continue
			}
			if s, ok := jval.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("Request failed with status %d", status)
}

// transportError normalizes a failure to get any response.
func transportError(err error, requestID string) *Error {
	msg := "Network error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Message: msg, RequestID: requestID, Err: err}
}

// do performs a rate-limited request. in, when not nil, is sent as the JSON
// body; out, when not nil, receives the decoded JSON response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	requestID := uuid.NewString()
	if err := c.limiter.Wait(ctx); err != nil {
		return transportError(err, requestID)
	}

	addr := c.baseURL + path
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cannot encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, addr, body)
	if err != nil {
		return fmt.Errorf("cannot create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", requestID)
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if id := c.creds.AccountID(); id != "" {
			req.Header.Set("X-Account-Id", id)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	log := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
		"duration":   time.Since(start),
	})
	if err != nil {
		log.WithError(err).Debug("api request failed")
		return transportError(err, requestID)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Debug("api response truncated")
		return transportError(err, requestID)
	}
	log.WithField("status", resp.StatusCode).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data, resp.StatusCode),
			RequestID:  requestID,
		}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cannot decode %s %s response: %w", method, path, err)
	}
	return nil
}

// p joins escaped path segments.
func p(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
