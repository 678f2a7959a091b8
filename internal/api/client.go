// Package api is a typed client for the storefront REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/esdaly/storefront/pkg/circuitbreaker"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseBody = 10 << 20

// TokenSource supplies the bearer token; "" means anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Option func(*Client)

// WithTransport replaces the base transport under the breaker and tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler is called after every 401 response.
func WithUnauthorizedHandler(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithBreaker(s circuitbreaker.Settings) Option {
	return func(c *Client) { c.breakerSettings = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

type Client struct {
	baseURL         string
	base            http.RoundTripper
	timeout         time.Duration
	breakerSettings circuitbreaker.Settings
	tokens          TokenSource
	onUnauthorized  func(ctx context.Context)
	logger          *zap.Logger

	http     *http.Client
	validate *validator.Validate
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		base:            http.DefaultTransport,
		timeout:         30 * time.Second,
		breakerSettings: circuitbreaker.Settings{Name: "storefront-api"},
		logger:          zap.NewNop(),
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}

	breaker := circuitbreaker.NewTransport(c.base, c.breakerSettings, c.logger)
	c.http = &http.Client{
		Transport: otelhttp.NewTransport(breaker),
		Timeout:   c.timeout,
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) check(ctx context.Context, req any) error {
	if err := c.validate.StructCtx(ctx, req); err != nil {
		var fields validator.ValidationErrors
		errors.As(err, &fields)
		return &ValidationError{Fields: fields, err: err}
	}
	return nil
}

// do sends a JSON request and decodes the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	ctx := req.Context()

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Warn("failed to read session token", zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("api request failed", zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := parseError(resp.StatusCode, contentType, body)
		c.logger.Debug("api error",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return apiErr
	}

	if !strings.Contains(contentType, "application/json") || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Success != nil && !*envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed (%d)", resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg, Errors: envelope.Errors}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Page selects a page of a listing. Zero values are left to the server.
type Page struct {
	Page  int
	Limit int
}

func (p Page) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Message is the bare success envelope.
type Message struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
