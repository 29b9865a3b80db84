// Package client submits form data to a formaction server over its JSON API
// and decodes the envelope.
//
// The server answers 200 for both success and validation failure, 400 for
// an undecodable body, and 500 for a masked internal failure.  All three
// carry an envelope, so all three decode.  Anything else is
// ErrUnexpectedStatus.
//
// Transport failures and gateway errors (502, 503, 504, 429) are retried
// with backoff.  A 500 is never retried: it is the server's final answer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/action"
	"github.com/yanizio/formaction/internal/user"
)

// ErrUnexpectedStatus wraps responses that carry no envelope.
var ErrUnexpectedStatus = errors.New("unexpected status")

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client talks to one server.
type Client struct {
	base string
	http *retryablehttp.Client
}

// Option tweaks a Client.
type Option func(*retryablehttp.Client)

// WithRetries sets the retry count and the backoff bounds.
func WithRetries(max int, waitMin, waitMax time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax, c.RetryWaitMin, c.RetryWaitMax = max, waitMin, waitMax
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *retryablehttp.Client) { c.HTTPClient = hc }
}

// New returns a client for the server at base (e.g. "http://localhost:8080").
func New(base string, log *zap.Logger, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = zapLeveled{log.Sugar()}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	for _, o := range opts {
		o(rc)
	}
	return &Client{base: strings.TrimRight(base, "/"), http: rc}
}

// CreateUser posts raw to /users.
func (c *Client) CreateUser(ctx context.Context, raw map[string]any) (action.Envelope[user.CreatedUser], error) {
	return Submit[user.CreatedUser](ctx, c, "/users", raw)
}

// Submit posts raw as JSON to path and decodes the envelope.
func Submit[O any](ctx context.Context, c *Client, path string, raw map[string]any) (action.Envelope[O], error) {
	var env action.Envelope[O]

	body, err := json.Marshal(raw)
	if err != nil {
		return env, fmt.Errorf("client: encode: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return env, fmt.Errorf("client: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return env, fmt.Errorf("client: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return env, fmt.Errorf("client: read: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError:
	default:
		return env, fmt.Errorf("client: %w %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(data))
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("client: decode envelope (status %d): %w", resp.StatusCode, err)
	}
	return env, nil
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// zapLeveled adapts a SugaredLogger to retryablehttp.LeveledLogger.
type zapLeveled struct{ s *zap.SugaredLogger }

func (z zapLeveled) Error(msg string, kv ...interface{}) { z.s.Errorw(msg, kv...) }
func (z zapLeveled) Info(msg string, kv ...interface{})  { z.s.Debugw(msg, kv...) }
func (z zapLeveled) Debug(msg string, kv ...interface{}) { z.s.Debugw(msg, kv...) }
func (z zapLeveled) Warn(msg string, kv ...interface{})  { z.s.Warnw(msg, kv...) }
