package apiclient

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxResponseBytes = 4 << 20

// TokenSource yields the bearer token for authenticated calls. An empty token
// means the call goes out without credentials.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a thin wrapper over the remote prasad API. It adds no retries:
// a failed call is reported once, normalized to *APIError.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
	now     func() time.Time

	orders singleflight.Group
}

func New(cfg Config, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// successMessages are accepted as success even when the envelope status is
// something other than "success".
var successMessages = map[string]bool{
	"Order created successfully":   true,
	"Receipt created successfully": true,
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, true, nil)
}

func (c *Client) GetNoAuth(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false, nil)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, true, nil)
}

func (c *Client) PostNoAuth(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, false, nil)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out, true, nil)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out, true, nil)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, true, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, auth bool, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return newAPIError(0, "", "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if auth && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Warn("auth token unavailable", zap.Error(err))
		}
		if token != "" {
			if claims, err := ParseClaims(token); err == nil && claims.Expired(c.now()) {
				return newAPIError(http.StatusUnauthorized, "Unauthorized", "Your session has expired. Please log in again.", ErrTokenExpired)
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote call failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return newAPIError(0, "", "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return newAPIError(resp.StatusCode, "", "", err)
	}
	c.logger.Debug("remote call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return decodeResponse(resp.StatusCode, raw, out)
}

func decodeResponse(status int, raw []byte, out any) error {
	var env envelope
	envErr := errors.New("empty body")
	if len(bytes.TrimSpace(raw)) > 0 {
		envErr = json.Unmarshal(raw, &env)
	}

	if status < 200 || status >= 300 {
		return newAPIError(status, env.Error, env.Message, nil)
	}
	if envErr == nil && env.Status != "" && env.Status != "success" && !successMessages[env.Message] {
		return newAPIError(status, env.Error, env.Message, nil)
	}
	if out == nil {
		return nil
	}

	payload := raw
	if envErr == nil && len(env.Data) > 0 {
		payload = env.Data
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return newAPIError(status, "Decode Error", "", err)
	}
	return nil
}
