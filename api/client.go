// Package api is the typed client for the Bookworm REST backend. It owns the
// wire formats, attaches the session's access token to every request, and
// transparently retries a 401 response once after a single-flight token
// refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Eakan-Git/Bookworm/pkg/httpclient"
)

// TokenStore holds the current access token. The session manager implements
// it; the client never inspects the token, only forwards it.
type TokenStore interface {
	AccessToken() string
	SetAccessToken(token string) error
	Clear()
}

// Doer executes HTTP requests. Satisfied by httpclient.Client and its
// circuit-breaker wrapper.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client is the Bookworm API client.
type Client struct {
	baseURL   string
	http      Doer
	tokens    TokenStore
	refresher *refresher
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithSessionExpiredHook registers a callback fired when a token refresh is
// rejected and the session is cleared. The UI layer hangs its "please log
// in again" notification on this.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) {
		c.refresher.onExpired = fn
	}
}

// New creates an API client against the given base URL.
func New(baseURL string, hc Doer, tokens TokenStore, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		tokens:  tokens,
		logger:  logger,
	}
	c.refresher = &refresher{
		refresh: c.refreshToken,
		tokens:  tokens,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// send issues the request with the current access token. A 401 answer from
// anything other than the login endpoint triggers one token refresh and one
// replay of the request with the refreshed token; a second 401 is returned
// as-is. The body is kept as a byte slice so the replay can rewind it.
func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	resp, err := c.roundTrip(ctx, method, path, contentType, body, c.tokens.AccessToken())
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || strings.HasSuffix(path, loginPath) {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	token, err := c.refresher.Token(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "replaying request after token refresh",
		slog.String("method", method),
		slog.String("path", path),
	)
	return c.roundTrip(ctx, method, path, contentType, body, token)
}

// roundTrip performs one HTTP exchange with an explicit token.
func (c *Client) roundTrip(ctx context.Context, method, path, contentType string, body []byte, token string) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(ctx, req)
}

// getJSON sends a GET and decodes the 2xx body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.send(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// postJSON sends a JSON POST and decodes the 2xx body into out (out may be
// nil to discard it).
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, path, "application/json", body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// decodeJSON consumes the response: non-2xx statuses become AppErrors, 2xx
// bodies are decoded into out.
func decodeJSON(resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return httpclient.ParseResponseError(resp)
	}

	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
