// Package apiclient is the single HTTP entry point to the SIMS backend.
//
// Client attaches the bearer token, refreshes it once on 401 and replays the
// failed request. Resource packages build on Do and the JSON helpers and never
// deal with tokens themselves.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/logger"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultRefreshPath = "/api/auth/refresh/"

	LoginPath       = "/login"
	HeaderRequestID = "X-Request-ID"
)

// Session credentials the client reads and mutates. Implemented by tokenstore.Store
type SessionStore interface {
	AccessToken() string
	RefreshToken() string
	// Must fail with apperrors.ErrSessionChanged if the session no longer holds usedRefresh
	UpdateTokens(ctx context.Context, usedRefresh string, access string, refresh string) error
	ClearSession(ctx context.Context) error
}

type Config struct {
	BaseURL     string        // required, e.g. http://localhost:8000
	Timeout     time.Duration // per request; 10s by default
	RefreshPath string        // "/api/auth/refresh/" by default

	// Optional, http.DefaultTransport by default. Wrapped into logging transport
	Transport http.RoundTripper
}

// Request describes a call to the backend. It is never mutated:
// a retry sends the very same value with the current access token.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client struct {
	baseURL     string
	refreshPath string
	timeout     time.Duration

	client    *http.Client
	store     SessionStore
	navigator Navigator
	logger    logger.Logger

	refreshGroup singleflight.Group
}

func New(cfg Config, store SessionStore, nav Navigator, l logger.Logger) (*Client, error) {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	if nav == nil {
		nav = LogNavigator(l)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	c := &Client{
		baseURL:     strings.TrimRight(base.String(), "/"),
		refreshPath: cfg.RefreshPath,
		timeout:     cfg.Timeout,
		store:       store,
		navigator:   nav,
		logger:      l,
	}
	if c.refreshPath == "" {
		c.refreshPath = defaultRefreshPath
	}
	if c.timeout == 0 {
		c.timeout = defaultTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	c.client = &http.Client{Transport: &loggingTransport{next: transport, logger: l}}

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends the request. Any non-2xx outcome is returned as *Error
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	return c.do(ctx, req, 0)
}

func (c *Client) do(ctx context.Context, req Request, attempt int) (*Response, error) {
	token := c.store.AccessToken()

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, newNetworkError(err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil

	case resp.StatusCode == http.StatusUnauthorized && attempt == 0:
		return c.refreshAndRetry(ctx, req, token, resp)

	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Warn("Request unauthorized after token refresh", "method", req.Method, "path", req.Path)
		c.endSession(ctx)
		return nil, newResponseError(CodeAuthExpired, resp, nil)

	default:
		return nil, newResponseError(CodeRequestFailed, resp, nil)
	}
}

func (c *Client) refreshAndRetry(ctx context.Context, req Request, failedToken string, unauthorized *Response) (*Response, error) {
	if c.store.RefreshToken() == "" {
		c.logger.Info("No refresh token, session ended", "path", req.Path)
		c.endSession(ctx)
		return nil, newResponseError(CodeAuthExpired, unauthorized, nil)
	}

	if err := c.refresh(ctx, failedToken); err != nil {
		return nil, newResponseError(CodeAuthRefreshFailed, unauthorized, err)
	}

	return c.do(ctx, req, 1)
}

// Exchange refresh token for a new access token.
// Concurrent callers share one exchange. A caller whose token was already replaced skips it.
func (c *Client) refresh(ctx context.Context, failedToken string) error {
	if current := c.store.AccessToken(); current != "" && current != failedToken {
		return nil
	}

	_, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		// Shared by all waiters: the leader's cancellation must not abort it
		ctx := context.WithoutCancel(ctx)

		if current := c.store.AccessToken(); current != "" && current != failedToken {
			return nil, nil
		}

		err := c.exchange(ctx)
		switch {
		case errors.Is(err, apperrors.ErrSessionChanged):
			// Cleared by logout or replaced by a new login: leave it alone
			c.logger.Info("Session changed during token refresh, refreshed tokens dropped")
		case err != nil:
			c.logger.Warn("Token refresh failed, session ended", "error", err)
			c.endSession(ctx)
		}
		return nil, err
	})
	if shared {
		c.logger.Debug("Token refresh shared with concurrent request")
	}
	return err
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (c *Client) exchange(ctx context.Context) error {
	used := c.store.RefreshToken()
	if used == "" {
		return apperrors.ErrSessionChanged
	}

	body, err := marshal(refreshRequest{Refresh: used})
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, Request{
		Method:      http.MethodPost,
		Path:        c.refreshPath,
		Body:        body,
		ContentType: contentTypeJSON,
	}, "")
	if err != nil {
		return newNetworkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newResponseError(CodeRequestFailed, resp, nil)
	}

	var tokens refreshResponse
	if err := unmarshal(resp.Body, &tokens); err != nil {
		return err
	}
	if tokens.Access == "" {
		return errors.New("refresh response has no access token")
	}

	if err := c.store.UpdateTokens(ctx, used, tokens.Access, tokens.Refresh); err != nil {
		return fmt.Errorf("failed to store refreshed tokens: %w", err)
	}
	c.logger.Debug("Access token refreshed", "rotated", tokens.Refresh != "")
	return nil
}

// Forget credentials and send the user to login. Safe to call several times
func (c *Client) endSession(ctx context.Context) {
	if err := c.store.ClearSession(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error("Failed to clear session", "error", err)
	}
	c.navigator.Navigate(LoginPath)
}

func (c *Client) send(ctx context.Context, r Request, token string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.url(r), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, values := range r.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", contentTypeJSON)
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) url(r Request) string {
	u := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	return u
}
