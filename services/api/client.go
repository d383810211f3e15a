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
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Credentials supplies the bearer token for outbound requests.
type Credentials interface {
	// Token returns the current token, or nil when signed out.
	Token(ctx context.Context) (*oauth2.Token, error)
	// Refresh replaces stale with a fresh token. Implementations must be single-flight.
	Refresh(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error)
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Credentials Credentials
	Logger      *zap.Logger
}

// Client is the single transport used by every API-facing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.RWMutex
	creds Credentials
}

// Request describes one API call. Either JSON or Form may be set, not both.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   url.Values
	NoAuth bool // skip the bearer header and the 401 refresh
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     logger,
		creds:      cfg.Credentials,
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// SetCredentials installs the token source. The session is built on top of the client, so it
// is wired after construction.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
}

func (c *Client) credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// Do sends req and decodes a successful JSON body into out (when out is non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	raw, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", req.Method, req.Path, ErrUnexpectedShape, err)
	}
	return nil
}

// DoRaw sends req and returns the raw body of a 2xx response. A 401 on an authenticated
// request triggers one refresh and one retry.
func (c *Client) DoRaw(ctx context.Context, req Request) (json.RawMessage, error) {
	creds := c.credentials()
	if req.NoAuth || creds == nil {
		status, body, err := c.send(ctx, req, nil)
		if err != nil {
			return nil, err
		}
		return c.result(req, status, body)
	}

	token, err := creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	status, body, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if status != http.StatusUnauthorized {
		return c.result(req, status, body)
	}

	c.logger.Debug("Unauthorized response, refreshing token",
		zap.String("method", req.Method), zap.String("path", req.Path))
	fresh, err := creds.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	status, body, err = c.send(ctx, req, fresh)
	if err != nil {
		return nil, err
	}
	return c.result(req, status, body)
}

func (c *Client) result(req Request, status int, body []byte) (json.RawMessage, error) {
	if status < 200 || status > 299 {
		return nil, newError(req.Method, req.Path, status, body)
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, req Request, token *oauth2.Token) (int, []byte, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	if token != nil && token.AccessToken != "" {
		token.SetAuthHeader(httpReq)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: request failed: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.Path, err)
	}
	c.logger.Debug("API call",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("requestID", requestID),
		zap.Duration("took", time.Since(started)),
	)
	return resp.StatusCode, body, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	endpoint := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.JSON != nil:
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, req.Path, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: create request: %w", method, req.Path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}
