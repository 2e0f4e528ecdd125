// Package gateway is the single outbound path to the LegalTime backend.
//
// A Client holds the base URL, fixed at construction, and the current
// bearer credential, which the session swaps wholesale on login and
// logout. Every request sent through the Client carries the credential
// that was current when it was dispatched.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/log"
	"github.com/felixgeelhaar/legaltime/internal/token"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// AuthRejectedHandler is told when the backend rejects the credential that
// is still current. It runs before the failing call returns.
type AuthRejectedHandler func(ctx context.Context, status int)

// Client sends authenticated requests to the backend.
type Client struct {
	baseURL *url.URL

	mu         sync.RWMutex
	credential string
	onRejected AuthRejectedHandler

	base        http.RoundTripper
	timeout     time.Duration
	http        *http.Client
	forceLogout map[int]bool
	userAgent   string
	logger      *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the transport requests are finally sent through.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.WithComponent("gateway")
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithForceLogoutStatuses replaces the set of statuses treated as a
// rejected credential. The default is 401 and 403.
func WithForceLogoutStatuses(statuses ...int) Option {
	return func(c *Client) {
		c.forceLogout = make(map[int]bool, len(statuses))
		for _, s := range statuses {
			c.forceLogout[s] = true
		}
	}
}

// New builds a Client for baseURL. The URL must be absolute.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid API URL %q", baseURL)).
			WithSuggestion("Set api.url to an absolute URL such as http://localhost:8000")
	}

	c := &Client{
		baseURL:     u,
		base:        http.DefaultTransport,
		timeout:     DefaultTimeout,
		forceLogout: map[int]bool{http.StatusUnauthorized: true, http.StatusForbidden: true},
		userAgent:   "legaltime",
		logger:      log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = &http.Client{
		Timeout:   c.timeout,
		Transport: &authTransport{client: c, base: c.base},
	}
	return c, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetCredential replaces the bearer credential for all later requests.
func (c *Client) SetCredential(raw string) {
	c.mu.Lock()
	c.credential = raw
	c.mu.Unlock()
	c.logger.Debug("credential replaced", "token", token.Fingerprint(raw))
}

// ClearCredential removes the bearer credential; later requests go out
// unauthenticated.
func (c *Client) ClearCredential() {
	c.mu.Lock()
	c.credential = ""
	c.mu.Unlock()
	c.logger.Debug("credential cleared")
}

// Credential returns the current bearer credential, or "".
func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// OnAuthRejected registers the forced-logout hook. A nil handler disables it.
func (c *Client) OnAuthRejected(h AuthRejectedHandler) {
	c.mu.Lock()
	c.onRejected = h
	c.mu.Unlock()
}

// HTTPClient returns an http.Client that authenticates like the gateway,
// for callers that need raw access.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// URL resolves path and query against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch sends body as JSON and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do sends one request. body, when non-nil, is encoded as JSON; out, when
// non-nil, receives the decoded JSON response. Failures are coded errors
// from internal/errors.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, cred, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.check(ctx, resp, cred); err != nil {
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetworkError(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrCodeAPIDecode, fmt.Sprintf("unexpected response from %s %s", method, path), err).
			WithStatus(resp.StatusCode)
	}
	return nil
}

// Download streams the response body of a GET to w.
func (c *Client) Download(ctx context.Context, path string, query url.Values, w io.Writer) (int64, error) {
	resp, cred, err := c.send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := c.check(ctx, resp, cred); err != nil {
		return 0, err
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.NewNetworkError(err)
	}
	return n, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeAPI, "failed to encode request body", err)
		}
		reader = bytes.NewReader(data)
	}

	// Pin the credential so the response is judged against what was sent.
	cred := c.Credential()
	ctx = withCredential(ctx, cred)

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), reader)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeAPI, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, "", errors.NewNetworkError(err)
	}

	c.logger.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(RequestIDHeader),
		"token", token.Fingerprint(cred),
		"duration", time.Since(start),
	)
	return resp, cred, nil
}

// check maps a non-2xx response to a coded error. A rejected credential
// that is still current triggers the forced-logout hook first.
func (c *Client) check(ctx context.Context, resp *http.Response, cred string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if c.forceLogout[resp.StatusCode] {
		c.mu.RLock()
		current, handler := c.credential, c.onRejected
		c.mu.RUnlock()

		if handler != nil && current == cred {
			handler(ctx, resp.StatusCode)
		}
		return errors.NewAuthRejectedError(resp.StatusCode)
	}

	return responseError(resp.StatusCode, data)
}

// responseError builds the coded error for a failed response body.
func responseError(status int, body []byte) error {
	msg, fields := ParseDetail(body, http.StatusText(status))
	switch {
	case status == http.StatusUnprocessableEntity:
		return errors.NewValidationError(msg, fields)
	case status == http.StatusNotFound:
		return errors.New(errors.ErrCodeAPINotFound, msg).WithStatus(status)
	default:
		return errors.New(errors.ErrCodeAPI, msg).WithStatus(status)
	}
}
