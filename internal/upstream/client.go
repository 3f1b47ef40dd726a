// Package upstream is the boundary adapter for the platform REST backend.
// Every console screen reads and acts through this client; it owns bearer
// token attachment, 401 session teardown and response-shape normalization.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/opsdesk/opsdesk/internal/shared"
)

// Error carries an upstream failure with the human-readable message the
// backend attached, when it attached one.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream: status %d", e.Status)
}

// UserMessage returns the backend's human-readable message, if any.
func (e *Error) UserMessage() string {
	return e.Message
}

// Doer abstracts *http.Client for tests.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the platform backend on behalf of the current operator.
type Client struct {
	base         *url.URL
	http         Doer
	limiter      *rate.Limiter
	sessions     *shared.SessionManager
	serviceToken string
	logger       *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithServiceToken sets the bearer used when no operator session is present,
// e.g. from background jobs.
func WithServiceToken(token string) Option {
	return func(c *Client) { c.serviceToken = token }
}

// New constructs a Client for the given base URL.
func New(baseURL string, sessions *shared.SessionManager, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base url: %w", err)
	}
	c := &Client{
		base:     base,
		http:     &http.Client{},
		limiter:  rate.NewLimiter(rate.Limit(20), 40),
		sessions: sessions,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get performs an authenticated GET and decodes the body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, true)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, true)
}

// PostAnon performs an unauthenticated POST, used by the login flow.
func (c *Client) PostAnon(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, false)
}

// ListPage fetches one page of a collection resource and normalizes it.
func (c *Client) ListPage(ctx context.Context, resource string, page, limit int, filters map[string]string) (Page, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", fmt.Sprintf("%d", page))
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	for k, v := range filters {
		if v != "" {
			query.Set(k, v)
		}
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, resource, query, nil, &raw, true); err != nil {
		return Page{}, err
	}
	return NormalizePage(raw)
}

// ListAll fetches the whole collection in one oversized page, the contract
// client-paginated screens rely on.
func (c *Client) ListAll(ctx context.Context, resource string, filters map[string]string) (Page, error) {
	return c.ListPage(ctx, resource, 1, 10000, filters)
}

// Detail fetches a single enriched record.
func (c *Client) Detail(ctx context.Context, resource, id string, out any) error {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, resource+"/"+url.PathEscape(id), nil, nil, &raw, true); err != nil {
		return err
	}
	item, err := NormalizeItem(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(item, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authenticated bool) error {
	token := c.serviceToken
	sess := shared.SessionFromContext(ctx)
	if sess != nil && sess.Token() != "" {
		token = sess.Token()
	}
	if authenticated {
		if token == "" {
			return shared.ErrNotAuthenticated
		}
		if tokenExpired(token) {
			return c.expireSession(ctx, sess)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("upstream: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("upstream: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("upstream: read body: %w", err)
	}

	if res.StatusCode == http.StatusUnauthorized {
		return c.expireSession(ctx, sess)
	}
	if res.StatusCode >= 400 {
		return &Error{Status: res.StatusCode, Message: failureMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("upstream: decode response: %w", err)
	}
	return nil
}

// expireSession destroys the operator session after an upstream 401. The
// caller's operation is terminal at this point; everything downstream must
// treat ErrSessionExpired as "stop, redirect to login".
func (c *Client) expireSession(ctx context.Context, sess *shared.Session) error {
	if sess != nil && !sess.Destroyed() {
		c.sessions.Destroy(sess)
		if err := c.sessions.Save(ctx, sess); err != nil && c.logger != nil {
			c.logger.Warn("destroy expired session", slog.Any("error", err))
		}
	}
	return shared.ErrSessionExpired
}

// tokenExpired reports whether a bearer JWT carries an exp claim in the past.
// The signature is not verified here; the upstream remains the authority and
// a non-JWT token simply skips the check.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// failureMessage digs the human-readable message out of a failure payload.
func failureMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Data    struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Error != "":
		return body.Error
	default:
		return body.Data.Message
	}
}
