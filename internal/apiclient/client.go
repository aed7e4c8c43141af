// Package apiclient talks to the goal tracker REST API.
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
	"sync"
	"time"

	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const maxBodyBytes = 1 << 20

var errNoTokenSource = errors.New("no token source configured")

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// Client performs one request per call and never retries.
type Client struct {
	baseURL string
	http    *http.Client

	mu             sync.RWMutex
	tokens         oauth2.TokenSource
	onUnauthorized func(token string)
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource provides the bearer token for authenticated calls.
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers fn to run whenever an authenticated call is
// answered with 401. fn receives the token that was rejected.
func (c *Client) OnUnauthorized(fn func(token string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) tokenSource() oauth2.TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

type envelope struct {
	Success *bool           `json:"success"`
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

func (e envelope) reason() string {
	if len(e.Detail) > 0 {
		var s string
		if err := json.Unmarshal(e.Detail, &s); err == nil {
			return s
		}
		return string(e.Detail)
	}
	return e.Message
}

type request struct {
	op     string
	method string
	path   string
	body   interface{}
	// tokens is nil for anonymous endpoints.
	tokens oauth2.TokenSource
	authed bool
}

func (c *Client) anonymous(op, method, path string, body interface{}) request {
	return request{op: op, method: method, path: path, body: body}
}

func (c *Client) authenticated(op, method, path string, body interface{}) request {
	return request{op: op, method: method, path: path, body: body, tokens: c.tokenSource(), authed: true}
}

// do sends r and decodes a successful envelope into out. Both the HTTP status
// and the success flag must report success.
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"op":     r.op,
		"method": r.method,
		"path":   r.path,
	})

	var payload io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return &Error{Op: r.op, Kind: KindValidation, Err: err}
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, payload)
	if err != nil {
		return &Error{Op: r.op, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var usedToken string
	if r.authed {
		if r.tokens == nil {
			return &Error{Op: r.op, Kind: KindAuth, Detail: "not signed in", Err: errNoTokenSource}
		}
		tok, err := r.tokens.Token()
		if err != nil {
			return &Error{Op: r.op, Kind: KindAuth, Detail: "not signed in", Err: err}
		}
		tok.SetAuthHeader(req)
		usedToken = tok.AccessToken
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("API request failed without response")
		return &Error{Op: r.op, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.WithError(err).Warn("Failed to read API response")
		return &Error{Op: r.op, Kind: KindNetwork, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := env.reason()
		if decodeErr != nil || detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		apiErr := &Error{Op: r.op, Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Detail: detail}
		log.WithField("status", resp.StatusCode).Warnf("API rejected request: %s", detail)
		if apiErr.Kind == KindAuth && r.authed {
			c.unauthorized(usedToken)
		}
		return apiErr
	}

	if decodeErr != nil {
		log.WithError(decodeErr).Error("API returned an unparsable body")
		return &Error{Op: r.op, Kind: KindMalformed, Err: decodeErr}
	}
	if env.Success == nil {
		log.Error("API response is missing the success flag")
		return &Error{Op: r.op, Kind: KindMalformed, Detail: "missing success flag"}
	}
	if !*env.Success {
		detail := env.reason()
		log.Warnf("API reported failure: %s", detail)
		return &Error{Op: r.op, Kind: KindValidation, Status: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			log.WithError(err).Error("API response does not match the expected shape")
			return &Error{Op: r.op, Kind: KindMalformed, Err: err}
		}
	}
	return nil
}

func (c *Client) unauthorized(token string) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn(token)
	}
}

func malformed(op, format string, args ...interface{}) error {
	return &Error{Op: op, Kind: KindMalformed, Detail: fmt.Sprintf(format, args...)}
}
