// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/edusphere/edusphere-tui/internal/credential"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout covers slow AI-backed calls.
	DefaultTimeout = 8 * time.Minute

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "edusphere-tui/0.1.0"

	// MaxResponseSize caps JSON responses (10MB).
	MaxResponseSize = 10 * 1024 * 1024

	// MaxDownloadSize caps file downloads (50MB).
	MaxDownloadSize = 50 * 1024 * 1024
)

// sharedTransport pools connections across clients.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// =============================================================================
// CLIENT
// =============================================================================

// Config holds client settings.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	DownloadPattern string
	RateLimit       float64 // requests per second, 0 = unlimited
	RateBurst       int
	UserAgent       string

	// HTTPClient overrides the pooled client, mainly for tests.
	HTTPClient *http.Client
}

// SessionEvent is published when a 401 ended the session.
type SessionEvent struct {
	Path string
	At   time.Time
}

// Client performs exchanges with token injection and outcome classification.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	policy    Policy
	limiter   *rate.Limiter
	creds     *credential.Store

	subsMu sync.Mutex
	subs   []chan SessionEvent
}

// New creates a client reading tokens from creds.
func New(cfg Config, creds *credential.Store) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNoBaseURL
	}
	if creds == nil {
		return nil, errors.New("credential store cannot be nil")
	}

	policy, err := NewPolicy(cfg.DownloadPattern)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		http:      cfg.HTTPClient,
		policy:    policy,
		creds:     creds,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.http == nil {
		c.http = &http.Client{Transport: sharedTransport}
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the exchange deadline.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Credentials returns the store the client reads tokens from.
func (c *Client) Credentials() *credential.Store {
	return c.creds
}

// =============================================================================
// EXCHANGES
// =============================================================================

// Send performs a request and reads the whole response within the deadline.
func (c *Client) Send(ctx context.Context, env *Envelope) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, resp, err := c.exchange(ctx, newCall(env), MaxResponseSize)
	if err != nil {
		return nil, err
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Download fetches a binary resource with GET. Paths matching the download
// exemption keep the session on 401.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	env := Get(path).WithHeader("Accept", "*/*")
	body, _, err := c.exchange(ctx, newCall(env), MaxDownloadSize)
	return body, err
}

// Stream performs a request and returns the body unread. The deadline covers
// only the wait for response headers; the caller's ctx bounds the body.
func (c *Client) Stream(ctx context.Context, env *Envelope) (*StreamResponse, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	timer := time.AfterFunc(c.timeout, func() {
		cancel(context.DeadlineExceeded)
	})

	call := newCall(env)
	resp, err := c.do(ctx, call)
	timer.Stop()
	if err != nil {
		cancel(nil)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := readResponse(resp.Body, MaxResponseSize)
		resp.Body.Close()
		cancel(nil)
		if readErr != nil {
			body = nil
		}
		return nil, c.classify(call, resp.StatusCode, body, nil)
	}

	return &StreamResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		body:   resp.Body,
		cancel: func() { cancel(nil) },
	}, nil
}

// call tracks one exchange for classification.
type call struct {
	env   *Envelope
	start time.Time

	// authed is set once a bearer token was attached to the request.
	authed bool
}

func newCall(env *Envelope) *call {
	return &call{env: env, start: time.Now()}
}

// exchange runs do and reads the body, classifying every failure.
func (c *Client) exchange(ctx context.Context, cl *call, limit int64) ([]byte, *http.Response, error) {
	resp, err := c.do(ctx, cl)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp.Body, limit)
	if err != nil {
		return nil, nil, c.classify(cl, 0, nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, c.classify(cl, resp.StatusCode, body, nil)
	}
	return body, resp, nil
}

// do sends the request. A transport failure is already classified.
func (c *Client) do(ctx context.Context, cl *call) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.classify(cl, 0, nil, c.cause(ctx, err))
		}
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, err
	}

	c.logRequest(req)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(cl, 0, nil, c.cause(ctx, err))
	}
	c.logResponse(resp, cl.env, time.Since(start))
	return resp, nil
}

// newRequest builds the HTTP request and runs the pre-send hook.
func (c *Client) newRequest(ctx context.Context, cl *call) (*http.Request, error) {
	env := cl.env
	method := env.Method
	if method == "" {
		method = http.MethodGet
	}
	url := c.baseURL + env.Path
	if len(env.Query) > 0 {
		url += "?" + env.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, env.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range env.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if env.ContentType != "" {
		req.Header.Set("Content-Type", env.ContentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	if token, ok := c.creds.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
		cl.authed = true
	}
	return req, nil
}

// cause prefers the context's cancellation cause, so a fired stream header
// timer reads as a deadline rather than a plain cancellation.
func (c *Client) cause(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(err, cause) {
		return fmt.Errorf("%w: %v", cause, err)
	}
	return err
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// classify turns an outcome into the error the caller sees. A 401 on a
// request that carried no token ends no session; it is returned as is.
func (c *Client) classify(cl *call, status int, body []byte, err error) error {
	env := cl.env
	switch c.policy.Classify(env.Path, status, err) {
	case ActionInvalidateSession:
		if !cl.authed {
			break
		}
		c.invalidate(env.Path)
		return &SessionInvalidatedError{
			Path: env.Path,
			Err:  &HTTPError{Status: status, Body: body},
		}
	case ActionTimeout:
		return &TimeoutError{Op: env.Op(), After: time.Since(cl.start).Round(time.Millisecond)}
	}

	if err != nil {
		return &NetworkError{Op: env.Op(), Err: err}
	}
	return &HTTPError{Status: status, Body: body}
}

// invalidate clears the credential and notifies subscribers.
func (c *Client) invalidate(path string) {
	if err := c.creds.Clear(); err != nil {
		log.Printf("Session invalidation: failed to clear credentials: %v", err)
	}
	log.Printf("Session invalidated by 401 on %s", path)
	c.publish(SessionEvent{Path: path, At: time.Now()})
}

// Subscribe returns a channel receiving session invalidation events. Events
// are dropped for a subscriber whose buffer is full.
func (c *Client) Subscribe() <-chan SessionEvent {
	ch := make(chan SessionEvent, 1)
	c.subsMu.Lock()
	c.subs = append(c.subs, ch)
	c.subsMu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (c *Client) Unsubscribe(ch <-chan SessionEvent) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for i, sub := range c.subs {
		if sub == ch {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

func (c *Client) publish(ev SessionEvent) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// readResponse reads a body with a size limit.
func readResponse(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", limit)
	}
	return body, nil
}

// logRequest logs method and path only; headers carry the token.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

func (c *Client) logResponse(resp *http.Response, env *Envelope, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, env.Path, duration)
}
