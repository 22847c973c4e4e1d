package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	"github.com/gestaonuvem/entitlements/pkg/logger"
)

const (
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 4 << 10
)

// Client talks to the backend of record. Every call goes through one circuit
// breaker; only idempotent reads are retried.
type Client struct {
	cfg     Config
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	clock   clockwork.Clock
	logger  *slog.Logger

	tokens oauth2.TokenSource
	base   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from. It overrides Config.Token.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithHTTPClient sets the underlying client the auth transport wraps.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.base = hc
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a backend client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q", ErrInvalidConfig, cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	c := &Client{
		cfg:     cfg,
		baseURL: base,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
		base:    &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil && cfg.Token != "" {
		c.tokens = StaticToken(cfg.Token)
	}
	c.logger = c.logger.With(logger.Component("backend"))

	if c.tokens != nil {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.base)
		c.http = oauth2.NewClient(ctx, authSource{src: c.tokens})
	} else {
		c.http = c.base
	}

	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= max(cfg.BreakerMaxFailures, 1)
		},
		// Rejections are answers; only 5xx, 429 and transport errors count against the backend.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests)
		},
		// Caller cancellations and auth problems say nothing about backend health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, ErrUnauthenticated)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return c, nil
}

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// call sends one JSON request and decodes a 2xx body into out.
func (c *Client) call(ctx context.Context, method, path string, in, out any, idempotent bool) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
	}

	requestID, ok := logger.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}

	attempts := 1
	if idempotent {
		attempts += c.cfg.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt-1, lastErr)); err != nil {
				return err
			}
			c.logger.DebugContext(ctx, "retrying backend request",
				slog.String("path", path),
				logger.RetryCount(attempt),
				logger.Error(lastErr),
			)
		}

		resp, err := c.send(ctx, method, path, body, requestID)
		if err == nil {
			defer resp.Body.Close()
			return c.decode(method, path, resp, out)
		}
		lastErr = err

		if !retryable(ctx, err) {
			break
		}
	}

	return c.classify(ctx, method, path, lastErr)
}

// send performs one attempt. A non-nil response is only returned for 2xx.
func (c *Client) send(ctx context.Context, method, path string, body []byte, requestID string) (*http.Response, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerRequestID, requestID)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		defer resp.Body.Close()
		return nil, statusError(method, path, resp)
	})
}

func (c *Client) decode(method, path string, resp *http.Response, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Join(ErrDecodeResponse, fmt.Errorf("%s %s: %w", method, path, err))
	}
	return nil
}

func (c *Client) classify(ctx context.Context, method, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.ErrorContext(ctx, "backend circuit open", slog.String("path", path))
		return errors.Join(ErrGatewayFailure, err)
	case errors.Is(err, ErrUnauthenticated):
		return err
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.StatusCode >= 500 {
			c.logger.ErrorContext(ctx, "backend request failed", slog.String("path", path), logger.Error(err))
		}
		return err
	}

	c.logger.ErrorContext(ctx, "backend unreachable", slog.String("method", method), slog.String("path", path), logger.Error(err))
	return errors.Join(ErrGatewayFailure, err)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// backoff honours Retry-After when the backend sent one, otherwise it waits
// MinWait*2^attempt with jitter, capped at MaxWait.
func (c *Client) backoff(attempt int, err error) time.Duration {
	minWait, maxWait := c.cfg.RetryMinWait, c.cfg.RetryMaxWait
	if maxWait < minWait {
		maxWait = minWait
	}

	var se *statusRetryAfter
	if errors.As(err, &se) && se.after > 0 {
		return min(se.after, maxWait)
	}

	base := float64(minWait) * math.Pow(2, float64(attempt))
	if base > float64(maxWait) {
		base = float64(maxWait)
	}
	if base <= float64(minWait) {
		return minWait
	}
	return time.Duration(float64(minWait) + rand.Float64()*(base-float64(minWait)))
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := c.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}

// statusRetryAfter decorates a StatusError with the server's Retry-After hint.
type statusRetryAfter struct {
	*StatusError
	after time.Duration
}

func (e *statusRetryAfter) Unwrap() error { return e.StatusError }

func statusError(method, path string, resp *http.Response) error {
	se := &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp.Body),
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return &statusRetryAfter{StatusError: se, after: time.Duration(secs) * time.Second}
		}
	}
	return se
}

func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
