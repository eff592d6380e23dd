// Package upstream holds the HTTP clients of the document search, email
// search and entity extraction services.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// HeaderRetryAfter is the header a throttled upstream uses to ask for a pause
const HeaderRetryAfter = "Retry-After"

// maxErrorBody bounds how much of an error response is kept for logging
const maxErrorBody = 512

// Config holds the connection settings of one upstream service
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:8000
	BaseURL string

	// Timeout bounds a single HTTP attempt
	Timeout time.Duration

	// RequestsPerSecond and Burst shape outgoing traffic
	RequestsPerSecond float64
	Burst             int

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int

	// BaseBackoff is the first exponential backoff step; MaxBackoff caps
	// every wait, including Retry-After
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultConfig returns the settings used when only a URL is configured
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 10,
		Burst:             20,
		MaxRetries:        3,
		BaseBackoff:       time.Second,
		MaxBackoff:        30 * time.Second,
	}
}

// client is the JSON-over-HTTP transport shared by the service clients
type client struct {
	source  string
	baseURL string
	http    *http.Client
	cfg     Config
	logger  *zap.Logger

	limiter *rate.Limiter
	mu      sync.Mutex
	retryAt time.Time

	// sleep waits for d or until ctx is done
	sleep func(ctx context.Context, d time.Duration) error
}

func newClient(source string, cfg Config, httpClient *http.Client, logger *zap.Logger) *client {
	defaults := DefaultConfig(cfg.BaseURL)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaults.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaults.MaxBackoff
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &client{
		source:  source,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		cfg:     cfg,
		logger:  logger.Named("upstream").With(zap.String("source", source)),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// wait blocks for the rate limiter and any pause requested by a 429
func (c *client) wait(ctx context.Context) error {
	c.mu.Lock()
	pause := time.Until(c.retryAt)
	c.mu.Unlock()

	if pause > 0 {
		if err := c.sleep(ctx, pause); err != nil {
			return err
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *client) pauseUntil(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.retryAt) {
		c.retryAt = t
	}
}

// backoff returns the exponential wait before retry number attempt+1
func (c *client) backoff(attempt int) time.Duration {
	d := time.Duration(float64(c.cfg.BaseBackoff) * math.Pow(2, float64(attempt)))
	if d <= 0 || d > c.cfg.MaxBackoff {
		return c.cfg.MaxBackoff
	}
	return d
}

// retryAfter reads Retry-After as seconds or an HTTP date. A missing or
// unparseable header yields MaxBackoff.
func (c *client) retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get(HeaderRetryAfter))
	if v == "" {
		return c.cfg.MaxBackoff
	}

	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = time.Until(t)
	} else {
		return c.cfg.MaxBackoff
	}

	if d < 0 {
		d = 0
	}
	if d > c.cfg.MaxBackoff {
		d = c.cfg.MaxBackoff
	}
	return d
}

// postJSON sends body to path and decodes the response into out.
// 429 honours Retry-After; 502, 503, 504 and transport errors back off
// exponentially; both are bounded by MaxRetries.
func (c *client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", c.source, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.wait(ctx); err != nil {
			return err
		}

		status, header, data, err := c.do(ctx, path, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &domain.UpstreamError{Source: c.source, Err: err}
			if attempt < c.cfg.MaxRetries {
				wait := c.backoff(attempt)
				c.logger.Warn("upstream request failed, retrying",
					zap.Int("attempt", attempt+1),
					zap.Duration("wait", wait),
					zap.Error(err),
				)
				if err := c.sleep(ctx, wait); err != nil {
					return err
				}
			}
			continue
		}

		switch {
		case status >= 200 && status < 300:
			if err := json.Unmarshal(data, out); err != nil {
				return &domain.UpstreamError{Source: c.source, Err: fmt.Errorf("decode response: %w", err)}
			}
			return nil

		case status == http.StatusTooManyRequests:
			lastErr = &domain.UpstreamError{Source: c.source, StatusCode: status}
			if attempt < c.cfg.MaxRetries {
				wait := c.retryAfter(header)
				c.logger.Warn("upstream rate limited, waiting",
					zap.Int("attempt", attempt+1),
					zap.Duration("wait", wait),
				)
				// wait() applies the pause before the next attempt
				c.pauseUntil(time.Now().Add(wait))
			}

		case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
			lastErr = &domain.UpstreamError{Source: c.source, StatusCode: status}
			if attempt < c.cfg.MaxRetries {
				wait := c.backoff(attempt)
				c.logger.Warn("upstream unavailable, retrying",
					zap.Int("status", status),
					zap.Int("attempt", attempt+1),
					zap.Duration("wait", wait),
				)
				if err := c.sleep(ctx, wait); err != nil {
					return err
				}
			}

		default:
			c.logger.Warn("upstream request rejected",
				zap.Int("status", status),
				zap.ByteString("body", data),
			)
			return &domain.UpstreamError{Source: c.source, StatusCode: status}
		}
	}

	return lastErr
}

func (c *client) do(ctx context.Context, path string, payload []byte) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	if resp.StatusCode >= 300 && len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	return resp.StatusCode, resp.Header, data, nil
}

// errNotConfigured is returned by a client without a base URL
var errNotConfigured = errors.New("base url not configured")

func (c *client) configured() error {
	if c.baseURL == "" {
		return &domain.UpstreamError{Source: c.source, Err: errNotConfigured}
	}
	return nil
}
