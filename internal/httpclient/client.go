package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const userAgent = "tutorfind/1.0 (+https://github.com/rsilvagit/tutorfind)"

// Options configures the listing source HTTP client.
type Options struct {
	ProxyURL   string
	MinDelay   time.Duration
	MaxDelay   time.Duration
	MaxRetries int
	Timeout    time.Duration
	// BaseBackoff is the first retry wait; it doubles on every attempt.
	BaseBackoff time.Duration
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.BaseBackoff == 0 {
		o.BaseBackoff = time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Client wraps http.Client with per-host pacing and retries on 429/503.
type Client struct {
	inner       *http.Client
	log         *zap.Logger
	mu          sync.Mutex
	lastReq     map[string]time.Time
	minDelay    time.Duration
	maxDelay    time.Duration
	maxRetries  int
	baseBackoff time.Duration
}

// New creates a Client with the given options.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		inner:       &http.Client{Transport: transport, Timeout: opts.Timeout},
		log:         opts.Logger.Named("httpclient"),
		lastReq:     make(map[string]time.Time),
		minDelay:    opts.MinDelay,
		maxDelay:    opts.MaxDelay,
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.BaseBackoff,
	}, nil
}

// Do executes the request with pacing and retry with exponential backoff.
// Only bodiless requests are retried.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	if err := c.rateLimit(req.Context(), req.URL.Host); err != nil {
		return nil, err
	}

	var resp *http.Response
	for attempt := range c.maxRetries {
		var err error
		resp, err = c.inner.Do(req)
		if err != nil {
			return nil, fmt.Errorf("httpclient: request failed: %w", err)
		}

		if !retryable(resp.StatusCode) || req.Body != nil || attempt == c.maxRetries-1 {
			return resp, nil
		}

		resp.Body.Close()
		backoff := c.baseBackoff << uint(attempt)
		c.log.Warn("retrying request",
			zap.String("host", req.URL.Host),
			zap.Int("status", resp.StatusCode),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
		)

		select {
		case <-time.After(backoff):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	return resp, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func (c *Client) rateLimit(ctx context.Context, host string) error {
	c.mu.Lock()
	last, ok := c.lastReq[host]
	c.lastReq[host] = time.Now()
	c.mu.Unlock()

	if !ok || c.maxDelay == 0 {
		return nil
	}

	delay := c.minDelay
	if spread := c.maxDelay - c.minDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}

	if elapsed := time.Since(last); elapsed < delay {
		wait := delay - elapsed
		c.log.Debug("rate limit", zap.String("host", host), zap.Duration("wait", wait))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	c.lastReq[host] = time.Now()
	c.mu.Unlock()

	return nil
}
