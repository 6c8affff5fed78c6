// Package transport delivers encoded span batches to collectors.
//
// Collector reporters only depend on SendFunc; Client is the HTTP
// implementation used in production.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"
)

// Request is one collector call.
type Request struct {
	Headers map[string]string
	Method  string
	Body    []byte
}

// Response is the part of a collector reply reporters care about.
type Response struct {
	StatusCode int
	OK         bool
}

// SendFunc sends req to url. A non-2xx reply is a Response with OK false,
// not an error; errors mean the request could not be completed.
type SendFunc func(ctx context.Context, url string, req Request) (Response, error)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetry configures retries for connection errors and 5xx replies.
func WithRetry(maxRetries int, minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.retry.RetryMax = maxRetries
		c.retry.RetryWaitMin = minWait
		c.retry.RetryWaitMax = maxWait
	}
}

// WithRateLimit caps requests per second. Zero or less means unlimited.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.SetRateLimit(rps)
	}
}

// WithGzip compresses request bodies.
func WithGzip() Option {
	return func(c *Client) {
		c.gzip = true
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// Client is an HTTP SendFunc backed by resty over a retrying transport.
// Safe for concurrent use.
type Client struct {
	resty   *resty.Client
	retry   *retryablehttp.Client
	limiter *rate.Limiter
	headers map[string]string
	timeout time.Duration
	gzip    bool
	mu      sync.RWMutex
}

// New creates a Client. Defaults: 10s timeout, 3 retries between 100ms and
// 5s, no rate limit, no compression.
func New(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	// Hand the final reply back so non-2xx becomes OK=false instead of an error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		retry:   retryClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
		headers: map[string]string{"User-Agent": "spanz"},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.resty = resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(c.timeout).
		SetHeaders(c.headers)
	return c
}

// SetRateLimit replaces the rate limit. Zero or less means unlimited.
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Send implements SendFunc.
func (c *Client) Send(ctx context.Context, url string, req Request) (Response, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()
	if err := limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("transport: rate limit: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	r := c.resty.R().SetContext(ctx).SetHeaders(req.Headers)
	if len(req.Body) > 0 {
		body := req.Body
		if c.gzip {
			compressed, err := compress(body)
			if err != nil {
				return Response{}, fmt.Errorf("transport: gzip: %w", err)
			}
			body = compressed
			r.SetHeader("Content-Encoding", "gzip")
		}
		r.SetBody(body)
	}

	resp, err := r.Execute(method, url)
	if err != nil {
		return Response{}, fmt.Errorf("transport: %s %s: %w", method, url, err)
	}
	return Response{StatusCode: resp.StatusCode(), OK: resp.IsSuccess()}, nil
}

func compress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
