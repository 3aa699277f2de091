package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 2 << 20

// Client is the interface for the HTTP transport layer. Every probe
// goes through this interface.
type Client interface {
	// Do sends an HTTP request and returns the response.
	Do(ctx context.Context, req *Request) (*Response, error)

	// Stats returns transport statistics.
	Stats() *TransportStats
}

// TransportStats holds aggregate statistics for the transport client.
// A request is failed when no response was read: dial, TLS, timeout,
// redirect-limit or body read errors. Non-200 statuses are not failures.
type TransportStats struct {
	TotalRequests  int64
	FailedRequests int64
}

// ClientOptions holds configuration for creating a new DefaultClient.
type ClientOptions struct {
	// Timeout is the default timeout for all requests.
	Timeout time.Duration

	// ProxyURL is the proxy URL (HTTP or SOCKS5).
	ProxyURL string

	// FollowRedirects controls whether redirects are followed.
	FollowRedirects bool

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// UserAgent is sent when the request carries no User-Agent header.
	// Empty means DefaultUserAgent.
	UserAgent string

	// RandomUserAgent enables random User-Agent header selection.
	RandomUserAgent bool

	// MaxRPS is the maximum requests per second (0 = unlimited).
	MaxRPS float64

	// MaxBodyBytes limits the bytes read from each body (0 = DefaultMaxBodyBytes).
	MaxBodyBytes int64
}

// DefaultClient is the default implementation of the Client interface,
// backed by net/http. It keeps no cookie jar.
type DefaultClient struct {
	httpClient     *http.Client
	opts           ClientOptions
	limiter        *rate.Limiter
	mu             sync.RWMutex
	totalRequests  int64
	failedRequests int64
}

// Compile-time check that DefaultClient implements Client.
var _ Client = (*DefaultClient)(nil)

// NewClient creates a new DefaultClient with the given options.
func NewClient(opts ClientOptions) (*DefaultClient, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		},
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: 16,
	}

	if opts.ProxyURL != "" {
		proxyURL, err := parseProxyURL(opts.ProxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}

	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	dc := &DefaultClient{
		httpClient: client,
		opts:       opts,
	}

	if opts.MaxRPS > 0 {
		dc.limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), 1)
	}

	return dc, nil
}

// Do sends an HTTP request and returns the response. It applies rate
// limiting, timing measurement, the User-Agent policy and the body cap.
func (c *DefaultClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.opts.RandomUserAgent {
		httpReq.Header.Set("User-Agent", RandomUserAgent())
	} else {
		httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.record(true)
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.opts.MaxBodyBytes+1))
	duration := time.Since(start)
	if err != nil {
		c.record(true)
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	c.record(false)

	truncated := int64(len(body)) > c.opts.MaxBodyBytes
	if truncated {
		body = body[:c.opts.MaxBodyBytes]
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Truncated:  truncated,
		Duration:   duration,
		URL:        httpResp.Request.URL.String(),
	}, nil
}

func (c *DefaultClient) record(failed bool) {
	c.mu.Lock()
	c.totalRequests++
	if failed {
		c.failedRequests++
	}
	c.mu.Unlock()
}

func parseProxyURL(raw string) (*url.URL, error) {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL: missing scheme or host")
	}
	return parsedURL, nil
}

// Stats returns aggregate transport statistics.
func (c *DefaultClient) Stats() *TransportStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &TransportStats{
		TotalRequests:  c.totalRequests,
		FailedRequests: c.failedRequests,
	}
}
