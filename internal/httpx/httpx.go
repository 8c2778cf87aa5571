package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"marketdata/internal/market"
	"marketdata/internal/ratelimit"
)

// DefaultTimeout bounds a whole request, dial to body, unless overridden.
const DefaultTimeout = 30 * time.Second

// connectivityRetryInterval is how often a request is re-attempted while the
// network path is down.
const connectivityRetryInterval = 500 * time.Millisecond

// Client is a small wrapper around http.Client with sane defaults.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string

	// Gate, when set, is consulted before every request.
	Gate ratelimit.Gate

	// WaitForConnectivity keeps a request pending while no network path is
	// available (dial/DNS failures), retrying until the context expires,
	// instead of failing immediately.
	WaitForConnectivity bool
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "marketdata/1.0"}
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.Gate != nil {
		if err := c.Gate.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	resp, err := c.HTTP.Do(req)
	if err == nil || !c.WaitForConnectivity || !isConnectivityErr(err) {
		return resp, err
	}
	// No network path; keep the call pending and re-attempt until the
	// context gives up.
	for {
		t := time.NewTimer(connectivityRetryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		resp, err = c.HTTP.Do(req.Clone(ctx))
		if err == nil || !isConnectivityErr(err) {
			return resp, err
		}
	}
}

// Std adapts the client to the stdlib Do(req) shape for callers that take a
// plain HTTP client. The request's own context drives gating and retries.
func (c *Client) Std() StdClient { return StdClient{c: c} }

type StdClient struct{ c *Client }

func (s StdClient) Do(req *http.Request) (*http.Response, error) {
	return s.c.Do(req.Context(), req)
}

// isConnectivityErr reports whether err looks like a missing network path
// (dial or DNS failure) rather than a response-level failure.
func isConnectivityErr(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

// Get issues one GET request and validates the response status is 2xx.
// The caller owns the returned body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, &market.InvalidURLError{URL: rawURL, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, &market.InvalidURLError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, &market.RequestFailedError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &market.RequestFailedError{URL: rawURL, Status: resp.StatusCode}
	}
	return resp, nil
}

// FetchJSON performs one GET and decodes the body into T. Failures map to
// the shared error kinds: InvalidURLError before any request is issued,
// RequestFailedError for transport errors or non-2xx status (the body is
// never decoded in that case), DecodingError for a body that does not match
// T's shape.
func FetchJSON[T any](ctx context.Context, c *Client, rawURL string) (T, error) {
	var zero T
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, &market.DecodingError{URL: rawURL, Err: err}
	}
	return out, nil
}
