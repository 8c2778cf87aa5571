package coinpaprika

import (
	"net/http"
)

const defaultBaseURL = "https://api.coinpaprika.com/v1"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coinpaprika_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the CoinPaprika API, the secondary market-data
// source. It performs its own status validation and decoding rather than
// reusing the shared transport helpers: its payloads are flat objects whose
// fields must be translated, not decoded verbatim.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client requests go through.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the CoinPaprika client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new CoinPaprika client. The API is unauthenticated;
// all knobs are optional.
func NewClient(options ...Option) *Client {
	var client = &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

func (c *Client) Name() string { return "CoinPaprika" }
