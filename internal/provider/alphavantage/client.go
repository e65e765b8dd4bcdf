package alphavantage

import (
	"errors"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://www.alphavantage.co"

// Sentinel errors the adapter layer maps onto the gateway error taxonomy.
var (
	// ErrThrottled is returned when the API answers with its "Note" /
	// "Information" throttle payload instead of data.
	ErrThrottled = errors.New("alphavantage: request throttled")
	// ErrNoData is returned when the response parses but carries no usable
	// quote or series fields.
	ErrNoData = errors.New("alphavantage: no data in response")
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=alphavantage_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Alpha Vantage query API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
}

// ClientOption is a configuration option for the Alpha Vantage client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new Alpha Vantage client.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	var client = &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		// Every endpoint authenticates via this query parameter.
		// https://www.alphavantage.co/documentation/
		client.query.Add("apikey", key)
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}
