package httpx

import (
    "context"
    "io"
    "net"
    "net/http"
    "time"
)

// Client wraps http.Client for the provider adapters: a transport sized for
// polling a handful of quote APIs with many small JSON requests, default
// header injection, and the GET shape every adapter shares.
type Client struct {
    HTTP      *http.Client
    UserAgent string
    Headers   map[string]string
}

type Config struct {
    Timeout   time.Duration
    UserAgent string
    // Headers ride on every request unless the request already set them.
    Headers map[string]string
}

func New(cfg Config) *Client {
    if cfg.Timeout <= 0 { cfg.Timeout = 10 * time.Second }
    if cfg.UserAgent == "" { cfg.UserAgent = "market-gateway/1.0" }
    transport := &http.Transport{
        Proxy: http.ProxyFromEnvironment,
        DialContext: (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
        MaxIdleConns:          200,
        MaxIdleConnsPerHost:   100,
        MaxConnsPerHost:       100,
        ForceAttemptHTTP2:     true,
        IdleConnTimeout:       90 * time.Second,
        TLSHandshakeTimeout:   3 * time.Second,
        ExpectContinueTimeout: 1 * time.Second,
        ResponseHeaderTimeout: 5 * time.Second,
    }
    return &Client{
        HTTP:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
        UserAgent: cfg.UserAgent,
        Headers:   cfg.Headers,
    }
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
    if ctx != nil && req.Context() == context.Background() {
        req = req.WithContext(ctx)
    }
    if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
        req.Header.Set("User-Agent", c.UserAgent)
    }
    for k, v := range c.Headers {
        if req.Header.Get(k) == "" {
            req.Header.Set(k, v)
        }
    }
    return c.HTTP.Do(req)
}

// Get issues a GET for url with the client defaults plus any extra headers.
func (c *Client) Get(ctx context.Context, url string, extra map[string]string) (*http.Response, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return nil, err
    }
    for k, v := range extra {
        req.Header.Set(k, v)
    }
    return c.Do(ctx, req)
}

// Snippet reads at most n bytes of r, for quoting upstream error bodies
// without buffering an arbitrarily large response.
func Snippet(r io.Reader, n int64) string {
    b, _ := io.ReadAll(io.LimitReader(r, n))
    return string(b)
}
