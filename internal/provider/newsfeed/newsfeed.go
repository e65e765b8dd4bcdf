package newsfeed

import (
    "context"
    "encoding/json"
    "net/http"
    "net/url"
    "strconv"
    "time"

    "marketgateway/internal/httpx"
    "marketgateway/internal/marketdata"
)

// Config controls the GNews-shaped headline provider.
type Config struct {
    Name    string
    BaseURL string
    APIKey  string
    Lang    string
    Country string
    // MaxItems caps the number of articles requested per query.
    MaxItems int
}

type Provider struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
    if cfg.Name == "" { cfg.Name = "gnews" }
    if cfg.BaseURL == "" { cfg.BaseURL = "https://gnews.io/api/v4" }
    if cfg.Lang == "" { cfg.Lang = "en" }
    if cfg.Country == "" { cfg.Country = "in" }
    if cfg.MaxItems <= 0 { cfg.MaxItems = 10 }
    return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// News searches headlines for the instrument. The display name usually
// beats the raw ticker as a query ("Tata Consultancy" vs "TCS").
// An empty article list is a legitimate result, not a failure.
func (p *Provider) News(ctx context.Context, symbol, displayName string) ([]marketdata.NewsItem, error) {
    if p.cfg.APIKey == "" {
        return nil, marketdata.Errf(p.cfg.Name, marketdata.KindAuth, "api key not configured")
    }
    query := displayName
    if query == "" { query = symbol }

    u := p.cfg.BaseURL + "/search?" + url.Values{
        "q":       {query},
        "lang":    {p.cfg.Lang},
        "country": {p.cfg.Country},
        "max":     {strconv.Itoa(p.cfg.MaxItems)},
        "token":   {p.cfg.APIKey},
    }.Encode()

    resp, err := p.client.Get(ctx, u, nil)
    if err != nil {
        return nil, marketdata.Classify(p.cfg.Name, err)
    }
    defer resp.Body.Close()
    switch {
    case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
        return nil, marketdata.Errf(p.cfg.Name, marketdata.KindAuth, "status %d", resp.StatusCode)
    case resp.StatusCode < 200 || resp.StatusCode >= 300:
        return nil, marketdata.Errf(p.cfg.Name, marketdata.KindUpstream, "status %d: %s", resp.StatusCode, httpx.Snippet(resp.Body, 1<<10))
    }

    var body struct {
        Articles []struct {
            Title       string    `json:"title"`
            Description string    `json:"description"`
            URL         string    `json:"url"`
            PublishedAt time.Time `json:"publishedAt"`
            Source      struct {
                Name string `json:"name"`
            } `json:"source"`
        } `json:"articles"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
        return nil, marketdata.Errf(p.cfg.Name, marketdata.KindMalformed, "decode: %v", err)
    }

    out := make([]marketdata.NewsItem, 0, len(body.Articles))
    for _, a := range body.Articles {
        if a.Title == "" || a.URL == "" {
            continue
        }
        out = append(out, marketdata.NewsItem{
            Title:       a.Title,
            Description: a.Description,
            URL:         a.URL,
            Source:      a.Source.Name,
            PublishedAt: a.PublishedAt,
            Sentiment:   marketdata.SentimentOf(a.Title + " " + a.Description),
        })
    }
    return out, nil
}
