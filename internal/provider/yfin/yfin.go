package yfin

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strings"
    "sync"
    "time"

    "marketgateway/internal/httpx"
    "marketgateway/internal/marketdata"
)

// Config controls the Yahoo-shaped provider.
type Config struct {
    Name      string
    ChartURL  string // base of the v8 chart endpoint, /{symbol} appended
    SearchURL string
    // Suffix is appended to bare symbols before the remote call and
    // stripped again on the way back (NSE listings carry ".NS").
    Suffix string
    // MaxConcurrency bounds parallel per-symbol quote requests.
    MaxConcurrency int
    Headers        map[string]string
}

type Provider struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
    if cfg.Name == "" { cfg.Name = "yahoo" }
    if cfg.ChartURL == "" { cfg.ChartURL = "https://query1.finance.yahoo.com/v8/finance/chart" }
    if cfg.SearchURL == "" { cfg.SearchURL = "https://query1.finance.yahoo.com/v1/finance/search" }
    if cfg.Suffix == "" { cfg.Suffix = ".NS" }
    if cfg.MaxConcurrency <= 0 { cfg.MaxConcurrency = 4 }
    return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Quotes fetches each symbol independently with bounded concurrency.
// One symbol failing never aborts the batch; if nothing at all succeeds the
// first error stands for the provider.
func (p *Provider) Quotes(ctx context.Context, symbols []string) ([]marketdata.Quote, error) {
    sem := make(chan struct{}, p.cfg.MaxConcurrency)
    var wg sync.WaitGroup
    var mu sync.Mutex
    out := make([]marketdata.Quote, 0, len(symbols))
    var firstErr error

    for _, sym := range symbols {
        sym := sym
        wg.Add(1)
        go func() {
            defer wg.Done()
            select {
            case sem <- struct{}{}:
                defer func() { <-sem }()
            case <-ctx.Done():
                return
            }
            q, err := p.fetchQuote(ctx, sym)
            mu.Lock()
            defer mu.Unlock()
            if err != nil {
                if firstErr == nil { firstErr = err }
                return
            }
            out = append(out, q)
        }()
    }
    wg.Wait()

    if len(out) == 0 && firstErr != nil {
        return nil, firstErr
    }
    return out, nil
}

func (p *Provider) fetchQuote(ctx context.Context, symbol string) (marketdata.Quote, error) {
    res, err := p.fetchChart(ctx, symbol, "1d", "1d")
    if err != nil {
        return marketdata.Quote{}, err
    }
    meta := res.Meta
    if meta.RegularMarketPrice == nil || *meta.RegularMarketPrice <= 0 {
        return marketdata.Quote{}, marketdata.Errf(p.cfg.Name, marketdata.KindMalformed,
            "no market price for %s", symbol)
    }
    price := *meta.RegularMarketPrice

    q := marketdata.Quote{
        Symbol:    symbol,
        Name:      firstNonEmpty(meta.LongName, meta.ShortName, symbol),
        Price:     price,
        Source:    p.cfg.Name,
        UpdatedAt: time.Unix(meta.RegularMarketTime, 0).UTC(),
    }
    if meta.RegularMarketTime == 0 {
        q.UpdatedAt = time.Now().UTC()
    }
    prev := meta.ChartPreviousClose
    if prev == nil { prev = meta.PreviousClose }
    if prev != nil && *prev > 0 {
        q.PrevClose = *prev
        q.Change = price - *prev
        q.ChangePercent = q.Change / *prev * 100
    }
    if meta.RegularMarketDayHigh != nil { q.High = *meta.RegularMarketDayHigh }
    if meta.RegularMarketDayLow != nil { q.Low = *meta.RegularMarketDayLow }
    if meta.RegularMarketVolume != nil { q.Volume = *meta.RegularMarketVolume }
    if len(res.Indicators.Quote) > 0 {
        for _, o := range res.Indicators.Quote[0].Open {
            if o != nil {
                q.Open = *o
                break
            }
        }
    }
    return q, nil
}

// Chart returns the OHLCV series for (symbol, interval, range). Bars with
// missing fields are dropped, not zero-filled; at least one valid bar is
// required for the response to count as data.
func (p *Provider) Chart(ctx context.Context, symbol, interval, rng string) ([]marketdata.ChartPoint, error) {
    res, err := p.fetchChart(ctx, symbol, interval, rng)
    if err != nil {
        return nil, err
    }
    if len(res.Indicators.Quote) == 0 {
        return nil, marketdata.Errf(p.cfg.Name, marketdata.KindMalformed, "no indicator data for %s", symbol)
    }
    ind := res.Indicators.Quote[0]
    points := make([]marketdata.ChartPoint, 0, len(res.Timestamp))
    var lastTS int64 = -1
    for i, ts := range res.Timestamp {
        o := at(ind.Open, i)
        h := at(ind.High, i)
        l := at(ind.Low, i)
        c := at(ind.Close, i)
        if o == nil || h == nil || l == nil || c == nil {
            continue
        }
        ms := ts * 1000
        if ms <= lastTS {
            continue
        }
        lastTS = ms
        pt := marketdata.ChartPoint{TS: ms, Open: *o, High: *h, Low: *l, Close: *c}
        // providers occasionally emit high/low inside the open/close band
        if pt.High < pt.Open { pt.High = pt.Open }
        if pt.High < pt.Close { pt.High = pt.Close }
        if pt.Low > pt.Open { pt.Low = pt.Open }
        if pt.Low > pt.Close { pt.Low = pt.Close }
        if v := atInt(ind.Volume, i); v != nil {
            pt.Volume = *v
        }
        points = append(points, pt)
    }
    if len(points) == 0 {
        return nil, marketdata.Errf(p.cfg.Name, marketdata.KindMalformed, "no valid OHLC points for %s", symbol)
    }
    return points, nil
}

// Search resolves free text to candidate listings. Results carry identity
// only; price comes from a follow-up quote request.
func (p *Provider) Search(ctx context.Context, query string) ([]marketdata.Quote, error) {
    u := p.cfg.SearchURL + "?" + url.Values{
        "q":           {query},
        "quotesCount": {"10"},
        "newsCount":   {"0"},
    }.Encode()
    var body struct {
        Quotes []struct {
            Symbol    string `json:"symbol"`
            ShortName string `json:"shortname"`
            LongName  string `json:"longname"`
            QuoteType string `json:"quoteType"`
            Exchange  string `json:"exchange"`
        } `json:"quotes"`
    }
    if err := p.getJSON(ctx, u, &body); err != nil {
        return nil, err
    }
    out := make([]marketdata.Quote, 0, len(body.Quotes))
    for _, m := range body.Quotes {
        if m.Symbol == "" {
            continue
        }
        if m.QuoteType != "" && m.QuoteType != "EQUITY" && m.QuoteType != "INDEX" {
            continue
        }
        out = append(out, marketdata.Quote{
            Symbol: p.stripSuffix(m.Symbol),
            Name:   firstNonEmpty(m.LongName, m.ShortName),
            Source: p.cfg.Name,
        })
    }
    return out, nil
}

type chartResult struct {
    Meta struct {
        Symbol               string   `json:"symbol"`
        LongName             string   `json:"longName"`
        ShortName            string   `json:"shortName"`
        RegularMarketPrice   *float64 `json:"regularMarketPrice"`
        PreviousClose        *float64 `json:"previousClose"`
        ChartPreviousClose   *float64 `json:"chartPreviousClose"`
        RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
        RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
        RegularMarketVolume  *int64   `json:"regularMarketVolume"`
        RegularMarketTime    int64    `json:"regularMarketTime"`
    } `json:"meta"`
    Timestamp  []int64 `json:"timestamp"`
    Indicators struct {
        Quote []struct {
            Open   []*float64 `json:"open"`
            High   []*float64 `json:"high"`
            Low    []*float64 `json:"low"`
            Close  []*float64 `json:"close"`
            Volume []*int64   `json:"volume"`
        } `json:"quote"`
    } `json:"indicators"`
}

func (p *Provider) fetchChart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
    u := fmt.Sprintf("%s/%s?%s", p.cfg.ChartURL, url.PathEscape(p.toProviderSymbol(symbol)),
        url.Values{"interval": {interval}, "range": {rng}}.Encode())
    var body struct {
        Chart struct {
            Result []chartResult `json:"result"`
            Error  *struct {
                Code        string `json:"code"`
                Description string `json:"description"`
            } `json:"error"`
        } `json:"chart"`
    }
    if err := p.getJSON(ctx, u, &body); err != nil {
        return nil, err
    }
    if body.Chart.Error != nil {
        return nil, marketdata.Errf(p.cfg.Name, marketdata.KindUpstream, "%s: %s",
            body.Chart.Error.Code, body.Chart.Error.Description)
    }
    if len(body.Chart.Result) == 0 {
        return nil, marketdata.Errf(p.cfg.Name, marketdata.KindMalformed, "empty result for %s", symbol)
    }
    return &body.Chart.Result[0], nil
}

func (p *Provider) getJSON(ctx context.Context, u string, dst any) error {
    resp, err := p.client.Get(ctx, u, p.cfg.Headers)
    if err != nil {
        return marketdata.Classify(p.cfg.Name, err)
    }
    defer resp.Body.Close()
    switch {
    case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
        return marketdata.Errf(p.cfg.Name, marketdata.KindAuth, "status %d", resp.StatusCode)
    case resp.StatusCode < 200 || resp.StatusCode >= 300:
        return marketdata.Errf(p.cfg.Name, marketdata.KindUpstream, "GET %s -> %d: %s", u, resp.StatusCode, httpx.Snippet(resp.Body, 1<<10))
    }
    if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
        return marketdata.Errf(p.cfg.Name, marketdata.KindMalformed, "decode: %v", err)
    }
    return nil
}

func (p *Provider) toProviderSymbol(s string) string {
    if strings.Contains(s, ".") {
        return s
    }
    return s + p.cfg.Suffix
}

func (p *Provider) stripSuffix(s string) string {
    return strings.TrimSuffix(s, p.cfg.Suffix)
}

func at(xs []*float64, i int) *float64 {
    if i < 0 || i >= len(xs) { return nil }
    return xs[i]
}

func atInt(xs []*int64, i int) *int64 {
    if i < 0 || i >= len(xs) { return nil }
    return xs[i]
}

func firstNonEmpty(xs ...string) string {
    for _, x := range xs {
        if x != "" { return x }
    }
    return ""
}
