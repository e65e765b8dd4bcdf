package alphavantage

import (
    "context"
    "errors"
    "strings"
    "sync"
    "time"

    "marketgateway/internal/marketdata"
)

type Config struct {
    Name   string // display name, default: alphavantage
    APIKey string
    // Suffix maps bare NSE/BSE tickers to the Alpha Vantage listing
    // (e.g. "TCS" -> "TCS.BSE"). Stripped again on the way back.
    Suffix string
    // MaxConcurrency bounds parallel per-symbol requests. The free tier
    // is strict, so the default is sequential.
    MaxConcurrency int
}

// Adapter exposes the Alpha Vantage client as gateway quote and chart
// providers. Alpha Vantage serves daily bars only, so every chart interval
// maps to the daily series and the range picks how much of it to keep.
type Adapter struct {
    cfg    Config
    client *Client
}

func NewAdapter(cfg Config, client *Client) *Adapter {
    if cfg.Name == "" { cfg.Name = "alphavantage" }
    if cfg.Suffix == "" { cfg.Suffix = ".BSE" }
    if cfg.MaxConcurrency <= 0 { cfg.MaxConcurrency = 1 }
    return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) Quotes(ctx context.Context, symbols []string) ([]marketdata.Quote, error) {
    if a.cfg.APIKey == "" {
        return nil, marketdata.Errf(a.cfg.Name, marketdata.KindAuth, "api key not configured")
    }

    sem := make(chan struct{}, a.cfg.MaxConcurrency)
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
            gq, err := a.client.GlobalQuote(ctx, a.toProviderSymbol(sym))
            mu.Lock()
            defer mu.Unlock()
            if err != nil {
                if firstErr == nil { firstErr = err }
                return
            }
            out = append(out, a.normalize(sym, gq))
        }()
    }
    wg.Wait()

    if len(out) == 0 && firstErr != nil {
        return nil, a.wrap(firstErr)
    }
    return out, nil
}

func (a *Adapter) Chart(ctx context.Context, symbol, interval, rng string) ([]marketdata.ChartPoint, error) {
    if a.cfg.APIKey == "" {
        return nil, marketdata.Errf(a.cfg.Name, marketdata.KindAuth, "api key not configured")
    }
    keep, full := barsForRange(rng)
    bars, err := a.client.DailySeries(ctx, a.toProviderSymbol(symbol), full)
    if err != nil {
        return nil, a.wrap(err)
    }
    if keep > 0 && len(bars) > keep {
        bars = bars[len(bars)-keep:]
    }
    points := make([]marketdata.ChartPoint, 0, len(bars))
    var lastTS int64 = -1
    for _, b := range bars {
        day, err := time.Parse("2006-01-02", b.Date)
        if err != nil {
            continue
        }
        ms := day.UnixMilli()
        if ms <= lastTS {
            continue
        }
        lastTS = ms
        points = append(points, marketdata.ChartPoint{
            TS: ms, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
        })
    }
    if len(points) == 0 {
        return nil, marketdata.Errf(a.cfg.Name, marketdata.KindMalformed, "no valid daily bars for %s", symbol)
    }
    return points, nil
}

func (a *Adapter) normalize(symbol string, gq *GlobalQuote) marketdata.Quote {
    q := marketdata.Quote{
        Symbol:    symbol,
        Price:     gq.Price,
        Open:      gq.Open,
        High:      gq.High,
        Low:       gq.Low,
        PrevClose: gq.PrevClose,
        Volume:    gq.Volume,
        Change:    gq.Change,
        Source:    a.cfg.Name,
        UpdatedAt: time.Now().UTC(),
    }
    if day, err := time.Parse("2006-01-02", gq.LatestTradingDay); err == nil {
        q.UpdatedAt = day.UTC()
    }
    // recompute from prev close so the published percent stays consistent
    // with the absolute change even when the feed rounds differently
    if gq.PrevClose > 0 {
        q.Change = gq.Price - gq.PrevClose
        q.ChangePercent = q.Change / gq.PrevClose * 100
    } else {
        q.ChangePercent = gq.ChangePercent
    }
    return q
}

// wrap maps client sentinels onto the gateway error taxonomy.
func (a *Adapter) wrap(err error) error {
    switch {
    case errors.Is(err, ErrNoData):
        return marketdata.Errf(a.cfg.Name, marketdata.KindMalformed, "%v", err)
    case errors.Is(err, ErrThrottled):
        return marketdata.Errf(a.cfg.Name, marketdata.KindUpstream, "%v", err)
    default:
        return marketdata.Classify(a.cfg.Name, err)
    }
}

func (a *Adapter) toProviderSymbol(s string) string {
    if strings.Contains(s, ".") {
        return s
    }
    return s + a.cfg.Suffix
}

func barsForRange(rng string) (keep int, full bool) {
    switch strings.ToLower(rng) {
    case "1d":
        return 1, false
    case "5d", "1w":
        return 5, false
    case "1mo":
        return 22, false
    case "3mo":
        return 66, false
    case "6mo":
        return 132, true
    case "1y":
        return 260, true
    case "2y":
        return 520, true
    case "5y":
        return 1300, true
    case "max":
        return 0, true
    default:
        return 22, false
    }
}
