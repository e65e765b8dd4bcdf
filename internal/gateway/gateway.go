package gateway

import (
    "context"
    "errors"
    "fmt"
    "log"
    "sync"
    "sync/atomic"
    "time"

    "golang.org/x/sync/singleflight"

    "marketgateway/internal/cache"
    "marketgateway/internal/marketdata"
    "marketgateway/internal/ratelimit"
)

// ErrSuperseded is returned when a newer request for the same logical key
// finished the race first; the stale result is discarded, never served.
var ErrSuperseded = errors.New("superseded by a newer request")

// TTLs are the per-kind cache lifetimes.
type TTLs struct {
    Quotes time.Duration
    Chart  time.Duration
    News   time.Duration
    Search time.Duration
}

type Config struct {
    TTL           TTLs
    SweepInterval time.Duration
    // Location is the exchange timezone for MarketStatus. Defaults to
    // Asia/Kolkata (NSE).
    Location *time.Location
}

// Deps are the collaborators the gateway composes. Provider slices are the
// static fallback priority order, first entry tried first.
type Deps struct {
    Cache  *cache.Store
    Limits *ratelimit.Set
    Quotes []marketdata.QuoteProvider
    Charts []marketdata.ChartProvider
    News   []marketdata.NewsProvider
    Search []marketdata.SearchProvider
}

// Gateway is the single entry point the UI layer talks to. Constructed once
// at startup and passed by reference; no package-level instance exists.
type Gateway struct {
    cfg    Config
    cache  *cache.Store
    limits *ratelimit.Set
    quotes []marketdata.QuoteProvider
    charts []marketdata.ChartProvider
    news   []marketdata.NewsProvider
    search []marketdata.SearchProvider

    // coalesces concurrent misses on one cache key into a single fetch
    sf singleflight.Group

    seqMu sync.Mutex
    seq   map[string]uint64

    clock func() time.Time

    stopOnce  sync.Once
    sweeping  atomic.Bool
    stopSweep chan struct{}
    sweepDone chan struct{}
}

func New(cfg Config, deps Deps) *Gateway {
    if cfg.Location == nil {
        loc, err := time.LoadLocation("Asia/Kolkata")
        if err != nil {
            // IST has no DST; a fixed offset is equivalent
            loc = time.FixedZone("IST", 5*3600+1800)
        }
        cfg.Location = loc
    }
    if cfg.SweepInterval <= 0 {
        cfg.SweepInterval = 5 * time.Minute
    }
    return &Gateway{
        cfg:       cfg,
        cache:     deps.Cache,
        limits:    deps.Limits,
        quotes:    deps.Quotes,
        charts:    deps.Charts,
        news:      deps.News,
        search:    deps.Search,
        seq:       make(map[string]uint64),
        clock:     time.Now,
        stopSweep: make(chan struct{}),
        sweepDone: make(chan struct{}),
    }
}

// QuotesResult carries whatever was resolved plus the per-provider failures
// met along the way. Partial data with non-empty Errors is a valid outcome.
type QuotesResult struct {
    Data   []marketdata.Quote   `json:"data"`
    Errors []marketdata.Failure `json:"errors,omitempty"`
}

func (g *Gateway) GetQuotes(ctx context.Context, symbols []string) (QuotesResult, error) {
    if len(symbols) == 0 {
        return QuotesResult{}, fmt.Errorf("symbols is empty")
    }
    key := cache.QuotesKey(symbols)
    var cached []marketdata.Quote
    if g.cache.Get(key, &cached) {
        return QuotesResult{Data: cached}, nil
    }
    v, err, _ := g.sf.Do(key, func() (any, error) {
        data, fails := g.resolveQuotes(ctx, symbols)
        if len(data) == 0 && len(fails) > 0 {
            return nil, &marketdata.TotalFailure{Failures: fails}
        }
        g.cache.Set(ctx, key, data, g.cfg.TTL.Quotes)
        return QuotesResult{Data: data, Errors: fails}, nil
    })
    if err != nil {
        return QuotesResult{}, err
    }
    return v.(QuotesResult), nil
}

func (g *Gateway) GetChart(ctx context.Context, symbol, interval, rng string) ([]marketdata.ChartPoint, error) {
    if symbol == "" {
        return nil, fmt.Errorf("symbol is empty")
    }
    key := cache.ChartKey(symbol, interval, rng)
    var cached []marketdata.ChartPoint
    if g.cache.Get(key, &cached) {
        return cached, nil
    }
    v, err, _ := g.sf.Do(key, func() (any, error) {
        steps := make([]step[marketdata.ChartPoint], 0, len(g.charts))
        for _, p := range g.charts {
            p := p
            steps = append(steps, step[marketdata.ChartPoint]{name: p.Name(), fetch: func(ctx context.Context) ([]marketdata.ChartPoint, error) {
                return p.Chart(ctx, symbol, interval, rng)
            }})
        }
        points, fails := tryEach(ctx, g, steps)
        if len(points) == 0 && len(fails) > 0 {
            return nil, &marketdata.TotalFailure{Failures: fails}
        }
        g.cache.Set(ctx, key, points, g.cfg.TTL.Chart)
        return points, nil
    })
    if err != nil {
        return nil, err
    }
    return v.([]marketdata.ChartPoint), nil
}

func (g *Gateway) GetNews(ctx context.Context, symbol, displayName string) ([]marketdata.NewsItem, error) {
    if symbol == "" {
        return nil, fmt.Errorf("symbol is empty")
    }
    key := cache.NewsKey(symbol)
    var cached []marketdata.NewsItem
    if g.cache.Get(key, &cached) {
        return cached, nil
    }
    v, err, _ := g.sf.Do(key, func() (any, error) {
        steps := make([]step[marketdata.NewsItem], 0, len(g.news))
        for _, p := range g.news {
            p := p
            steps = append(steps, step[marketdata.NewsItem]{name: p.Name(), fetch: func(ctx context.Context) ([]marketdata.NewsItem, error) {
                return p.News(ctx, symbol, displayName)
            }})
        }
        items, fails := tryEach(ctx, g, steps)
        if len(items) == 0 && len(fails) > 0 {
            return nil, &marketdata.TotalFailure{Failures: fails}
        }
        // a clean zero-article answer is cached too, so quiet symbols do not
        // re-hit the network on every call inside the ttl
        g.cache.Set(ctx, key, items, g.cfg.TTL.News)
        return items, nil
    })
    if err != nil {
        return nil, err
    }
    return v.([]marketdata.NewsItem), nil
}

// SearchSymbols resolves a free-text query. Rapid retypes supersede each
// other: each call takes a sequence number for the "search" key and a result
// arriving after a newer call started is discarded to avoid stale flicker.
func (g *Gateway) SearchSymbols(ctx context.Context, query string) ([]marketdata.Quote, error) {
    if query == "" {
        return nil, fmt.Errorf("query is empty")
    }
    key := cache.SearchKey(query)
    var cached []marketdata.Quote
    if g.cache.Get(key, &cached) {
        return cached, nil
    }
    token := g.nextSeq("search")

    steps := make([]step[marketdata.Quote], 0, len(g.search))
    for _, p := range g.search {
        p := p
        steps = append(steps, step[marketdata.Quote]{name: p.Name(), fetch: func(ctx context.Context) ([]marketdata.Quote, error) {
            return p.Search(ctx, query)
        }})
    }
    matches, fails := tryEach(ctx, g, steps)
    if !g.isLatest("search", token) {
        return nil, ErrSuperseded
    }
    if len(matches) == 0 && len(fails) > 0 {
        return nil, &marketdata.TotalFailure{Failures: fails}
    }
    g.cache.Set(ctx, key, matches, g.cfg.TTL.Search)
    return matches, nil
}

// MarketStatus classifies the current exchange session from wall-clock time.
// No network, no cache.
func (g *Gateway) MarketStatus() marketdata.MarketStatus {
    return marketdata.StatusAt(g.clock().In(g.cfg.Location))
}

// StartSweeper runs the periodic cache sweep until Stop is called.
func (g *Gateway) StartSweeper() {
    g.sweeping.Store(true)
    go func() {
        defer close(g.sweepDone)
        ticker := time.NewTicker(g.cfg.SweepInterval)
        defer ticker.Stop()
        for {
            select {
            case <-g.stopSweep:
                return
            case <-ticker.C:
                if n := g.cache.Sweep(context.Background()); n > 0 {
                    log.Printf("gateway: swept %d expired cache entries", n)
                }
            }
        }
    }()
}

// Stop terminates the sweeper, if started, and waits for it to exit.
func (g *Gateway) Stop() {
    g.stopOnce.Do(func() { close(g.stopSweep) })
    if g.sweeping.Load() {
        <-g.sweepDone
    }
}

func (g *Gateway) nextSeq(key string) uint64 {
    g.seqMu.Lock()
    defer g.seqMu.Unlock()
    g.seq[key]++
    return g.seq[key]
}

func (g *Gateway) isLatest(key string, token uint64) bool {
    g.seqMu.Lock()
    defer g.seqMu.Unlock()
    return g.seq[key] == token
}
