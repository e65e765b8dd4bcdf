package sim

import (
    "context"
    "fmt"
    "hash/fnv"
    "math"
    "strings"
    "time"

    "marketgateway/internal/marketdata"
)

// Provider serves deterministic synthetic data so the dashboard stays
// usable when every real upstream is down or unconfigured. Every value
// is derived from the symbol, never from randomness, so repeated calls
// agree with each other. It is wired last in the fallback order and is
// disabled unless explicitly enabled.
type Provider struct {
    now func() time.Time
}

func New() *Provider { return &Provider{now: time.Now} }

func (p *Provider) Name() string { return "sim" }

// instruments is the static universe the simulator knows about.
var instruments = []struct {
    Symbol string
    Name   string
}{
    {"TCS", "Tata Consultancy Services"},
    {"INFY", "Infosys"},
    {"RELIANCE", "Reliance Industries"},
    {"HDFCBANK", "HDFC Bank"},
    {"WIPRO", "Wipro"},
    {"SBIN", "State Bank of India"},
    {"NIFTY", "Nifty 50"},
    {"SENSEX", "BSE Sensex"},
}

func basePrice(symbol string) float64 {
    h := fnv.New32a()
    h.Write([]byte(strings.ToUpper(symbol)))
    // 100.00 .. 5099.99
    return 100 + float64(h.Sum32()%500000)/100
}

func displayName(symbol string) string {
    for _, in := range instruments {
        if in.Symbol == symbol { return in.Name }
    }
    return symbol
}

func (p *Provider) Quotes(_ context.Context, symbols []string) ([]marketdata.Quote, error) {
    now := p.now().UTC()
    out := make([]marketdata.Quote, 0, len(symbols))
    for _, s := range symbols {
        s = strings.ToUpper(s)
        base := basePrice(s)
        // drift the price on a slow sine over the day so the value moves
        // between refreshes but stays reproducible for a given minute
        phase := float64(now.Hour()*60+now.Minute()) / (24 * 60) * 2 * math.Pi
        price := round2(base * (1 + 0.01*math.Sin(phase)))
        prev := round2(base * 0.995)
        change := round2(price - prev)
        out = append(out, marketdata.Quote{
            Symbol:        s,
            Name:          displayName(s),
            Price:         price,
            Change:        change,
            ChangePercent: round2(change / prev * 100),
            Open:          prev,
            High:          round2(math.Max(price, prev) * 1.005),
            Low:           round2(math.Min(price, prev) * 0.995),
            PrevClose:     prev,
            Volume:        int64(basePrice(s)) * 1000,
            Source:        "sim",
            UpdatedAt:     now,
        })
    }
    return out, nil
}

func (p *Provider) Chart(_ context.Context, symbol, interval, rng string) ([]marketdata.ChartPoint, error) {
    n := pointsForRange(rng)
    step := stepForInterval(interval)
    base := basePrice(symbol)
    end := p.now().UTC().Truncate(step)
    out := make([]marketdata.ChartPoint, 0, n)
    for i := 0; i < n; i++ {
        ts := end.Add(-time.Duration(n-1-i) * step)
        // walk driven by the bar index, so the series is stable
        v := base * (1 + 0.05*math.Sin(float64(i)/7) + 0.02*math.Sin(float64(i)/3))
        open := round2(v * 0.998)
        cl := round2(v * 1.002)
        out = append(out, marketdata.ChartPoint{
            TS:     ts.UnixMilli(),
            Open:   open,
            High:   round2(cl * 1.003),
            Low:    round2(open * 0.997),
            Close:  cl,
            Volume: int64(base)*100 + int64(i)*17,
        })
    }
    return out, nil
}

func (p *Provider) News(_ context.Context, symbol, displayNm string) ([]marketdata.NewsItem, error) {
    if displayNm == "" { displayNm = displayName(strings.ToUpper(symbol)) }
    now := p.now().UTC()
    headlines := []string{
        "%s posts steady quarter as analysts hold targets",
        "%s shares gain on broad market strength",
        "%s faces margin pressure, outlook trimmed",
    }
    out := make([]marketdata.NewsItem, 0, len(headlines))
    for i, h := range headlines {
        title := fmt.Sprintf(h, displayNm)
        out = append(out, marketdata.NewsItem{
            Title:       title,
            Description: "Simulated coverage for offline and demo use.",
            URL:         fmt.Sprintf("https://sim.invalid/news/%s/%d", strings.ToLower(symbol), i),
            Source:      "sim",
            PublishedAt: now.Add(-time.Duration(i+1) * time.Hour),
            Sentiment:   marketdata.SentimentOf(title),
        })
    }
    return out, nil
}

func (p *Provider) Search(_ context.Context, query string) ([]marketdata.Quote, error) {
    q := strings.ToUpper(strings.TrimSpace(query))
    if q == "" { return nil, nil }
    var out []marketdata.Quote
    for _, in := range instruments {
        if strings.Contains(in.Symbol, q) || strings.Contains(strings.ToUpper(in.Name), q) {
            out = append(out, marketdata.Quote{Symbol: in.Symbol, Name: in.Name, Source: "sim"})
        }
    }
    return out, nil
}

func pointsForRange(rng string) int {
    switch rng {
    case "1d":
        return 75
    case "5d":
        return 120
    case "1mo":
        return 22
    case "1y":
        return 260
    case "max":
        return 500
    default:
        return 22
    }
}

func stepForInterval(interval string) time.Duration {
    switch interval {
    case "1m":
        return time.Minute
    case "5m":
        return 5 * time.Minute
    case "15m":
        return 15 * time.Minute
    case "1h":
        return time.Hour
    default:
        return 24 * time.Hour
    }
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
