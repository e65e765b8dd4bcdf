package alphavantage

import (
    "context"
    "errors"
    "math"
    "testing"

    "marketgateway/internal/marketdata"
)

func TestAdapter_MissingKeyIsAuthFailure(t *testing.T) {
    client, _ := NewClient("")
    a := NewAdapter(Config{}, client)

    _, err := a.Quotes(context.Background(), []string{"TCS"})
    var pe *marketdata.ProviderError
    if !errors.As(err, &pe) || pe.Kind != marketdata.KindAuth {
        t.Fatalf("want auth ProviderError, got %v", err)
    }
    _, err = a.Chart(context.Background(), "TCS", "1d", "1mo")
    if !errors.As(err, &pe) || pe.Kind != marketdata.KindAuth {
        t.Fatalf("chart: want auth ProviderError, got %v", err)
    }
}

func TestAdapter_NormalizeRecomputesChangePercent(t *testing.T) {
    a := NewAdapter(Config{}, nil)
    q := a.normalize("TCS", &GlobalQuote{
        Symbol: "TCS.BSE", Price: 4102.35, PrevClose: 4050.10,
        Change: 52.0, ChangePercent: 1.3, // feed rounded both
        LatestTradingDay: "2025-01-06",
    })
    if q.Symbol != "TCS" || q.Source != "alphavantage" {
        t.Fatalf("identity: %+v", q)
    }
    want := (q.Price - q.PrevClose) / q.PrevClose * 100
    if math.Abs(q.ChangePercent-want) >= 0.01 {
        t.Fatalf("change_percent %v, want %v", q.ChangePercent, want)
    }
    if math.Abs(q.Change-(q.Price-q.PrevClose)) >= 0.01 {
        t.Fatalf("change %v inconsistent", q.Change)
    }
}

func TestAdapter_SymbolSuffixMapping(t *testing.T) {
    a := NewAdapter(Config{Suffix: ".BSE"}, nil)
    if got := a.toProviderSymbol("TCS"); got != "TCS.BSE" {
        t.Fatalf("bare symbol: %q", got)
    }
    // already qualified symbols pass through untouched
    if got := a.toProviderSymbol("TCS.NSE"); got != "TCS.NSE" {
        t.Fatalf("qualified symbol: %q", got)
    }
}

func TestBarsForRange(t *testing.T) {
    cases := []struct {
        rng  string
        keep int
        full bool
    }{
        {"1mo", 22, false},
        {"1y", 260, true},
        {"max", 0, true},
        {"unknown", 22, false},
    }
    for _, c := range cases {
        keep, full := barsForRange(c.rng)
        if keep != c.keep || full != c.full {
            t.Fatalf("%s -> (%d,%v), want (%d,%v)", c.rng, keep, full, c.keep, c.full)
        }
    }
}
