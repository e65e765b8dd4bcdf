package yfin

import (
    "context"
    "errors"
    "fmt"
    "math"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "marketgateway/internal/httpx"
    "marketgateway/internal/marketdata"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
    t.Helper()
    srv := httptest.NewServer(handler)
    t.Cleanup(srv.Close)
    return New(Config{
        Name:      "yahoo",
        ChartURL:  srv.URL + "/v8/finance/chart",
        SearchURL: srv.URL + "/v1/finance/search",
        Suffix:    ".NS",
    }, httpx.New(httpx.Config{Timeout: 5 * time.Second}))
}

func chartJSON(symbol string, price, prevClose float64) string {
    return fmt.Sprintf(`{"chart":{"result":[{
        "meta":{"symbol":%q,"shortName":"Test Co","regularMarketPrice":%g,
                "chartPreviousClose":%g,"regularMarketDayHigh":%g,
                "regularMarketDayLow":%g,"regularMarketVolume":12345,
                "regularMarketTime":1736160600},
        "timestamp":[1736160600],
        "indicators":{"quote":[{"open":[%g],"high":[%g],"low":[%g],"close":[%g],"volume":[12345]}]}
    }],"error":null}}`, symbol, price, prevClose, price+1, prevClose-1, prevClose, price+1, prevClose-1, price)
}

func TestQuotes_NormalizationInvariant(t *testing.T) {
    p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
        fmt.Fprint(w, chartJSON("TCS.NS", 4102.35, 4050.10))
    })
    qs, err := p.Quotes(context.Background(), []string{"TCS"})
    if err != nil {
        t.Fatalf("quotes: %v", err)
    }
    if len(qs) != 1 {
        t.Fatalf("want 1 quote, got %d", len(qs))
    }
    q := qs[0]
    if q.Symbol != "TCS" {
        t.Fatalf("suffix not stripped: %q", q.Symbol)
    }
    if q.Price != 4102.35 || q.PrevClose != 4050.10 {
        t.Fatalf("unexpected prices: %+v", q)
    }
    want := q.Change / q.PrevClose * 100
    if math.Abs(q.ChangePercent-want) >= 0.01 {
        t.Fatalf("change_percent %v inconsistent with change/prev_close (%v)", q.ChangePercent, want)
    }
    if q.Source != "yahoo" || q.Volume != 12345 {
        t.Fatalf("unexpected quote: %+v", q)
    }
}

func TestQuotes_RequestCarriesExchangeSuffix(t *testing.T) {
    var gotPath string
    p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
        gotPath = r.URL.Path
        fmt.Fprint(w, chartJSON("INFY.NS", 1900, 1880))
    })
    if _, err := p.Quotes(context.Background(), []string{"INFY"}); err != nil {
        t.Fatalf("quotes: %v", err)
    }
    if gotPath != "/v8/finance/chart/INFY.NS" {
        t.Fatalf("unexpected request path: %q", gotPath)
    }
}

func TestQuotes_MissingPriceIsMalformedNotZeroFilled(t *testing.T) {
    p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
        fmt.Fprint(w, `{"chart":{"result":[{"meta":{"symbol":"TCS.NS"},
            "timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`)
    })
    _, err := p.Quotes(context.Background(), []string{"TCS"})
    var pe *marketdata.ProviderError
    if !errors.As(err, &pe) || pe.Kind != marketdata.KindMalformed {
        t.Fatalf("want malformed ProviderError, got %v", err)
    }
}

func TestChart_SkipsNullBarsAndKeepsTimestampsIncreasing(t *testing.T) {
    p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
        fmt.Fprint(w, `{"chart":{"result":[{
            "meta":{"symbol":"TCS.NS","regularMarketPrice":100},
            "timestamp":[100,200,200,300],
            "indicators":{"quote":[{
                "open":[10,null,11,12],"high":[11,null,12,13],
                "low":[9,null,10,11],"close":[10.5,null,11.5,12.5],
                "volume":[5,null,6,7]
            }]}}],"error":null}}`)
    })
    points, err := p.Chart(context.Background(), "TCS", "1d", "1mo")
    if err != nil {
        t.Fatalf("chart: %v", err)
    }
    if len(points) != 2 {
        t.Fatalf("want 2 points (null and duplicate-ts bars dropped), got %d: %+v", len(points), points)
    }
    var last int64 = -1
    for _, pt := range points {
        if pt.TS <= last {
            t.Fatalf("timestamps not strictly increasing: %+v", points)
        }
        last = pt.TS
        if pt.High < math.Max(pt.Open, pt.Close) || pt.Low > math.Min(pt.Open, pt.Close) {
            t.Fatalf("OHLC invariant violated: %+v", pt)
        }
    }
}

func TestChart_AllNullIsMalformed(t *testing.T) {
    p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
        fmt.Fprint(w, `{"chart":{"result":[{
            "meta":{"symbol":"TCS.NS"},
            "timestamp":[100],
            "indicators":{"quote":[{"open":[null],"high":[null],"low":[null],"close":[null],"volume":[null]}]}
        }],"error":null}}`)
    })
    _, err := p.Chart(context.Background(), "TCS", "1d", "1mo")
    var pe *marketdata.ProviderError
    if !errors.As(err, &pe) || pe.Kind != marketdata.KindMalformed {
        t.Fatalf("want malformed, got %v", err)
    }
}

func TestSearch_StripsSuffixAndFiltersTypes(t *testing.T) {
    p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
        if got := r.URL.Query().Get("q"); got != "tata" {
            t.Errorf("query = %q", got)
        }
        fmt.Fprint(w, `{"quotes":[
            {"symbol":"TCS.NS","shortname":"Tata Consultancy","quoteType":"EQUITY"},
            {"symbol":"TATAMOTORS.NS","longname":"Tata Motors Limited","quoteType":"EQUITY"},
            {"symbol":"TATAFUND.BO","shortname":"Some Fund","quoteType":"MUTUALFUND"}
        ]}`)
    })
    out, err := p.Search(context.Background(), "tata")
    if err != nil {
        t.Fatalf("search: %v", err)
    }
    if len(out) != 2 {
        t.Fatalf("want 2 equities, got %d: %+v", len(out), out)
    }
    if out[0].Symbol != "TCS" || out[1].Symbol != "TATAMOTORS" {
        t.Fatalf("suffix handling: %+v", out)
    }
    if out[1].Name != "Tata Motors Limited" {
        t.Fatalf("name precedence: %+v", out[1])
    }
}

func TestQuotes_PartialBatchSurvivesOneBadSymbol(t *testing.T) {
    p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path == "/v8/finance/chart/BAD.NS" {
            fmt.Fprint(w, `{"chart":{"result":[],"error":{"code":"Not Found","description":"No data"}}}`)
            return
        }
        fmt.Fprint(w, chartJSON("TCS.NS", 4100, 4050))
    })
    qs, err := p.Quotes(context.Background(), []string{"TCS", "BAD"})
    if err != nil {
        t.Fatalf("partial batch should not error: %v", err)
    }
    if len(qs) != 1 || qs[0].Symbol != "TCS" {
        t.Fatalf("unexpected: %+v", qs)
    }
}
