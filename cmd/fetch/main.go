package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "log"
    "os"
    "strings"
    "time"

    "marketgateway/internal/cache"
    "marketgateway/internal/config"
    "marketgateway/internal/gateway"
    "marketgateway/internal/httpx"
    "marketgateway/internal/marketdata"
    "marketgateway/internal/provider/alphavantage"
    "marketgateway/internal/provider/newsfeed"
    "marketgateway/internal/provider/sim"
    "marketgateway/internal/provider/yfin"
    "marketgateway/internal/ratelimit"
)

// one-shot fetcher for smoke-testing providers without the HTTP server

func main() {
    var symbolsCSV string
    var chartSymbol string
    var interval, rng string
    var newsSymbol string
    var searchQuery string
    var useSim bool
    var timeout int
    var configPath string

    flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", ""), "comma-separated symbols to quote")
    flag.StringVar(&chartSymbol, "chart", "", "symbol to fetch a chart for")
    flag.StringVar(&interval, "interval", "1d", "chart interval (1m,5m,15m,1h,1d)")
    flag.StringVar(&rng, "range", "1mo", "chart range (1d,5d,1mo,1y,max)")
    flag.StringVar(&newsSymbol, "news", "", "symbol to fetch headlines for")
    flag.StringVar(&searchQuery, "search", "", "free-text symbol search")
    flag.BoolVar(&useSim, "sim", getenvBool("SIM_ENABLED", false), "append the synthetic provider as a last resort")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil { log.Fatalf("config: %v", err) }
    if timeout != 0 { cfg.Server.RequestTimeoutSec = timeout }
    if useSim { cfg.Sim.Enabled = true }

    httpClient := httpx.New(httpx.Config{Timeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second})

    limits := ratelimit.NewSet()
    var (
        quoteProviders  []marketdata.QuoteProvider
        chartProviders  []marketdata.ChartProvider
        newsProviders   []marketdata.NewsProvider
        searchProviders []marketdata.SearchProvider
    )
    if cfg.Yahoo.Enabled {
        yf := yfin.New(yfin.Config{
            ChartURL:       cfg.Yahoo.ChartURL,
            SearchURL:      cfg.Yahoo.SearchURL,
            Suffix:         cfg.Yahoo.Suffix,
            MaxConcurrency: cfg.Yahoo.MaxConcurrency,
        }, httpClient)
        limits.Configure(yf.Name(), cfg.Yahoo.MaxCalls, time.Duration(cfg.Yahoo.WindowSec)*time.Second)
        quoteProviders = append(quoteProviders, yf)
        chartProviders = append(chartProviders, yf)
        searchProviders = append(searchProviders, yf)
    }
    if cfg.AlphaVantage.Enabled && cfg.AlphaVantage.APIKey != "" {
        opts := []alphavantage.ClientOption{alphavantage.WithHTTPClient(httpClient.HTTP)}
        if cfg.AlphaVantage.BaseURL != "" {
            opts = append(opts, alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL))
        }
        avClient, err := alphavantage.NewClient(cfg.AlphaVantage.APIKey, opts...)
        if err != nil { log.Fatalf("alphavantage client: %v", err) }
        av := alphavantage.NewAdapter(alphavantage.Config{
            APIKey:         cfg.AlphaVantage.APIKey,
            Suffix:         cfg.AlphaVantage.Suffix,
            MaxConcurrency: cfg.AlphaVantage.MaxConcurrency,
        }, avClient)
        limits.Configure(av.Name(), cfg.AlphaVantage.MaxCalls, time.Duration(cfg.AlphaVantage.WindowSec)*time.Second)
        quoteProviders = append(quoteProviders, av)
        chartProviders = append(chartProviders, av)
    }
    if cfg.News.Enabled && cfg.News.APIKey != "" {
        nf := newsfeed.New(newsfeed.Config{
            BaseURL:  cfg.News.BaseURL,
            APIKey:   cfg.News.APIKey,
            Lang:     cfg.News.Lang,
            Country:  cfg.News.Country,
            MaxItems: cfg.News.MaxItems,
        }, httpClient)
        limits.Configure(nf.Name(), cfg.News.MaxCalls, time.Duration(cfg.News.WindowSec)*time.Second)
        newsProviders = append(newsProviders, nf)
    }
    if cfg.Sim.Enabled {
        sp := sim.New()
        quoteProviders = append(quoteProviders, sp)
        chartProviders = append(chartProviders, sp)
        newsProviders = append(newsProviders, sp)
        searchProviders = append(searchProviders, sp)
    }

    gw := gateway.New(gateway.Config{
        TTL: gateway.TTLs{
            Quotes: time.Duration(cfg.Cache.QuotesTTLSec) * time.Second,
            Chart:  time.Duration(cfg.Cache.ChartTTLSec) * time.Second,
            News:   time.Duration(cfg.Cache.NewsTTLSec) * time.Second,
            Search: time.Duration(cfg.Cache.SearchTTLSec) * time.Second,
        },
    }, gateway.Deps{
        Cache:  cache.New(cache.Options{Namespace: cfg.Cache.Namespace}),
        Limits: limits,
        Quotes: quoteProviders,
        Charts: chartProviders,
        News:   newsProviders,
        Search: searchProviders,
    })

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
    defer cancel()

    ran := false
    if symbolsCSV != "" {
        ran = true
        res, err := gw.GetQuotes(ctx, splitCSV(symbolsCSV))
        if err != nil { log.Fatalf("quotes: %v", err) }
        for _, f := range res.Errors { log.Printf("%s degraded: %s", f.Provider, f.Message) }
        printJSON(res)
    }
    if chartSymbol != "" {
        ran = true
        points, err := gw.GetChart(ctx, chartSymbol, interval, rng)
        if err != nil { log.Fatalf("chart: %v", err) }
        log.Printf("chart: %d points", len(points))
        printJSON(points)
    }
    if newsSymbol != "" {
        ran = true
        items, err := gw.GetNews(ctx, newsSymbol, "")
        if err != nil { log.Fatalf("news: %v", err) }
        printJSON(items)
    }
    if searchQuery != "" {
        ran = true
        matches, err := gw.SearchSymbols(ctx, searchQuery)
        if err != nil { log.Fatalf("search: %v", err) }
        printJSON(matches)
    }
    if !ran {
        log.Printf("market status: %s", gw.MarketStatus().Status)
        log.Fatal("nothing to fetch; pass -symbols, -chart, -news or -search")
    }
}

func printJSON(v any) {
    b, _ := json.MarshalIndent(v, "", "  ")
    fmt.Println(string(b))
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 { return x }
    }
    return def
}
func getenvBool(key string, def bool) bool {
    if v := os.Getenv(key); v != "" {
        switch strings.ToLower(v) {
        case "1","true","yes","y": return true
        case "0","false","no","n": return false
        }
    }
    return def
}
