package main

import (
    "compress/gzip"
    "context"
    "encoding/json"
    "errors"
    "io"
    "log"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "sync"
    "syscall"
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
    "marketgateway/internal/store"
)

func main() {
    // Config
    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil { log.Fatalf("config: %v", err) }
    port := cfg.Server.Port
    timeoutSec := cfg.Server.RequestTimeoutSec

    if cfg.AlphaVantage.Enabled && cfg.AlphaVantage.APIKey == "" {
        log.Println("warning: alphavantage.enabled=true but ALPHAVANTAGE_API_KEY not set")
    }
    if cfg.News.Enabled && cfg.News.APIKey == "" {
        log.Println("warning: news.enabled=true but NEWS_API_KEY not set")
    }

    httpClient := httpx.New(httpx.Config{Timeout: time.Duration(timeoutSec) * time.Second})

    // Snapshot store for warm restarts
    var snap store.Snapshotter
    switch cfg.Store.Backend {
    case "redis":
        snap, err = store.OpenRedis(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
        if err != nil { log.Fatalf("redis: %v", err) }
    default:
        snap, err = store.OpenSQLite(cfg.Store.SQLitePath)
        if err != nil { log.Fatalf("sqlite: %v", err) }
    }
    defer snap.Close()

    mdCache := cache.New(cache.Options{
        Snapshot:    snap,
        Namespace:   cfg.Cache.Namespace,
        PersistProb: cfg.Cache.PersistProb,
    })
    if err := mdCache.Load(context.Background()); err != nil {
        log.Printf("warning: cache restore failed: %v", err)
    }

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
    if cfg.AlphaVantage.Enabled {
        opts := []alphavantage.ClientOption{alphavantage.WithHTTPClient(httpClient.HTTP)}
        if cfg.AlphaVantage.BaseURL != "" {
            opts = append(opts, alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL))
        }
        avClient, err := alphavantage.NewClient(cfg.AlphaVantage.APIKey, opts...)
        if err != nil {
            log.Printf("alphavantage client error: %v", err)
        } else {
            av := alphavantage.NewAdapter(alphavantage.Config{
                APIKey:         cfg.AlphaVantage.APIKey,
                Suffix:         cfg.AlphaVantage.Suffix,
                MaxConcurrency: cfg.AlphaVantage.MaxConcurrency,
            }, avClient)
            limits.Configure(av.Name(), cfg.AlphaVantage.MaxCalls, time.Duration(cfg.AlphaVantage.WindowSec)*time.Second)
            quoteProviders = append(quoteProviders, av)
            chartProviders = append(chartProviders, av)
        }
    }
    if cfg.News.Enabled {
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
        // synthetic last-resort source, always at the end of the order
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
        SweepInterval: time.Duration(cfg.Cache.SweepIntervalSec) * time.Second,
    }, gateway.Deps{
        Cache:  mdCache,
        Limits: limits,
        Quotes: quoteProviders,
        Charts: chartProviders,
        News:   newsProviders,
        Search: searchProviders,
    })
    gw.StartSweeper()
    defer gw.Stop()

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("/api/quotes", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleQuotes(w, r, gw)
    })
    mux.HandleFunc("/api/chart", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleChart(w, r, gw)
    })
    mux.HandleFunc("/api/news", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleNews(w, r, gw)
    })
    mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleSearch(w, r, gw)
    })
    mux.HandleFunc("/api/market-status", func(w http.ResponseWriter, r *http.Request) {
        writeJSON(w, http.StatusOK, gw.MarketStatus())
    })

    srv := &http.Server{
        Addr:              ":" + port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Printf("server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func handleQuotes(w http.ResponseWriter, r *http.Request, gw *gateway.Gateway) {
    q := r.URL.Query().Get("symbols")
    if strings.TrimSpace(q) == "" {
        http.Error(w, "missing symbols query param", http.StatusBadRequest)
        return
    }
    symbols := splitCSV(q)
    if len(symbols) > 100 {
        http.Error(w, "too many symbols (max 100)", http.StatusBadRequest)
        return
    }
    ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
    defer cancel()
    res, err := gw.GetQuotes(ctx, symbols)
    if err != nil {
        writeGatewayError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, res)
}

func handleChart(w http.ResponseWriter, r *http.Request, gw *gateway.Gateway) {
    symbol := r.URL.Query().Get("symbol")
    if symbol == "" {
        http.Error(w, "missing symbol query param", http.StatusBadRequest)
        return
    }
    interval := r.URL.Query().Get("interval")
    if interval == "" { interval = "1d" }
    rng := r.URL.Query().Get("range")
    if rng == "" { rng = "1mo" }
    ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
    defer cancel()
    points, err := gw.GetChart(ctx, symbol, interval, rng)
    if err != nil {
        writeGatewayError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"symbol": strings.ToUpper(symbol), "points": points})
}

func handleNews(w http.ResponseWriter, r *http.Request, gw *gateway.Gateway) {
    symbol := r.URL.Query().Get("symbol")
    if symbol == "" {
        http.Error(w, "missing symbol query param", http.StatusBadRequest)
        return
    }
    name := r.URL.Query().Get("name")
    ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
    defer cancel()
    items, err := gw.GetNews(ctx, symbol, name)
    if err != nil {
        writeGatewayError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"symbol": strings.ToUpper(symbol), "items": items})
}

func handleSearch(w http.ResponseWriter, r *http.Request, gw *gateway.Gateway) {
    q := strings.TrimSpace(r.URL.Query().Get("q"))
    if q == "" {
        http.Error(w, "missing q query param", http.StatusBadRequest)
        return
    }
    ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
    defer cancel()
    matches, err := gw.SearchSymbols(ctx, q)
    if err != nil {
        writeGatewayError(w, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"query": q, "matches": matches})
}

// writeGatewayError maps gateway errors onto HTTP statuses. Exhausted
// fallbacks become 502 with the per-provider failure list so the UI can
// show which sources broke and why.
func writeGatewayError(w http.ResponseWriter, err error) {
    var tf *marketdata.TotalFailure
    switch {
    case errors.As(err, &tf):
        writeJSON(w, http.StatusBadGateway, map[string]any{"errors": tf.Failures})
    case errors.Is(err, gateway.ErrSuperseded):
        http.Error(w, "superseded by a newer request", http.StatusConflict)
    case errors.Is(err, context.DeadlineExceeded):
        http.Error(w, "upstream timeout", http.StatusGatewayTimeout)
    default:
        http.Error(w, err.Error(), http.StatusBadRequest)
    }
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.WriteHeader(status)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        // Prefer best speed to reduce CPU usage since payloads are JSON
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
    const maxBody = 1 << 20 // 1MB
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method == http.MethodPost && r.Body != nil {
            r.Body = http.MaxBytesReader(w, r.Body, maxBody)
        }
        next.ServeHTTP(w, r)
    })
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
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
