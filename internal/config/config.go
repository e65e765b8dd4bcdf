package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Cache struct {
    QuotesTTLSec   int     `json:"quotes_ttl_sec"`
    ChartTTLSec    int     `json:"chart_ttl_sec"`
    NewsTTLSec     int     `json:"news_ttl_sec"`
    SearchTTLSec   int     `json:"search_ttl_sec"`
    SweepIntervalSec int   `json:"sweep_interval_sec"`
    PersistProb    float64 `json:"persist_prob"`
    Namespace      string  `json:"namespace"`
}

type Store struct {
    // Backend selects the snapshot store: "sqlite" or "redis".
    Backend       string `json:"backend"`
    SQLitePath    string `json:"sqlite_path"`
    RedisAddr     string `json:"redis_addr"`
    RedisPassword string `json:"redis_password"`
    RedisDB       int    `json:"redis_db"`
}

type Yahoo struct {
    Enabled        bool   `json:"enabled"`
    ChartURL       string `json:"chart_url"`
    SearchURL      string `json:"search_url"`
    Suffix         string `json:"suffix"`
    MaxCalls       int    `json:"max_calls"`
    WindowSec      int    `json:"window_sec"`
    MaxConcurrency int    `json:"max_concurrency"`
}

type AlphaVantage struct {
    Enabled        bool   `json:"enabled"`
    APIKey         string `json:"api_key"`
    BaseURL        string `json:"base_url"`
    Suffix         string `json:"suffix"`
    MaxCalls       int    `json:"max_calls"`
    WindowSec      int    `json:"window_sec"`
    MaxConcurrency int    `json:"max_concurrency"`
}

type News struct {
    Enabled   bool   `json:"enabled"`
    APIKey    string `json:"api_key"`
    BaseURL   string `json:"base_url"`
    Lang      string `json:"lang"`
    Country   string `json:"country"`
    MaxItems  int    `json:"max_items"`
    MaxCalls  int    `json:"max_calls"`
    WindowSec int    `json:"window_sec"`
}

type Sim struct {
    Enabled bool `json:"enabled"`
}

type Config struct {
    Server       Server       `json:"server"`
    Cache        Cache        `json:"cache"`
    Store        Store        `json:"store"`
    Yahoo        Yahoo        `json:"yahoo"`
    AlphaVantage AlphaVantage `json:"alphavantage"`
    News         News         `json:"news"`
    Sim          Sim          `json:"sim"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 10},
        Cache: Cache{
            QuotesTTLSec:     15,
            ChartTTLSec:      300,
            NewsTTLSec:       900,
            SearchTTLSec:     3600,
            SweepIntervalSec: 300,
            PersistProb:      0.1,
            Namespace:        "marketdata",
        },
        Store: Store{
            Backend:    "sqlite",
            SQLitePath: "data/gateway.db",
            RedisAddr:  "localhost:6379",
        },
        Yahoo: Yahoo{
            Enabled:        true,
            Suffix:         ".NS",
            MaxCalls:       30,
            WindowSec:      60,
            MaxConcurrency: 4,
        },
        AlphaVantage: AlphaVantage{
            Enabled:        true,
            Suffix:         ".BSE",
            MaxCalls:       5,
            WindowSec:      60,
            MaxConcurrency: 1,
        },
        News: News{
            Enabled:   true,
            Lang:      "en",
            Country:   "in",
            MaxItems:  10,
            MaxCalls:  10,
            WindowSec: 60,
        },
        Sim: Sim{Enabled: false},
    }
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }

    if v := os.Getenv("QUOTES_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.QuotesTTLSec = x }
    }
    if v := os.Getenv("CHART_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.ChartTTLSec = x }
    }
    if v := os.Getenv("NEWS_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.NewsTTLSec = x }
    }
    if v := os.Getenv("SEARCH_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.SearchTTLSec = x }
    }
    if v := os.Getenv("CACHE_PERSIST_PROB"); v != "" {
        var x float64; fmt.Sscanf(v, "%f", &x); if x >= 0 && x <= 1 { cfg.Cache.PersistProb = x }
    }

    if v := os.Getenv("STORE_BACKEND"); v != "" { cfg.Store.Backend = strings.ToLower(v) }
    if v := os.Getenv("SQLITE_PATH"); v != "" { cfg.Store.SQLitePath = v }
    if v := os.Getenv("REDIS_ADDR"); v != "" { cfg.Store.RedisAddr = v }
    if v := os.Getenv("REDIS_PASSWORD"); v != "" { cfg.Store.RedisPassword = v }
    if v := os.Getenv("REDIS_DB"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Store.RedisDB = x }
    }

    if v := os.Getenv("YAHOO_ENABLED"); v != "" { setBool(&cfg.Yahoo.Enabled, v) }
    if v := os.Getenv("YAHOO_CHART_URL"); v != "" { cfg.Yahoo.ChartURL = v }
    if v := os.Getenv("YAHOO_SEARCH_URL"); v != "" { cfg.Yahoo.SearchURL = v }
    if v := os.Getenv("YAHOO_SUFFIX"); v != "" { cfg.Yahoo.Suffix = v }
    if v := os.Getenv("YAHOO_MAX_CALLS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Yahoo.MaxCalls = x }
    }
    if v := os.Getenv("YAHOO_WINDOW_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Yahoo.WindowSec = x }
    }
    if v := os.Getenv("YAHOO_MAX_CONCURRENCY"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Yahoo.MaxConcurrency = x }
    }

    if v := os.Getenv("ALPHAVANTAGE_ENABLED"); v != "" { setBool(&cfg.AlphaVantage.Enabled, v) }
    if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" { cfg.AlphaVantage.APIKey = v }
    if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" { cfg.AlphaVantage.BaseURL = v }
    if v := os.Getenv("ALPHAVANTAGE_SUFFIX"); v != "" { cfg.AlphaVantage.Suffix = v }
    if v := os.Getenv("ALPHAVANTAGE_MAX_CALLS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.AlphaVantage.MaxCalls = x }
    }
    if v := os.Getenv("ALPHAVANTAGE_WINDOW_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.AlphaVantage.WindowSec = x }
    }

    if v := os.Getenv("NEWS_ENABLED"); v != "" { setBool(&cfg.News.Enabled, v) }
    if v := os.Getenv("NEWS_API_KEY"); v != "" { cfg.News.APIKey = v }
    if v := os.Getenv("NEWS_BASE_URL"); v != "" { cfg.News.BaseURL = v }
    if v := os.Getenv("NEWS_LANG"); v != "" { cfg.News.Lang = v }
    if v := os.Getenv("NEWS_COUNTRY"); v != "" { cfg.News.Country = v }
    if v := os.Getenv("NEWS_MAX_ITEMS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.News.MaxItems = x }
    }
    if v := os.Getenv("NEWS_MAX_CALLS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.News.MaxCalls = x }
    }
    if v := os.Getenv("NEWS_WINDOW_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.News.WindowSec = x }
    }

    if v := os.Getenv("SIM_ENABLED"); v != "" { setBool(&cfg.Sim.Enabled, v) }
}

func setBool(dst *bool, v string) {
    switch strings.ToLower(v) {
    case "1", "true", "yes", "y":
        *dst = true
    case "0", "false", "no", "n":
        *dst = false
    }
}
