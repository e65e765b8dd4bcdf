package marketdata

import "time"

// Quote is the normalized snapshot shape returned by all providers.
// Volume is the raw share count; formatting belongs to the caller.
type Quote struct {
    Symbol        string    `json:"symbol"`
    Name          string    `json:"name,omitempty"`
    Price         float64   `json:"price"`
    Change        float64   `json:"change"`
    ChangePercent float64   `json:"change_percent"`
    Open          float64   `json:"open,omitempty"`
    High          float64   `json:"high,omitempty"`
    Low           float64   `json:"low,omitempty"`
    PrevClose     float64   `json:"previous_close,omitempty"`
    Volume        int64     `json:"volume,omitempty"`
    Source        string    `json:"source"`
    UpdatedAt     time.Time `json:"updated_at"`
}

// ChartPoint is one OHLCV bar. TS is epoch milliseconds; within a series
// timestamps are strictly increasing.
type ChartPoint struct {
    TS     int64   `json:"ts"`
    Open   float64 `json:"open"`
    High   float64 `json:"high"`
    Low    float64 `json:"low"`
    Close  float64 `json:"close"`
    Volume int64   `json:"volume"`
}

// NewsItem is a normalized headline with a derived sentiment tag.
type NewsItem struct {
    Title       string    `json:"title"`
    Description string    `json:"description,omitempty"`
    URL         string    `json:"url"`
    Source      string    `json:"source"`
    PublishedAt time.Time `json:"published_at"`
    Sentiment   Sentiment `json:"sentiment"`
}
