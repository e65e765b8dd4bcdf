package marketdata

import "context"

// QuoteProvider fetches normalized quotes for a batch of symbols.
// Missing symbols are simply absent from the result; an error means the
// provider as a whole could not serve the batch.
type QuoteProvider interface {
    Name() string
    Quotes(ctx context.Context, symbols []string) ([]Quote, error)
}

// ChartProvider fetches an OHLCV series for one (symbol, interval, range).
type ChartProvider interface {
    Name() string
    Chart(ctx context.Context, symbol, interval, rng string) ([]ChartPoint, error)
}

// NewsProvider fetches headlines for a symbol. displayName, when known,
// usually makes a better query than the raw ticker.
type NewsProvider interface {
    Name() string
    News(ctx context.Context, symbol, displayName string) ([]NewsItem, error)
}

// SearchProvider resolves a free-text query to candidate instruments.
// Returned quotes carry identity fields only; price may be zero.
type SearchProvider interface {
    Name() string
    Search(ctx context.Context, query string) ([]Quote, error)
}
