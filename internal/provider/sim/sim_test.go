package sim

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func fixed(p *Provider, t time.Time) *Provider {
    p.now = func() time.Time { return t }
    return p
}

func TestQuotes_DeterministicForSameMinute(t *testing.T) {
    t.Parallel()

    at := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
    p := fixed(New(), at)

    a, err := p.Quotes(context.Background(), []string{"TCS", "INFY"})
    require.NoError(t, err)
    b, err := p.Quotes(context.Background(), []string{"TCS", "INFY"})
    require.NoError(t, err)

    require.Equal(t, a, b)
    require.Equal(t, "sim", a[0].Source)
    require.Equal(t, "Tata Consultancy Services", a[0].Name)
    require.NotEqual(t, a[0].Price, a[1].Price)
}

func TestChart_MonotonicTimestampsAndOHLC(t *testing.T) {
    t.Parallel()

    p := fixed(New(), time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC))
    pts, err := p.Chart(context.Background(), "TCS", "1d", "1mo")
    require.NoError(t, err)
    require.Len(t, pts, 22)

    for i, b := range pts {
        if i > 0 {
            require.Greater(t, b.TS, pts[i-1].TS)
        }
        require.GreaterOrEqual(t, b.High, b.Open)
        require.GreaterOrEqual(t, b.High, b.Close)
        require.LessOrEqual(t, b.Low, b.Open)
        require.LessOrEqual(t, b.Low, b.Close)
    }
}

func TestSearch_MatchesSymbolAndName(t *testing.T) {
    t.Parallel()

    p := New()

    bySymbol, err := p.Search(context.Background(), "tcs")
    require.NoError(t, err)
    require.Len(t, bySymbol, 1)
    require.Equal(t, "TCS", bySymbol[0].Symbol)

    byName, err := p.Search(context.Background(), "bank")
    require.NoError(t, err)
    require.NotEmpty(t, byName)

    empty, err := p.Search(context.Background(), "  ")
    require.NoError(t, err)
    require.Empty(t, empty)
}

func TestNews_TaggedAndTimestamped(t *testing.T) {
    t.Parallel()

    at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
    p := fixed(New(), at)

    items, err := p.News(context.Background(), "TCS", "")
    require.NoError(t, err)
    require.Len(t, items, 3)
    for _, it := range items {
        require.Equal(t, "sim", it.Source)
        require.Contains(t, it.Title, "Tata Consultancy Services")
        require.True(t, it.PublishedAt.Before(at))
    }
}
