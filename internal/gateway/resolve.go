package gateway

import (
    "context"
    "strings"

    "marketgateway/internal/marketdata"
)

// resolveQuotes walks quote providers in priority order. Each provider is
// asked only for the symbols still unresolved; a provider-level failure
// records one Failure covering everything it was asked for and the walk
// moves on. Stops when nothing remains or providers are exhausted.
func (g *Gateway) resolveQuotes(ctx context.Context, symbols []string) ([]marketdata.Quote, []marketdata.Failure) {
    remaining := normalizeSymbols(symbols)
    out := make([]marketdata.Quote, 0, len(remaining))
    var fails []marketdata.Failure

    var served []string
    for _, p := range g.quotes {
        if len(remaining) == 0 {
            break
        }
        if err := g.limits.Acquire(ctx, p.Name()); err != nil {
            // only happens when ctx died while waiting; later providers
            // would fail the same way
            fails = append(fails, failureFor(p.Name(), err, remaining))
            break
        }
        qs, err := p.Quotes(ctx, remaining)
        if err != nil {
            fails = append(fails, failureFor(p.Name(), err, remaining))
            continue
        }
        served = append(served, p.Name())
        wanted := make(map[string]struct{}, len(remaining))
        for _, s := range remaining {
            wanted[s] = struct{}{}
        }
        satisfied := make(map[string]struct{}, len(qs))
        for _, q := range qs {
            sym := strings.ToUpper(q.Symbol)
            if _, ok := wanted[sym]; !ok {
                continue
            }
            if _, dup := satisfied[sym]; dup {
                continue
            }
            satisfied[sym] = struct{}{}
            out = append(out, q)
        }
        next := make([]string, 0, len(remaining)-len(satisfied))
        for _, s := range remaining {
            if _, ok := satisfied[s]; !ok {
                next = append(next, s)
            }
        }
        remaining = next
    }
    // A provider answering without error may still silently omit symbols
    // (delisted, unknown ticker). Anything left unresolved that no failure
    // record mentions gets its own record; a shrunken batch must never come
    // back with an empty error list.
    if len(remaining) > 0 {
        covered := make(map[string]struct{})
        for _, f := range fails {
            for _, s := range f.Symbols {
                covered[s] = struct{}{}
            }
        }
        var silent []string
        for _, s := range remaining {
            if _, ok := covered[s]; !ok {
                silent = append(silent, s)
            }
        }
        if len(silent) > 0 {
            fails = append(fails, marketdata.Failure{
                Provider: strings.Join(served, ","),
                Kind:     marketdata.KindUpstream,
                Symbols:  silent,
                Message:  "no data returned for these symbols",
            })
        }
    }
    return out, fails
}

// step is one provider attempt for single-item request kinds
// (chart, news, search), where fallback is simply first-non-empty-wins.
type step[T any] struct {
    name  string
    fetch func(context.Context) ([]T, error)
}

func tryEach[T any](ctx context.Context, g *Gateway, steps []step[T]) ([]T, []marketdata.Failure) {
    var fails []marketdata.Failure
    for _, st := range steps {
        if err := g.limits.Acquire(ctx, st.name); err != nil {
            fails = append(fails, failureFor(st.name, err, nil))
            break
        }
        items, err := st.fetch(ctx)
        if err != nil {
            fails = append(fails, failureFor(st.name, err, nil))
            continue
        }
        if len(items) > 0 {
            return items, fails
        }
    }
    return nil, fails
}

func failureFor(provider string, err error, symbols []string) marketdata.Failure {
    pe := marketdata.Classify(provider, err)
    msg := string(pe.Kind)
    if pe.Err != nil {
        msg = pe.Err.Error()
    }
    var syms []string
    if len(symbols) > 0 {
        syms = append([]string(nil), symbols...)
    }
    return marketdata.Failure{Provider: pe.Provider, Kind: pe.Kind, Symbols: syms, Message: msg}
}

func normalizeSymbols(symbols []string) []string {
    out := make([]string, 0, len(symbols))
    seen := make(map[string]struct{}, len(symbols))
    for _, s := range symbols {
        s = strings.ToUpper(strings.TrimSpace(s))
        if s == "" {
            continue
        }
        if _, dup := seen[s]; dup {
            continue
        }
        seen[s] = struct{}{}
        out = append(out, s)
    }
    return out
}
