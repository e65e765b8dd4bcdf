package cache

import (
    "sort"
    "strings"
)

// Cache keys are deterministic functions of the request parameters.
// Multi-symbol keys are order-independent: ["TCS","INFY"] and ["INFY","TCS"]
// must land on the same entry.

func QuotesKey(symbols []string) string {
    norm := make([]string, 0, len(symbols))
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
        norm = append(norm, s)
    }
    sort.Strings(norm)
    return "quotes_" + strings.Join(norm, "_")
}

func ChartKey(symbol, interval, rng string) string {
    return "chart_" + strings.ToUpper(strings.TrimSpace(symbol)) + "_" + interval + "_" + rng
}

func NewsKey(symbol string) string {
    return "news_" + strings.ToUpper(strings.TrimSpace(symbol))
}

func SearchKey(query string) string {
    return "search_" + strings.ToLower(strings.TrimSpace(query))
}
