package alphavantage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DailyBar is one day of the TIME_SERIES_DAILY payload.
type DailyBar struct {
	Date   string // YYYY-MM-DD in the exchange's local calendar
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// DailySeries retrieves the daily OHLCV series for symbol, oldest first.
// full requests the complete history instead of the latest ~100 bars.
func (c *Client) DailySeries(ctx context.Context, symbol string, full bool) ([]DailyBar, error) {
	outputSize := "compact"
	if full {
		outputSize = "full"
	}
	var body struct {
		Series map[string]struct {
			Open   string `json:"1. open"`
			High   string `json:"2. high"`
			Low    string `json:"3. low"`
			Close  string `json:"4. close"`
			Volume string `json:"5. volume"`
		} `json:"Time Series (Daily)"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := c.getQuery(ctx, map[string]string{
		"function":   "TIME_SERIES_DAILY",
		"symbol":     symbol,
		"outputsize": outputSize,
	}, &body); err != nil {
		return nil, err
	}
	if body.Note != "" || body.Information != "" {
		return nil, ErrThrottled
	}
	if body.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoData, body.ErrorMessage)
	}
	if len(body.Series) == 0 {
		return nil, ErrNoData
	}

	bars := make([]DailyBar, 0, len(body.Series))
	for date, raw := range body.Series {
		bar := DailyBar{Date: date}
		var err error
		if bar.Open, err = parseFloat(raw.Open); err != nil {
			continue
		}
		if bar.High, err = parseFloat(raw.High); err != nil {
			continue
		}
		if bar.Low, err = parseFloat(raw.Low); err != nil {
			continue
		}
		if bar.Close, err = parseFloat(raw.Close); err != nil {
			continue
		}
		if v, err := strconv.ParseInt(strings.TrimSpace(raw.Volume), 10, 64); err == nil {
			bar.Volume = v
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}
