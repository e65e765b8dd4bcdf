package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"strings"
)

// GlobalQuote is the parsed GLOBAL_QUOTE payload for one symbol.
type GlobalQuote struct {
	Symbol           string
	Open             float64
	High             float64
	Low              float64
	Price            float64
	Volume           int64
	LatestTradingDay string
	PrevClose        float64
	Change           float64
	ChangePercent    float64
}

// GlobalQuote retrieves the latest quote for symbol.
func (c *Client) GlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	var body struct {
		Quote struct {
			Symbol           string `json:"01. symbol"`
			Open             string `json:"02. open"`
			High             string `json:"03. high"`
			Low              string `json:"04. low"`
			Price            string `json:"05. price"`
			Volume           string `json:"06. volume"`
			LatestTradingDay string `json:"07. latest trading day"`
			PrevClose        string `json:"08. previous close"`
			Change           string `json:"09. change"`
			ChangePercent    string `json:"10. change percent"`
		} `json:"Global Quote"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := c.getQuery(ctx, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
	}, &body); err != nil {
		return nil, err
	}
	if body.Note != "" || body.Information != "" {
		return nil, ErrThrottled
	}
	if body.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoData, body.ErrorMessage)
	}
	if body.Quote.Price == "" {
		return nil, ErrNoData
	}

	q := &GlobalQuote{Symbol: body.Quote.Symbol, LatestTradingDay: body.Quote.LatestTradingDay}
	var err error
	if q.Price, err = parseFloat(body.Quote.Price); err != nil {
		return nil, fmt.Errorf("%w: price %q", ErrNoData, body.Quote.Price)
	}
	// the remaining fields are best effort; a quote with only a price is
	// still a quote
	q.Open, _ = parseFloat(body.Quote.Open)
	q.High, _ = parseFloat(body.Quote.High)
	q.Low, _ = parseFloat(body.Quote.Low)
	q.PrevClose, _ = parseFloat(body.Quote.PrevClose)
	q.Change, _ = parseFloat(body.Quote.Change)
	q.ChangePercent, _ = parseFloat(strings.TrimSuffix(body.Quote.ChangePercent, "%"))
	if v, err := strconv.ParseInt(strings.TrimSpace(body.Quote.Volume), 10, 64); err == nil {
		q.Volume = v
	}
	return q, nil
}

func (c *Client) getQuery(ctx context.Context, params map[string]string, dst any) error {
	query := maps.Clone(c.query)
	for k, v := range params {
		query.Add(k, v)
	}
	u := fmt.Sprintf("%s/query?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unauthorized")
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		return fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
