package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
)

// chartResponse mirrors the chart API payload. Price arrays use
// pointers because Yahoo emits null for halted or missing sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyBars fetches daily OHLCV bars for the given range ("3mo", "5d")
// ⭐ SSOT: 차트 API 호출은 이 함수에서만
func (c *Client) DailyBars(ctx context.Context, ticker string, rng string) (contracts.Bars, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.chartBaseURL, url.PathEscape(ticker), url.QueryEscape(rng))

	var parsed chartResponse
	if err := c.httpClient.GetJSON(ctx, reqURL, &parsed); err != nil {
		return nil, fmt.Errorf("chart request for %s failed: %w", ticker, err)
	}

	return parseChart(&parsed, ticker)
}

// LatestQuote returns the most recent close and intraday low, serving
// from the in-memory cache when fresh.
func (c *Client) LatestQuote(ctx context.Context, ticker string) (*contracts.Quote, error) {
	if quote, ok := c.quotes.Get(ticker); ok {
		return quote, nil
	}

	bars, err := c.DailyBars(ctx, ticker, contracts.RangeFiveDays)
	if err != nil {
		return nil, err
	}
	last, ok := bars.Last()
	if !ok {
		return nil, fmt.Errorf("no recent bars for %s", ticker)
	}

	quote := &contracts.Quote{
		Ticker:    ticker,
		Price:     last.Close,
		Low:       last.Low,
		FetchedAt: time.Now(),
	}
	c.quotes.Set(quote)
	return quote, nil
}

// parseChart converts the API payload to bars, dropping sessions with
// null close or volume.
func parseChart(parsed *chartResponse, ticker string) (contracts.Bars, error) {
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s (%s)",
			ticker, parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", ticker)
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart API returned no quote data for %s", ticker)
	}
	quote := result.Indicators.Quote[0]

	bars := make(contracts.Bars, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		if quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}

		bar := contracts.Bar{
			Date:   time.Unix(ts, 0).UTC(),
			Close:  *quote.Close[i],
			Volume: *quote.Volume[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}
