package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/redis"
)

// Profile returns market cap and current price for a ticker, scraped
// from the quote page. Results are cached for a day when Redis is
// enabled since fundamentals move slowly.
// ⭐ SSOT: 종목 프로필 조회는 이 함수에서만
func (c *Client) Profile(ctx context.Context, ticker string) (*contracts.StockProfile, error) {
	var profile contracts.StockProfile
	err := c.profileCache.GetOrSet(ctx, redis.ProfileKey(ticker), &profile, redis.TTLDaily, func() (interface{}, error) {
		return c.fetchProfile(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) fetchProfile(ctx context.Context, ticker string) (*contracts.StockProfile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/quote/%s/", c.quoteBaseURL, url.PathEscape(ticker))
	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("profile request for %s failed: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request for %s: unexpected status %d", ticker, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile page: %w", err)
	}

	return parseProfileHTML(string(body), ticker)
}

// parseProfileHTML extracts price and market cap from the quote page.
// Yahoo renders both as fin-streamer elements carrying a data-value
// attribute; the visible text (e.g. "3.43T") is the fallback.
func parseProfileHTML(html string, ticker string) (*contracts.StockProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile page: %w", err)
	}

	price, ok := extractStreamerValue(doc, "regularMarketPrice")
	if !ok {
		return nil, fmt.Errorf("price not found on quote page for %s", ticker)
	}

	// 시가총액은 없을 수 있음 (ETF 등) → 0으로 보고
	marketCap, _ := extractStreamerValue(doc, "marketCap")

	return &contracts.StockProfile{
		Ticker:    ticker,
		Price:     price,
		MarketCap: marketCap,
	}, nil
}

func extractStreamerValue(doc *goquery.Document, field string) (float64, bool) {
	sel := doc.Find(fmt.Sprintf(`fin-streamer[data-field=%q]`, field)).First()
	if sel.Length() == 0 {
		return 0, false
	}

	if raw, exists := sel.Attr("data-value"); exists {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64); err == nil {
			return v, true
		}
	}

	if v, err := parseAbbreviatedNumber(sel.Text()); err == nil {
		return v, true
	}
	return 0, false
}

// parseAbbreviatedNumber handles Yahoo's display format: "3.43T",
// "687.5B", "52.1M", "900K", or a plain number with thousand commas.
func parseAbbreviatedNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "N/A" || s == "--" {
		return 0, fmt.Errorf("empty numeric value")
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "T"):
		multiplier = 1e12
		s = strings.TrimSuffix(s, "T")
	case strings.HasSuffix(s, "B"):
		multiplier = 1e9
		s = strings.TrimSuffix(s, "B")
	case strings.HasSuffix(s, "M"):
		multiplier = 1e6
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "K"):
		multiplier = 1e3
		s = strings.TrimSuffix(s, "K")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q: %w", s, err)
	}
	return v * multiplier, nil
}
