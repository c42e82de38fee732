package yahoo

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/httputil"
	"github.com/wonny/breakout/backend/pkg/logger"
	"github.com/wonny/breakout/backend/pkg/redis"
)

// quoteTTL bounds how long a quote snapshot serves repeated lookups
// before a refetch.
const quoteTTL = 1 * time.Minute

// Client fetches US market data from Yahoo Finance. Charts come from
// the JSON chart API; market cap comes from scraping the quote page,
// which has no public JSON endpoint.
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	chartBaseURL string
	quoteBaseURL string
	limiter      *rate.Limiter
	profileCache *redis.Cache
	quotes       *QuoteCache
}

// NewClient creates a Yahoo Finance client.
// The client-side limiter smooths request bursts regardless of whether
// the Redis-backed limiter on the HTTP client is enabled.
func NewClient(cfg *config.Config, httpClient *httputil.Client, profileCache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		logger:       log,
		chartBaseURL: cfg.Yahoo.ChartBaseURL,
		quoteBaseURL: cfg.Yahoo.QuoteBaseURL,
		limiter:      rate.NewLimiter(rate.Limit(cfg.Yahoo.RatePerSec), 1),
		profileCache: profileCache,
		quotes:       NewQuoteCache(quoteTTL, log),
	}
}

// Quotes exposes the in-memory quote cache for maintenance jobs
func (c *Client) Quotes() *QuoteCache {
	return c.quotes
}
