package yahoo

import (
	"sync"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// QuoteCache is an in-memory TTL cache for quote snapshots
// ⭐ SSOT: 시세 스냅샷 캐싱은 이 구조체에서만
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]*contracts.Quote
	ttl    time.Duration
	logger *logger.Logger
}

// NewQuoteCache creates a quote cache with the given freshness window
func NewQuoteCache(ttl time.Duration, log *logger.Logger) *QuoteCache {
	return &QuoteCache{
		quotes: make(map[string]*contracts.Quote),
		ttl:    ttl,
		logger: log,
	}
}

// Set stores a quote snapshot
func (c *QuoteCache) Set(quote *contracts.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[quote.Ticker] = quote
}

// Get returns a quote if present and still fresh
func (c *QuoteCache) Get(ticker string) (*contracts.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	quote, exists := c.quotes[ticker]
	if !exists {
		return nil, false
	}
	if time.Since(quote.FetchedAt) > c.ttl {
		return nil, false
	}
	return quote, true
}

// Len returns the number of cached quotes, fresh or stale
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quotes)
}

// Clear drops every cached quote
func (c *QuoteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes = make(map[string]*contracts.Quote)
}

// CleanStale removes quotes past their TTL and returns how many were
// dropped. Run periodically so the map does not grow with the universe.
func (c *QuoteCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for ticker, quote := range c.quotes {
		if now.Sub(quote.FetchedAt) > c.ttl {
			delete(c.quotes, ticker)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale quotes from cache")
	}
	return count
}
