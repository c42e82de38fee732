package screener

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/watchlist"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/logger"
)

const (
	// minHistoryBars is the fewest daily bars a candidate needs
	// before its liquidity can be judged.
	minHistoryBars = 20

	// volumeWindow is how many recent bars feed the average volume check.
	volumeWindow = 30

	// requestDelay spaces per-ticker requests during a universe sweep.
	requestDelay = 100 * time.Millisecond

	// progressEvery controls how often sweep progress is logged.
	progressEvery = 50
)

// Screener selects liquid large-cap stocks for the dynamic watchlist.
// ⭐ SSOT: 동적 관심종목 선정 기준은 여기서만
type Screener struct {
	provider contracts.MarketDataProvider
	store    *watchlist.Store
	logger   *logger.Logger

	minMarketCapUSD float64
	minAvgVolume    float64
	minPriceUSD     float64
	maxStocks       int
	delay           time.Duration
}

// candidate is a ticker that passed every filter, kept with its
// market cap for the final ranking.
type candidate struct {
	ticker    string
	marketCap float64
}

// New creates a screener from config thresholds.
func New(cfg *config.Config, provider contracts.MarketDataProvider, store *watchlist.Store, log *logger.Logger) *Screener {
	return &Screener{
		provider:        provider,
		store:           store,
		logger:          log,
		minMarketCapUSD: cfg.Screener.MinMarketCapUSD,
		minAvgVolume:    cfg.Screener.MinAvgVolume,
		minPriceUSD:     cfg.Screener.MinPriceUSD,
		maxStocks:       cfg.Screener.MaxStocks,
		delay:           requestDelay,
	}
}

// Screen evaluates the given tickers and returns up to maxStocks of
// the largest survivors by market cap. A nil slice means the full
// built-in universe.
func (s *Screener) Screen(ctx context.Context, tickers []string) ([]string, error) {
	if tickers == nil {
		tickers = Universe()
	}

	s.logger.Infof("Screening %d candidates (min cap $%.0fM, min volume %.0f, min price $%.2f)",
		len(tickers), s.minMarketCapUSD/1_000_000, s.minAvgVolume, s.minPriceUSD)

	candidates := make([]candidate, 0, len(tickers))
	for i, ticker := range tickers {
		cand, ok := s.evaluate(ctx, ticker)
		if ok {
			candidates = append(candidates, cand)
		}

		if (i+1)%progressEvery == 0 {
			s.logger.Infof("Screening progress: %d/%d checked, %d passed", i+1, len(tickers), len(candidates))
		}

		if s.delay > 0 && i < len(tickers)-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	// Largest caps first; ties keep universe order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].marketCap > candidates[j].marketCap
	})
	if s.maxStocks > 0 && len(candidates) > s.maxStocks {
		candidates = candidates[:s.maxStocks]
	}

	selected := make([]string, len(candidates))
	for i, c := range candidates {
		selected[i] = c.ticker
	}
	return selected, nil
}

// evaluate applies the market cap, price and liquidity filters to one ticker.
func (s *Screener) evaluate(ctx context.Context, ticker string) (candidate, bool) {
	profile, err := s.provider.Profile(ctx, ticker)
	if err != nil {
		s.logger.Debugf("Screening %s: profile fetch failed: %v", ticker, err)
		return candidate{}, false
	}

	// ETFs and funds report no market cap and fall out here.
	if profile.MarketCap < s.minMarketCapUSD {
		return candidate{}, false
	}
	if profile.Price < s.minPriceUSD {
		return candidate{}, false
	}

	bars, err := s.provider.DailyBars(ctx, ticker, contracts.RangeThreeMonths)
	if err != nil {
		s.logger.Debugf("Screening %s: chart fetch failed: %v", ticker, err)
		return candidate{}, false
	}
	if len(bars) < minHistoryBars {
		return candidate{}, false
	}

	recent := bars.Tail(volumeWindow)
	var total int64
	for _, b := range recent {
		total += b.Volume
	}
	if float64(total)/float64(len(recent)) < s.minAvgVolume {
		return candidate{}, false
	}

	return candidate{ticker: ticker, marketCap: profile.MarketCap}, true
}

// RunAndSave screens the full universe and persists the result as the
// dynamic watchlist document.
func (s *Screener) RunAndSave(ctx context.Context) ([]string, error) {
	start := time.Now()

	selected, err := s.Screen(ctx, nil)
	if err != nil {
		return nil, err
	}

	doc := &contracts.Watchlist{
		Tickers:       selected,
		UpdatedAt:     time.Now(),
		ScreeningMode: contracts.ScreeningModeDynamic,
		Criteria: contracts.ScreeningCriteria{
			MinMarketCapUSD: s.minMarketCapUSD,
			MinAvgVolume:    int64(s.minAvgVolume),
			MinPriceUSD:     s.minPriceUSD,
		},
	}
	if err := s.store.Save(doc); err != nil {
		return nil, fmt.Errorf("save watchlist: %w", err)
	}

	s.logger.Infof("Screening complete: %d stocks selected in %.1fs",
		len(selected), time.Since(start).Seconds())
	return selected, nil
}
