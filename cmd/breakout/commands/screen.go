package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/breakout/backend/internal/external/yahoo"
	"github.com/wonny/breakout/backend/internal/screener"
	"github.com/wonny/breakout/backend/internal/watchlist"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/httputil"
	"github.com/wonny/breakout/backend/pkg/logger"
	"github.com/wonny/breakout/backend/pkg/redis"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "동적 스크리닝 실행 (1회 실행)",
	Long: `S&P 500 + NASDAQ 100 유니버스를 스크리닝하고
선정된 종목을 동적 관심종목 파일로 저장합니다.

필터:
- 시가총액 (MIN_MARKET_CAP_USD)
- 평균 거래량 (MIN_AVG_VOLUME)
- 최소 주가 (MIN_PRICE_USD)

Example:
  go run ./cmd/breakout screen
  go run ./cmd/breakout screen --max-stocks 50
  go run ./cmd/breakout screen --output data/watchlist.json`,
	RunE: runScreenOnce,
}

var (
	screenMaxStocks int
	screenOutput    string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	// Flags
	screenCmd.Flags().IntVar(&screenMaxStocks, "max-stocks", 0, "최대 선정 종목 수 (기본: SCREENER_MAX_STOCKS)")
	screenCmd.Flags().StringVar(&screenOutput, "output", "", "watchlist.json 저장 경로 (기본: DYNAMIC_WATCHLIST_PATH)")
}

func runScreenOnce(cmd *cobra.Command, args []string) error {
	fmt.Println("=== O'Neil Breakout Dynamic Screener ===")

	// 1. Load config (with flag overrides)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if screenMaxStocks > 0 {
		cfg.Screener.MaxStocks = screenMaxStocks
	}
	if screenOutput != "" {
		cfg.Screener.WatchlistPath = screenOutput
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to Redis (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	// 4. Create market data client
	// 스크리닝은 프로필 스크래핑 위주라 더 보수적인 제한을 건다
	httpClient := httputil.New(cfg, log).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "breakout"), redis.YahooScrapeRateLimit)
	profileCache := redis.NewCache(redisClient, "breakout")
	yahooClient := yahoo.NewClient(cfg, httpClient, profileCache, log)

	// 5. Create screener and run
	store := watchlist.NewStore(cfg, log)
	dynamicScreener := screener.New(cfg, yahooClient, store, log)

	tickers, err := dynamicScreener.RunAndSave(context.Background())
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}

	fmt.Printf("\nSelected %d stocks\n", len(tickers))
	fmt.Printf("Saved to %s\n", store.Path())
	return nil
}
