package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/detector"
	"github.com/wonny/breakout/backend/internal/external/yahoo"
	"github.com/wonny/breakout/backend/internal/market"
	"github.com/wonny/breakout/backend/internal/paper"
	"github.com/wonny/breakout/backend/internal/signals"
	"github.com/wonny/breakout/backend/internal/watchlist"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/database"
	"github.com/wonny/breakout/backend/pkg/httputil"
	"github.com/wonny/breakout/backend/pkg/logger"
	"github.com/wonny/breakout/backend/pkg/redis"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "돌파 시그널 스캔 (1회 실행)",
	Long: `관심종목을 한 번 스캔하고 발견된 시그널을 저장합니다.

이 명령어는:
- 고정/동적/전체 관심종목 로드
- 피벗 돌파 패턴 감지
- 시그널 alerts 테이블 저장
- 페이퍼 트레이딩 포지션 오픈 (--open-positions=false로 생략)

cron 연동용. 상시 실행은 scanner 명령어를 사용하세요.

Example:
  go run ./cmd/breakout scan
  go run ./cmd/breakout scan --source fixed
  go run ./cmd/breakout scan --source all --open-positions=false`,
	RunE: runScanOnce,
}

// sourceAll is a CLI-only selector; persisted rows keep their real
// fixed/dynamic tag.
const sourceAll = "all"

var (
	scanSource    string
	openPositions bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	// Flags
	scanCmd.Flags().StringVar(&scanSource, "source", "dynamic", "관심종목 소스 (fixed|dynamic|all)")
	scanCmd.Flags().BoolVar(&openPositions, "open-positions", true, "시그널 발생 시 페이퍼 포지션 오픈")
}

func runScanOnce(cmd *cobra.Command, args []string) error {
	if scanSource != contracts.SourceFixed && scanSource != contracts.SourceDynamic && scanSource != sourceAll {
		return fmt.Errorf("unknown source: %s (valid: fixed, dynamic, all)", scanSource)
	}

	fmt.Println()
	PrintBanner()
	fmt.Println("🚀 Breakout Signal Scanner")
	fmt.Printf("📅 %s\n", market.Now().Format("2006-01-02 15:04:05"))
	fmt.Printf("📂 Source: %s\n", scanSource)
	PrintBanner()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 4. Connect to Redis (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	// 5. Create market data client
	httpClient := httputil.New(cfg, log).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "breakout"), redis.YahooChartRateLimit)
	profileCache := redis.NewCache(redisClient, "breakout")
	yahooClient := yahoo.NewClient(cfg, httpClient, profileCache, log)

	// 6. Load tickers
	store := watchlist.NewStore(cfg, log)
	var tickers []string
	switch scanSource {
	case contracts.SourceFixed:
		tickers = watchlist.Fixed()
	case contracts.SourceDynamic:
		tickers = store.DynamicTickers()
		if len(tickers) == 0 {
			fmt.Printf("⚠️  Dynamic watchlist not found: %s\n", store.Path())
		}
	default:
		tickers = store.Combined()
	}

	if len(tickers) == 0 {
		PrintError("No tickers to scan")
		return nil
	}

	fmt.Printf("\n📊 Loaded %d tickers\n", len(tickers))

	// 7. Scan for signals
	ctx := context.Background()
	breakoutDetector := detector.New(cfg, log)
	found := scanTickers(ctx, yahooClient, breakoutDetector, tickers, cfg.Scanner.DelayPerStock)

	// 8. Save signals and open positions
	if len(found) == 0 {
		fmt.Println("\n⚪ No breakout signals found")
		PrintBanner()
		fmt.Println()
		return nil
	}

	alertRepo := signals.NewRepository(db.Pool)
	positionRepo := paper.NewRepository(db.Pool, cfg)

	fixedSet := make(map[string]bool)
	for _, t := range watchlist.Fixed() {
		fixedSet[t] = true
	}

	fmt.Printf("\n💾 Saving %d signals to database...\n", len(found))
	alertCount := 0
	positionCount := 0

	for _, signal := range found {
		tag := scanSource
		if scanSource == sourceAll {
			if fixedSet[signal.Ticker] {
				tag = contracts.SourceFixed
			} else {
				tag = contracts.SourceDynamic
			}
		}

		if _, err := alertRepo.Save(ctx, signal, tag); err != nil {
			fmt.Printf("   ❌ Alert failed: %s (%v)\n", signal.Ticker, err)
		} else {
			alertCount++
			fmt.Printf("   ✅ Alert: %s\n", signal.Ticker)
		}

		if openPositions && openPaperPosition(ctx, positionRepo, signal, tag) {
			positionCount++
		}
	}

	fmt.Println("\n📊 Summary:")
	fmt.Printf("   - Alerts saved: %d/%d\n", alertCount, len(found))
	if openPositions {
		fmt.Printf("   - Positions opened: %d/%d\n", positionCount, len(found))
	}
	PrintBanner()
	fmt.Println()

	return nil
}

// scanTickers walks the watchlist and collects breakout signals.
// Per-ticker errors are printed and skipped.
func scanTickers(ctx context.Context, provider contracts.MarketDataProvider, det *detector.Detector, tickers []string, delay time.Duration) []*contracts.Signal {
	fmt.Printf("\n🔍 Scanning %d stocks for breakout signals...\n", len(tickers))
	PrintBanner()

	found := make([]*contracts.Signal, 0)
	for i, ticker := range tickers {
		if (i+1)%25 == 0 {
			fmt.Printf("   Progress: %d/%d (%d signals)\n", i+1, len(tickers), len(found))
		}

		bars, err := provider.DailyBars(ctx, ticker, contracts.RangeThreeMonths)
		if err != nil {
			fmt.Printf("   ❌ %s: Error - %v\n", ticker, err)
			continue
		}

		if signal := det.Detect(ticker, bars); signal != nil {
			found = append(found, signal)
			fmt.Printf("   ✅ %s: %s (+%.1f%%, Vol +%.0f%%)\n",
				signal.Ticker, signal.Pattern, signal.BreakoutPct, signal.VolumeSurgePct)
		}

		// 시세 API 레이트 리밋 보호
		time.Sleep(delay)
	}

	PrintBanner()
	fmt.Printf("✅ Scan complete: %d signals found\n", len(found))
	return found
}

// openPaperPosition opens a position for a saved signal, reporting
// skips the way the capital policy decides them.
func openPaperPosition(ctx context.Context, repo *paper.Repository, signal *contracts.Signal, source string) bool {
	exists, err := repo.HasOpen(ctx, signal.Ticker)
	if err != nil {
		fmt.Printf("   ❌ Failed to save position: %v\n", err)
		return false
	}
	if exists {
		fmt.Printf("   ⏭️  Position exists: %s\n", signal.Ticker)
		return false
	}

	pos, opened, err := repo.OpenFromSignal(ctx, signal, source)
	if err != nil {
		fmt.Printf("   ❌ Failed to save position: %v\n", err)
		return false
	}
	if !opened {
		fmt.Printf("   ⏭️  No capital available: %s\n", signal.Ticker)
		return false
	}

	fmt.Printf("   💰 Invested $%s (%.2f shares)\n", FormatComma(pos.InvestmentAmount), pos.Quantity)
	fmt.Printf("   📈 Position opened: %s\n", pos.Ticker)
	return true
}
