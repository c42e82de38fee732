package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/breakout/backend/internal/detector"
	"github.com/wonny/breakout/backend/internal/external/yahoo"
	"github.com/wonny/breakout/backend/internal/paper"
	"github.com/wonny/breakout/backend/internal/scanner"
	"github.com/wonny/breakout/backend/internal/screener"
	"github.com/wonny/breakout/backend/internal/signals"
	"github.com/wonny/breakout/backend/internal/watchlist"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/database"
	"github.com/wonny/breakout/backend/pkg/httputil"
	"github.com/wonny/breakout/backend/pkg/logger"
	"github.com/wonny/breakout/backend/pkg/redis"
)

// scannerCmd represents the scanner command
var scannerCmd = &cobra.Command{
	Use:   "scanner",
	Short: "백그라운드 스캐너 시작 (API 서버 없이)",
	Long: `HTTP 서버 없이 백그라운드 스캐너만 실행합니다.

이 명령어는:
- 주기적 돌파 스캔 루프 시작
- 동적 스크리닝 스케줄러 시작
- 발견된 시그널 DB 저장 + 페이퍼 포지션 오픈

API 서버까지 필요하면 api 명령어를 사용하세요.

Example:
  go run ./cmd/breakout scanner`,
	RunE: runScannerDaemon,
}

func init() {
	rootCmd.AddCommand(scannerCmd)
}

func runScannerDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("=== O'Neil Breakout Scanner ===")

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

	log.Info("Connected to database")

	// 4. Connect to Redis (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	// 5. Create HTTP client and market data client
	httpClient := httputil.New(cfg, log).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "breakout"), redis.YahooChartRateLimit)
	profileCache := redis.NewCache(redisClient, "breakout")
	yahooClient := yahoo.NewClient(cfg, httpClient, profileCache, log)

	// 6. Create repositories
	alertRepo := signals.NewRepository(db.Pool)
	positionRepo := paper.NewRepository(db.Pool, cfg)

	// 7. Create watchlist store, detector, screener
	watchlistStore := watchlist.NewStore(cfg, log)
	breakoutDetector := detector.New(cfg, log)
	dynamicScreener := screener.New(cfg, yahooClient, watchlistStore, log)

	// 8. Create orchestrator (websocket 구독자가 없으므로 feed 생략)
	orchestrator := scanner.New(cfg, log, db, watchlistStore,
		breakoutDetector, yahooClient, alertRepo, positionRepo, dynamicScreener, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orchestrator.Start(ctx)

	fmt.Printf("\n✅ Scanner running (interval: %ds)\n", int(cfg.Scanner.ScanInterval.Seconds()))
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scanner...")
	orchestrator.Stop()
	fmt.Println("Scanner stopped")

	return nil
}
