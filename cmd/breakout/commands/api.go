package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/breakout/backend/internal/api"
	"github.com/wonny/breakout/backend/internal/api/handlers"
	"github.com/wonny/breakout/backend/internal/backtest"
	"github.com/wonny/breakout/backend/internal/detector"
	"github.com/wonny/breakout/backend/internal/external/yahoo"
	"github.com/wonny/breakout/backend/internal/paper"
	"github.com/wonny/breakout/backend/internal/scanner"
	"github.com/wonny/breakout/backend/internal/scheduler"
	"github.com/wonny/breakout/backend/internal/scheduler/jobs"
	"github.com/wonny/breakout/backend/internal/screener"
	"github.com/wonny/breakout/backend/internal/signals"
	"github.com/wonny/breakout/backend/internal/watchlist"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/database"
	"github.com/wonny/breakout/backend/pkg/httputil"
	"github.com/wonny/breakout/backend/pkg/logger"
	"github.com/wonny/breakout/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버와 백그라운드 스캐너를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 백그라운드 돌파 스캔 루프 시작
- 동적 스크리닝 스케줄러 시작
- 포지션 청산 체크 작업 등록
- 실시간 시그널 웹소켓 제공

Endpoints:
  GET  /health                       - Health check
  GET  /api/signals/today            - 오늘의 시그널
  GET  /api/paper-trading/positions  - 오픈 포지션 조회
  GET  /api/watchlist                - 관심종목 조회
  GET  /ws/alerts                    - 실시간 시그널 스트림

Example:
  go run ./cmd/breakout api
  go run ./cmd/breakout api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== O'Neil Breakout API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database and ensure schema
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	log.Info("Connected to database")

	// 4. Connect to Redis (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	if redisClient.Enabled() {
		log.Info("Connected to Redis")
	}

	// 5. Create HTTP client with the Yahoo rate limit
	httpClient := httputil.New(cfg, log).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "breakout"), redis.YahooChartRateLimit)

	// 6. Create market data client
	profileCache := redis.NewCache(redisClient, "breakout")
	yahooClient := yahoo.NewClient(cfg, httpClient, profileCache, log)

	// 7. Create repositories
	alertRepo := signals.NewRepository(db.Pool)
	positionRepo := paper.NewRepository(db.Pool, cfg)

	// 8. Create watchlist store and backtest store
	watchlistStore := watchlist.NewStore(cfg, log)
	backtestStore := backtest.NewStore(cfg, log)

	// 9. Create detector and screener
	breakoutDetector := detector.New(cfg, log)
	dynamicScreener := screener.New(cfg, yahooClient, watchlistStore, log)

	// 10. Create alert feed for websocket subscribers
	feed := scanner.NewFeed(log)

	// 11. Create scan orchestrator
	orchestrator := scanner.New(cfg, log, db, watchlistStore,
		breakoutDetector, yahooClient, alertRepo, positionRepo, dynamicScreener, feed)

	// 12. Create position manager and scheduler jobs
	manager := paper.NewManager(positionRepo, yahooClient, paper.NewExitRules(cfg), log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewPositionCheckJob(manager, log)); err != nil {
		return fmt.Errorf("register position check job: %w", err)
	}
	if err := sched.AddJob(jobs.NewQuoteCacheCleanupJob(yahooClient.Quotes(), log)); err != nil {
		return fmt.Errorf("register cache cleanup job: %w", err)
	}

	// 13. Create handlers
	watchlistHandler := handlers.NewWatchlistHandler(watchlistStore, log)
	signalsHandler := handlers.NewSignalsHandler(alertRepo, log)
	tradingHandler := handlers.NewTradingHandler(positionRepo, yahooClient, positionRepo.Allocator(), log)
	scannerHandler := handlers.NewScannerHandler(orchestrator, log)
	backtestHandler := handlers.NewBacktestHandler(backtestStore, log)
	streamHandler := handlers.NewStreamHandler(feed, log)

	// 14. Create router
	router := api.NewRouter(watchlistHandler, signalsHandler, tradingHandler,
		scannerHandler, backtestHandler, streamHandler, log)

	// 15. Create server
	server := api.New(cfg, log, router)

	// 16. Start everything with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orchestrator.Start(ctx)
	sched.Start()

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/signals/today")
	fmt.Println("  GET  /api/paper-trading/positions")
	fmt.Println("  GET  /api/watchlist")
	fmt.Println("  GET  /ws/alerts")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	orchestrator.Stop()
	sched.Stop()

	log.Info("Server stopped")
	return nil
}
