package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/breakout/backend/internal/external/yahoo"
	"github.com/wonny/breakout/backend/internal/market"
	"github.com/wonny/breakout/backend/internal/paper"
	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/database"
	"github.com/wonny/breakout/backend/pkg/httputil"
	"github.com/wonny/breakout/backend/pkg/logger"
	"github.com/wonny/breakout/backend/pkg/redis"
)

// positionsCmd represents the positions command
var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "페이퍼 트레이딩 포지션 관리",
	Long: `페이퍼 트레이딩 포지션을 조회하거나 청산 조건을 체크합니다.

Subcommands:
  check  - 청산 조건 체크 (손절/익절/보유기간)
  list   - 오픈 포지션 목록

Example:
  go run ./cmd/breakout positions check
  go run ./cmd/breakout positions list`,
}

var (
	positionsCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "청산 조건 체크 (1회 실행)",
		Long: `오픈 포지션 전체를 청산 조건과 대조합니다.

청산 조건:
- Stop Loss (STOP_LOSS_PCT, 기본 -8%)
- Take Profit (TAKE_PROFIT_PCT, 기본 +20%)
- Max Holding (MAX_HOLDING_DAYS, 기본 30일)

cron 연동용. api 명령어 실행 중에는 스케줄러가 같은 체크를 수행합니다.`,
		RunE: runPositionsCheck,
	}

	positionsListCmd = &cobra.Command{
		Use:   "list",
		Short: "오픈 포지션 목록",
		RunE:  runPositionsList,
	}
)

func init() {
	rootCmd.AddCommand(positionsCmd)
	positionsCmd.AddCommand(positionsCheckCmd)
	positionsCmd.AddCommand(positionsListCmd)
}

func runPositionsCheck(cmd *cobra.Command, args []string) error {
	fmt.Println()
	PrintBanner()
	fmt.Println("📊 Position Manager")
	fmt.Printf("📅 %s\n", market.Now().Format("2006-01-02 15:04:05"))
	PrintBanner()

	manager, _, err := initTrading()
	if err != nil {
		return err
	}

	results, err := manager.CheckPositions(context.Background())
	if err != nil {
		return fmt.Errorf("position check failed: %w", err)
	}

	if results.Checked == 0 {
		fmt.Println("\n⚪ No open positions")
		PrintBanner()
		fmt.Println()
		return nil
	}

	fmt.Println("\n📊 Summary:")
	fmt.Printf("   - Positions checked: %d\n", results.Checked)
	fmt.Printf("   - Positions closed: %d\n", results.Closed)
	if results.Errors > 0 {
		fmt.Printf("   - Errors: %d\n", results.Errors)
	}
	PrintBanner()
	fmt.Println()

	return nil
}

func runPositionsList(cmd *cobra.Command, args []string) error {
	_, repo, err := initTrading()
	if err != nil {
		return err
	}

	positions, err := repo.GetOpen(context.Background())
	if err != nil {
		return fmt.Errorf("load open positions: %w", err)
	}

	if len(positions) == 0 {
		fmt.Println("⚪ No open positions")
		return nil
	}

	fmt.Printf("Open positions: %d\n\n", len(positions))

	columns := []string{"ID", "Ticker", "Entry", "Qty", "Invested", "Entry Date", "Days"}
	widths := []int{5, 8, 10, 10, 12, 12, 5}
	PrintTableHeader(columns, widths)

	now := market.Now()
	for _, pos := range positions {
		PrintTableRow([]string{
			fmt.Sprintf("%d", pos.ID),
			pos.Ticker,
			fmt.Sprintf("$%.2f", pos.EntryPrice),
			fmt.Sprintf("%.2f", pos.Quantity),
			fmt.Sprintf("$%s", FormatComma(pos.InvestmentAmount)),
			pos.EntryDate.Format("2006-01-02"),
			fmt.Sprintf("%d", pos.DaysHeld(now)),
		}, widths)
	}

	return nil
}

// initTrading wires the position manager and repository for one-shot
// commands. Connections are released on process exit.
func initTrading() (*paper.Manager, *paper.Repository, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Create market data client
	httpClient := httputil.New(cfg, log).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "breakout"), redis.YahooChartRateLimit)
	profileCache := redis.NewCache(redisClient, "breakout")
	yahooClient := yahoo.NewClient(cfg, httpClient, profileCache, log)

	// 6. Create repository and manager
	repo := paper.NewRepository(db.Pool, cfg)
	manager := paper.NewManager(repo, yahooClient, paper.NewExitRules(cfg), log)

	return manager, repo, nil
}
