package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/breakout/backend/pkg/config"
	"github.com/wonny/breakout/backend/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "데이터베이스 스키마 생성",
	Long: `데이터베이스에 연결하고 테이블을 생성합니다.

생성되는 테이블:
- positions  (페이퍼 트레이딩 포지션)
- alerts     (돌파 시그널 기록)

모든 구문이 IF NOT EXISTS라 반복 실행해도 안전합니다.
api 명령어도 시작 시 같은 마이그레이션을 수행합니다.

Example:
  go run ./cmd/breakout migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	fmt.Println("==================================================")
	fmt.Println("Database Initialization")
	fmt.Println("==================================================")

	// 환경변수 확인
	fmt.Println("\n[1] 환경변수 확인")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("  ENV: %s\n", cfg.Env)

	// PostgreSQL 연결
	fmt.Println("\n[2] PostgreSQL 연결...")
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("  ❌ PostgreSQL 연결 실패: %w", err)
	}
	defer db.Close()
	fmt.Println("  ✅ PostgreSQL 연결 성공!")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 테이블 생성
	fmt.Println("\n[3] 테이블 생성...")
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("  ❌ 테이블 생성 실패: %w", err)
	}
	fmt.Println("  ✅ 테이블 생성 완료!")

	// 테이블 확인
	fmt.Println("\n[4] 테이블 확인...")
	rows, err := db.Pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		return fmt.Errorf("  ❌ 테이블 확인 실패: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("  ❌ 테이블 확인 실패: %w", err)
		}
		fmt.Printf("  ✓ %s\n", name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("  ❌ 테이블 확인 실패: %w", err)
	}

	fmt.Println("\n==================================================")
	fmt.Println("✅ 초기화 완료!")
	fmt.Println("==================================================")
	return nil
}
