package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "breakout",
	Short: "O'Neil Breakout - 미국 주식 돌파 시그널 스캐너",
	Long: `O'Neil Breakout Unified CLI

피벗 돌파(Pivot Breakout) 시그널 스캐너 + 페이퍼 트레이딩 시스템.
관심종목 스캔부터 시그널 저장, 가상 포지션 관리까지.

Usage:
  go run ./cmd/breakout [command]

Examples:
  go run ./cmd/breakout api
  go run ./cmd/breakout scan --source fixed
  go run ./cmd/breakout positions check
  go run ./cmd/breakout test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
