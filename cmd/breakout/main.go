package main

import (
	"os"

	"github.com/wonny/breakout/backend/cmd/breakout/commands"
)

// main is the entry point for the Breakout CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/breakout [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
