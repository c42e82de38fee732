package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data (Yahoo Finance endpoints)
	Yahoo YahooConfig

	// Scanner / screener / paper trading
	Scanner  ScannerConfig
	Screener ScreenerConfig
	Trading  TradingConfig

	// Backtest results artifact (read-only)
	BacktestResultsPath string

	// Logging
	LogLevel  string
	LogFormat string
	LogDir    string
	LogToFile bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// YahooConfig holds market data endpoint configuration
type YahooConfig struct {
	ChartBaseURL string
	QuoteBaseURL string
	Timeout      time.Duration
	RatePerSec   int // client-side request rate cap
}

// ScannerConfig holds breakout scan loop configuration
type ScannerConfig struct {
	Enabled          bool
	ScanInterval     time.Duration // 스캔 주기
	DelayPerStock    time.Duration // 종목 간 대기 (레이트 리밋)
	MinVolumeSurge   float64       // 최소 거래량 급증 %
	MaxBreakoutPct   float64       // 최대 돌파 %
	ScreeningHour    int           // 동적 스크리닝 시각 (KST)
	ScreeningMinute  int
	ScreeningBackoff time.Duration // 스크리닝 실패 시 재시도 대기
}

// ScreenerConfig holds dynamic screening thresholds
type ScreenerConfig struct {
	MinMarketCapUSD float64
	MinAvgVolume    float64
	MinPriceUSD     float64
	MaxStocks       int
	WatchlistPath   string
}

// TradingConfig holds paper trading configuration
type TradingConfig struct {
	InitialCapital  float64
	PositionSizePct float64
	MaxPositions    int
	StopLossPct     float64
	TakeProfitPct   float64
	MaxHoldingDays  int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Market data
		Yahoo: YahooConfig{
			ChartBaseURL: getEnv("YAHOO_CHART_BASE_URL", "https://query1.finance.yahoo.com"),
			QuoteBaseURL: getEnv("YAHOO_QUOTE_BASE_URL", "https://finance.yahoo.com"),
			Timeout:      getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
			RatePerSec:   getEnvAsInt("YAHOO_RATE_PER_SEC", 5),
		},

		// Scanner
		Scanner: ScannerConfig{
			Enabled:          getEnvAsBool("SCANNER_ENABLED", true),
			ScanInterval:     time.Duration(getEnvAsInt("SCAN_INTERVAL_SECONDS", 1800)) * time.Second,
			DelayPerStock:    getEnvAsDuration("SCAN_DELAY_PER_STOCK", "300ms"),
			MinVolumeSurge:   getEnvAsFloat("MIN_VOLUME_SURGE", 50.0),
			MaxBreakoutPct:   getEnvAsFloat("MAX_BREAKOUT_PCT", 5.0),
			ScreeningHour:    getEnvAsInt("SCREENING_HOUR", 23),
			ScreeningMinute:  getEnvAsInt("SCREENING_MINUTE", 30),
			ScreeningBackoff: getEnvAsDuration("SCREENING_RETRY_BACKOFF", "1h"),
		},

		// Screener
		Screener: ScreenerConfig{
			MinMarketCapUSD: getEnvAsFloat("MIN_MARKET_CAP_USD", 500_000_000),
			MinAvgVolume:    getEnvAsFloat("MIN_AVG_VOLUME", 50_000),
			MinPriceUSD:     getEnvAsFloat("MIN_PRICE_USD", 5.0),
			MaxStocks:       getEnvAsInt("SCREENER_MAX_STOCKS", 100),
			WatchlistPath:   getEnv("DYNAMIC_WATCHLIST_PATH", "data/watchlist.json"),
		},

		// Paper trading
		Trading: TradingConfig{
			InitialCapital:  getEnvAsFloat("INITIAL_CAPITAL", 100_000),
			PositionSizePct: getEnvAsFloat("POSITION_SIZE_PCT", 0.20),
			MaxPositions:    getEnvAsInt("MAX_POSITIONS", 5),
			StopLossPct:     getEnvAsFloat("STOP_LOSS_PCT", 0.08),
			TakeProfitPct:   getEnvAsFloat("TAKE_PROFIT_PCT", 0.20),
			MaxHoldingDays:  getEnvAsInt("MAX_HOLDING_DAYS", 30),
		},

		BacktestResultsPath: getEnv("BACKTEST_RESULTS_PATH", "data/us_backtest_results.csv"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogDir:    getEnv("LOG_DIR", "logs"),
		LogToFile: getEnvAsBool("LOG_FILE_ENABLED", false),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scanner.ScreeningHour < 0 || c.Scanner.ScreeningHour > 23 {
		return fmt.Errorf("SCREENING_HOUR must be 0-23")
	}
	if c.Scanner.ScreeningMinute < 0 || c.Scanner.ScreeningMinute > 59 {
		return fmt.Errorf("SCREENING_MINUTE must be 0-59")
	}

	if c.Trading.PositionSizePct <= 0 || c.Trading.PositionSizePct > 1 {
		return fmt.Errorf("POSITION_SIZE_PCT must be in (0, 1]")
	}
	if c.Trading.MaxPositions < 1 {
		return fmt.Errorf("MAX_POSITIONS must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
