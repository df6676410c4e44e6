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

	// Redis
	Redis RedisConfig

	// Market data source
	MarketData MarketDataConfig

	// Portfolio definitions
	Portfolio PortfolioConfig

	// Analysis parameters
	Analysis AnalysisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// MarketDataConfig holds price source and fetcher configuration
type MarketDataConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxWorkers   int           // 동시 수집 워커 수
	Retries      int           // 심볼별 재시도 횟수
	RetryDelay   time.Duration // 재시도 전 대기
	RequestDelay time.Duration // 요청 간 간격 (pacing)
	CacheTTL     time.Duration // 가격 캐시 TTL
}

// PortfolioConfig holds portfolio definition file paths
type PortfolioConfig struct {
	GrowthFile  string // 고수익 전략 (great reward)
	DefenseFile string // 저위험 전략 (low risk)
	Benchmark   string // 벤치마크 심볼 (예: 0050.TW)
}

// AnalysisConfig holds analysis window parameters
// ⭐ SSOT: 분석 파라미터 기본값은 여기서만
type AnalysisConfig struct {
	TradingDays      int       // 연간 거래일 수
	RollingShort     int       // 단기 롤링 윈도우 (일)
	RollingLong      int       // 장기 롤링 윈도우 (일)
	MinDataPoints    int       // 최소 관측치 수
	MaxMissingRatio  float64   // 최대 결측 비율
	KnowledgeCutoff  time.Time // historical/forward 구간 분리 기준일
	DefaultStartDate time.Time
	DefaultEndDate   time.Time
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

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Market data
		MarketData: MarketDataConfig{
			BaseURL:      getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:      getEnvAsDuration("MARKET_DATA_TIMEOUT", "30s"),
			MaxWorkers:   getEnvAsInt("FETCH_MAX_WORKERS", 3),
			Retries:      getEnvAsInt("FETCH_RETRIES", 1),
			RetryDelay:   getEnvAsDuration("FETCH_RETRY_DELAY", "1s"),
			RequestDelay: getEnvAsDuration("FETCH_REQUEST_DELAY", "100ms"),
			CacheTTL:     getEnvAsDuration("PRICE_CACHE_TTL", "1h"),
		},

		// Portfolio definitions
		Portfolio: PortfolioConfig{
			GrowthFile:  getEnv("PORTFOLIO_GROWTH_FILE", "data/great_reward.csv"),
			DefenseFile: getEnv("PORTFOLIO_DEFENSE_FILE", "data/low_risk.csv"),
			Benchmark:   getEnv("BENCHMARK_SYMBOL", "0050.TW"),
		},

		// Analysis
		Analysis: AnalysisConfig{
			TradingDays:      getEnvAsInt("TRADING_DAYS_YEAR", 252),
			RollingShort:     getEnvAsInt("ROLLING_WINDOW_SHORT", 30),
			RollingLong:      getEnvAsInt("ROLLING_WINDOW_LONG", 252),
			MinDataPoints:    getEnvAsInt("MIN_DATA_POINTS", 30),
			MaxMissingRatio:  getEnvAsFloat("MAX_MISSING_DATA_RATIO", 0.1),
			KnowledgeCutoff:  getEnvAsDate("KNOWLEDGE_CUTOFF_DATE", "2024-09-30"),
			DefaultStartDate: getEnvAsDate("DEFAULT_START_DATE", "2024-10-01"),
			DefaultEndDate:   getEnvAsDate("DEFAULT_END_DATE", "2025-08-26"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.MarketData.MaxWorkers < 1 {
		return fmt.Errorf("FETCH_MAX_WORKERS must be at least 1")
	}

	if c.Analysis.TradingDays < 1 {
		return fmt.Errorf("TRADING_DAYS_YEAR must be positive")
	}

	if c.Analysis.MaxMissingRatio < 0 || c.Analysis.MaxMissingRatio > 1 {
		return fmt.Errorf("MAX_MISSING_DATA_RATIO must be in [0, 1]")
	}

	if !c.Analysis.DefaultEndDate.After(c.Analysis.DefaultStartDate) {
		return fmt.Errorf("DEFAULT_END_DATE must be after DEFAULT_START_DATE")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
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

func getEnvAsDate(key string, defaultValue string) time.Time {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	date, err := time.Parse("2006-01-02", valueStr)
	if err != nil {
		date, _ = time.Parse("2006-01-02", defaultValue)
	}

	return date
}
