package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/external/yahoo"
	"github.com/wonny/folio/internal/marketdata"
	"github.com/wonny/folio/internal/portfolio"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
	"github.com/wonny/folio/pkg/redis"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "포트폴리오 성과/위험 분석 서비스",
	Long: `folio - 포트폴리오 비교 분석 CLI

두 개의 가중 포트폴리오를 벤치마크(0050.TW) 대비 분석합니다:
수익률/변동성/Sharpe/MDD/VaR/Sortino, 롤링 지표, 꼬리 위험,
전략 점수, historical vs forward 안정성 진단.

Usage:
  go run ./cmd/folio [command]

Examples:
  go run ./cmd/folio api
  go run ./cmd/folio analyze
  go run ./cmd/folio analyze --json
  go run ./cmd/folio fetch`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// bootstrap loads config and initializes the shared stack
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// buildFetcher wires the yahoo client, redis cache and fetcher.
// Redis 연결 실패는 치명적이지 않음 — 캐시 없이 계속.
func buildFetcher(cfg *config.Config, log *logger.Logger) (*marketdata.Fetcher, func()) {
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without price cache")
		redisClient = redis.Disabled()
	}

	cache := redis.NewCache(redisClient, "folio")
	source := yahoo.NewClient(cfg, log)
	fetcher := marketdata.NewFetcher(source, cache, cfg, log)

	return fetcher, func() { redisClient.Close() }
}

// loadPortfolios reads both portfolio definition files from config
func loadPortfolios(cfg *config.Config, log *logger.Logger) ([]contracts.PortfolioDefinition, error) {
	loader := portfolio.NewLoader(log)

	growth, err := loader.LoadFile(cfg.Portfolio.GrowthFile, "great_reward")
	if err != nil {
		return nil, err
	}
	defense, err := loader.LoadFile(cfg.Portfolio.DefenseFile, "low_risk")
	if err != nil {
		return nil, err
	}

	return []contracts.PortfolioDefinition{growth, defense}, nil
}
