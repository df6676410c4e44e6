package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/contracts"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "가격 캐시 예열",
	Long: `모든 포트폴리오 종목과 벤치마크의 가격 이력을 수집해
캐시에 적재합니다. 이후의 analyze / API 호출이 네트워크 없이
바로 응답할 수 있게 합니다.

Example:
  go run ./cmd/folio fetch`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	fetcher, closeFetcher := buildFetcher(cfg, log)
	defer closeFetcher()

	defs, err := loadPortfolios(cfg, log)
	if err != nil {
		return fmt.Errorf("load portfolios: %w", err)
	}

	merged := make(contracts.WeightMap)
	for _, def := range defs {
		for symbol := range def.Weights {
			merged[symbol] = 1
		}
	}
	merged[cfg.Portfolio.Benchmark] = 1
	symbols := merged.Symbols()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := fetcher.Fetch(ctx, symbols, cfg.Analysis.DefaultStartDate, cfg.Analysis.DefaultEndDate)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	fmt.Printf("Fetched %d/%d symbols", len(result.Series), len(symbols))
	if result.FromCache {
		fmt.Print(" (from cache)")
	}
	fmt.Println()
	for symbol, reason := range result.Failures {
		fmt.Printf("  ✗ %s: %s\n", symbol, reason)
	}
	return nil
}
