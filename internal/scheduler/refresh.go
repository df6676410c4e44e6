package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/marketdata"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
)

// RefreshPricesJob re-warms the price cache for every portfolio
// symbol plus the benchmark.
// 장 마감 후 매일 한 번: 캐시를 비우고 새로 수집해 다음 날 첫
// 대시보드 조회가 네트워크를 기다리지 않게 함.
type RefreshPricesJob struct {
	fetcher  *marketdata.Fetcher
	logger   *logger.Logger
	symbols  []string
	from, to time.Time
	schedule string
}

// NewRefreshPricesJob builds the daily cache refresh job
func NewRefreshPricesJob(fetcher *marketdata.Fetcher, defs []contracts.PortfolioDefinition, cfg *config.Config, log *logger.Logger) *RefreshPricesJob {
	merged := make(contracts.WeightMap)
	for _, def := range defs {
		for symbol := range def.Weights {
			merged[symbol] = 1
		}
	}
	if cfg.Portfolio.Benchmark != "" {
		merged[cfg.Portfolio.Benchmark] = 1
	}

	return &RefreshPricesJob{
		fetcher:  fetcher,
		logger:   log,
		symbols:  merged.Symbols(),
		from:     cfg.Analysis.DefaultStartDate,
		to:       cfg.Analysis.DefaultEndDate,
		schedule: "0 30 14 * * 1-5", // 평일 14:30 UTC, 대만 장 마감 이후
	}
}

// Name implements Job
func (j *RefreshPricesJob) Name() string { return "refresh_prices" }

// Schedule implements Job
func (j *RefreshPricesJob) Schedule() string { return j.schedule }

// Run drops the cached batch and fetches it again
func (j *RefreshPricesJob) Run(ctx context.Context) error {
	if err := j.fetcher.Invalidate(ctx, j.symbols, j.from, j.to); err != nil {
		j.logger.WithError(err).Warn("Cache invalidation failed, refetching anyway")
	}

	result, err := j.fetcher.Fetch(ctx, j.symbols, j.from, j.to)
	if err != nil {
		return fmt.Errorf("refresh fetch: %w", err)
	}
	if len(result.Series) == 0 {
		return fmt.Errorf("refresh fetched no series (%d failures)", len(result.Failures))
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.symbols),
		"fetched": len(result.Series),
		"failed":  len(result.Failures),
	}).Info("Price cache refreshed")
	return nil
}
