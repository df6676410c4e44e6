package marketdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
	"github.com/wonny/folio/pkg/redis"
)

// PriceSource fetches one symbol's price history
type PriceSource interface {
	FetchPrices(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error)
}

// Result is the best-effort outcome of a batch fetch.
// 실패한 심볼이 있어도 에러가 아님 — Failures 에 사유를 싣고
// 성공한 시리즈만 Series 에 담는다.
type Result struct {
	Series    map[string]contracts.PriceSeries `json:"series"`
	Failures  map[string]string                `json:"failures,omitempty"`
	FromCache bool                             `json:"from_cache"`
}

// Fetcher retrieves price history for many symbols concurrently
// ⭐ SSOT: 가격 데이터 일괄 수집과 캐싱은 여기서만
type Fetcher struct {
	source   PriceSource
	cache    *redis.Cache
	logger   *logger.Logger
	workers  int
	cacheTTL time.Duration
}

// NewFetcher creates a fetcher. cache may be backed by a disabled
// Redis client; 그 경우 캐시는 조용히 건너뜀.
func NewFetcher(source PriceSource, cache *redis.Cache, cfg *config.Config, log *logger.Logger) *Fetcher {
	workers := cfg.MarketData.MaxWorkers
	if workers <= 0 {
		workers = 3
	}
	return &Fetcher{
		source:   source,
		cache:    cache,
		logger:   log,
		workers:  workers,
		cacheTTL: cfg.MarketData.CacheTTL,
	}
}

// Fetch retrieves price series for all symbols over [from, to].
//
// 제한된 워커 풀로 병렬 수집 (재시도·페이싱은 PriceSource 몫).
// 전체 배치가 캐시에 있으면 네트워크를 건너뛴다. 부분 실패는
// best-effort: 성공분만 반환하고 실패 심볼은 사유와 함께 보고.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string, from, to time.Time) (Result, error) {
	result := Result{
		Series:   make(map[string]contracts.PriceSeries),
		Failures: make(map[string]string),
	}
	if len(symbols) == 0 {
		return result, nil
	}

	// Content-addressed cache lookup
	key := cacheKey(symbols, from, to)
	if f.cache != nil {
		var cached map[string]contracts.PriceSeries
		found, err := f.cache.Get(ctx, key, &cached)
		if err != nil {
			f.logger.WithError(err).Warn("Price cache read failed")
		}
		if found && len(cached) > 0 {
			f.logger.WithFields(map[string]interface{}{
				"key":     key,
				"symbols": len(cached),
			}).Debug("Price cache hit")
			result.Series = cached
			result.FromCache = true
			return result, nil
		}
	}

	// Bounded worker pool
	type fetchOutcome struct {
		symbol string
		series contracts.PriceSeries
		err    error
	}

	jobs := make(chan string)
	outcomes := make(chan fetchOutcome)

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				series, err := f.source.FetchPrices(ctx, symbol, from, to)
				outcomes <- fetchOutcome{symbol: symbol, series: series, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, symbol := range symbols {
			select {
			case jobs <- symbol:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		if outcome.err != nil {
			f.logger.WithFields(map[string]interface{}{
				"symbol": outcome.symbol,
				"error":  outcome.err.Error(),
			}).Warn("Symbol fetch failed")
			result.Failures[outcome.symbol] = outcome.err.Error()
			continue
		}
		result.Series[outcome.symbol] = outcome.series
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("fetch cancelled: %w", err)
	}

	// 전 심볼 성공시에만 캐시 저장 (부분 결과를 캐시하면 실패가 고착됨)
	if f.cache != nil && len(result.Failures) == 0 && len(result.Series) > 0 {
		if err := f.cache.Set(ctx, key, result.Series, f.cacheTTL); err != nil {
			f.logger.WithError(err).Warn("Price cache write failed")
		}
	}

	f.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"fetched":   len(result.Series),
		"failed":    len(result.Failures),
	}).Info("Batch fetch completed")
	return result, nil
}

// Invalidate drops the cached batch for the given request
func (f *Fetcher) Invalidate(ctx context.Context, symbols []string, from, to time.Time) error {
	if f.cache == nil {
		return nil
	}
	return f.cache.Delete(ctx, cacheKey(symbols, from, to))
}

// cacheKey builds a content-addressed key: 같은 심볼 집합과 구간은
// 순서와 무관하게 같은 키를 가진다.
func cacheKey(symbols []string, from, to time.Time) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(strings.Join(sorted, ",")))
	h.Write([]byte(from.UTC().Format("2006-01-02")))
	h.Write([]byte(to.UTC().Format("2006-01-02")))
	return "prices:" + hex.EncodeToString(h.Sum(nil))
}
