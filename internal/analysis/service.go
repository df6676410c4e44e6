package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/drawdown"
	"github.com/wonny/folio/internal/marketdata"
	"github.com/wonny/folio/internal/metrics"
	"github.com/wonny/folio/internal/quality"
	"github.com/wonny/folio/internal/returns"
	"github.com/wonny/folio/internal/risk"
	"github.com/wonny/folio/internal/scoring"
	"github.com/wonny/folio/internal/stability"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
)

// ErrNoPriceData is returned when no usable price series survives
// the fetch and quality gate.
var ErrNoPriceData = errors.New("no usable price data")

// Request selects the evaluation window.
// Cutoff 는 historical/forward 분할 기준일 (cutoff 포함 = historical).
type Request struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Cutoff time.Time `json:"cutoff"`
}

// PortfolioReport is the full analytics record for one portfolio
type PortfolioReport struct {
	Name        string                        `json:"name"`
	Correction  contracts.WeightCorrection    `json:"weight_correction"`
	Returns     contracts.ReturnSeries        `json:"returns"`
	Metrics     contracts.MetricsBundle       `json:"metrics"`
	Drawdown    drawdown.Analysis             `json:"drawdown"`
	TailRisk    contracts.TailRiskProfile     `json:"tail_risk"`
	Sharpe      contracts.RollingWindowSeries `json:"rolling_sharpe"`
	Volatility  contracts.RollingWindowSeries `json:"rolling_volatility"`
	Beta        contracts.RollingWindowSeries `json:"rolling_beta"`
	Correlation contracts.RollingWindowSeries `json:"rolling_correlation"`
}

// ComparisonReport is the end-to-end outcome for a set of portfolios
// against the benchmark.
type ComparisonReport struct {
	GeneratedAt      time.Time                `json:"generated_at"`
	From             time.Time                `json:"from"`
	To               time.Time                `json:"to"`
	Benchmark        string                   `json:"benchmark"`
	Quality          quality.Snapshot         `json:"quality"`
	Portfolios       []PortfolioReport        `json:"portfolios"`
	BenchmarkMetrics *contracts.MetricsBundle `json:"benchmark_metrics,omitempty"`
	Ranking          []scoring.ScoredStrategy `json:"ranking"`
	Stability        *stability.Report        `json:"stability,omitempty"`
}

// Service orchestrates the comparison pipeline:
// fetch → quality gate → returns → metrics/drawdown/rolling/tail →
// ranking + stability.
// ⭐ SSOT: 분석 파이프라인 조립은 여기서만
type Service struct {
	fetcher *marketdata.Fetcher
	gate    *quality.QualityGate
	engine  *metrics.Engine
	rolling *risk.RollingAnalyzer
	logger  *logger.Logger

	benchmark   string
	windowLong  int
	windowShort int
}

// NewService wires the pipeline from config
func NewService(fetcher *marketdata.Fetcher, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		gate: quality.NewQualityGate(quality.Config{
			MinDataPoints:   cfg.Analysis.MinDataPoints,
			MaxMissingRatio: cfg.Analysis.MaxMissingRatio,
		}),
		engine:      metrics.NewEngine(cfg.Analysis.TradingDays),
		rolling:     risk.NewRollingAnalyzer(cfg.Analysis.TradingDays),
		logger:      log,
		benchmark:   cfg.Portfolio.Benchmark,
		windowLong:  cfg.Analysis.RollingLong,
		windowShort: cfg.Analysis.RollingShort,
	}
}

// Compare runs the full pipeline for the given portfolio definitions.
//
// 일부 심볼 실패는 가중치 재정규화로 흡수되고 Correction 에 보고됨.
// 포트폴리오 하나가 완전히 비어도 나머지는 계속 분석함.
func (s *Service) Compare(ctx context.Context, defs []contracts.PortfolioDefinition, req Request) (ComparisonReport, error) {
	report := ComparisonReport{
		GeneratedAt: time.Now().UTC(),
		From:        req.From,
		To:          req.To,
		Benchmark:   s.benchmark,
	}

	// 1. Fetch everything in one batch (union of all holdings + benchmark)
	symbols := collectSymbols(defs, s.benchmark)
	fetched, err := s.fetcher.Fetch(ctx, symbols, req.From, req.To)
	if err != nil {
		return report, fmt.Errorf("fetch prices: %w", err)
	}

	// 2. Quality gate
	report.Quality = s.gate.Check(fetched.Series)
	accepted := s.gate.Accepted(fetched.Series)
	if len(accepted) == 0 {
		return report, ErrNoPriceData
	}

	// 3. Per-symbol return series
	returnsBySymbol := make(map[string]contracts.ReturnSeries, len(accepted))
	for symbol, prices := range accepted {
		returnsBySymbol[symbol] = returns.Build(prices)
	}
	benchReturns, hasBench := returnsBySymbol[s.benchmark]
	if !hasBench {
		s.logger.WithField("benchmark", s.benchmark).Warn("Benchmark data unavailable, skipping beta/correlation")
	}

	// 4. Per-portfolio analytics
	bundles := make(map[string]contracts.MetricsBundle)
	windows := make(map[string]stability.Windows)
	for _, def := range defs {
		pr, err := s.analyzePortfolio(def, returnsBySymbol, benchReturns, hasBench, req)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"portfolio": def.Name,
				"error":     err.Error(),
			}).Warn("Portfolio skipped")
			continue
		}
		report.Portfolios = append(report.Portfolios, pr)
		bundles[def.Name] = pr.Metrics

		hist, forward := pr.Returns.Split(req.Cutoff)
		w := stability.Windows{Name: def.Name}
		if hb, err := s.engine.Compute(hist); err == nil {
			w.Historical = hb
		}
		if fb, err := s.engine.Compute(forward); err == nil {
			w.Forward = fb
		}
		windows[def.Name] = w
	}
	if len(report.Portfolios) == 0 {
		return report, ErrNoPriceData
	}

	// 5. Benchmark metrics for context
	if hasBench {
		if b, err := s.engine.Compute(benchReturns); err == nil {
			report.BenchmarkMetrics = &b
		}
	}

	// 6. Ranking + stability diagnostics (정확히 2개 비교시)
	report.Ranking = scoring.Rank(bundles)
	if len(report.Portfolios) == 2 {
		diag := stability.Diagnose(
			windows[report.Portfolios[0].Name],
			windows[report.Portfolios[1].Name],
		)
		report.Stability = &diag
	}

	return report, nil
}

// analyzePortfolio runs the per-portfolio fan-out over the core packages
func (s *Service) analyzePortfolio(
	def contracts.PortfolioDefinition,
	returnsBySymbol map[string]contracts.ReturnSeries,
	benchReturns contracts.ReturnSeries,
	hasBench bool,
	req Request,
) (PortfolioReport, error) {
	pr := PortfolioReport{Name: def.Name}

	series, correction, err := returns.Aggregate(returnsBySymbol, def.Weights)
	if err != nil {
		return pr, fmt.Errorf("aggregate returns: %w", err)
	}
	pr.Returns = series
	pr.Correction = correction
	if correction.Renormalized {
		s.logger.WithFields(map[string]interface{}{
			"portfolio":    def.Name,
			"original_sum": correction.OriginalSum,
			"dropped":      correction.Dropped,
		}).Warn("Portfolio weights corrected")
	}

	bundle, err := s.engine.Compute(series)
	if err != nil {
		return pr, fmt.Errorf("compute metrics: %w", err)
	}
	pr.Metrics = bundle

	pr.Drawdown = drawdown.Analyze(series)
	pr.TailRisk = risk.AnalyzeTail(series, nil)
	pr.Sharpe = s.rolling.Sharpe(series, s.windowLong)
	pr.Volatility = s.rolling.Volatility(series, s.windowShort)
	if hasBench {
		pr.Beta = s.rolling.Beta(series, benchReturns, s.windowShort)
		pr.Correlation = s.rolling.Correlation(series, benchReturns, s.windowShort)
	}

	return pr, nil
}

// collectSymbols unions all portfolio holdings plus the benchmark,
// deterministic order.
func collectSymbols(defs []contracts.PortfolioDefinition, benchmark string) []string {
	merged := make(contracts.WeightMap)
	for _, def := range defs {
		for symbol := range def.Weights {
			merged[symbol] = 1
		}
	}
	if benchmark != "" {
		merged[benchmark] = 1
	}
	return merged.Symbols()
}
