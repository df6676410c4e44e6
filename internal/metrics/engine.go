package metrics

import (
	"errors"
	"math"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/risk"
)

// ErrNoData is returned when a series has no observed returns.
// 0으로 채운 번들과 "데이터 없음"을 구분하기 위한 별도 신호.
var ErrNoData = errors.New("no return data")

// defaultTradingDays is the annualization base for daily returns
const defaultTradingDays = 252

// Engine computes the canonical per-series statistics bundle.
// ⭐ SSOT: 성과/위험 지표 공식은 전부 여기. 대시보드·스코어러·안정성
// 진단이 같은 숫자를 보게 하려면 다른 곳에서 재계산하지 말 것.
type Engine struct {
	tradingDays float64
}

// NewEngine creates a metrics engine. tradingDays <= 0 falls back to 252.
func NewEngine(tradingDays int) *Engine {
	if tradingDays <= 0 {
		tradingDays = defaultTradingDays
	}
	return &Engine{tradingDays: float64(tradingDays)}
}

// Compute evaluates every statistic over the observed (non-missing)
// returns of the series. Returns ErrNoData when nothing is observed.
//
// 각 통계는 독립적으로 계산됨 — 한 통계가 퇴화해도 (예: 변동성 0)
// 나머지 필드는 정상 값을 가짐.
func (e *Engine) Compute(series contracts.ReturnSeries) (contracts.MetricsBundle, error) {
	clean := series.Clean()
	if len(clean) == 0 {
		return contracts.MetricsBundle{}, ErrNoData
	}

	bundle := contracts.MetricsBundle{
		TotalReturn:      e.totalReturn(clean),
		AnnualReturn:     e.annualReturn(clean),
		AnnualVolatility: e.annualVolatility(clean),
		MaxDrawdown:      e.maxDrawdown(clean),
		WinRate:          e.winRate(clean),
		VaR95:            risk.Percentile(clean, 0.05),
	}
	bundle.Sharpe = e.sharpe(bundle.AnnualReturn, bundle.AnnualVolatility)
	bundle.Sortino = e.sortino(clean, bundle.AnnualReturn)

	return bundle, nil
}

// totalReturn is the compounded return: Π(1+r) - 1
func (e *Engine) totalReturn(clean []float64) float64 {
	cum := 1.0
	for _, r := range clean {
		cum *= 1 + r
	}
	return cum - 1
}

// annualReturn compounds the mean daily return over a trading year:
// (1 + mean(r))^252 - 1
func (e *Engine) annualReturn(clean []float64) float64 {
	return math.Pow(1+risk.Mean(clean), e.tradingDays) - 1
}

// annualVolatility scales the sample standard deviation: std(r)·√252
func (e *Engine) annualVolatility(clean []float64) float64 {
	return risk.StdDev(clean) * math.Sqrt(e.tradingDays)
}

// sharpe is annual return over annual volatility, 0 when volatility is 0
func (e *Engine) sharpe(annualReturn, annualVolatility float64) float64 {
	if annualVolatility == 0 {
		return 0
	}
	return annualReturn / annualVolatility
}

// maxDrawdown walks the cumulative growth curve against its running
// peak and returns the deepest signed drawdown (<= 0).
func (e *Engine) maxDrawdown(clean []float64) float64 {
	cum := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range clean {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		dd := cum/peak - 1
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// winRate is the share of strictly positive returns
func (e *Engine) winRate(clean []float64) float64 {
	wins := 0
	for _, r := range clean {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(clean))
}

// sortino divides annual return by annualized downside deviation.
// 하방 관측이 하나도 없으면 연수익률×10 센티널 (무한대 대신 유한 값),
// 하방 관측이 1개라 표본 편차가 정의되지 않으면 0.
func (e *Engine) sortino(clean []float64, annualReturn float64) float64 {
	var downside []float64
	for _, r := range clean {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	if len(downside) == 0 {
		return annualReturn * 10
	}

	downsideDev := risk.StdDev(downside) * math.Sqrt(e.tradingDays)
	if downsideDev == 0 {
		return 0
	}
	return annualReturn / downsideDev
}
