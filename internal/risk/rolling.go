package risk

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/folio/internal/contracts"
)

// =============================================================================
// Rolling Risk Analyzer
// =============================================================================

// RollingAnalyzer computes trailing-window risk statistics.
// 모든 출력은 입력의 관측 시점과 같은 길이이며, 처음 window-1 개와
// 통계가 퇴화한 윈도우(분산 0 등)는 결측으로 표시됨 — 0이 아님.
type RollingAnalyzer struct {
	tradingDays float64
}

// NewRollingAnalyzer creates an analyzer. tradingDays <= 0 falls back to 252.
func NewRollingAnalyzer(tradingDays int) *RollingAnalyzer {
	if tradingDays <= 0 {
		tradingDays = 252
	}
	return &RollingAnalyzer{tradingDays: float64(tradingDays)}
}

// Sharpe computes the rolling annualized Sharpe ratio:
// (mean·252) / (std·√252) over each trailing window.
func (a *RollingAnalyzer) Sharpe(series contracts.ReturnSeries, window int) contracts.RollingWindowSeries {
	return a.apply(series.CleanPoints(), window, func(win []float64) float64 {
		std := StdDev(win)
		if std == 0 {
			return math.NaN()
		}
		return (Mean(win) * a.tradingDays) / (std * math.Sqrt(a.tradingDays))
	})
}

// Volatility computes the rolling annualized volatility: std·√252
func (a *RollingAnalyzer) Volatility(series contracts.ReturnSeries, window int) contracts.RollingWindowSeries {
	return a.apply(series.CleanPoints(), window, func(win []float64) float64 {
		return StdDev(win) * math.Sqrt(a.tradingDays)
	})
}

// Beta computes the rolling beta of asset vs benchmark:
// cov(A,B) / var(B). 벤치마크 분산이 0인 윈도우는 결측.
func (a *RollingAnalyzer) Beta(asset, benchmark contracts.ReturnSeries, window int) contracts.RollingWindowSeries {
	return a.applyPair(asset, benchmark, window, func(xs, ys []float64) float64 {
		v := Variance(ys)
		if v == 0 {
			return math.NaN()
		}
		return Covariance(xs, ys) / v
	})
}

// Correlation computes the rolling Pearson correlation of two series.
// 어느 한쪽 표준편차가 0인 윈도우는 결측.
func (a *RollingAnalyzer) Correlation(asset, benchmark contracts.ReturnSeries, window int) contracts.RollingWindowSeries {
	return a.applyPair(asset, benchmark, window, func(xs, ys []float64) float64 {
		sx, sy := StdDev(xs), StdDev(ys)
		if sx == 0 || sy == 0 {
			return math.NaN()
		}
		return Covariance(xs, ys) / (sx * sy)
	})
}

// apply evaluates fn over each trailing window of the observed points.
func (a *RollingAnalyzer) apply(points []contracts.Point, window int, fn func([]float64) float64) contracts.RollingWindowSeries {
	out := contracts.RollingWindowSeries{Window: window}
	if window < 2 || len(points) == 0 {
		return out
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	out.Points = make([]contracts.Point, len(points))
	for i, p := range points {
		value := math.NaN()
		if i >= window-1 {
			value = fn(values[i-window+1 : i+1])
		}
		out.Points[i] = contracts.Point{Date: p.Date, Value: value}
	}
	return out
}

// applyPair inner-joins the two observed series by date, then
// evaluates fn over each trailing aligned window.
func (a *RollingAnalyzer) applyPair(asset, benchmark contracts.ReturnSeries, window int, fn func(xs, ys []float64) float64) contracts.RollingWindowSeries {
	out := contracts.RollingWindowSeries{Window: window}
	if window < 2 {
		return out
	}

	// 두 시리즈 모두 관측된 날짜만 사용 (drop-then-compute)
	benchByDate := make(map[time.Time]float64)
	for _, p := range benchmark.CleanPoints() {
		benchByDate[p.Date] = p.Value
	}

	var dates []time.Time
	assetByDate := make(map[time.Time]float64)
	for _, p := range asset.CleanPoints() {
		if _, ok := benchByDate[p.Date]; ok {
			dates = append(dates, p.Date)
			assetByDate[p.Date] = p.Value
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) == 0 {
		return out
	}

	xs := make([]float64, len(dates))
	ys := make([]float64, len(dates))
	for i, d := range dates {
		xs[i] = assetByDate[d]
		ys[i] = benchByDate[d]
	}

	out.Points = make([]contracts.Point, len(dates))
	for i, d := range dates {
		value := math.NaN()
		if i >= window-1 {
			value = fn(xs[i-window+1:i+1], ys[i-window+1:i+1])
		}
		out.Points[i] = contracts.Point{Date: d, Value: value}
	}
	return out
}
