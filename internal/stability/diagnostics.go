package stability

import (
	"math"

	"github.com/wonny/folio/internal/contracts"
)

// Thresholds for the diagnostic flags
const (
	epsilon              = 0.001 // 양쪽 모두 0일 때 0-나눗셈 방지
	overfittingThreshold = 0.7
	riskFactor           = 1.5
	adaptabilityFactor   = 0.6
	differentiationFactor = 0.5
)

// Flag identifies one diagnostic finding
type Flag string

const (
	FlagOverfitting         Flag = "overfitting"
	FlagRiskUnderestimation Flag = "risk_underestimation"
	FlagAdaptability        Flag = "adaptability_concern"
	FlagDifferentiation     Flag = "differentiation_concern"
)

// Windows pairs the two disjoint evaluation windows of one portfolio
type Windows struct {
	Name       string                  `json:"name"`
	Historical contracts.MetricsBundle `json:"historical"`
	Forward    contracts.MetricsBundle `json:"forward"`
}

// Assessment is the per-portfolio verdict
type Assessment struct {
	Name      string  `json:"name"`
	Stability float64 `json:"stability"` // [0, 1] 부근, 높을수록 일관적
	Flags     []Flag  `json:"flags,omitempty"`
}

// Report is the full diagnostic outcome.
// 플래그가 하나도 없으면 Stable=true — 침묵이 아니라 명시적 결과.
type Report struct {
	Portfolios []Assessment `json:"portfolios"`
	Flags      []Flag       `json:"flags,omitempty"` // 포트폴리오 쌍 수준 플래그
	Stable     bool         `json:"stable"`
}

// Diagnose compares historical vs forward behavior of two portfolios.
//
// 포트폴리오별: 안정성 점수 + overfitting/risk-underestimation 플래그.
// 쌍 수준: forward 평균 Sharpe 가 historical 평균의 60% 밑이면
// adaptability, 두 포트폴리오 간 수익률 격차가 forward 에서 절반
// 이하로 줄면 differentiation. 플래그는 서로 독립이며 몇 개든
// 동시에 켜질 수 있음.
func Diagnose(a, b Windows) Report {
	report := Report{
		Portfolios: []Assessment{assess(a), assess(b)},
	}

	// Adaptability: forward average Sharpe vs historical average
	histAvgSharpe := (a.Historical.Sharpe + b.Historical.Sharpe) / 2
	fwdAvgSharpe := (a.Forward.Sharpe + b.Forward.Sharpe) / 2
	if fwdAvgSharpe < adaptabilityFactor*histAvgSharpe {
		report.Flags = append(report.Flags, FlagAdaptability)
	}

	// Differentiation: does the return gap between the two portfolios survive?
	histDelta := math.Abs(a.Historical.AnnualReturn - b.Historical.AnnualReturn)
	fwdDelta := math.Abs(a.Forward.AnnualReturn - b.Forward.AnnualReturn)
	if fwdDelta < differentiationFactor*histDelta {
		report.Flags = append(report.Flags, FlagDifferentiation)
	}

	report.Stable = len(report.Flags) == 0 &&
		len(report.Portfolios[0].Flags) == 0 &&
		len(report.Portfolios[1].Flags) == 0
	return report
}

// assess computes the per-portfolio stability score and flags
func assess(w Windows) Assessment {
	out := Assessment{
		Name:      w.Name,
		Stability: stabilityScore(w.Historical, w.Forward),
	}

	if out.Stability < overfittingThreshold {
		out.Flags = append(out.Flags, FlagOverfitting)
	}
	if math.Abs(w.Forward.MaxDrawdown) > riskFactor*math.Abs(w.Historical.MaxDrawdown) {
		out.Flags = append(out.Flags, FlagRiskUnderestimation)
	}
	return out
}

// stabilityScore averages per-metric consistency over
// {annualized return, Sharpe, win rate}.
// 지표별 점수 = max(0, min(h,f) / max(|h|, |f|, ε))
func stabilityScore(hist, forward contracts.MetricsBundle) float64 {
	pairs := [][2]float64{
		{hist.AnnualReturn, forward.AnnualReturn},
		{hist.Sharpe, forward.Sharpe},
		{hist.WinRate, forward.WinRate},
	}

	total := 0.0
	for _, p := range pairs {
		h, f := p[0], p[1]
		denom := math.Max(math.Max(math.Abs(h), math.Abs(f)), epsilon)
		total += math.Max(0, math.Min(h, f)/denom)
	}
	return total / float64(len(pairs))
}
