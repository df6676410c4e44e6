package stability

import (
	"math"
	"testing"

	"github.com/wonny/folio/internal/contracts"
)

func hasFlag(flags []Flag, f Flag) bool {
	for _, x := range flags {
		if x == f {
			return true
		}
	}
	return false
}

func consistent(name string) Windows {
	b := contracts.MetricsBundle{AnnualReturn: 0.12, Sharpe: 1.2, WinRate: 0.55, MaxDrawdown: -0.10}
	return Windows{Name: name, Historical: b, Forward: b}
}

func TestStabilityScoreIdenticalWindows(t *testing.T) {
	b := contracts.MetricsBundle{AnnualReturn: 0.12, Sharpe: 1.2, WinRate: 0.55}
	if got := stabilityScore(b, b); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("stabilityScore = %f, want 1.0 for identical windows", got)
	}
}

func TestStabilityScoreSignFlip(t *testing.T) {
	hist := contracts.MetricsBundle{AnnualReturn: 0.10, Sharpe: 1.0, WinRate: 0.55}
	forward := contracts.MetricsBundle{AnnualReturn: -0.10, Sharpe: -1.0, WinRate: 0.55}

	// Return and Sharpe clamp to 0 (min is negative); win rate is 1.0
	got := stabilityScore(hist, forward)
	if math.Abs(got-1.0/3.0) > 1e-12 {
		t.Errorf("stabilityScore = %f, want 1/3", got)
	}
}

func TestStabilityScoreBothZero(t *testing.T) {
	// epsilon keeps the denominator finite: score is 0, not NaN
	got := stabilityScore(contracts.MetricsBundle{}, contracts.MetricsBundle{})
	if math.IsNaN(got) {
		t.Fatal("stabilityScore must not be NaN for all-zero bundles")
	}
	if got != 0 {
		t.Errorf("stabilityScore = %f, want 0", got)
	}
}

func TestDiagnoseStable(t *testing.T) {
	a := consistent("growth")
	b := consistent("defense")
	b.Historical.AnnualReturn = 0.06
	b.Forward.AnnualReturn = 0.06

	report := Diagnose(a, b)

	if !report.Stable {
		t.Errorf("Expected explicit stable outcome, got flags %v / %v / %v",
			report.Flags, report.Portfolios[0].Flags, report.Portfolios[1].Flags)
	}
}

func TestDiagnoseOverfitting(t *testing.T) {
	a := consistent("growth")
	// Forward collapses: stability well below 0.7
	a.Forward = contracts.MetricsBundle{AnnualReturn: 0.01, Sharpe: 0.1, WinRate: 0.55, MaxDrawdown: -0.10}

	report := Diagnose(a, consistent("defense"))

	if !hasFlag(report.Portfolios[0].Flags, FlagOverfitting) {
		t.Errorf("Expected overfitting flag, got %v", report.Portfolios[0].Flags)
	}
	if report.Stable {
		t.Error("Report must not be stable when any flag fires")
	}
}

func TestDiagnoseRiskUnderestimation(t *testing.T) {
	a := consistent("growth")
	a.Forward.MaxDrawdown = -0.16 // 1.6x the historical -0.10

	report := Diagnose(a, consistent("defense"))

	if !hasFlag(report.Portfolios[0].Flags, FlagRiskUnderestimation) {
		t.Errorf("Expected risk-underestimation flag, got %v", report.Portfolios[0].Flags)
	}
	// 1.5x exactly does not fire
	a.Forward.MaxDrawdown = -0.15
	report = Diagnose(a, consistent("defense"))
	if hasFlag(report.Portfolios[0].Flags, FlagRiskUnderestimation) {
		t.Error("Exactly 1.5x historical drawdown must not fire the flag")
	}
}

func TestDiagnoseAdaptability(t *testing.T) {
	a := consistent("growth")
	b := consistent("defense")
	// Forward average Sharpe 0.5 vs historical average 1.2: below 0.6x
	a.Forward.Sharpe = 0.5
	b.Forward.Sharpe = 0.5
	// Keep per-portfolio stability high enough not to matter here
	a.Forward.AnnualReturn = 0.12
	b.Forward.AnnualReturn = 0.12

	report := Diagnose(a, b)

	if !hasFlag(report.Flags, FlagAdaptability) {
		t.Errorf("Expected adaptability flag, got %v", report.Flags)
	}
}

func TestDiagnoseDifferentiation(t *testing.T) {
	a := consistent("growth")
	b := consistent("defense")
	// Historical gap 0.06, forward gap 0.01 (< 0.5 * 0.06)
	a.Historical.AnnualReturn = 0.12
	b.Historical.AnnualReturn = 0.06
	a.Forward.AnnualReturn = 0.07
	b.Forward.AnnualReturn = 0.06

	report := Diagnose(a, b)

	if !hasFlag(report.Flags, FlagDifferentiation) {
		t.Errorf("Expected differentiation flag, got %v", report.Flags)
	}
}

func TestDiagnoseFlagsAreIndependent(t *testing.T) {
	// Everything degrades at once: all four flags fire together
	a := Windows{
		Name:       "growth",
		Historical: contracts.MetricsBundle{AnnualReturn: 0.20, Sharpe: 2.0, WinRate: 0.60, MaxDrawdown: -0.05},
		Forward:    contracts.MetricsBundle{AnnualReturn: 0.01, Sharpe: 0.1, WinRate: 0.40, MaxDrawdown: -0.20},
	}
	b := Windows{
		Name:       "defense",
		Historical: contracts.MetricsBundle{AnnualReturn: 0.10, Sharpe: 1.5, WinRate: 0.55, MaxDrawdown: -0.04},
		Forward:    contracts.MetricsBundle{AnnualReturn: 0.005, Sharpe: 0.1, WinRate: 0.40, MaxDrawdown: -0.15},
	}

	report := Diagnose(a, b)

	if !hasFlag(report.Portfolios[0].Flags, FlagOverfitting) {
		t.Error("Missing overfitting flag")
	}
	if !hasFlag(report.Portfolios[0].Flags, FlagRiskUnderestimation) {
		t.Error("Missing risk-underestimation flag")
	}
	if !hasFlag(report.Flags, FlagAdaptability) {
		t.Error("Missing adaptability flag")
	}
	if !hasFlag(report.Flags, FlagDifferentiation) {
		t.Error("Missing differentiation flag")
	}
}
