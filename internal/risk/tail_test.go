package risk

import (
	"math"
	"testing"
)

func TestAnalyzeTailLadder(t *testing.T) {
	values := []float64{
		-0.055, -0.032, -0.021, -0.012, -0.008, -0.003,
		0.001, 0.004, 0.009, 0.013, 0.018, 0.024, 0.031, 0.042,
	}
	profile := AnalyzeTail(series(values...), nil)

	if len(profile.Levels) != len(DefaultConfidenceLevels) {
		t.Fatalf("Levels = %d, want %d", len(profile.Levels), len(DefaultConfidenceLevels))
	}

	// VaR deepens (gets more negative) as confidence rises:
	// VaR(0.995) <= VaR(0.99) <= VaR(0.95) <= VaR(0.90)
	for i := 1; i < len(profile.Levels); i++ {
		lower, higher := profile.Levels[i-1], profile.Levels[i]
		if higher.VaR > lower.VaR {
			t.Errorf("VaR(%.3f) = %f > VaR(%.3f) = %f: ladder not monotone",
				higher.Confidence, higher.VaR, lower.Confidence, lower.VaR)
		}
	}

	// ES never exceeds VaR at the same level (tail mean is deeper)
	for _, level := range profile.Levels {
		if !level.ESDefined {
			t.Errorf("ES at %.3f should be defined for a populated series", level.Confidence)
			continue
		}
		if level.ES > level.VaR {
			t.Errorf("ES(%.3f) = %f > VaR = %f", level.Confidence, level.ES, level.VaR)
		}
	}
}

func TestAnalyzeTailES(t *testing.T) {
	// 5 observations, c=0.95: VaR = quantile(0.05) = -0.026,
	// tail = {-0.03}, ES = -0.03
	profile := AnalyzeTail(series(0.01, -0.03, 0.02, -0.01, 0.0), []float64{0.95})

	level := profile.Levels[0]
	if math.Abs(level.VaR-(-0.026)) > 1e-12 {
		t.Errorf("VaR = %f, want -0.026", level.VaR)
	}
	if !level.ESDefined {
		t.Fatal("ES should be defined")
	}
	if math.Abs(level.ES-(-0.03)) > 1e-12 {
		t.Errorf("ES = %f, want -0.03", level.ES)
	}
}

func TestAnalyzeTailEmpty(t *testing.T) {
	profile := AnalyzeTail(series(), []float64{0.95})

	if profile.Levels[0].ESDefined {
		t.Error("ES must be undefined for an empty series")
	}
	if profile.ExtremeEvents != 0 {
		t.Errorf("ExtremeEvents = %d, want 0", profile.ExtremeEvents)
	}
}

func TestAnalyzeTailExtremeEvents(t *testing.T) {
	// Mostly small moves plus one large outlier on each side:
	// std ~0.047, threshold ~0.094, outliers at +-0.10
	values := []float64{0.001, -0.001, 0.001, -0.001, 0.001, -0.001, 0.001, -0.001, 0.10, -0.10}
	profile := AnalyzeTail(series(values...), nil)

	if profile.ExtremeEvents != 2 {
		t.Errorf("ExtremeEvents = %d, want 2 (|r| > 2·std)", profile.ExtremeEvents)
	}
}

func TestAnalyzeTailSkipsMissing(t *testing.T) {
	with := AnalyzeTail(series(0.01, math.NaN(), -0.03, 0.02), []float64{0.95})
	without := AnalyzeTail(series(0.01, -0.03, 0.02), []float64{0.95})

	if with.Levels[0].VaR != without.Levels[0].VaR {
		t.Errorf("VaR differs with missing points: %f vs %f",
			with.Levels[0].VaR, without.Levels[0].VaR)
	}
}
