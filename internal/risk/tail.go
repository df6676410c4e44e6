package risk

import (
	"github.com/wonny/folio/internal/contracts"
)

// DefaultConfidenceLevels is the standard VaR/ES ladder
var DefaultConfidenceLevels = []float64{0.90, 0.95, 0.99, 0.995}

// extremeSigma defines an extreme event: |r| > 2·std
const extremeSigma = 2.0

// AnalyzeTail computes VaR and Expected Shortfall at each confidence
// level, plus the extreme-event count.
//
// VaR(c) = quantile(r, 1-c), signed. ES(c) = mean of r <= VaR(c);
// 꼬리에 관측치가 없으면 ESDefined=false 로 표시하고 값은 0 —
// NaN을 내보내지 않음. 신뢰수준이 낮아질수록 VaR 은 단조
// 비감소(덜 음수)한다.
func AnalyzeTail(series contracts.ReturnSeries, levels []float64) contracts.TailRiskProfile {
	if len(levels) == 0 {
		levels = DefaultConfidenceLevels
	}

	clean := series.Clean()
	profile := contracts.TailRiskProfile{StdDev: StdDev(clean)}

	for _, c := range levels {
		level := contracts.TailRiskLevel{Confidence: c}

		if len(clean) > 0 {
			level.VaR = Percentile(clean, 1-c)

			// Conditional tail mean over observations at or below VaR
			var tail []float64
			for _, r := range clean {
				if r <= level.VaR {
					tail = append(tail, r)
				}
			}
			if len(tail) > 0 {
				level.ES = Mean(tail)
				level.ESDefined = true
			}
		}

		profile.Levels = append(profile.Levels, level)
	}

	// Extreme events: |r| > 2·std
	threshold := extremeSigma * profile.StdDev
	if threshold > 0 {
		for _, r := range clean {
			if r > threshold || r < -threshold {
				profile.ExtremeEvents++
			}
		}
	}

	return profile
}
