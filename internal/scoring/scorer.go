package scoring

import (
	"math"
	"sort"

	"github.com/wonny/folio/internal/contracts"
)

// Composite score weights
// ⭐ SSOT: 전략 순위는 이 가중치 하나로만 결정됨
const (
	weightSharpe   = 0.4
	weightDrawdown = 0.3
	weightWinRate  = 0.3
)

// ScoredStrategy is one ranked entry
type ScoredStrategy struct {
	Name   string                  `json:"name"`
	Score  float64                 `json:"score"`
	Bundle contracts.MetricsBundle `json:"bundle"`
}

// Score computes the composite strategy score:
// 0.4·Sharpe + 0.3·(1-|MDD|) + 0.3·winRate.
// 순위 비교용 지표일 뿐 위험 측정치가 아님. 부수효과 없음.
func Score(b contracts.MetricsBundle) float64 {
	return weightSharpe*b.Sharpe +
		weightDrawdown*(1-math.Abs(b.MaxDrawdown)) +
		weightWinRate*b.WinRate
}

// Rank orders strategies by composite score, best first.
// 동점 처리: Sharpe 높은 쪽 우선, 그다음 |MDD| 작은 쪽,
// 마지막으로 이름 순 (결정적 출력 보장).
func Rank(bundles map[string]contracts.MetricsBundle) []ScoredStrategy {
	ranked := make([]ScoredStrategy, 0, len(bundles))
	for name, b := range bundles {
		ranked = append(ranked, ScoredStrategy{Name: name, Score: Score(b), Bundle: b})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Bundle.Sharpe != b.Bundle.Sharpe {
			return a.Bundle.Sharpe > b.Bundle.Sharpe
		}
		if da, db := math.Abs(a.Bundle.MaxDrawdown), math.Abs(b.Bundle.MaxDrawdown); da != db {
			return da < db
		}
		return a.Name < b.Name
	})

	return ranked
}
