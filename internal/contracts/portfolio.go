package contracts

import "sort"

// WeightMap maps a symbol to its non-negative portfolio weight
// ⭐ SSOT: 집계에 쓰이는 가중치는 항상 재정규화 후 합계 1.0 (±1e-9)
type WeightMap map[string]float64

// Sum returns the total of all weights
func (w WeightMap) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Symbols returns the symbols in deterministic (sorted) order
func (w WeightMap) Symbols() []string {
	symbols := make([]string, 0, len(w))
	for s := range w {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Normalized returns a copy scaled so the weights sum to 1.0.
// 합계가 0이면 빈 맵 반환 (호출자가 ErrNoUsableWeights 처리)
func (w WeightMap) Normalized() WeightMap {
	total := w.Sum()
	if total <= 0 {
		return WeightMap{}
	}

	out := make(WeightMap, len(w))
	for s, v := range w {
		out[s] = v / total
	}
	return out
}

// PortfolioDefinition is a named basket loaded from a definition file
type PortfolioDefinition struct {
	Name       string            `json:"name"`
	Weights    WeightMap         `json:"weights"`
	Industries map[string]string `json:"industries,omitempty"`
}

// WeightCorrection reports how the aggregator had to adjust the
// caller-provided weights. 조용히 삼키지 않고 호출자에게 보고함.
type WeightCorrection struct {
	OriginalSum  float64  `json:"original_sum"`      // 정규화 전 합계
	Dropped      []string `json:"dropped,omitempty"` // 가격 데이터가 없어 제외된 심볼
	Renormalized bool     `json:"renormalized"`      // 합계가 ~1.0이 아니었는지
}
