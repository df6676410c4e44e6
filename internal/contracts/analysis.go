package contracts

// RollingWindowSeries is a scalar metric computed over a trailing
// fixed-size window. 처음 window-1 개 시점은 결측 (0이 아님).
type RollingWindowSeries struct {
	Window int     `json:"window"`
	Points []Point `json:"points"`
}

// Len returns the number of points including missing leaders
func (r RollingWindowSeries) Len() int { return len(r.Points) }

// MissingCount returns the number of undefined points
func (r RollingWindowSeries) MissingCount() int {
	n := 0
	for _, p := range r.Points {
		if p.Missing() {
			n++
		}
	}
	return n
}

// TailRiskLevel is the (VaR, ES) pair at one confidence level.
// ES가 정의되지 않으면 (꼬리에 관측치 없음) ESDefined=false 이고
// ES 필드는 0 — NaN이 경계를 넘지 않게 하는 플래그 방식.
type TailRiskLevel struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"` // quantile(r, 1-c), signed
	ES         float64 `json:"es"`  // mean of r <= VaR
	ESDefined  bool    `json:"es_defined"`
}

// TailRiskProfile aggregates tail statistics across confidence levels
type TailRiskProfile struct {
	Levels        []TailRiskLevel `json:"levels"`
	StdDev        float64         `json:"std_dev"`        // 표본 표준편차
	ExtremeEvents int             `json:"extreme_events"` // |r| > 2·std 관측 수
}
