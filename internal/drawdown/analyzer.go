package drawdown

import (
	"github.com/wonny/folio/internal/contracts"
)

// Analysis holds the equity/drawdown curves and the closed episodes.
// 곡선 인덱스와 에피소드 인덱스는 모두 clean(관측된) 수익률 기준.
type Analysis struct {
	Equity   []contracts.Point          `json:"equity"`   // Π(1+r) 누적 곡선
	Curve    []contracts.Point          `json:"curve"`    // cum/peak - 1, 항상 <= 0
	Episodes []contracts.DrawdownEpisode `json:"episodes"`
}

// MaxDepth returns the deepest drawdown across the whole curve (<= 0),
// including any interval still open at the end.
func (a Analysis) MaxDepth() float64 {
	worst := 0.0
	for _, p := range a.Curve {
		if p.Value < worst {
			worst = p.Value
		}
	}
	return worst
}

// Analyze derives the cumulative equity curve, the expanding-peak
// drawdown curve, and segments the curve into closed episodes.
//
// 에피소드 수명: drawdown 이 0 밑으로 내려가면 open, 다시 >= 0 으로
// 돌아오면 close 하면서 기록. 시리즈 끝에서 아직 열려 있는 구간은
// 기록하지 않음 — 회복이 확인된 구간만 에피소드다 (의도된 정책).
func Analyze(series contracts.ReturnSeries) Analysis {
	points := series.CleanPoints()
	if len(points) == 0 {
		return Analysis{}
	}

	analysis := Analysis{
		Equity: make([]contracts.Point, len(points)),
		Curve:  make([]contracts.Point, len(points)),
	}

	// Expanding peak: 지금까지의 최고점 대비 하락률
	cum := 1.0
	peak := 1.0
	for i, p := range points {
		cum *= 1 + p.Value
		if cum > peak {
			peak = cum
		}
		analysis.Equity[i] = contracts.Point{Date: p.Date, Value: cum}
		analysis.Curve[i] = contracts.Point{Date: p.Date, Value: cum/peak - 1}
	}

	// Segmentation: open while drawdown < 0, emit on recovery
	open := false
	start := 0
	depth := 0.0
	for i, p := range analysis.Curve {
		dd := p.Value
		switch {
		case !open && dd < 0:
			open = true
			start = i
			depth = dd
		case open && dd < 0:
			if dd < depth {
				depth = dd
			}
		case open && dd >= 0:
			analysis.Episodes = append(analysis.Episodes, contracts.DrawdownEpisode{
				Start:     start,
				End:       i,
				StartDate: analysis.Curve[start].Date,
				EndDate:   p.Date,
				Duration:  i - start,
				Depth:     depth,
			})
			open = false
		}
	}
	// open == true here means the last interval never recovered; dropped

	return analysis
}
