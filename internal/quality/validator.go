package quality

import (
	"fmt"
	"sort"

	"github.com/wonny/folio/internal/contracts"
)

// Config holds quality gate thresholds
type Config struct {
	MinDataPoints   int     // 30: 통계가 의미를 갖는 최소 관측 수
	MaxMissingRatio float64 // 0.1: 허용 결측 비율
}

// SeriesReport is the per-symbol verdict
type SeriesReport struct {
	Symbol       string   `json:"symbol"`
	Points       int      `json:"points"`
	Missing      int      `json:"missing"`
	MissingRatio float64  `json:"missing_ratio"`
	Passed       bool     `json:"passed"`
	Reasons      []string `json:"reasons,omitempty"`
}

// Snapshot summarizes a validation run across all fetched symbols
type Snapshot struct {
	Reports  []SeriesReport `json:"reports"`
	Passed   int            `json:"passed"`
	Rejected int            `json:"rejected"`
	Coverage float64        `json:"coverage"` // passed / total
}

// QualityGate validates fetched price series before analysis
// ⭐ SSOT: 분석 입력 적격성 판정은 여기서만
type QualityGate struct {
	config Config
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	if config.MinDataPoints <= 0 {
		config.MinDataPoints = 30
	}
	if config.MaxMissingRatio <= 0 {
		config.MaxMissingRatio = 0.1
	}
	return &QualityGate{config: config}
}

// CheckSeries validates one price series against the thresholds.
// 실격 사유는 전부 수집해서 돌려줌 (첫 사유에서 멈추지 않음).
func (g *QualityGate) CheckSeries(series contracts.PriceSeries) SeriesReport {
	report := SeriesReport{
		Symbol:  series.Symbol,
		Points:  series.Len(),
		Missing: series.MissingCount(),
	}
	if report.Points > 0 {
		report.MissingRatio = float64(report.Missing) / float64(report.Points)
	}

	if report.Points < g.config.MinDataPoints {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("insufficient data: %d points, need %d", report.Points, g.config.MinDataPoints))
	}
	if report.MissingRatio > g.config.MaxMissingRatio {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("missing ratio %.1f%% exceeds %.1f%%", report.MissingRatio*100, g.config.MaxMissingRatio*100))
	}

	report.Passed = len(report.Reasons) == 0
	return report
}

// Check validates every fetched series and produces a coverage snapshot.
// 일부 심볼이 실격이어도 에러가 아님 — 스냅샷으로 보고하고 호출자가
// 재정규화로 흡수함.
func (g *QualityGate) Check(series map[string]contracts.PriceSeries) Snapshot {
	snapshot := Snapshot{}

	// 심볼 정렬로 결정적 출력
	symbols := make([]string, 0, len(series))
	for s := range series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		report := g.CheckSeries(series[symbol])
		snapshot.Reports = append(snapshot.Reports, report)
		if report.Passed {
			snapshot.Passed++
		} else {
			snapshot.Rejected++
		}
	}

	if total := snapshot.Passed + snapshot.Rejected; total > 0 {
		snapshot.Coverage = float64(snapshot.Passed) / float64(total)
	}
	return snapshot
}

// Accepted returns only the series that passed the gate
func (g *QualityGate) Accepted(series map[string]contracts.PriceSeries) map[string]contracts.PriceSeries {
	out := make(map[string]contracts.PriceSeries, len(series))
	for symbol, s := range series {
		if g.CheckSeries(s).Passed {
			out[symbol] = s
		}
	}
	return out
}
