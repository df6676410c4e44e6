package contracts

import "time"

// MetricsBundle is the canonical per-series statistics record.
// ⭐ SSOT: 모든 필드는 항상 채워짐 — 계산 불가 통계는 0으로 강등.
// "데이터 없음"은 0으로 채운 번들이 아니라 호출자에게 별도 신호
// (metrics.ErrNoData)로 전달됨.
type MetricsBundle struct {
	TotalReturn      float64 `json:"total_return"`      // Π(1+r) - 1
	AnnualReturn     float64 `json:"annual_return"`     // (1+mean(r))^252 - 1
	AnnualVolatility float64 `json:"annual_volatility"` // std(r)·√252
	Sharpe           float64 `json:"sharpe"`            // 변동성 0이면 0
	MaxDrawdown      float64 `json:"max_drawdown"`      // signed, <= 0
	WinRate          float64 `json:"win_rate"`          // r > 0 비율
	VaR95            float64 `json:"var_95"`            // 5% 분위수 (signed)
	Sortino          float64 `json:"sortino"`           // 하방 관측 없으면 AnnualReturn×10
}

// DrawdownEpisode is one closed peak-to-recovery interval.
// 시리즈 끝에서 아직 열려 있는 구간은 에피소드로 기록하지 않음.
type DrawdownEpisode struct {
	Start     int       `json:"start"`      // clean 수익률 시리즈 기준 인덱스
	End       int       `json:"end"`        // 회복 시점 인덱스 (exclusive)
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Duration  int       `json:"duration"` // End - Start
	Depth     float64   `json:"depth"`    // 구간 내 최소 drawdown (<= 0)
}
