package risk

import (
	"math"
	"sort"
)

// =============================================================================
// Shared Statistics Helpers
// =============================================================================
// 모든 통계 계산의 단일 구현. metrics / rolling / tail 이 전부 여기 것을
// 사용하므로 패키지마다 계산이 미세하게 달라지는 일이 없음.

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation (ddof=1).
// 관측치 2개 미만이면 표본 표준편차가 정의되지 않으므로 0.
func StdDev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// Variance returns the sample variance (ddof=1), 0 when undefined.
func Variance(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(n-1)
}

// Covariance returns the sample covariance of two equal-length slices.
func Covariance(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}
	mx, my := Mean(xs), Mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n-1)
}

// Correlation returns the Pearson correlation coefficient.
// 어느 한쪽 분산이 0이면 상관계수가 정의되지 않으므로 0.
func Correlation(xs, ys []float64) float64 {
	sx, sy := StdDev(xs), StdDev(ys)
	if sx == 0 || sy == 0 {
		return 0
	}
	return Covariance(xs, ys) / (sx * sy)
}

// Percentile returns the p-quantile (p in [0,1]) of xs using linear
// interpolation between adjacent order statistics.
// ⭐ SSOT: VaR 계산은 전부 이 분위수 정의를 쓴다. 값은 signed —
// 5% 분위수가 -0.03이면 그대로 -0.03을 돌려줌 (손실 양수 변환 없음).
func Percentile(xs []float64, p float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return xs[0]
	}

	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// 선형 보간: rank = p·(n-1)
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
