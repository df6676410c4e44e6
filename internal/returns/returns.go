package returns

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/wonny/folio/internal/contracts"
)

// ErrNoUsableWeights is returned when no weighted symbol has return data
var ErrNoUsableWeights = errors.New("no usable weights")

// normTolerance is the accepted deviation of a weight sum from 1.0
const normTolerance = 1e-9

// =============================================================================
// ReturnSeries Builder
// =============================================================================

// Build converts a price series into a simple-return series.
// return[t] = price[t]/price[t-1] - 1, look-ahead 없음.
// 결측 가격은 해당 스텝의 결측 수익률로 전파됨 — 다음 가격으로
// 건너뛰지 않음 (암묵적 리샘플링 금지). 관측치 2개 미만이면 빈 시리즈.
func Build(prices contracts.PriceSeries) contracts.ReturnSeries {
	if prices.Len() < 2 {
		return contracts.ReturnSeries{}
	}

	points := make([]contracts.Point, 0, prices.Len()-1)
	for i := 1; i < len(prices.Points); i++ {
		prev := prices.Points[i-1]
		cur := prices.Points[i]

		value := math.NaN()
		if !prev.Missing() && !cur.Missing() && prev.Value > 0 {
			value = cur.Value/prev.Value - 1
		}

		points = append(points, contracts.Point{Date: cur.Date, Value: value})
	}

	return contracts.ReturnSeries{Points: points}
}

// =============================================================================
// Portfolio Return Aggregator
// =============================================================================

// Aggregate combines weighted constituent return series into one
// portfolio return series.
// ⭐ SSOT: 가중치 교정(드롭/재정규화)은 여기서만 수행하고 항상 보고함
//
// 절차:
//  1. WeightMap 키와 수집된 시리즈 키의 교집합
//  2. 교집합이 비면 ErrNoUsableWeights
//  3. 남은 가중치를 합계 1.0으로 재정규화
//  4. 모든 구성 종목이 관측된 날짜(inner join)에 대해 가중합
//
// 같은 입력은 항상 같은 시리즈를 만든다 (결정적).
func Aggregate(series map[string]contracts.ReturnSeries, weights contracts.WeightMap) (contracts.ReturnSeries, contracts.WeightCorrection, error) {
	correction := contracts.WeightCorrection{OriginalSum: weights.Sum()}

	// 1. Intersect weights with available series
	usable := make(contracts.WeightMap)
	for _, symbol := range weights.Symbols() {
		if s, ok := series[symbol]; ok && !s.IsEmpty() {
			usable[symbol] = weights[symbol]
		} else {
			correction.Dropped = append(correction.Dropped, symbol)
		}
	}

	// 2. Nothing usable
	if len(usable) == 0 || usable.Sum() <= 0 {
		return contracts.ReturnSeries{}, correction, ErrNoUsableWeights
	}

	// 3. Renormalize
	if math.Abs(correction.OriginalSum-1.0) > normTolerance || len(correction.Dropped) > 0 {
		correction.Renormalized = true
	}
	normalized := usable.Normalized()

	// 4. Inner join over timestamps present in ALL constituents,
	//    결측 구성 종목이 있는 날짜는 제외 (drop-then-sum)
	symbols := normalized.Symbols()

	bySymbol := make(map[string]map[time.Time]float64, len(symbols))
	for _, symbol := range symbols {
		obs := make(map[time.Time]float64)
		for _, p := range series[symbol].CleanPoints() {
			obs[p.Date] = p.Value
		}
		bySymbol[symbol] = obs
	}

	var dates []time.Time
	for date := range bySymbol[symbols[0]] {
		present := true
		for _, symbol := range symbols[1:] {
			if _, ok := bySymbol[symbol][date]; !ok {
				present = false
				break
			}
		}
		if present {
			dates = append(dates, date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	points := make([]contracts.Point, 0, len(dates))
	for _, date := range dates {
		sum := 0.0
		for _, symbol := range symbols {
			sum += bySymbol[symbol][date] * normalized[symbol]
		}
		points = append(points, contracts.Point{Date: date, Value: sum})
	}

	return contracts.ReturnSeries{Points: points}, correction, nil
}
