package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// Point is a single dated observation in a series
// ⭐ SSOT: 결측치는 시리즈 내부에서 NaN으로 표현, 외부(JSON)로는 null
type Point struct {
	Date  time.Time
	Value float64
}

// Missing reports whether the observation is a missing-data gap
func (p Point) Missing() bool {
	return math.IsNaN(p.Value)
}

// pointJSON is the wire representation of Point (NaN <-> null)
type pointJSON struct {
	Date  time.Time `json:"date"`
	Value *float64  `json:"value"`
}

// MarshalJSON encodes a missing value as null
func (p Point) MarshalJSON() ([]byte, error) {
	pj := pointJSON{Date: p.Date}
	if !math.IsNaN(p.Value) {
		v := p.Value
		pj.Value = &v
	}
	return json.Marshal(pj)
}

// UnmarshalJSON decodes null back into NaN
func (p *Point) UnmarshalJSON(data []byte) error {
	var pj pointJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	p.Date = pj.Date
	if pj.Value == nil {
		p.Value = math.NaN()
	} else {
		p.Value = *pj.Value
	}
	return nil
}

// PriceSeries is an ordered price history for one symbol
// 타임스탬프는 엄격히 증가, 가격은 양수 또는 결측(NaN)
type PriceSeries struct {
	Symbol string  `json:"symbol"`
	Points []Point `json:"points"`
}

// Len returns the number of observations (including missing ones)
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// IsEmpty reports whether the series has no observations at all
func (s PriceSeries) IsEmpty() bool {
	return len(s.Points) == 0
}

// MissingCount returns the number of missing observations
func (s PriceSeries) MissingCount() int {
	n := 0
	for _, p := range s.Points {
		if p.Missing() {
			n++
		}
	}
	return n
}

// ReturnSeries is an ordered simple-return series derived from prices
// 원본 PriceSeries보다 한 개 짧음; 결측 가격은 결측 수익률로 전파
type ReturnSeries struct {
	Points []Point `json:"points"`
}

// Len returns the number of observations (including missing ones)
func (s ReturnSeries) Len() int {
	return len(s.Points)
}

// IsEmpty reports whether the series has no observations at all
func (s ReturnSeries) IsEmpty() bool {
	return len(s.Points) == 0
}

// Clean returns the non-missing return values in order
func (s ReturnSeries) Clean() []float64 {
	out := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if !p.Missing() {
			out = append(out, p.Value)
		}
	}
	return out
}

// CleanPoints returns the non-missing observations in order
func (s ReturnSeries) CleanPoints() []Point {
	out := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if !p.Missing() {
			out = append(out, p)
		}
	}
	return out
}

// MissingCount returns the number of missing observations
func (s ReturnSeries) MissingCount() int {
	n := 0
	for _, p := range s.Points {
		if p.Missing() {
			n++
		}
	}
	return n
}

// Split partitions the series into observations before the cutoff
// (inclusive) and after it. 안정성 진단의 historical/forward 분리용.
func (s ReturnSeries) Split(cutoff time.Time) (ReturnSeries, ReturnSeries) {
	var hist, forward ReturnSeries
	for _, p := range s.Points {
		if p.Date.After(cutoff) {
			forward.Points = append(forward.Points, p)
		} else {
			hist.Points = append(hist.Points, p)
		}
	}
	return hist, forward
}
