package quality

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/folio/internal/contracts"
)

func priceSeries(symbol string, n int, missing int) contracts.PriceSeries {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := contracts.PriceSeries{Symbol: symbol}
	for i := 0; i < n; i++ {
		value := 100.0 + float64(i)
		if i < missing {
			value = math.NaN()
		}
		s.Points = append(s.Points, contracts.Point{Date: base.AddDate(0, 0, i), Value: value})
	}
	return s
}

func TestCheckSeriesPass(t *testing.T) {
	gate := NewQualityGate(Config{MinDataPoints: 30, MaxMissingRatio: 0.1})

	report := gate.CheckSeries(priceSeries("2330.TW", 100, 5))

	assert.True(t, report.Passed)
	assert.Empty(t, report.Reasons)
	assert.Equal(t, 100, report.Points)
	assert.Equal(t, 5, report.Missing)
	assert.InDelta(t, 0.05, report.MissingRatio, 1e-12)
}

func TestCheckSeriesInsufficientData(t *testing.T) {
	gate := NewQualityGate(Config{MinDataPoints: 30, MaxMissingRatio: 0.1})

	report := gate.CheckSeries(priceSeries("2330.TW", 10, 0))

	assert.False(t, report.Passed)
	assert.Len(t, report.Reasons, 1)
	assert.Contains(t, report.Reasons[0], "insufficient data")
}

func TestCheckSeriesTooManyMissing(t *testing.T) {
	gate := NewQualityGate(Config{MinDataPoints: 30, MaxMissingRatio: 0.1})

	report := gate.CheckSeries(priceSeries("2330.TW", 100, 20))

	assert.False(t, report.Passed)
	assert.Contains(t, report.Reasons[0], "missing ratio")
}

func TestCheckSeriesCollectsAllReasons(t *testing.T) {
	gate := NewQualityGate(Config{MinDataPoints: 30, MaxMissingRatio: 0.1})

	// Short AND gappy: both reasons reported
	report := gate.CheckSeries(priceSeries("2330.TW", 10, 5))

	assert.False(t, report.Passed)
	assert.Len(t, report.Reasons, 2)
}

func TestCheckSnapshot(t *testing.T) {
	gate := NewQualityGate(Config{MinDataPoints: 30, MaxMissingRatio: 0.1})

	series := map[string]contracts.PriceSeries{
		"2330.TW": priceSeries("2330.TW", 100, 0),
		"2454.TW": priceSeries("2454.TW", 5, 0),
		"0050.TW": priceSeries("0050.TW", 100, 2),
	}

	snapshot := gate.Check(series)

	assert.Equal(t, 2, snapshot.Passed)
	assert.Equal(t, 1, snapshot.Rejected)
	assert.InDelta(t, 2.0/3.0, snapshot.Coverage, 1e-12)

	// Reports are sorted by symbol for deterministic output
	assert.Equal(t, "0050.TW", snapshot.Reports[0].Symbol)
	assert.Equal(t, "2330.TW", snapshot.Reports[1].Symbol)
	assert.Equal(t, "2454.TW", snapshot.Reports[2].Symbol)
}

func TestAccepted(t *testing.T) {
	gate := NewQualityGate(Config{MinDataPoints: 30, MaxMissingRatio: 0.1})

	series := map[string]contracts.PriceSeries{
		"2330.TW": priceSeries("2330.TW", 100, 0),
		"2454.TW": priceSeries("2454.TW", 5, 0),
	}

	accepted := gate.Accepted(series)

	assert.Len(t, accepted, 1)
	assert.Contains(t, accepted, "2330.TW")
}

func TestNewQualityGateDefaults(t *testing.T) {
	gate := NewQualityGate(Config{})

	assert.Equal(t, 30, gate.config.MinDataPoints)
	assert.InDelta(t, 0.1, gate.config.MaxMissingRatio, 1e-12)
}
