package drawdown

import (
	"math"
	"testing"
	"time"

	"github.com/wonny/folio/internal/contracts"
)

func series(values ...float64) contracts.ReturnSeries {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := contracts.ReturnSeries{}
	for i, v := range values {
		s.Points = append(s.Points, contracts.Point{Date: base.AddDate(0, 0, i), Value: v})
	}
	return s
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(contracts.ReturnSeries{})
	if len(a.Curve) != 0 || len(a.Episodes) != 0 {
		t.Errorf("Expected empty analysis, got %+v", a)
	}
}

func TestAnalyzeCurve(t *testing.T) {
	// Equity: 1.10 -> 0.99 -> 1.0395; peak stays 1.10 after day 0
	a := Analyze(series(0.10, -0.10, 0.05))

	if len(a.Curve) != 3 {
		t.Fatalf("Curve length = %d, want 3", len(a.Curve))
	}
	if a.Curve[0].Value != 0 {
		t.Errorf("Curve[0] = %f, want 0 at the peak", a.Curve[0].Value)
	}
	want := 0.99/1.10 - 1
	if math.Abs(a.Curve[1].Value-want) > 1e-12 {
		t.Errorf("Curve[1] = %f, want %f", a.Curve[1].Value, want)
	}
	if math.Abs(a.MaxDepth()-want) > 1e-12 {
		t.Errorf("MaxDepth() = %f, want %f", a.MaxDepth(), want)
	}
}

func TestAnalyzeClosedEpisode(t *testing.T) {
	// Drop on day 1-2, full recovery on day 3
	a := Analyze(series(0.01, -0.05, -0.02, 0.10))

	if len(a.Episodes) != 1 {
		t.Fatalf("Episodes = %d, want 1", len(a.Episodes))
	}

	ep := a.Episodes[0]
	if ep.Start != 1 || ep.End != 3 {
		t.Errorf("Episode interval [%d, %d), want [1, 3)", ep.Start, ep.End)
	}
	if ep.Duration != 2 {
		t.Errorf("Duration = %d, want 2", ep.Duration)
	}

	// Depth is the trough of the interval: (1.01*0.95*0.98)/1.01 - 1
	wantDepth := 0.95*0.98 - 1
	if math.Abs(ep.Depth-wantDepth) > 1e-12 {
		t.Errorf("Depth = %f, want %f", ep.Depth, wantDepth)
	}
	if !ep.EndDate.After(ep.StartDate) {
		t.Error("EndDate must be after StartDate")
	}
}

func TestAnalyzeOpenIntervalDiscarded(t *testing.T) {
	// The series ends while still under water: no episode is emitted
	a := Analyze(series(0.01, -0.05, -0.02))

	if len(a.Episodes) != 0 {
		t.Errorf("Episodes = %d, want 0 for an interval still open at series end", len(a.Episodes))
	}

	// The curve still shows the open drawdown
	if a.MaxDepth() >= 0 {
		t.Errorf("MaxDepth() = %f, want < 0", a.MaxDepth())
	}
}

func TestAnalyzeMultipleEpisodes(t *testing.T) {
	// Two separate dips, each recovering, then a final open dip
	a := Analyze(series(-0.02, 0.05, -0.01, 0.04, -0.03))

	if len(a.Episodes) != 2 {
		t.Fatalf("Episodes = %d, want 2 (last dip never recovers)", len(a.Episodes))
	}
	if a.Episodes[0].Start != 0 || a.Episodes[0].End != 1 {
		t.Errorf("First episode [%d, %d), want [0, 1)", a.Episodes[0].Start, a.Episodes[0].End)
	}
	if a.Episodes[1].Start != 2 || a.Episodes[1].End != 3 {
		t.Errorf("Second episode [%d, %d), want [2, 3)", a.Episodes[1].Start, a.Episodes[1].End)
	}
}

func TestAnalyzeNoDrawdown(t *testing.T) {
	a := Analyze(series(0.01, 0.02, 0.03))

	if len(a.Episodes) != 0 {
		t.Errorf("Episodes = %d, want 0 for a monotone rising curve", len(a.Episodes))
	}
	if a.MaxDepth() != 0 {
		t.Errorf("MaxDepth() = %f, want 0", a.MaxDepth())
	}
}

func TestAnalyzeSkipsMissing(t *testing.T) {
	// Missing points are dropped before the curve is built; indices
	// refer to the observed series
	a := Analyze(series(0.01, math.NaN(), -0.05, 0.10))

	if len(a.Curve) != 3 {
		t.Fatalf("Curve length = %d, want 3 observed points", len(a.Curve))
	}
	if len(a.Episodes) != 1 {
		t.Fatalf("Episodes = %d, want 1", len(a.Episodes))
	}
	if a.Episodes[0].Start != 1 {
		t.Errorf("Episode start = %d, want 1 (index into observed series)", a.Episodes[0].Start)
	}
}
