package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/folio/internal/analysis"
	"github.com/wonny/folio/internal/api/handlers"
	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/scoring"
	"github.com/wonny/folio/internal/stability"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
)

// stubComparer serves a canned report without touching the network
type stubComparer struct {
	report analysis.ComparisonReport
	err    error
	lastReq analysis.Request
}

func (s *stubComparer) Compare(ctx context.Context, defs []contracts.PortfolioDefinition, req analysis.Request) (analysis.ComparisonReport, error) {
	s.lastReq = req
	return s.report, s.err
}

func testReport() analysis.ComparisonReport {
	bundle := contracts.MetricsBundle{Sharpe: 1.2, MaxDrawdown: -0.1, WinRate: 0.55}
	return analysis.ComparisonReport{
		Benchmark: "0050.TW",
		Portfolios: []analysis.PortfolioReport{
			{Name: "great_reward", Metrics: bundle},
			{Name: "low_risk", Metrics: contracts.MetricsBundle{Sharpe: 0.8, MaxDrawdown: -0.05, WinRate: 0.52}},
		},
		Ranking:   []scoring.ScoredStrategy{{Name: "great_reward", Score: 1.0}},
		Stability: &stability.Report{Stable: true},
	}
}

func testRouter(stub *stubComparer) http.Handler {
	cfg := &config.Config{}
	cfg.Portfolio.Benchmark = "0050.TW"
	cfg.Analysis.DefaultStartDate = time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	cfg.Analysis.DefaultEndDate = time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC)
	cfg.Analysis.KnowledgeCutoff = time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)

	defs := []contracts.PortfolioDefinition{
		{Name: "great_reward", Weights: contracts.WeightMap{"2330.TW": 1}},
		{Name: "low_risk", Weights: contracts.WeightMap{"2412.TW": 1}},
	}

	log := logger.NewNop()
	handler := handlers.NewAnalysisHandler(stub, defs, cfg, log)
	return NewRouter(handler, log)
}

func doGet(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(&stubComparer{report: testReport()})

	rec, body := doGet(t, router, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestGetPortfolios(t *testing.T) {
	router := testRouter(&stubComparer{report: testReport()})

	rec, body := doGet(t, router, "/api/v1/portfolios")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["count"])
	assert.Equal(t, "0050.TW", data["benchmark"])
}

func TestGetComparison(t *testing.T) {
	stub := &stubComparer{report: testReport()}
	router := testRouter(stub)

	rec, body := doGet(t, router, "/api/v1/analysis/comparison")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	// Defaults from config flow into the request
	assert.Equal(t, 2024, stub.lastReq.From.Year())
	assert.Equal(t, time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), stub.lastReq.Cutoff)
}

func TestGetComparisonCustomWindow(t *testing.T) {
	stub := &stubComparer{report: testReport()}
	router := testRouter(stub)

	rec, _ := doGet(t, router, "/api/v1/analysis/comparison?from=2025-01-01&to=2025-06-30")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), stub.lastReq.From)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), stub.lastReq.To)
}

func TestGetComparisonBadDates(t *testing.T) {
	router := testRouter(&stubComparer{report: testReport()})

	rec, _ := doGet(t, router, "/api/v1/analysis/comparison?from=01-01-2025")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doGet(t, router, "/api/v1/analysis/comparison?from=2025-06-30&to=2025-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetComparisonNoData(t *testing.T) {
	router := testRouter(&stubComparer{err: analysis.ErrNoPriceData})

	rec, body := doGet(t, router, "/api/v1/analysis/comparison")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestGetMetrics(t *testing.T) {
	router := testRouter(&stubComparer{report: testReport()})

	rec, body := doGet(t, router, "/api/v1/analysis/metrics/great_reward")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "great_reward", data["portfolio"])

	metrics := data["metrics"].(map[string]interface{})
	assert.InDelta(t, 1.2, metrics["sharpe"].(float64), 1e-12)
}

func TestGetMetricsUnknownPortfolio(t *testing.T) {
	router := testRouter(&stubComparer{report: testReport()})

	rec, _ := doGet(t, router, "/api/v1/analysis/metrics/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStability(t *testing.T) {
	router := testRouter(&stubComparer{report: testReport()})

	rec, body := doGet(t, router, "/api/v1/analysis/stability")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["stable"])
}

func TestGetStabilityUnavailable(t *testing.T) {
	report := testReport()
	report.Stability = nil
	router := testRouter(&stubComparer{report: report})

	rec, _ := doGet(t, router, "/api/v1/analysis/stability")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetRollingMarshalsMissingAsNull(t *testing.T) {
	report := testReport()
	report.Portfolios[0].Sharpe = contracts.RollingWindowSeries{
		Window: 3,
		Points: []contracts.Point{
			{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Value: math.NaN()},
			{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Value: 1.1},
		},
	}
	router := testRouter(&stubComparer{report: report})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/rolling", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":null`)
}
