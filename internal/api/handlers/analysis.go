package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/folio/internal/analysis"
	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/logger"
)

// Comparer runs the comparison pipeline (대시보드 API의 유일한 진입점)
type Comparer interface {
	Compare(ctx context.Context, defs []contracts.PortfolioDefinition, req analysis.Request) (analysis.ComparisonReport, error)
}

// AnalysisHandler serves the dashboard-facing analytics endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	service Comparer
	defs    []contracts.PortfolioDefinition
	config  *config.Config
	logger  *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service Comparer, defs []contracts.PortfolioDefinition, cfg *config.Config, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		defs:    defs,
		config:  cfg,
		logger:  log,
	}
}

// GetPortfolios returns the loaded portfolio definitions
// GET /api/v1/portfolios
func (h *AnalysisHandler) GetPortfolios(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":      len(h.defs),
			"portfolios": h.defs,
			"benchmark":  h.config.Portfolio.Benchmark,
		},
	})
}

// GetComparison runs the full comparison and returns the report
// GET /api/v1/analysis/comparison?from=2024-10-01&to=2025-08-26
func (h *AnalysisHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runComparison(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

// GetMetrics returns the metrics bundle for one portfolio
// GET /api/v1/analysis/metrics/{portfolio}
func (h *AnalysisHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runComparison(w, r)
	if !ok {
		return
	}

	pr, ok := h.findPortfolio(w, r, report)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"portfolio":         pr.Name,
			"metrics":           pr.Metrics,
			"weight_correction": pr.Correction,
		},
	})
}

// GetDrawdowns returns the drawdown curve and closed episodes
// GET /api/v1/analysis/drawdowns/{portfolio}
func (h *AnalysisHandler) GetDrawdowns(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runComparison(w, r)
	if !ok {
		return
	}

	pr, ok := h.findPortfolio(w, r, report)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"portfolio": pr.Name,
			"drawdown":  pr.Drawdown,
		},
	})
}

// GetTailRisk returns the VaR/ES ladder and extreme-event count
// GET /api/v1/analysis/tailrisk/{portfolio}
func (h *AnalysisHandler) GetTailRisk(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runComparison(w, r)
	if !ok {
		return
	}

	pr, ok := h.findPortfolio(w, r, report)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"portfolio": pr.Name,
			"tail_risk": pr.TailRisk,
		},
	})
}

// GetRolling returns rolling series for every portfolio.
// 결측 구간(선행 window-1 포인트)은 JSON null 로 직렬화됨.
// GET /api/v1/analysis/rolling
func (h *AnalysisHandler) GetRolling(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runComparison(w, r)
	if !ok {
		return
	}

	rolling := make(map[string]interface{}, len(report.Portfolios))
	for _, pr := range report.Portfolios {
		rolling[pr.Name] = map[string]interface{}{
			"sharpe":      pr.Sharpe,
			"volatility":  pr.Volatility,
			"beta":        pr.Beta,
			"correlation": pr.Correlation,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rolling,
	})
}

// GetStability returns the historical-vs-forward diagnostics
// GET /api/v1/analysis/stability
func (h *AnalysisHandler) GetStability(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runComparison(w, r)
	if !ok {
		return
	}

	if report.Stability == nil {
		respondError(w, http.StatusUnprocessableEntity, "stability diagnostics require exactly two portfolios")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report.Stability,
	})
}

// runComparison parses the window parameters and runs the pipeline.
// 실패시 에러 응답까지 처리하고 ok=false 반환.
func (h *AnalysisHandler) runComparison(w http.ResponseWriter, r *http.Request) (analysis.ComparisonReport, bool) {
	req, err := h.parseRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return analysis.ComparisonReport{}, false
	}

	report, err := h.service.Compare(r.Context(), h.defs, req)
	if err != nil {
		if errors.Is(err, analysis.ErrNoPriceData) {
			respondError(w, http.StatusServiceUnavailable, "no usable price data for the requested window")
			return analysis.ComparisonReport{}, false
		}
		h.logger.WithError(err).Error("Comparison failed")
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return analysis.ComparisonReport{}, false
	}

	return report, true
}

// parseRequest reads from/to/cutoff query params, falling back to config
func (h *AnalysisHandler) parseRequest(r *http.Request) (analysis.Request, error) {
	req := analysis.Request{
		From:   h.config.Analysis.DefaultStartDate,
		To:     h.config.Analysis.DefaultEndDate,
		Cutoff: h.config.Analysis.KnowledgeCutoff,
	}

	for param, dest := range map[string]*time.Time{
		"from":   &req.From,
		"to":     &req.To,
		"cutoff": &req.Cutoff,
	} {
		if v := r.URL.Query().Get(param); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return analysis.Request{}, errors.New("invalid " + param + " date, want YYYY-MM-DD")
			}
			*dest = t
		}
	}

	if !req.To.After(req.From) {
		return analysis.Request{}, errors.New("to must be after from")
	}
	return req, nil
}

// findPortfolio locates one portfolio report by path variable
func (h *AnalysisHandler) findPortfolio(w http.ResponseWriter, r *http.Request, report analysis.ComparisonReport) (analysis.PortfolioReport, bool) {
	name := mux.Vars(r)["portfolio"]
	for _, pr := range report.Portfolios {
		if pr.Name == name {
			return pr, true
		}
	}
	respondError(w, http.StatusNotFound, "unknown portfolio: "+name)
	return analysis.PortfolioReport{}, false
}
