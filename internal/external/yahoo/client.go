package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/config"
	"github.com/wonny/folio/pkg/httputil"
	"github.com/wonny/folio/pkg/logger"
)

// ErrSymbolNotFound is returned when the chart API knows no such symbol
var ErrSymbolNotFound = errors.New("symbol not found")

// Client fetches daily price history from the Yahoo Finance chart API
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client.
// 재시도/페이싱 정책은 설정에서 가져와 HTTP 클라이언트에 고정함.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(cfg, log).
		WithRetry(cfg.MarketData.Retries, cfg.MarketData.RetryDelay).
		WithPacing(cfg.MarketData.RequestDelay)

	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.MarketData.BaseURL,
	}
}

// FetchPrices fetches daily closes for a symbol over [from, to].
// ⭐ SSOT: Yahoo chart API 호출은 이 함수에서만
//
// 수정 종가(adjclose)를 우선 사용하고 없으면 종가로 대체.
// null 종가는 결측 포인트로 보존됨 (0이나 직전 값으로 채우지 않음).
// 요청 구간 일부만 돌아와도 성공 — 부분 구간은 호출자의 품질
// 게이트가 판단함.
func (c *Client) FetchPrices(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error) {
	fullURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplit",
		c.baseURL, symbol, from.Unix(), to.Unix(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("create request failed: %w", err)
	}
	// UA 없으면 차단됨
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("read response body failed: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return contracts.PriceSeries{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return contracts.PriceSeries{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	series, err := parseChart(symbol, body)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("parse response failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  series.Len(),
	}).Debug("Fetched prices")
	return series, nil
}

// =============================================================================
// Chart API response parsing
// =============================================================================

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		Adjclose []struct {
			Adjclose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// parseChart converts a chart API payload into a PriceSeries
func parseChart(symbol string, body []byte) (contracts.PriceSeries, error) {
	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("decode JSON: %w", err)
	}

	if payload.Chart.Error != nil {
		if payload.Chart.Error.Code == "Not Found" {
			return contracts.PriceSeries{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return contracts.PriceSeries{}, fmt.Errorf("chart API error: %s (%s)",
			payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return contracts.PriceSeries{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	result := payload.Chart.Result[0]

	// adjclose 우선, 없으면 close
	var closes []*float64
	if len(result.Indicators.Adjclose) > 0 && len(result.Indicators.Adjclose[0].Adjclose) > 0 {
		closes = result.Indicators.Adjclose[0].Adjclose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	series := contracts.PriceSeries{Symbol: symbol}
	for i, ts := range result.Timestamp {
		value := math.NaN()
		if i < len(closes) && closes[i] != nil {
			value = *closes[i]
		}
		date := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		series.Points = append(series.Points, contracts.Point{Date: date, Value: value})
	}

	return series, nil
}
