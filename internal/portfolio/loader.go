package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/pkg/logger"
)

// Loader reads portfolio definition CSV files.
// 헤더 이름으로 컬럼을 바인딩함 — 컬럼 순서에 의존하지 않음.
// 필수: symbol, weight. 선택: industry.
type Loader struct {
	logger *logger.Logger
}

// ErrMissingHeader is returned when a required column is absent
var ErrMissingHeader = errors.New("missing required header")

// NewLoader creates a new portfolio definition loader
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{logger: log}
}

// LoadFile reads a named portfolio definition from a CSV file
func (l *Loader) LoadFile(path, name string) (contracts.PortfolioDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return contracts.PortfolioDefinition{}, fmt.Errorf("open portfolio file: %w", err)
	}
	defer f.Close()

	def, err := l.Load(f, name)
	if err != nil {
		return contracts.PortfolioDefinition{}, fmt.Errorf("load %s: %w", path, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"portfolio": name,
		"path":      path,
		"symbols":   len(def.Weights),
	}).Info("Loaded portfolio definition")
	return def, nil
}

// Load parses a portfolio definition from CSV data
// ⭐ SSOT: 정의 파일 파싱과 검증은 여기서만
func (l *Loader) Load(r io.Reader, name string) (contracts.PortfolioDefinition, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return contracts.PortfolioDefinition{}, fmt.Errorf("read header: %w", err)
	}

	// 헤더 이름 → 컬럼 인덱스 (대소문자 무시)
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	symbolCol, ok := columns["symbol"]
	if !ok {
		return contracts.PortfolioDefinition{}, fmt.Errorf("%w: symbol", ErrMissingHeader)
	}
	weightCol, ok := columns["weight"]
	if !ok {
		return contracts.PortfolioDefinition{}, fmt.Errorf("%w: weight", ErrMissingHeader)
	}
	industryCol, hasIndustry := columns["industry"]

	def := contracts.PortfolioDefinition{
		Name:    name,
		Weights: make(contracts.WeightMap),
	}
	if hasIndustry {
		def.Industries = make(map[string]string)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return contracts.PortfolioDefinition{}, fmt.Errorf("read line %d: %w", line, err)
		}

		symbol := strings.TrimSpace(record[symbolCol])
		if symbol == "" {
			return contracts.PortfolioDefinition{}, fmt.Errorf("line %d: empty symbol", line)
		}
		if _, exists := def.Weights[symbol]; exists {
			return contracts.PortfolioDefinition{}, fmt.Errorf("line %d: duplicate symbol %s", line, symbol)
		}

		weight, err := strconv.ParseFloat(strings.TrimSpace(record[weightCol]), 64)
		if err != nil {
			return contracts.PortfolioDefinition{}, fmt.Errorf("line %d: invalid weight %q", line, record[weightCol])
		}
		if weight <= 0 {
			return contracts.PortfolioDefinition{}, fmt.Errorf("line %d: non-positive weight %g for %s", line, weight, symbol)
		}
		def.Weights[symbol] = weight

		if hasIndustry && industryCol < len(record) {
			if industry := strings.TrimSpace(record[industryCol]); industry != "" {
				def.Industries[symbol] = industry
			}
		}
	}

	if len(def.Weights) == 0 {
		return contracts.PortfolioDefinition{}, errors.New("portfolio has no holdings")
	}
	return def, nil
}
