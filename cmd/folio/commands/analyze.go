package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/analysis"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "포트폴리오 비교 분석 실행",
	Long: `두 포트폴리오를 벤치마크 대비 분석하고 결과를 출력합니다.

이 명령어는:
- 가격 데이터 수집 (캐시 우선)
- 품질 게이트 통과 시리즈로 수익률 계산
- 지표/드로다운/롤링/꼬리위험 분석
- 전략 점수 순위와 안정성 진단 출력

Example:
  go run ./cmd/folio analyze
  go run ./cmd/folio analyze --from 2024-10-01 --to 2025-08-26
  go run ./cmd/folio analyze --json > report.json`,
	RunE: runAnalyze,
}

var (
	analyzeFrom string
	analyzeTo   string
	analyzeJSON bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "분석 시작일 (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "분석 종료일 (YYYY-MM-DD)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON으로 출력")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	fetcher, closeFetcher := buildFetcher(cfg, log)
	defer closeFetcher()

	defs, err := loadPortfolios(cfg, log)
	if err != nil {
		return fmt.Errorf("load portfolios: %w", err)
	}

	req := analysis.Request{
		From:   cfg.Analysis.DefaultStartDate,
		To:     cfg.Analysis.DefaultEndDate,
		Cutoff: cfg.Analysis.KnowledgeCutoff,
	}
	if analyzeFrom != "" {
		if req.From, err = time.Parse("2006-01-02", analyzeFrom); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}
	if analyzeTo != "" {
		if req.To, err = time.Parse("2006-01-02", analyzeTo); err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
	}

	service := analysis.NewService(fetcher, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := service.Compare(ctx, defs, req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}

// printReport renders the comparison as a text summary
func printReport(report analysis.ComparisonReport) {
	fmt.Printf("=== Portfolio Comparison %s ~ %s (benchmark %s) ===\n\n",
		report.From.Format("2006-01-02"), report.To.Format("2006-01-02"), report.Benchmark)

	fmt.Printf("Data quality: %d passed, %d rejected\n\n", report.Quality.Passed, report.Quality.Rejected)

	for _, pr := range report.Portfolios {
		m := pr.Metrics
		fmt.Printf("[%s]\n", pr.Name)
		fmt.Printf("  total return      %8.2f%%\n", m.TotalReturn*100)
		fmt.Printf("  annual return     %8.2f%%\n", m.AnnualReturn*100)
		fmt.Printf("  annual volatility %8.2f%%\n", m.AnnualVolatility*100)
		fmt.Printf("  sharpe            %8.2f\n", m.Sharpe)
		fmt.Printf("  sortino           %8.2f\n", m.Sortino)
		fmt.Printf("  max drawdown      %8.2f%%\n", m.MaxDrawdown*100)
		fmt.Printf("  win rate          %8.2f%%\n", m.WinRate*100)
		fmt.Printf("  VaR 95%%           %8.2f%%\n", m.VaR95*100)
		fmt.Printf("  drawdown episodes %8d\n", len(pr.Drawdown.Episodes))
		if pr.Correction.Renormalized {
			fmt.Printf("  ⚠ weights corrected (original sum %.4f, dropped %v)\n",
				pr.Correction.OriginalSum, pr.Correction.Dropped)
		}
		fmt.Println()
	}

	if report.BenchmarkMetrics != nil {
		fmt.Printf("[benchmark %s] annual return %.2f%%, sharpe %.2f, MDD %.2f%%\n\n",
			report.Benchmark,
			report.BenchmarkMetrics.AnnualReturn*100,
			report.BenchmarkMetrics.Sharpe,
			report.BenchmarkMetrics.MaxDrawdown*100)
	}

	fmt.Println("Ranking:")
	for i, s := range report.Ranking {
		fmt.Printf("  %d. %-14s score %.4f\n", i+1, s.Name, s.Score)
	}

	if report.Stability != nil {
		fmt.Println("\nStability diagnostics:")
		for _, p := range report.Stability.Portfolios {
			fmt.Printf("  %-14s stability %.2f flags %v\n", p.Name, p.Stability, p.Flags)
		}
		if len(report.Stability.Flags) > 0 {
			fmt.Printf("  pair-level flags: %v\n", report.Stability.Flags)
		}
		if report.Stability.Stable {
			fmt.Println("  ✅ stable")
		}
	}
}
