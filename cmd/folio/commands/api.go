package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/folio/internal/analysis"
	"github.com/wonny/folio/internal/api"
	"github.com/wonny/folio/internal/api/handlers"
	"github.com/wonny/folio/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `대시보드용 REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 비교 분석 엔드포인트 제공
- 매일 가격 캐시 갱신 스케줄러 구동

Endpoints:
  GET /health
  GET /api/v1/portfolios
  GET /api/v1/analysis/comparison
  GET /api/v1/analysis/metrics/{portfolio}
  GET /api/v1/analysis/drawdowns/{portfolio}
  GET /api/v1/analysis/tailrisk/{portfolio}
  GET /api/v1/analysis/rolling
  GET /api/v1/analysis/stability

Example:
  go run ./cmd/folio api
  go run ./cmd/folio api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: 설정값)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// Wire the pipeline
	fetcher, closeFetcher := buildFetcher(cfg, log)
	defer closeFetcher()

	defs, err := loadPortfolios(cfg, log)
	if err != nil {
		return fmt.Errorf("load portfolios: %w", err)
	}

	service := analysis.NewService(fetcher, cfg, log)
	handler := handlers.NewAnalysisHandler(service, defs, cfg, log)
	router := api.NewRouter(handler, log)
	server := api.New(cfg, log, router)

	// Daily price cache refresh
	sched := scheduler.New(log)
	if err := sched.AddJob(scheduler.NewRefreshPricesJob(fetcher, defs, cfg, log)); err != nil {
		return fmt.Errorf("schedule refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
