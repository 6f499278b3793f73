// analyzerd is the budget-analysis daemon: it accepts PDF submissions over
// HTTP, runs the extraction and analysis pipeline in the background, and
// serves results until they are deleted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tenders-cl/budget-analyzer/internal/analysis"
	"github.com/tenders-cl/budget-analyzer/internal/canonical"
	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/export"
	"github.com/tenders-cl/budget-analyzer/internal/extract"
	"github.com/tenders-cl/budget-analyzer/internal/jobs"
	"github.com/tenders-cl/budget-analyzer/internal/llm"
	"github.com/tenders-cl/budget-analyzer/internal/llm/anthropic"
	"github.com/tenders-cl/budget-analyzer/internal/pipeline"
	"github.com/tenders-cl/budget-analyzer/internal/reconcile"
	"github.com/tenders-cl/budget-analyzer/internal/server"
	"github.com/tenders-cl/budget-analyzer/internal/store"
	"github.com/tenders-cl/budget-analyzer/internal/tempfile"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("opening result store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = results.Close() }()

	temps, err := tempfile.NewManager(cfg.Server.TempDir, logger)
	if err != nil {
		logger.Error("preparing temp dir", "error", err)
		os.Exit(1)
	}

	registry := jobs.NewRegistry(logger)

	runner := extract.ExecRunner{}
	ocr := extract.NewOCRFallbackStrategy(
		&extract.ExecRasterizer{Binary: cfg.Extract.RasterBinary, DPI: cfg.Extract.OCRDPHint, Runner: runner},
		&extract.ExecRecognizer{Binary: cfg.Extract.OCRBinary, Runner: runner},
		cfg.Extract.OCRLanguage,
		logger,
	)
	extractor := extract.NewOrchestrator(
		[]extract.Strategy{
			extract.NewLayoutTableStrategy(logger),
			extract.NewFlowTableStrategy(logger),
			extract.NewTextPatternStrategy(logger),
		},
		ocr,
		cfg.Extract.Workers,
		cfg.Extract.StrategyTimeout,
		logger,
	)

	client := anthropic.NewClient(anthropic.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	analyzer := analysis.NewOrchestrator(llm.NewPhaseRunner(client, cfg.LLM.MaxAttempts, logger), logger)

	pipe := pipeline.New(
		extractor,
		canonical.NewCanonicalizer(logger),
		analyzer,
		reconcile.NewReconciler(logger),
		results,
		registry,
		temps,
		logger,
	)

	srv := server.New(registry, pipe, results, export.NewService(results, logger), temps, cfg.Server, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
}
