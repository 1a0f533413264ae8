package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sqldrill/sqldrill/internal/api"
	"github.com/sqldrill/sqldrill/internal/config"
	"github.com/sqldrill/sqldrill/internal/history"
	"github.com/sqldrill/sqldrill/internal/observability"
	"github.com/sqldrill/sqldrill/internal/query/sqldb"
	"github.com/sqldrill/sqldrill/internal/questions"
	"github.com/sqldrill/sqldrill/internal/schema"
	"github.com/sqldrill/sqldrill/internal/seed"
	"github.com/sqldrill/sqldrill/internal/session"
)

func main() {
	cfg, err := config.LoadFromEnv("sqldrill-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	questionList, err := questions.Load(cfg.Questions.File)
	if err != nil {
		logger.Error("failed to load questions", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("questions loaded", slog.Int("count", len(questionList)))

	ledger, err := history.Open(context.Background(), cfg.Ledger.Driver, cfg.Ledger.DSN)
	if err != nil {
		logger.Error("failed to open history ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = ledger.Close() }()

	engine := sqldb.NewEngine(cfg.Practice.Driver, cfg.Practice.DSN)
	browser := schema.NewBrowser(engine, cfg.Practice.Driver, cfg.UI.SchemaCacheTTL, cfg.UI.PreviewRows)
	reseeder := &seed.Runner{
		Driver: cfg.Practice.Driver,
		DSN:    cfg.Practice.DSN,
		Dir:    cfg.Seed.Dir,
		Files:  cfg.Seed.Files,
		Logger: logger,
	}

	deps := api.Dependencies{
		Logger:            logger,
		Questions:         questionList,
		Engine:            engine,
		Ledger:            ledger,
		Sessions:          session.NewManager(len(questionList)),
		Schema:            browser,
		Reseeder:          reseeder,
		Readiness:         api.CheckLedger(ledger.HealthCheck),
		DependencyTimeout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
