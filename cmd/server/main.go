package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/rmaldonado/stocksync/internal/config"
	"github.com/rmaldonado/stocksync/internal/recon"
	"github.com/rmaldonado/stocksync/internal/repository/extract"
	"github.com/rmaldonado/stocksync/internal/repository/mongodb"
	"github.com/rmaldonado/stocksync/internal/scheduler"
	"github.com/rmaldonado/stocksync/internal/server/handlers"
	"github.com/rmaldonado/stocksync/internal/server/router"
	"github.com/rmaldonado/stocksync/pkg/clients/odoo"
	"github.com/rmaldonado/stocksync/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	erpClient := odoo.NewClient(cfg.Odoo)
	if err := erpClient.Authenticate(context.Background()); err != nil {
		baseLogger.Fatal("failed to authenticate against odoo", zap.Error(err))
	}

	sheetReader, err := extract.NewGoogleSheetReader(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets reader", zap.Error(err))
	}
	extractReader := extract.NewReader(sheetReader, cfg.Sheets.CurrentStockSheet, cfg.Sheets.CategoryStockSheet, baseLogger.Named("repo.extract"))

	var history mongodb.Repository
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		history = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, run history disabled")
	}

	newRunner := func(priceTolerance, stockTolerance float64) *recon.Runner {
		comparator := recon.NewComparator(priceTolerance, stockTolerance)
		executor := recon.NewExecutor(erpClient, baseLogger.Named("recon.executor"))
		return recon.NewRunner(erpClient, extractReader, comparator, executor, baseLogger.Named("recon.runner"))
	}

	odooHandler := handlers.NewOdooHandler(erpClient, baseLogger.Named("handlers.odoo"))
	extractHandler := handlers.NewExtractHandler(extractReader, baseLogger.Named("handlers.extract"))
	reconcileHandler := handlers.NewReconcileHandler(newRunner, history, cfg.Recon.PriceTolerance, cfg.Recon.StockTolerance, baseLogger.Named("handlers.reconcile"))
	engine := router.New(odooHandler, extractHandler, reconcileHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Recon, newRunner(cfg.Recon.PriceTolerance, cfg.Recon.StockTolerance), history, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	// The write timeout stays generous because a reconciliation pass over a
	// large batch holds its request open until the summary is ready.
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
