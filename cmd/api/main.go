// PriceWise API server. Wires the catalog sources, search coordinator,
// cart optimizer and HTTP layer together and serves until interrupted.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/paisapro/pricewise/internal/api/handlers"
	"github.com/paisapro/pricewise/internal/api/router"
	"github.com/paisapro/pricewise/internal/config"
	"github.com/paisapro/pricewise/internal/currency"
	"github.com/paisapro/pricewise/internal/ledger"
	"github.com/paisapro/pricewise/internal/optimizer"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/validator"
	"github.com/paisapro/pricewise/internal/repository/sqlite"
	"github.com/paisapro/pricewise/internal/search"
	"github.com/paisapro/pricewise/internal/sources"
	"github.com/paisapro/pricewise/internal/worker"
)

// @title PriceWise API
// @version 1.0
// @description Multi-source grocery price search and shopping cart optimization
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	validator.Init()

	db, err := sqlite.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := sqlite.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Info("database migrations applied")

	conv, err := currency.New(cfg.Currency.Local, cfg.Currency.Reference, cfg.Currency.Rate)
	if err != nil {
		log.Fatalf("failed to build currency converter: %v", err)
	}

	registry, err := sources.Build(cfg.Sources, conv, log)
	if err != nil {
		log.Fatalf("failed to build source registry: %v", err)
	}
	log.WithFields(map[string]interface{}{
		"sources": registry.Names(),
	}).Info("catalog sources configured")

	coordinator := search.NewCoordinator(registry, conv, cfg.Search.Deadline, cfg.Sources.MaxResults, log)

	recorder := ledger.New(cfg.Ledger, log)

	carts := sqlite.NewCartRepository(db)
	snapshots := sqlite.NewSnapshotRepository(db)
	history := sqlite.NewHistoryRepository(db)

	svc := optimizer.NewService(
		carts,
		snapshots,
		history,
		coordinator,
		recorder,
		registry.Names(),
		cfg.Currency.Local,
		cfg.Currency.Reference,
		optimizer.Config{
			RecommendationsPerItem: cfg.Optimizer.RecommendationsPerItem,
			ItemConcurrency:        cfg.Optimizer.ItemConcurrency,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Refresh.Enabled {
		refresher := worker.NewSnapshotRefresher(svc, snapshots, cfg.Refresh.Schedule, cfg.Refresh.StaleThreshold, log)
		if err := refresher.Start(ctx); err != nil {
			log.Fatalf("failed to start snapshot refresher: %v", err)
		}
		defer refresher.Stop()
		log.WithFields(map[string]interface{}{
			"schedule":        cfg.Refresh.Schedule,
			"stale_threshold": cfg.Refresh.StaleThreshold.String(),
		}).Info("snapshot refresher started")
	}

	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(db, log),
		Search:  handlers.NewSearchHandler(coordinator, registry, cfg.Search, log),
		Cart:    handlers.NewCartHandler(svc, log, validator.New()),
		History: handlers.NewHistoryHandler(history, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr(err, "graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server stopped")
}
