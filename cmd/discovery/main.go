// Command discovery runs the shop discovery service: the nearby-shop API
// over the Postgres mirror, with an optional catalog feed ingest loop.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/motoatlas/shop-discovery-service/internal/adapter/http"
	kafkaadapter "github.com/motoatlas/shop-discovery-service/internal/adapter/kafka"
	"github.com/motoatlas/shop-discovery-service/internal/adapter/postgres"
	"github.com/motoatlas/shop-discovery-service/internal/adapter/storecache"
	"github.com/motoatlas/shop-discovery-service/internal/config"
	"github.com/motoatlas/shop-discovery-service/internal/domain"
	"github.com/motoatlas/shop-discovery-service/internal/ingest"
	"github.com/motoatlas/shop-discovery-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL, logger, metrics)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	cached := storecache.New(store, cfg.OfferingCacheSize, metrics)
	engine := domain.NewEngine(cached, logger)

	// Start the catalog feed ingest (feature-flagged via INGEST_ENABLED).
	// When enabled, the service is not ready until the first batch has landed.
	ready := httpadapter.MultiChecker{store}
	var reader *kafkaadapter.Reader
	if cfg.IngestEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		applier := ingest.NewStoreApplier(store, cached)
		p := ingest.New(reader, applier, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("catalog ingest error", "error", err)
			}
		}()
		logger.Info("catalog ingest enabled", "topic", cfg.KafkaCatalogTopic, "batch_size", cfg.BatchSize)
	} else {
		logger.Info("catalog ingest disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, ready, logger, metrics)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("feed reader close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
