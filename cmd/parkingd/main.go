package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/parking-finder/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/parking-finder/internal/adapter/kafka"
	"github.com/couchcryptid/parking-finder/internal/adapter/mapbox"
	"github.com/couchcryptid/parking-finder/internal/adapter/taipeiparking"
	"github.com/couchcryptid/parking-finder/internal/config"
	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	upstream := taipeiparking.NewClient(cfg.UpstreamURL, cfg.UpstreamTimeout, logger, metrics)

	// Place search is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var places domain.Places
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		places = mapbox.NewCachedPlaces(client, cfg.MapboxCacheSize, metrics)
		metrics.PlacesEnabled.Set(1)
		logger.Info("mapbox place search enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox place search disabled")
	}

	var (
		events domain.EventPublisher
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		events = writer
		logger.Info("kafka lookup events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Parking:       upstream,
		Places:        places,
		Events:        events,
		Ready:         upstream,
		Region:        cfg.Area.Region,
		DefaultCenter: cfg.Area.DefaultCenter,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
