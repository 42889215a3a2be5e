package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	csvadapter "github.com/couchcryptid/restaurant-weather-etl/internal/adapter/csv"
	httpadapter "github.com/couchcryptid/restaurant-weather-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/restaurant-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/restaurant-weather-etl/internal/adapter/opencage"
	"github.com/couchcryptid/restaurant-weather-etl/internal/adapter/parquet"
	"github.com/couchcryptid/restaurant-weather-etl/internal/config"
	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
	"github.com/couchcryptid/restaurant-weather-etl/internal/observability"
	"github.com/couchcryptid/restaurant-weather-etl/internal/pipeline"
)

// previewRows is how many rows of each view are logged after a run.
const previewRows = 5

func main() {
	if err := run(); err != nil {
		slog.Error("enrichment run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client, err := opencage.NewClient(cfg.OpenCageAPIKey, cfg.OpenCageTimeout, cfg.OpenCageRateLimit, metrics, logger)
	if err != nil {
		return fmt.Errorf("create geocoder: %w", err)
	}
	var geocoder domain.Geocoder = client
	if cfg.GeocodeCacheSize > 0 {
		geocoder = opencage.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
	}
	logger.Info("opencage geocoding enabled",
		"timeout", cfg.OpenCageTimeout,
		"rate_limit", cfg.OpenCageRateLimit,
		"cache_size", cfg.GeocodeCacheSize,
		"workers", cfg.GeocodeWorkers,
	)

	sinks := []pipeline.Sink{parquet.NewEnrichedWriter(cfg.OutputPath, logger)}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	repair := domain.NewCoordinateRepair(domain.DefaultOverrides(), geocoder, logger, cfg.GeocodeWorkers)
	p, err := pipeline.New(
		csvadapter.NewRestaurantReader(cfg.RestaurantPath, logger),
		parquet.NewWeatherReader(cfg.WeatherPath, logger),
		repair,
		sinks,
		pipeline.Settings{Precision: cfg.GeohashPrecision, Partitions: cfg.Partitions},
		logger,
		metrics,
	)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	logViews(logger, res)
	logger.Info("run complete", "output", cfg.OutputPath)
	return nil
}

// logViews prints the head of each analytical view.
func logViews(logger *slog.Logger, res pipeline.Result) {
	for i, row := range res.MeanTemperatures[:min(previewRows, len(res.MeanTemperatures))] {
		logger.Info("mean temperature by restaurant",
			"rank", i+1,
			"id", row.ID,
			"franchise_name", row.FranchiseName,
			"city", row.City,
			"average_temperature_c", floatValue(row.AverageTemperatureC),
		)
	}
	for i, row := range res.Ranked[:min(previewRows, len(res.Ranked))] {
		logger.Info("warmest restaurants",
			"rank", i+1,
			"id", row.ID,
			"franchise_name", row.FranchiseName,
			"city", row.City,
			"geohash", stringValue(row.Geohash),
			"avg_temperature_c", floatValue(row.AvgTemperatureC),
		)
	}
}

func floatValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
