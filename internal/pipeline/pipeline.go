package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
	"github.com/couchcryptid/restaurant-weather-etl/internal/observability"
)

// RestaurantSource loads the restaurant dataset.
type RestaurantSource interface {
	ReadRestaurants(ctx context.Context) ([]domain.RestaurantRecord, error)
}

// WeatherSource loads the weather observation dataset.
type WeatherSource interface {
	ReadWeather(ctx context.Context) ([]domain.WeatherRecord, error)
}

// Sink persists the enriched dataset. Name labels the sink in metrics and logs.
type Sink interface {
	Name() string
	Write(ctx context.Context, rows []domain.EnrichedRecord) error
}

// Settings are the tunables of a run.
type Settings struct {
	Precision  int // geohash length
	Partitions int // parallelism for encoding and aggregation
}

// Result is everything a completed run produced.
type Result struct {
	Enriched         []domain.EnrichedRecord
	Aggregated       []domain.AggregatedWeather
	MeanTemperatures []domain.RestaurantTemperature
	Ranked           []domain.EnrichedRecord
	Summary          Summary
}

// Summary describes one run. It is kept after the run for the status endpoint.
type Summary struct {
	StartedAt               time.Time           `json:"started_at"`
	FinishedAt              time.Time           `json:"finished_at"`
	RestaurantRows          int                 `json:"restaurant_rows"`
	WeatherRows             int                 `json:"weather_rows"`
	MissingRestaurantCoords int                 `json:"missing_restaurant_coords"`
	MissingWeatherCoords    int                 `json:"missing_weather_coords"`
	Repair                  domain.RepairReport `json:"repair"`
	WeatherGroups           int                 `json:"weather_groups"`
	EnrichedRows            int                 `json:"enriched_rows"`
	Matched                 int                 `json:"matched"`
	Duplicates              int                 `json:"duplicates"`
	Error                   string              `json:"error,omitempty"`
}

// Pipeline runs the restaurant weather enrichment as a single batch.
type Pipeline struct {
	restaurants RestaurantSource
	weather     WeatherSource
	repair      *domain.CoordinateRepair
	encoder     domain.SpatialKeyEncoder
	sinks       []Sink
	partitions  int
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	last        atomic.Pointer[Summary]
}

// New creates a Pipeline. It fails when the settings are out of range.
func New(restaurants RestaurantSource, weather WeatherSource, repair *domain.CoordinateRepair, sinks []Sink, settings Settings, logger *slog.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	encoder, err := domain.NewSpatialKeyEncoder(settings.Precision)
	if err != nil {
		return nil, err
	}
	partitions := settings.Partitions
	if partitions < 1 {
		partitions = 1
	}
	return &Pipeline{
		restaurants: restaurants,
		weather:     weather,
		repair:      repair,
		encoder:     encoder,
		sinks:       sinks,
		partitions:  partitions,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("enrichment run has not completed yet")
	}
	return nil
}

// LastRun returns the summary of the most recent run, if any.
func (p *Pipeline) LastRun() (Summary, bool) {
	s := p.last.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

// Run executes one enrichment run: load, repair, key, aggregate, join,
// deduplicate, write and build the analytical views.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	p.logger.Info("pipeline started", "precision", p.encoder.Precision(), "partitions", p.partitions)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := time.Now()
	summary := Summary{StartedAt: domain.Now()}

	res, err := p.run(ctx, &summary)
	summary.FinishedAt = domain.Now()
	if err != nil {
		summary.Error = err.Error()
		p.last.Store(&summary)
		return Result{}, err
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	res.Summary = summary
	p.last.Store(&summary)
	p.ready.Store(true)

	p.logger.Info("pipeline finished",
		"enriched_rows", summary.EnrichedRows,
		"matched", summary.Matched,
		"duplicates", summary.Duplicates,
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, summary *Summary) (Result, error) {
	restaurants, weather, err := p.load(ctx)
	if err != nil {
		return Result{}, err
	}
	summary.RestaurantRows = len(restaurants)
	summary.WeatherRows = len(weather)

	p.audit(restaurants, weather, summary)

	report, err := p.repair.Repair(ctx, restaurants)
	if err != nil {
		return Result{}, fmt.Errorf("repair coordinates: %w", err)
	}
	summary.Repair = report
	p.recordRepair(report)

	if err := p.encode(ctx, restaurants, weather); err != nil {
		return Result{}, fmt.Errorf("derive geohash: %w", err)
	}

	aggregated, err := domain.AggregateWeatherPartitioned(ctx, weather, p.partitions)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate weather: %w", err)
	}
	summary.WeatherGroups = len(aggregated)
	p.metrics.WeatherGroups.Set(float64(len(aggregated)))

	joined := domain.JoinWeather(restaurants, aggregated)
	enriched := domain.Deduplicate(joined)
	summary.Duplicates = len(joined) - len(enriched)
	summary.EnrichedRows = len(enriched)
	for _, e := range enriched {
		if e.Matched() {
			summary.Matched++
		}
	}
	p.metrics.DuplicatesFound.Add(float64(summary.Duplicates))
	p.metrics.JoinedRows.WithLabelValues("matched").Add(float64(summary.Matched))
	p.metrics.JoinedRows.WithLabelValues("unmatched").Add(float64(len(enriched) - summary.Matched))
	p.logger.Info("weather joined",
		"weather_groups", len(aggregated),
		"rows", len(enriched),
		"matched", summary.Matched,
		"duplicates", summary.Duplicates,
	)

	for _, s := range p.sinks {
		if err := s.Write(ctx, enriched); err != nil {
			return Result{}, fmt.Errorf("write %s sink: %w", s.Name(), err)
		}
		p.metrics.RowsWritten.WithLabelValues(s.Name()).Add(float64(len(enriched)))
	}

	return Result{
		Enriched:         enriched,
		Aggregated:       aggregated,
		MeanTemperatures: domain.MeanTemperatureByRestaurant(enriched),
		Ranked:           domain.RankByTemperature(enriched),
	}, nil
}

// load reads both datasets concurrently.
func (p *Pipeline) load(ctx context.Context) ([]domain.RestaurantRecord, []domain.WeatherRecord, error) {
	var (
		restaurants []domain.RestaurantRecord
		weather     []domain.WeatherRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		restaurants, err = p.restaurants.ReadRestaurants(gctx)
		if err != nil {
			return fmt.Errorf("read restaurants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		weather, err = p.weather.ReadWeather(gctx)
		if err != nil {
			return fmt.Errorf("read weather: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	p.metrics.RowsRead.WithLabelValues("restaurant").Add(float64(len(restaurants)))
	p.metrics.RowsRead.WithLabelValues("weather").Add(float64(len(weather)))
	p.logger.Info("datasets loaded", "restaurants", len(restaurants), "weather", len(weather))
	return restaurants, weather, nil
}
