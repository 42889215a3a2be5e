package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

// audit reports rows missing a coordinate before any repair.
func (p *Pipeline) audit(restaurants []domain.RestaurantRecord, weather []domain.WeatherRecord, summary *Summary) {
	summary.MissingRestaurantCoords = domain.CountMissingRestaurantCoordinates(restaurants)
	summary.MissingWeatherCoords = domain.CountMissingWeatherCoordinates(weather)
	p.metrics.MissingCoords.WithLabelValues("restaurant").Add(float64(summary.MissingRestaurantCoords))
	p.metrics.MissingCoords.WithLabelValues("weather").Add(float64(summary.MissingWeatherCoords))

	if summary.MissingRestaurantCoords == 0 && summary.MissingWeatherCoords == 0 {
		return
	}
	p.logger.Warn("rows missing coordinates",
		"restaurants", summary.MissingRestaurantCoords,
		"weather", summary.MissingWeatherCoords,
	)
	for _, r := range restaurants {
		if !r.HasCoordinates() {
			p.logger.Debug("restaurant missing coordinates", "id", r.ID, "city", r.City, "country", r.Country)
		}
	}
}

func (p *Pipeline) recordRepair(r domain.RepairReport) {
	outcomes := map[string]int{
		"override":   r.Overridden,
		"present":    r.Present,
		"resolved":   r.Resolved,
		"unresolved": r.Unresolved,
		"failed":     r.Failed,
		"skipped":    r.Skipped,
	}
	for outcome, n := range outcomes {
		p.metrics.RepairOutcomes.WithLabelValues(outcome).Add(float64(n))
	}
	p.logger.Info("coordinates repaired",
		"overridden", r.Overridden,
		"present", r.Present,
		"resolved", r.Resolved,
		"unresolved", r.Unresolved,
		"failed", r.Failed,
		"skipped", r.Skipped,
		"lookups", r.Lookups,
	)
}

// encode derives geohash keys for both datasets, one goroutine per partition.
func (p *Pipeline) encode(ctx context.Context, restaurants []domain.RestaurantRecord, weather []domain.WeatherRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range domain.Partition(len(restaurants), p.partitions) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.encoder.EncodeRestaurants(restaurants[r.Start:r.End])
			return nil
		})
	}
	for _, r := range domain.Partition(len(weather), p.partitions) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.encoder.EncodeWeather(weather[r.Start:r.End])
			return nil
		})
	}
	return g.Wait()
}
