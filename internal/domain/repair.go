package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultOverrides lists restaurants whose stored coordinates are known to be
// wrong or missing, with their corrected position.
func DefaultOverrides() map[string]Coordinates {
	return map[string]Coordinates{
		"85899345920": {Lat: 34.4014089, Lng: -79.3864339},
	}
}

// RepairReport counts what CoordinateRepair did to each record.
type RepairReport struct {
	Overridden int // replaced from the override table
	Present    int // already had both coordinates
	Resolved   int // filled from the geocoder
	Unresolved int // geocoder had no match
	Failed     int // geocoder lookup failed
	Skipped    int // missing coordinates and no geocoder configured
	Lookups    int // distinct (city, country) pairs sent to the geocoder
}

type locationKey struct {
	city    string
	country string
}

// CoordinateRepair corrects restaurant coordinates before spatial keys are
// derived. Overrides always win; the geocoder is only consulted for records
// without an override that are missing a coordinate.
type CoordinateRepair struct {
	overrides map[string]Coordinates
	geocoder  Geocoder
	logger    *slog.Logger
	workers   int
}

// NewCoordinateRepair creates a CoordinateRepair. A nil geocoder disables the
// resolver fallback. workers bounds concurrent lookups.
func NewCoordinateRepair(overrides map[string]Coordinates, geocoder Geocoder, logger *slog.Logger, workers int) *CoordinateRepair {
	if workers < 1 {
		workers = 1
	}
	return &CoordinateRepair{
		overrides: overrides,
		geocoder:  geocoder,
		logger:    logger,
		workers:   workers,
	}
}

// Repair updates the coordinates of records in place. It returns an error
// only when the run must stop, e.g. ErrMissingCredential.
func (c *CoordinateRepair) Repair(ctx context.Context, records []RestaurantRecord) (RepairReport, error) {
	var report RepairReport
	pending := make(map[locationKey][]int)

	for i := range records {
		if o, ok := c.overrides[records[i].ID]; ok {
			records[i].Lat = float64Ptr(o.Lat)
			records[i].Lng = float64Ptr(o.Lng)
			report.Overridden++
			continue
		}
		if records[i].HasCoordinates() {
			report.Present++
			continue
		}
		key := locationKey{city: records[i].City, country: records[i].Country}
		pending[key] = append(pending[key], i)
	}

	if len(pending) == 0 {
		return report, nil
	}

	if c.geocoder == nil {
		for _, idx := range pending {
			report.Skipped += len(idx)
		}
		c.logger.Warn("geocoder disabled, records keep missing coordinates", "records", report.Skipped)
		return report, nil
	}

	resolutions, err := c.resolveAll(ctx, sortedKeys(pending))
	if err != nil {
		return report, err
	}
	report.Lookups = len(resolutions)

	for key, idx := range pending {
		res := resolutions[key]
		switch res.Status {
		case ResolutionResolved:
			for _, i := range idx {
				records[i].Lat = float64Ptr(res.Coordinates.Lat)
				records[i].Lng = float64Ptr(res.Coordinates.Lng)
			}
			report.Resolved += len(idx)
		case ResolutionFailed:
			report.Failed += len(idx)
		default:
			report.Unresolved += len(idx)
		}
	}

	return report, nil
}

// resolveAll issues one lookup per key, at most c.workers at a time.
func (c *CoordinateRepair) resolveAll(ctx context.Context, keys []locationKey) (map[locationKey]Resolution, error) {
	var mu sync.Mutex
	out := make(map[locationKey]Resolution, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, key := range keys {
		g.Go(func() error {
			res := c.resolve(gctx, key)
			if res.err != nil {
				return res.err
			}
			mu.Lock()
			out[key] = res.Resolution
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve coordinates: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve coordinates: %w", err)
	}
	return out, nil
}

type keyResolution struct {
	Resolution
	err error // fatal only
}

func (c *CoordinateRepair) resolve(ctx context.Context, key locationKey) keyResolution {
	if key.city == "" && key.country == "" {
		return keyResolution{Resolution: Resolution{Status: ResolutionUnresolved}}
	}

	res, err := c.geocoder.Resolve(ctx, key.city, key.country)
	if errors.Is(err, ErrMissingCredential) {
		return keyResolution{err: err}
	}
	if err != nil {
		c.logger.Warn("geocoding failed",
			"city", key.city,
			"country", key.country,
			"error", err,
		)
		return keyResolution{Resolution: Resolution{Status: ResolutionFailed}}
	}
	if !res.Resolved() {
		c.logger.Info("geocoding found no match", "city", key.city, "country", key.country)
		return keyResolution{Resolution: Resolution{Status: ResolutionUnresolved}}
	}
	return keyResolution{Resolution: res}
}

func sortedKeys(m map[locationKey][]int) []locationKey {
	keys := make([]locationKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].country != keys[j].country {
			return keys[i].country < keys[j].country
		}
		return keys[i].city < keys[j].city
	})
	return keys
}
