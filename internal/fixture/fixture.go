// Package fixture builds a small, deterministic restaurant and weather dataset
// laid out the same way as the production inputs: a restaurant CSV directory
// and a year=/month=/day= partitioned weather parquet tree.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/restaurant-weather-etl/internal/adapter/parquet"
	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

// Layout under the fixture root.
const (
	RestaurantDir = "restaurant_csv"
	WeatherDir    = "weather"
)

// Days of October 2016 covered by the weather fixture.
var Days = []int{1, 2, 3}

type station struct {
	lat, lng float64
	baseC    float64
}

// Stations sit within the same precision-4 geohash cell as the restaurants
// they are meant to match.
var stations = []station{
	{lat: 34.40, lng: -79.38, baseC: 20}, // Dillon
	{lat: 48.85, lng: 2.35, baseC: 12},   // Paris
	{lat: 51.51, lng: -0.13, baseC: 10},  // London
	{lat: 30.26, lng: -97.74, baseC: 27}, // Austin
}

// Restaurants returns the raw restaurant rows. The set contains an override
// target, rows needing geocoding, a malformed coordinate and one exact
// duplicate.
func Restaurants() []domain.RawRestaurantRow {
	return []domain.RawRestaurantRow{
		{ID: "85899345920", FranchiseName: "Savoria", City: "Dillon", Country: "US"},
		{ID: "1", FranchiseName: "Bella", City: "Paris", Country: "FR", Lat: "48.8566", Lng: "2.3522"},
		{ID: "2", FranchiseName: "Golden Wok", City: "London", Country: "GB"},
		{ID: "3", FranchiseName: "Taco Loco", City: "Austin", Country: "US", Lat: "30.2672", Lng: "-97.7431"},
		{ID: "4", FranchiseName: "Sushi Zen", City: "Atlantis", Country: "ZZ"},
		{ID: "1", FranchiseName: "Bella", City: "Paris", Country: "FR", Lat: "48.8566", Lng: "2.3522"},
		{ID: "5", FranchiseName: "Nordic Grill", City: "Oslo", Country: "NO", Lat: "null", Lng: "abc"},
	}
}

// Weather returns the observations of one day. Temperatures rise by one degree
// per day; one observation per day has no latitude.
func Weather(day int) []domain.WeatherRecord {
	date := fmt.Sprintf("2016-10-%02d", day)
	out := make([]domain.WeatherRecord, 0, len(stations)+1)
	for _, s := range stations {
		c := s.baseC + float64(day-1)
		f := c*9/5 + 32
		out = append(out, domain.WeatherRecord{
			Lat:      ptr(s.lat),
			Lng:      ptr(s.lng),
			AvgTmprC: ptr(c),
			AvgTmprF: ptr(f),
			Extra:    map[string]any{parquet.ColWthrDate: date},
		})
	}
	out = append(out, domain.WeatherRecord{
		Lng:      ptr(10.75),
		AvgTmprC: ptr(-3.0),
		Extra:    map[string]any{parquet.ColWthrDate: date},
	})
	return out
}

// Write materializes the fixture under root and returns the restaurant and
// weather input paths.
func Write(root string) (restaurantPath, weatherPath string, err error) {
	restaurantPath = filepath.Join(root, RestaurantDir)
	weatherPath = filepath.Join(root, WeatherDir)

	if err := os.MkdirAll(restaurantPath, 0o755); err != nil {
		return "", "", fmt.Errorf("create restaurant dir: %w", err)
	}
	data, err := csvutil.Marshal(Restaurants())
	if err != nil {
		return "", "", fmt.Errorf("encode restaurants: %w", err)
	}
	if err := os.WriteFile(filepath.Join(restaurantPath, "part-00000.csv"), data, 0o644); err != nil {
		return "", "", fmt.Errorf("write restaurants: %w", err)
	}

	for _, day := range Days {
		path := filepath.Join(weatherPath, "year=2016", "month=10", fmt.Sprintf("day=%d", day), "part-00000.parquet")
		if err := parquet.WriteWeather(path, Weather(day)); err != nil {
			return "", "", err
		}
	}
	return restaurantPath, weatherPath, nil
}

func ptr[T any](v T) *T { return &v }
