// Command genmock writes the deterministic restaurant and weather fixture used
// by the tests to a directory, so the ETL can be run locally without the real
// datasets.
//
// Usage:
//
//	go run ./cmd/genmock -out data
//	RESTAURANT_PATH=data/restaurant_csv WEATHER_PATH=data/weather go run ./cmd/etl
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
	"github.com/couchcryptid/restaurant-weather-etl/internal/fixture"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write the fixture into")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	restaurantPath, weatherPath, err := fixture.Write(*out)
	if err != nil {
		return err
	}

	weatherRows := 0
	for _, day := range fixture.Days {
		weatherRows += len(fixture.Weather(day))
	}
	restaurants := domain.ParseRestaurants(fixture.Restaurants())

	log.Printf("restaurants: %d rows (%d missing coordinates) -> %s",
		len(restaurants), domain.CountMissingRestaurantCoordinates(restaurants), restaurantPath)
	log.Printf("weather: %d rows over %d days -> %s", weatherRows, len(fixture.Days), weatherPath)
	return nil
}
