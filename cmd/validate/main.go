// Command validate performs integrity checks on an enriched output dataset:
// no exact duplicate rows, geohash keys of the expected length that agree with
// the row coordinates, and weather values only on rows that have a key.
//
// Usage:
//
//	go run ./cmd/validate -output data/output -precision 4
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/restaurant-weather-etl/internal/adapter/parquet"
	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

func main() {
	output := flag.String("output", "data/output", "enriched dataset directory")
	precision := flag.Int("precision", domain.DefaultGeohashPrecision, "expected geohash length")
	flag.Parse()

	rows, err := parquet.ReadEnriched(context.Background(), *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}

	failures, err := validate(rows, *precision)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
	}

	matched := 0
	for _, r := range rows {
		if r.Matched() {
			matched++
		}
	}
	fmt.Printf("rows: %d, matched: %d, unmatched: %d\n", len(rows), matched, len(rows)-matched)

	if len(failures) > 0 {
		fmt.Printf("%d check(s) failed\n", len(failures))
		os.Exit(1)
	}
	fmt.Println("all checks passed")
}

// validate returns one message per violated check.
func validate(rows []domain.EnrichedRecord, precision int) ([]string, error) {
	encoder, err := domain.NewSpatialKeyEncoder(precision)
	if err != nil {
		return nil, err
	}

	var failures []string
	if n := len(rows) - len(domain.Deduplicate(rows)); n > 0 {
		failures = append(failures, fmt.Sprintf("%d exact duplicate row(s)", n))
	}

	for _, r := range rows {
		want := encoder.Encode(r.Lat, r.Lng)
		switch {
		case want == nil && r.Geohash != nil:
			failures = append(failures, fmt.Sprintf("id %s: geohash %q without valid coordinates", r.ID, *r.Geohash))
		case want != nil && r.Geohash == nil:
			failures = append(failures, fmt.Sprintf("id %s: missing geohash, expected %q", r.ID, *want))
		case want != nil && *want != *r.Geohash:
			failures = append(failures, fmt.Sprintf("id %s: geohash %q, expected %q", r.ID, *r.Geohash, *want))
		}
		if r.Geohash == nil && r.Matched() {
			failures = append(failures, fmt.Sprintf("id %s: weather joined without a geohash", r.ID))
		}
	}
	return failures, nil
}
