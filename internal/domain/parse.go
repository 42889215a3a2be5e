package domain

import (
	"math"
	"strconv"
	"strings"
)

// ParseCoordinate parses a textual number, returning nil for empty, "null",
// non-numeric and non-finite input.
func ParseCoordinate(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return finite(v)
}

// finite returns a pointer to v, or nil when v is NaN or infinite.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FiniteFloat is the nullable form of a numeric column value.
func FiniteFloat(v float64) *float64 {
	return finite(v)
}

// ParseRestaurant converts a raw CSV row into a RestaurantRecord.
func ParseRestaurant(raw RawRestaurantRow) RestaurantRecord {
	return RestaurantRecord{
		ID:            strings.TrimSpace(raw.ID),
		FranchiseName: strings.TrimSpace(raw.FranchiseName),
		City:          strings.TrimSpace(raw.City),
		Country:       strings.TrimSpace(raw.Country),
		Lat:           ParseCoordinate(raw.Lat),
		Lng:           ParseCoordinate(raw.Lng),
	}
}

// ParseRestaurants converts a batch of raw rows, preserving order.
func ParseRestaurants(rows []RawRestaurantRow) []RestaurantRecord {
	out := make([]RestaurantRecord, len(rows))
	for i := range rows {
		out[i] = ParseRestaurant(rows[i])
	}
	return out
}

// CountMissingRestaurantCoordinates returns how many records lack lat or lng.
func CountMissingRestaurantCoordinates(records []RestaurantRecord) int {
	n := 0
	for i := range records {
		if !records[i].HasCoordinates() {
			n++
		}
	}
	return n
}

// CountMissingWeatherCoordinates returns how many observations lack lat or lng.
func CountMissingWeatherCoordinates(records []WeatherRecord) int {
	n := 0
	for i := range records {
		if records[i].Lat == nil || records[i].Lng == nil {
			n++
		}
	}
	return n
}
