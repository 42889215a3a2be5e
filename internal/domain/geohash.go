package domain

import (
	"fmt"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// DefaultGeohashPrecision is the key length used for both datasets unless
// configured otherwise. Four characters is roughly a 39km x 19km cell.
const DefaultGeohashPrecision = 4

// MaxGeohashPrecision is the longest key the encoder produces.
const MaxGeohashPrecision = 12

// SpatialKeyEncoder maps coordinates to fixed-length geohash keys. A single
// encoder must be used for every dataset that takes part in a join.
type SpatialKeyEncoder struct {
	precision int
}

// NewSpatialKeyEncoder returns an encoder for the given key length.
func NewSpatialKeyEncoder(precision int) (SpatialKeyEncoder, error) {
	if precision < 1 || precision > MaxGeohashPrecision {
		return SpatialKeyEncoder{}, fmt.Errorf("geohash precision %d out of range [1,%d]", precision, MaxGeohashPrecision)
	}
	return SpatialKeyEncoder{precision: precision}, nil
}

// Precision returns the key length.
func (e SpatialKeyEncoder) Precision() int {
	return e.precision
}

// Encode returns the geohash of (lat, lng), or nil when either coordinate is
// missing or outside the WGS-84 range.
func (e SpatialKeyEncoder) Encode(lat, lng *float64) *string {
	if lat == nil || lng == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return nil
	}
	key := geohash.EncodeWithPrecision(*lat, *lng, e.precision)
	if len(key) != e.precision {
		return nil
	}
	return &key
}

// EncodeRestaurants sets Geohash on every record in place.
func (e SpatialKeyEncoder) EncodeRestaurants(records []RestaurantRecord) {
	for i := range records {
		records[i].Geohash = e.Encode(records[i].Lat, records[i].Lng)
	}
}

// EncodeWeather sets Geohash on every observation in place.
func (e SpatialKeyEncoder) EncodeWeather(records []WeatherRecord) {
	for i := range records {
		records[i].Geohash = e.Encode(records[i].Lat, records[i].Lng)
	}
}
