package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{"decimal", "34.4014089", float64Ptr(34.4014089)},
		{"negative", "-79.3864339", float64Ptr(-79.3864339)},
		{"padded", "  12.5 ", float64Ptr(12.5)},
		{"integer", "10", float64Ptr(10)},
		{"empty", "", nil},
		{"whitespace", "   ", nil},
		{"null literal", "null", nil},
		{"null uppercase", "NULL", nil},
		{"not a number", "abc", nil},
		{"NaN", "NaN", nil},
		{"infinity", "Inf", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCoordinate(tt.input)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, *tt.expected, *result)
		})
	}
}

func TestParseRestaurant(t *testing.T) {
	t.Run("complete row", func(t *testing.T) {
		rec := ParseRestaurant(RawRestaurantRow{
			ID:            " 197568495625 ",
			FranchiseName: "The Golden Spoon",
			City:          "Decatur",
			Country:       "US",
			Lat:           "34.578",
			Lng:           "-87.021",
		})

		assert.Equal(t, "197568495625", rec.ID)
		assert.Equal(t, "The Golden Spoon", rec.FranchiseName)
		assert.Equal(t, "Decatur", rec.City)
		assert.Equal(t, "US", rec.Country)
		require.NotNil(t, rec.Lat)
		require.NotNil(t, rec.Lng)
		assert.Equal(t, 34.578, *rec.Lat)
		assert.Equal(t, -87.021, *rec.Lng)
		assert.Nil(t, rec.Geohash)
		assert.True(t, rec.HasCoordinates())
	})

	t.Run("malformed coordinates become null", func(t *testing.T) {
		rec := ParseRestaurant(RawRestaurantRow{ID: "1", Lat: "n/a", Lng: ""})

		assert.Nil(t, rec.Lat)
		assert.Nil(t, rec.Lng)
		assert.False(t, rec.HasCoordinates())
	})

	t.Run("one coordinate missing", func(t *testing.T) {
		rec := ParseRestaurant(RawRestaurantRow{ID: "1", Lat: "10.0"})
		assert.False(t, rec.HasCoordinates())
	})
}

func TestParseRestaurants_PreservesOrder(t *testing.T) {
	rows := []RawRestaurantRow{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	recs := ParseRestaurants(rows)

	require.Len(t, recs, 3)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "c", recs[2].ID)
}

func TestCountMissingCoordinates(t *testing.T) {
	restaurants := []RestaurantRecord{
		{ID: "1", Lat: float64Ptr(1), Lng: float64Ptr(2)},
		{ID: "2", Lat: float64Ptr(1)},
		{ID: "3"},
	}
	weather := []WeatherRecord{
		{Lat: float64Ptr(1), Lng: float64Ptr(2)},
		{Lng: float64Ptr(2)},
	}

	assert.Equal(t, 2, CountMissingRestaurantCoordinates(restaurants))
	assert.Equal(t, 1, CountMissingWeatherCoordinates(weather))
}
