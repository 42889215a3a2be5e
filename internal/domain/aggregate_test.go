package domain

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observation(key string, c, f *float64) WeatherRecord {
	return WeatherRecord{Geohash: stringPtr(key), AvgTmprC: c, AvgTmprF: f}
}

func TestAggregateWeather_MeanPerKey(t *testing.T) {
	records := []WeatherRecord{
		observation("abcd", float64Ptr(10), float64Ptr(50)),
		observation("abcd", float64Ptr(20), float64Ptr(68)),
		observation("efgh", float64Ptr(-5), float64Ptr(23)),
	}

	agg := AggregateWeather(records)

	require.Len(t, agg, 2)
	assert.Equal(t, "abcd", agg[0].Geohash)
	assert.InDelta(t, 15.0, *agg[0].AvgTemperatureC, 1e-9)
	assert.InDelta(t, 59.0, *agg[0].AvgTemperatureF, 1e-9)
	assert.Equal(t, "efgh", agg[1].Geohash)
	assert.InDelta(t, -5.0, *agg[1].AvgTemperatureC, 1e-9)
}

func TestAggregateWeather_NullHandling(t *testing.T) {
	t.Run("null values are skipped per metric", func(t *testing.T) {
		agg := AggregateWeather([]WeatherRecord{
			observation("k", float64Ptr(10), nil),
			observation("k", nil, float64Ptr(40)),
			observation("k", float64Ptr(30), nil),
		})

		require.Len(t, agg, 1)
		assert.InDelta(t, 20.0, *agg[0].AvgTemperatureC, 1e-9)
		assert.InDelta(t, 40.0, *agg[0].AvgTemperatureF, 1e-9)
	})

	t.Run("metric with no values is null", func(t *testing.T) {
		agg := AggregateWeather([]WeatherRecord{observation("k", nil, float64Ptr(40))})

		require.Len(t, agg, 1)
		assert.Nil(t, agg[0].AvgTemperatureC)
		assert.NotNil(t, agg[0].AvgTemperatureF)
	})

	t.Run("null geohash excluded", func(t *testing.T) {
		agg := AggregateWeather([]WeatherRecord{
			{AvgTmprC: float64Ptr(100)},
			observation("k", float64Ptr(1), float64Ptr(2)),
		})

		require.Len(t, agg, 1)
		assert.Equal(t, "k", agg[0].Geohash)
		assert.InDelta(t, 1.0, *agg[0].AvgTemperatureC, 1e-9)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, AggregateWeather(nil))
	})
}

func TestAggregateWeather_OneRowPerKey(t *testing.T) {
	var records []WeatherRecord
	for i := 0; i < 100; i++ {
		records = append(records, observation(fmt.Sprintf("k%d", i%7), float64Ptr(float64(i)), float64Ptr(float64(i))))
	}

	agg := AggregateWeather(records)

	require.Len(t, agg, 7)
	seen := map[string]bool{}
	for _, a := range agg {
		assert.False(t, seen[a.Geohash], "duplicate geohash %s", a.Geohash)
		seen[a.Geohash] = true
	}
}

func TestAggregateWeatherPartitioned_MatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	records := make([]WeatherRecord, 1000)
	for i := range records {
		var c, f *float64
		if rng.Intn(10) > 0 {
			c = float64Ptr(rng.Float64()*60 - 20)
		}
		if rng.Intn(10) > 0 {
			f = float64Ptr(rng.Float64()*100 + 10)
		}
		records[i] = observation(fmt.Sprintf("g%02d", rng.Intn(25)), c, f)
	}

	want := AggregateWeather(records)

	for _, parts := range []int{1, 2, 3, 7, 16, 1000, 5000} {
		t.Run(fmt.Sprintf("%d partitions", parts), func(t *testing.T) {
			got, err := AggregateWeatherPartitioned(context.Background(), records, parts)
			require.NoError(t, err)
			require.Len(t, got, len(want))

			for i := range want {
				assert.Equal(t, want[i].Geohash, got[i].Geohash)
				assertFloatPtrInDelta(t, want[i].AvgTemperatureC, got[i].AvgTemperatureC)
				assertFloatPtrInDelta(t, want[i].AvgTemperatureF, got[i].AvgTemperatureF)
			}
		})
	}
}

func TestMeanAccumulator_MergeOrderIndependent(t *testing.T) {
	values := []float64{3.5, 10, -2.25, 8, 0.5, 41, 17}

	var whole meanAccumulator
	for i := range values {
		whole.add(&values[i])
	}

	// split arbitrarily into three parts and merge in reverse order
	var a, b, c meanAccumulator
	for i := range values {
		switch {
		case i < 2:
			a.add(&values[i])
		case i < 5:
			b.add(&values[i])
		default:
			c.add(&values[i])
		}
	}
	var merged meanAccumulator
	merged.merge(c)
	merged.merge(a)
	merged.merge(b)

	require.NotNil(t, merged.mean())
	assert.InDelta(t, *whole.mean(), *merged.mean(), 1e-9)
	assert.Equal(t, whole.count, merged.count)
}

func TestAggregateWeatherPartitioned_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AggregateWeatherPartitioned(ctx, []WeatherRecord{observation("k", nil, nil)}, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		want  []Range
	}{
		{"empty", 0, 4, nil},
		{"even", 4, 2, []Range{{0, 2}, {2, 4}}},
		{"uneven", 5, 2, []Range{{0, 3}, {3, 5}}},
		{"more parts than items", 2, 8, []Range{{0, 1}, {1, 2}}},
		{"zero parts", 3, 0, []Range{{0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Partition(tt.n, tt.parts))
		})
	}
}

func assertFloatPtrInDelta(t *testing.T, want, got *float64) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.InDelta(t, *want, *got, 1e-9)
}
