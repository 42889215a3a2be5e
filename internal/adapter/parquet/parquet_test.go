package parquet

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func observation(lat, lng, c, f *float64, date string) domain.WeatherRecord {
	return domain.WeatherRecord{
		Lat: lat, Lng: lng, AvgTmprC: c, AvgTmprF: f,
		Extra: map[string]any{ColWthrDate: date},
	}
}

func TestWeatherReader_NestedPartitions(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteWeather(
		filepath.Join(root, "year=2016", "month=10", "day=1", "part-00000.parquet"),
		[]domain.WeatherRecord{
			observation(ptr(34.4), ptr(-79.3), ptr(10.0), ptr(50.0), "2016-10-01"),
			observation(ptr(34.41), ptr(-79.31), nil, ptr(68.0), "2016-10-01"),
		},
	))
	require.NoError(t, WriteWeather(
		filepath.Join(root, "year=2016", "month=10", "day=2", "part-00000.parquet"),
		[]domain.WeatherRecord{
			observation(nil, ptr(2.35), ptr(15.0), ptr(59.0), "2016-10-02"),
		},
	))
	require.NoError(t, os.WriteFile(filepath.Join(root, "_SUCCESS"), nil, 0o600))

	recs, err := NewWeatherReader(root, discardLogger()).ReadWeather(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.InDelta(t, 34.4, *recs[0].Lat, 1e-9)
	assert.InDelta(t, 10.0, *recs[0].AvgTmprC, 1e-9)
	assert.Nil(t, recs[0].Geohash)
	assert.Equal(t, "2016-10-01", recs[0].Extra[ColWthrDate])
	assert.Equal(t, "2016", recs[0].Extra["year"])
	assert.Equal(t, "1", recs[0].Extra["day"])

	assert.Nil(t, recs[1].AvgTmprC, "null temperature stays null")
	assert.Nil(t, recs[2].Lat, "null latitude stays null")
	assert.Equal(t, "2", recs[2].Extra["day"])
}

func TestWeatherReader_StringAndIntCoordinates(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: ColLat, Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: ColLng, Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: ColAvgTmprC, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "station", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"45.5", "n/a"}, nil)
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{12, 13}, nil)
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{20, 21}, nil)
	b.Field(3).(*array.StringBuilder).AppendValues([]string{"A", "B"}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "weather.parquet")
	require.NoError(t, writeRecord(path, rec))

	recs, err := NewWeatherReader(path, discardLogger()).ReadWeather(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.InDelta(t, 45.5, *recs[0].Lat, 1e-9)
	assert.InDelta(t, 12.0, *recs[0].Lng, 1e-9)
	assert.Nil(t, recs[1].Lat, "unparseable text is missing")
	assert.Nil(t, recs[0].AvgTmprF, "absent column reads as null")
	assert.Equal(t, "A", recs[0].Extra["station"])
}

func TestWeatherReader_NoFiles(t *testing.T) {
	_, err := NewWeatherReader(t.TempDir(), discardLogger()).ReadWeather(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parquet files")
}

func TestPartitionValues(t *testing.T) {
	root := filepath.Join("data", "weather")
	got := partitionValues(root, filepath.Join(root, "year=2017", "month=8", "part.parquet"))
	assert.Equal(t, map[string]string{"year": "2017", "month": "8"}, got)
	assert.Nil(t, partitionValues(root, filepath.Join(root, "part.parquet")))
}

func TestEnrichedWriter_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	rows := []domain.EnrichedRecord{
		{
			ID: "1", FranchiseName: "Savoria", City: "Dillon", Country: "US",
			Lat: ptr(34.4014089), Lng: ptr(-79.3864339), Geohash: ptr("dnrd"),
			AvgTemperatureC: ptr(15.0), AvgTemperatureF: ptr(59.0),
		},
		{ID: "2", FranchiseName: "Nowhere", City: "", Country: "ZZ"},
	}

	w := NewEnrichedWriter(dir, discardLogger())
	assert.Equal(t, "parquet", w.Name())
	require.NoError(t, w.Write(context.Background(), rows))

	got, err := ReadEnriched(context.Background(), dir)
	require.NoError(t, err)
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.FileExists(t, filepath.Join(dir, successFile))
}

func TestEnrichedWriter_Overwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, "part-00099.parquet")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	w := NewEnrichedWriter(dir, discardLogger())
	require.NoError(t, w.Write(context.Background(), []domain.EnrichedRecord{{ID: "a"}}))
	require.NoError(t, w.Write(context.Background(), []domain.EnrichedRecord{{ID: "b"}, {ID: "c"}}))

	assert.NoFileExists(t, stale)
	got, err := ReadEnriched(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
}

func TestEnrichedWriter_Empty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, NewEnrichedWriter(dir, discardLogger()).Write(context.Background(), nil))

	got, err := ReadEnriched(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, got)
}
