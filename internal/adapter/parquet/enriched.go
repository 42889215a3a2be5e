package parquet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

const (
	partFile    = "part-00000.parquet"
	successFile = "_SUCCESS"
)

var enrichedSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "franchise_name", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "city", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "country", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "lat", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "lng", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "geohash", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "avg_temperature_c", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "avg_temperature_f", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// EnrichedWriter persists enriched rows as a parquet dataset directory.
// Every Write replaces whatever was previously at the destination.
// It implements pipeline.Sink.
type EnrichedWriter struct {
	dir    string
	logger *slog.Logger
}

// NewEnrichedWriter creates a writer targeting dir.
func NewEnrichedWriter(dir string, logger *slog.Logger) *EnrichedWriter {
	return &EnrichedWriter{dir: dir, logger: logger}
}

func (w *EnrichedWriter) Name() string { return "parquet" }

// Write removes dir, recreates it and writes rows to a single part file
// followed by an empty _SUCCESS marker.
func (w *EnrichedWriter) Write(ctx context.Context, rows []domain.EnrichedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("clear output %s: %w", w.dir, err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output %s: %w", w.dir, err)
	}

	rec := buildEnrichedRecord(rows)
	defer rec.Release()

	path := filepath.Join(w.dir, partFile)
	if err := writeRecord(path, rec); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.dir, successFile), nil, 0o644); err != nil {
		return fmt.Errorf("write success marker: %w", err)
	}

	w.logger.Info("enriched dataset written", "path", path, "rows", len(rows))
	return nil
}

func buildEnrichedRecord(rows []domain.EnrichedRecord) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, enrichedSchema)
	defer b.Release()

	id := b.Field(0).(*array.StringBuilder)
	franchise := b.Field(1).(*array.StringBuilder)
	city := b.Field(2).(*array.StringBuilder)
	country := b.Field(3).(*array.StringBuilder)
	lat := b.Field(4).(*array.Float64Builder)
	lng := b.Field(5).(*array.Float64Builder)
	geohash := b.Field(6).(*array.StringBuilder)
	tmprC := b.Field(7).(*array.Float64Builder)
	tmprF := b.Field(8).(*array.Float64Builder)

	for _, r := range rows {
		id.Append(r.ID)
		franchise.Append(r.FranchiseName)
		city.Append(r.City)
		country.Append(r.Country)
		appendFloat(lat, r.Lat)
		appendFloat(lng, r.Lng)
		appendString(geohash, r.Geohash)
		appendFloat(tmprC, r.AvgTemperatureC)
		appendFloat(tmprF, r.AvgTemperatureF)
	}
	return b.NewRecord()
}

// ReadEnriched loads a dataset previously written by EnrichedWriter.
func ReadEnriched(ctx context.Context, dir string) ([]domain.EnrichedRecord, error) {
	tbl, err := readTable(ctx, filepath.Join(dir, partFile))
	if err != nil {
		return nil, err
	}
	defer tbl.Release()

	var out []domain.EnrichedRecord
	tr := array.NewTableReader(tbl, readBatchSize)
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		str := func(col, row int) string {
			arr := rec.Column(col)
			if arr.IsNull(row) {
				return ""
			}
			return arr.ValueStr(row)
		}
		for row := 0; row < int(rec.NumRows()); row++ {
			r := domain.EnrichedRecord{
				ID:              str(0, row),
				FranchiseName:   str(1, row),
				City:            str(2, row),
				Country:         str(3, row),
				Lat:             floatAt(rec.Column(4), row),
				Lng:             floatAt(rec.Column(5), row),
				AvgTemperatureC: floatAt(rec.Column(7), row),
				AvgTemperatureF: floatAt(rec.Column(8), row),
			}
			if !rec.Column(6).IsNull(row) {
				gh := rec.Column(6).ValueStr(row)
				r.Geohash = &gh
			}
			out = append(out, r)
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("read enriched: %w", err)
	}
	return out, nil
}
