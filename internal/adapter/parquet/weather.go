package parquet

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

// Weather column names.
const (
	ColLat      = "lat"
	ColLng      = "lng"
	ColAvgTmprC = "avg_tmpr_c"
	ColAvgTmprF = "avg_tmpr_f"
	ColWthrDate = "wthr_date"
)

// WeatherReader loads weather observations from every *.parquet file below a
// root directory, however deeply nested. Hive-style directory names such as
// year=2016 are surfaced as passthrough columns.
// It implements pipeline.WeatherSource.
type WeatherReader struct {
	root   string
	logger *slog.Logger
}

// NewWeatherReader creates a reader rooted at root. root may also be a single
// parquet file.
func NewWeatherReader(root string, logger *slog.Logger) *WeatherReader {
	return &WeatherReader{root: root, logger: logger}
}

// ReadWeather merges every discovered file into one slice of observations.
func (r *WeatherReader) ReadWeather(ctx context.Context) ([]domain.WeatherRecord, error) {
	files, err := parquetFiles(r.root)
	if err != nil {
		return nil, err
	}

	var out []domain.WeatherRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readWeatherFile(ctx, path, partitionValues(r.root, path))
		if err != nil {
			return nil, err
		}
		r.logger.Debug("weather file read", "file", path, "rows", len(recs))
		out = append(out, recs...)
	}
	return out, nil
}

func parquetFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat weather input: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(name), ".parquet") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list weather input: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parquet files under %s", root)
	}
	sort.Strings(files)
	return files, nil
}

// partitionValues extracts key=value directory segments between root and path.
func partitionValues(root, path string) map[string]string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return nil
	}
	out := make(map[string]string)
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if k, v, ok := strings.Cut(seg, "="); ok && k != "" {
			out[k] = v
		}
	}
	return out
}

func readWeatherFile(ctx context.Context, path string, partitions map[string]string) ([]domain.WeatherRecord, error) {
	tbl, err := readTable(ctx, path)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()

	out := make([]domain.WeatherRecord, 0, tbl.NumRows())
	tr := array.NewTableReader(tbl, readBatchSize)
	defer tr.Release()

	for tr.Next() {
		out = appendWeatherRows(out, tr.Record(), partitions)
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

func appendWeatherRows(out []domain.WeatherRecord, rec arrow.Record, partitions map[string]string) []domain.WeatherRecord {
	known := map[string]int{ColLat: -1, ColLng: -1, ColAvgTmprC: -1, ColAvgTmprF: -1}
	var extra []int
	for i := 0; i < int(rec.NumCols()); i++ {
		name := rec.ColumnName(i)
		if _, ok := known[name]; ok {
			known[name] = i
			continue
		}
		extra = append(extra, i)
	}

	cell := func(col, row int) *float64 {
		if col < 0 {
			return nil
		}
		return floatAt(rec.Column(col), row)
	}

	for row := 0; row < int(rec.NumRows()); row++ {
		w := domain.WeatherRecord{
			Lat:      cell(known[ColLat], row),
			Lng:      cell(known[ColLng], row),
			AvgTmprC: cell(known[ColAvgTmprC], row),
			AvgTmprF: cell(known[ColAvgTmprF], row),
		}
		if len(extra) > 0 || len(partitions) > 0 {
			w.Extra = make(map[string]any, len(extra)+len(partitions))
			for k, v := range partitions {
				w.Extra[k] = v
			}
			for _, col := range extra {
				arr := rec.Column(col)
				if arr.IsNull(row) {
					w.Extra[rec.ColumnName(col)] = nil
					continue
				}
				w.Extra[rec.ColumnName(col)] = arr.GetOneForMarshal(row)
			}
		}
		out = append(out, w)
	}
	return out
}

var weatherSchema = arrow.NewSchema([]arrow.Field{
	{Name: ColLng, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: ColLat, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: ColAvgTmprF, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: ColAvgTmprC, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: ColWthrDate, Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// WriteWeather writes observations to a single parquet file, creating parent
// directories as needed. The wthr_date column is taken from Extra when present.
func WriteWeather(path string, records []domain.WeatherRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create weather dir: %w", err)
	}

	b := array.NewRecordBuilder(memory.DefaultAllocator, weatherSchema)
	defer b.Release()

	lng := b.Field(0).(*array.Float64Builder)
	lat := b.Field(1).(*array.Float64Builder)
	tmprF := b.Field(2).(*array.Float64Builder)
	tmprC := b.Field(3).(*array.Float64Builder)
	date := b.Field(4).(*array.StringBuilder)

	for _, w := range records {
		appendFloat(lng, w.Lng)
		appendFloat(lat, w.Lat)
		appendFloat(tmprF, w.AvgTmprF)
		appendFloat(tmprC, w.AvgTmprC)
		if s, ok := w.Extra[ColWthrDate].(string); ok {
			date.Append(s)
		} else {
			date.AppendNull()
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return writeRecord(path, rec)
}
