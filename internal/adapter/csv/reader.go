package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

// RestaurantReader loads restaurant rows from a CSV file or from every *.csv
// file in a directory (part files written by a previous job).
// It implements pipeline.RestaurantSource.
type RestaurantReader struct {
	path   string
	logger *slog.Logger
}

// NewRestaurantReader creates a reader rooted at path.
func NewRestaurantReader(path string, logger *slog.Logger) *RestaurantReader {
	return &RestaurantReader{path: path, logger: logger}
}

// ReadRestaurants decodes every row and normalizes it into a RestaurantRecord.
// Unknown columns are ignored.
func (r *RestaurantReader) ReadRestaurants(ctx context.Context) ([]domain.RestaurantRecord, error) {
	files, err := csvFiles(r.path)
	if err != nil {
		return nil, err
	}

	var rows []domain.RawRestaurantRow
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileRows, err := decodeFile(f)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("restaurant file read", "file", f, "rows", len(fileRows))
		rows = append(rows, fileRows...)
	}

	return domain.ParseRestaurants(rows), nil
}

// csvFiles returns path itself when it is a file, or the sorted *.csv entries
// of the directory otherwise.
func csvFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat restaurant input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".csv") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list restaurant input: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no csv files under %s", path)
	}
	sort.Strings(files)
	return files, nil
}

func decodeFile(path string) ([]domain.RawRestaurantRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// Decode reads headered CSV into raw restaurant rows. An empty input yields no
// rows.
func Decode(r io.Reader) ([]domain.RawRestaurantRow, error) {
	cr := stdcsv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []domain.RawRestaurantRow
	for {
		var row domain.RawRestaurantRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("line %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
