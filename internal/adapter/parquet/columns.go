package parquet

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

const readBatchSize = 64 * 1024

// readTable loads a whole parquet file into memory.
func readTable(ctx context.Context, path string) (arrow.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(ctx, f,
		parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{BatchSize: readBatchSize},
		memory.DefaultAllocator,
	)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tbl, nil
}

// writeRecord writes rec as a single snappy-compressed parquet file.
func writeRecord(path string, rec arrow.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // already closed by fw.Close on success

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(rec.Schema(), f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// floatAt reads a coordinate or temperature cell. Numeric columns are
// converted directly; anything else goes through domain.ParseCoordinate.
func floatAt(arr arrow.Array, i int) *float64 {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Float64:
		return domain.FiniteFloat(a.Value(i))
	case *array.Float32:
		return domain.FiniteFloat(float64(a.Value(i)))
	case *array.Int64:
		return domain.FiniteFloat(float64(a.Value(i)))
	case *array.Int32:
		return domain.FiniteFloat(float64(a.Value(i)))
	case *array.Int16:
		return domain.FiniteFloat(float64(a.Value(i)))
	case *array.String:
		return domain.ParseCoordinate(a.Value(i))
	case *array.LargeString:
		return domain.ParseCoordinate(a.Value(i))
	default:
		return domain.ParseCoordinate(arr.ValueStr(i))
	}
}

func appendFloat(b *array.Float64Builder, v *float64) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

func appendString(b *array.StringBuilder, v *string) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}
