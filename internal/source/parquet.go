package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"taxi-ingest/internal/failure"
	"taxi-ingest/internal/schema"
)

// ParquetSource reads a local parquet file in batches of exactly chunkSize
// rows (the last one may be shorter), regardless of row group layout.
type ParquetSource struct {
	path      string
	chunkSize int
	pf        *file.Reader
	rr        pqarrow.RecordReader
	columns   []schema.Column
	total     int64
	pending   [][]any
	seq       int
	exhausted bool
	done      bool
	cleanup   func()
}

// FetchParquet downloads url into dir and opens it. Closing the source
// removes the downloaded file; so does any error returned here.
func FetchParquet(ctx context.Context, client *http.Client, url, dir string, chunkSize int) (*ParquetSource, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", failure.ErrConfig, chunkSize)
	}
	path, cleanup, err := Download(ctx, client, url, dir)
	if err != nil {
		return nil, err
	}
	src, err := OpenParquet(ctx, path, chunkSize)
	if err != nil {
		cleanup()
		return nil, err
	}
	src.cleanup = cleanup
	return src, nil
}

// OpenParquet opens a local parquet file. The row total comes from the file
// metadata.
func OpenParquet(ctx context.Context, path string, chunkSize int) (*ParquetSource, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", failure.ErrConfig, chunkSize)
	}

	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, failure.Wrap(failure.ErrData, err, "open parquet %s", path)
	}

	props := pqarrow.ArrowReadProperties{BatchSize: int64(chunkSize)}
	fr, err := pqarrow.NewFileReader(pf, props, memory.DefaultAllocator)
	if err != nil {
		pf.Close()
		return nil, failure.Wrap(failure.ErrData, err, "read parquet schema %s", path)
	}

	sc, err := fr.Schema()
	if err != nil {
		pf.Close()
		return nil, failure.Wrap(failure.ErrData, err, "read parquet schema %s", path)
	}
	cols := make([]schema.Column, 0, sc.NumFields())
	for _, f := range sc.Fields() {
		k, err := kindOf(f.Type)
		if err != nil {
			pf.Close()
			return nil, fmt.Errorf("%w: column %q: %v", failure.ErrData, f.Name, err)
		}
		cols = append(cols, schema.Column{Name: f.Name, Kind: k})
	}

	rr, err := fr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		pf.Close()
		return nil, failure.Wrap(failure.ErrData, err, "open record reader %s", path)
	}

	return &ParquetSource{
		path:      path,
		chunkSize: chunkSize,
		pf:        pf,
		rr:        rr,
		columns:   cols,
		total:     pf.NumRows(),
	}, nil
}

func (s *ParquetSource) Columns() []schema.Column {
	return s.columns
}

func (s *ParquetSource) Total() int64 { return s.total }

func (s *ParquetSource) Next(ctx context.Context) (*schema.Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for len(s.pending) < s.chunkSize && !s.exhausted {
		if !s.rr.Next() {
			s.exhausted = true
			if err := s.rr.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, failure.Wrap(failure.ErrData, err, "read %s", s.path)
			}
			break
		}
		rows, err := recordRows(s.rr.Record())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", failure.ErrData, s.path, err)
		}
		s.pending = append(s.pending, rows...)
	}

	if len(s.pending) == 0 {
		s.done = true
		return nil, io.EOF
	}

	n := s.chunkSize
	if n > len(s.pending) {
		n = len(s.pending)
	}
	rows := s.pending[:n:n]
	s.pending = s.pending[n:]

	s.seq++
	cols := make([]schema.Column, len(s.columns))
	copy(cols, s.columns)
	return &schema.Batch{Seq: s.seq, Columns: cols, Rows: rows}, nil
}

func (s *ParquetSource) Close() error {
	s.done = true
	s.pending = nil
	if s.rr != nil {
		s.rr.Release()
		s.rr = nil
	}
	var err error
	if s.pf != nil {
		err = s.pf.Close()
		s.pf = nil
	}
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	return err
}

func kindOf(dt arrow.DataType) (schema.Kind, error) {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return schema.KindInt, nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return schema.KindFloat, nil
	case arrow.STRING, arrow.LARGE_STRING, arrow.NULL:
		return schema.KindText, nil
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return schema.KindTimestamp, nil
	case arrow.BOOL:
		return schema.KindBool, nil
	default:
		return schema.KindUnknown, fmt.Errorf("unsupported arrow type %s", dt)
	}
}

// recordRows copies a record into row-major Go values.
func recordRows(rec arrow.Record) ([][]any, error) {
	nrows, ncols := int(rec.NumRows()), int(rec.NumCols())
	rows := make([][]any, nrows)
	for r := range rows {
		rows[r] = make([]any, ncols)
	}
	for c := 0; c < ncols; c++ {
		col := rec.Column(c)
		for r := 0; r < nrows; r++ {
			v, err := arrowValue(col, r)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", rec.ColumnName(c), err)
			}
			rows[r][c] = v
		}
	}
	return rows, nil
}

func arrowValue(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint64:
		v := a.Value(i)
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit), nil
	case *array.Date32:
		return a.Value(i).ToTime(), nil
	case *array.Date64:
		return a.Value(i).ToTime(), nil
	case *array.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported arrow type %s", arr.DataType())
	}
}
