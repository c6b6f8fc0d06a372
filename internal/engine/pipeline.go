package engine

import (
	"context"
	"io"
	"time"

	"taxi-ingest/internal/schema"
	"taxi-ingest/internal/source"
)

// Mode says what Prepare does to the target table before the first append.
type Mode int

const (
	// ModeAppend assumes the table exists and leaves it alone.
	ModeAppend Mode = iota
	// ModeReplace drops the table if present and recreates it from the
	// first batch's columns.
	ModeReplace
	// ModeCreateIfMissing creates the table from the first batch's columns
	// only when it does not exist yet.
	ModeCreateIfMissing
)

func (m Mode) String() string {
	switch m {
	case ModeReplace:
		return "replace"
	case ModeCreateIfMissing:
		return "create-if-missing"
	default:
		return "append"
	}
}

// Sink receives batches in production order.
type Sink interface {
	// Prepare runs once, with the zero-row schema of the first batch,
	// before any Append.
	Prepare(ctx context.Context, table string, cols []schema.Column, mode Mode) error
	// Append loads every row of b as one discrete operation.
	Append(ctx context.Context, table string, b *schema.Batch) error
}

type Options struct {
	Table  string
	Mode   Mode
	Policy schema.Policy
}

// Result summarises a run, including a run that stopped on an error.
type Result struct {
	Batches int
	Rows    int64
	Elapsed time.Duration
}

// columnar is implemented by sources that know their columns before the
// first batch.
type columnar interface {
	Columns() []schema.Column
}

// Run pulls every batch from src, coerces it and appends it to sink. The
// first error stops the run; batches appended before it stay loaded.
func Run(ctx context.Context, src source.Source, sink Sink, opts Options, onProgress func(rows int)) (Result, error) {
	start := time.Now()
	var res Result
	coercer := schema.NewCoercer(opts.Policy)
	prepared := false

	for {
		b, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}

		if err := coercer.Apply(b); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}

		if !prepared {
			if err := sink.Prepare(ctx, opts.Table, b.Empty().Columns, opts.Mode); err != nil {
				res.Elapsed = time.Since(start)
				return res, err
			}
			prepared = true
		}

		if err := sink.Append(ctx, opts.Table, b); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		res.Batches++
		res.Rows += int64(b.Len())
		if onProgress != nil {
			onProgress(b.Len())
		}
	}

	// A source with no rows still gets its table when the schema is known.
	if !prepared && opts.Mode != ModeAppend {
		if c, ok := src.(columnar); ok && len(c.Columns()) > 0 {
			empty := &schema.Batch{Columns: c.Columns()}
			if err := coercer.Apply(empty); err != nil {
				res.Elapsed = time.Since(start)
				return res, err
			}
			if err := sink.Prepare(ctx, opts.Table, empty.Columns, opts.Mode); err != nil {
				res.Elapsed = time.Since(start)
				return res, err
			}
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}
