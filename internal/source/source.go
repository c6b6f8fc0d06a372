// Package source turns remote trip files into a produce-once sequence of row
// batches.
package source

import (
	"context"
	"io"
	"net/http"
	"time"

	"taxi-ingest/internal/schema"
)

// Source is a finite, non-restartable cursor over a trip file.
type Source interface {
	// Next returns the next batch in source order, or io.EOF once the source
	// is exhausted. Every later call also returns io.EOF.
	Next(ctx context.Context) (*schema.Batch, error)
	// Total is the number of rows in the source, or -1 when unknown.
	Total() int64
	Close() error
}

// DefaultClient has no overall timeout since trip files run to hundreds of MB.
var DefaultClient = &http.Client{
	Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 60 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	},
}

// Drain reads every batch from src. Intended for small sources and tests.
func Drain(ctx context.Context, src Source) ([]*schema.Batch, error) {
	var out []*schema.Batch
	for {
		b, err := src.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
}

var (
	_ Source = (*CSVSource)(nil)
	_ Source = (*ParquetSource)(nil)
)
