package engine

import (
	"context"
	"log"

	"taxi-ingest/internal/dialect"
	"taxi-ingest/internal/schema"
)

// DryRunSink logs what a SQLSink would do and counts rows, touching no
// database.
type DryRunSink struct {
	d       dialect.Dialect
	Columns []schema.Column
	Sizes   []int
	Rows    int64
}

func NewDryRunSink(driver string) *DryRunSink {
	return &DryRunSink{d: dialect.GetDialect(driver)}
}

func (s *DryRunSink) Prepare(ctx context.Context, table string, cols []schema.Column, mode Mode) error {
	s.Columns = cols
	switch mode {
	case ModeReplace:
		log.Printf("[SIMULATION] %s", s.d.DropTableQuery(table))
		log.Printf("[SIMULATION] %s", s.d.CreateTableQuery(table, cols))
	case ModeCreateIfMissing:
		log.Printf("[SIMULATION] (if missing) %s", s.d.CreateTableQuery(table, cols))
	}
	return nil
}

func (s *DryRunSink) Append(ctx context.Context, table string, b *schema.Batch) error {
	s.Sizes = append(s.Sizes, b.Len())
	s.Rows += int64(b.Len())
	return nil
}
