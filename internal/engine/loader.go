package engine

import (
	"context"
	"database/sql"
	"fmt"

	"taxi-ingest/internal/dialect"
	"taxi-ingest/internal/failure"
	"taxi-ingest/internal/schema"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// SQLSink loads batches into a database/sql target. Each Append is its own
// transaction (or COPY); nothing spans batches.
type SQLSink struct {
	db     *sql.DB
	driver string
	d      dialect.Dialect

	// BulkCopy uses COPY on the postgres and pgx drivers instead of
	// multi-row INSERTs.
	BulkCopy bool
}

func NewSQLSink(db *sql.DB, driver string) *SQLSink {
	return &SQLSink{
		db:       db,
		driver:   driver,
		d:        dialect.GetDialect(driver),
		BulkCopy: driver == "postgres" || driver == "pgx",
	}
}

func (s *SQLSink) Dialect() dialect.Dialect { return s.d }

func (s *SQLSink) Prepare(ctx context.Context, table string, cols []schema.Column, mode Mode) error {
	switch mode {
	case ModeAppend:
		return nil
	case ModeCreateIfMissing:
		exists, err := s.TableExists(ctx, table)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	case ModeReplace:
		if _, err := s.db.ExecContext(ctx, s.d.DropTableQuery(table)); err != nil {
			return failure.Wrap(failure.ErrDatabase, err, "drop table %s", table)
		}
	}

	if _, err := s.db.ExecContext(ctx, s.d.CreateTableQuery(table, cols)); err != nil {
		return failure.Wrap(failure.ErrDatabase, err, "create table %s", table)
	}
	return nil
}

func (s *SQLSink) Append(ctx context.Context, table string, b *schema.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	var err error
	switch {
	case s.BulkCopy && s.driver == "postgres":
		err = s.copyIn(ctx, table, b)
	case s.BulkCopy && s.driver == "pgx":
		err = s.copyFrom(ctx, table, b)
	default:
		err = s.insertRows(ctx, table, b)
	}
	return failure.Wrap(failure.ErrDatabase, err, "load %s into %s", b, table)
}

// copyIn streams the batch through lib/pq's COPY FROM STDIN.
func (s *SQLSink) copyIn(ctx context.Context, table string, b *schema.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, b.ColumnNames()...))
	if err != nil {
		return err
	}
	for _, row := range b.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	tx = nil
	return nil
}

// copyFrom uses pgx's binary COPY on the connection behind database/sql.
func (s *SQLSink) copyFrom(ctx context.Context, table string, b *schema.Batch) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		pc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("pgx copy needs a pgx connection, got %T", driverConn)
		}
		n, err := pc.Conn().CopyFrom(ctx, pgx.Identifier{table}, b.ColumnNames(), pgx.CopyFromRows(b.Rows))
		if err != nil {
			return err
		}
		if n != int64(b.Len()) {
			return fmt.Errorf("copied %d of %d rows", n, b.Len())
		}
		return nil
	})
}

// insertRows sends the batch as multi-row INSERTs sized to the dialect's
// bind limits, inside one transaction.
func (s *SQLSink) insertRows(ctx context.Context, table string, b *schema.Batch) error {
	cols := b.ColumnNames()
	per := dialect.RowsPerStatement(s.d, len(cols))
	fullQuery := s.d.InsertQuery(table, cols, per)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	args := make([]any, 0, per*len(cols))
	for start := 0; start < len(b.Rows); start += per {
		end := start + per
		if end > len(b.Rows) {
			end = len(b.Rows)
		}
		chunk := b.Rows[start:end]

		query := fullQuery
		if len(chunk) != per {
			query = s.d.InsertQuery(table, cols, len(chunk))
		}
		args = args[:0]
		for _, row := range chunk {
			for _, v := range row {
				args = append(args, s.bindValue(v))
			}
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start+1, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	tx = nil
	return nil
}

// bindValue adapts values the driver cannot bind directly.
func (s *SQLSink) bindValue(v any) any {
	if b, ok := v.(bool); ok && s.d.Name() == "oracle" {
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

// TableExists reports whether table is visible to the current connection.
func (s *SQLSink) TableExists(ctx context.Context, table string) (bool, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.d.TableExistsQuery(), table).Scan(&n); err != nil {
		return false, failure.Wrap(failure.ErrDatabase, err, "look up table %s", table)
	}
	return n > 0, nil
}

// CountRows returns the number of rows currently in table.
func (s *SQLSink) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.d.CountRowsQuery(table)).Scan(&n); err != nil {
		return 0, failure.Wrap(failure.ErrDatabase, err, "count rows in %s", table)
	}
	return n, nil
}
