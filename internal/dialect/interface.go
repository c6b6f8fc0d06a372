package dialect

import "taxi-ingest/internal/schema"

// Dialect abstracts database-specific SQL.
type Dialect interface {
	Name() string

	// Identifiers and binds
	QuoteIdent(name string) string
	Placeholder(index int) string // Returns $1, ?, @p1, :1, etc.

	// DDL
	ColumnType(k schema.Kind) string
	CreateTableQuery(table string, cols []schema.Column) string
	DropTableQuery(table string) string
	TableExistsQuery() string // single bind: the table name

	// DML
	InsertQuery(table string, cols []string, rows int) string
	CountRowsQuery(table string) string

	// Limits for multi-row inserts
	MaxParams() int
	MaxRowsPerInsert() int
}
