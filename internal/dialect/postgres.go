package dialect

import (
	"fmt"
	"strings"

	"taxi-ingest/internal/schema"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) ColumnType(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		return "BIGINT"
	case schema.KindFloat:
		return "DOUBLE PRECISION"
	case schema.KindTimestamp:
		return "TIMESTAMP"
	case schema.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) CreateTableQuery(table string, cols []schema.Column) string {
	return DefaultCreateTableQuery(d, table, cols)
}

func (d *PostgresDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdent(table))
}

func (d *PostgresDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
}

func (d *PostgresDialect) InsertQuery(table string, cols []string, rows int) string {
	return DefaultInsertQuery(d, table, cols, rows)
}

func (d *PostgresDialect) CountRowsQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdent(table))
}

// Bind parameters are addressed with a 16-bit count on the wire.
func (d *PostgresDialect) MaxParams() int { return 65535 }

func (d *PostgresDialect) MaxRowsPerInsert() int { return 10000 }
