package dialect

import (
	"fmt"
	"strings"

	"taxi-ingest/internal/schema"
)

type MSSQLDialect struct{}

func (d *MSSQLDialect) Name() string { return "sqlserver" }

func (d *MSSQLDialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) ColumnType(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		return "BIGINT"
	case schema.KindFloat:
		return "FLOAT"
	case schema.KindTimestamp:
		return "DATETIME2"
	case schema.KindBool:
		return "BIT"
	default:
		return "NVARCHAR(MAX)"
	}
}

func (d *MSSQLDialect) CreateTableQuery(table string, cols []schema.Column) string {
	return DefaultCreateTableQuery(d, table, cols)
}

func (d *MSSQLDialect) DropTableQuery(table string) string {
	// OBJECT_ID takes the name as a string literal
	lit := strings.ReplaceAll(table, "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s", lit, d.QuoteIdent(table))
}

func (d *MSSQLDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_NAME = @p1`
}

func (d *MSSQLDialect) InsertQuery(table string, cols []string, rows int) string {
	return DefaultInsertQuery(d, table, cols, rows)
}

func (d *MSSQLDialect) CountRowsQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT_BIG(*) FROM %s", d.QuoteIdent(table))
}

// SQL Server caps an RPC at 2100 parameters and a VALUES list at 1000 rows.
func (d *MSSQLDialect) MaxParams() int { return 2099 }

func (d *MSSQLDialect) MaxRowsPerInsert() int { return 1000 }
