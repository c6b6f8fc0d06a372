package dialect

import (
	"fmt"
	"strings"

	"taxi-ingest/internal/schema"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) ColumnType(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		return "BIGINT"
	case schema.KindFloat:
		return "DOUBLE"
	case schema.KindTimestamp:
		return "DATETIME(6)"
	case schema.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (d *MysqlDialect) CreateTableQuery(table string, cols []schema.Column) string {
	return DefaultCreateTableQuery(d, table, cols)
}

func (d *MysqlDialect) DropTableQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdent(table))
}

func (d *MysqlDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`
}

func (d *MysqlDialect) InsertQuery(table string, cols []string, rows int) string {
	return DefaultInsertQuery(d, table, cols, rows)
}

func (d *MysqlDialect) CountRowsQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdent(table))
}

func (d *MysqlDialect) MaxParams() int { return 65535 }

func (d *MysqlDialect) MaxRowsPerInsert() int { return 5000 }
