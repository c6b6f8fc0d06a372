package dialect

import (
	"fmt"
	"strings"

	"taxi-ingest/internal/schema"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, etc. (1-based index)
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) ColumnType(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		return "NUMBER(19)"
	case schema.KindFloat:
		return "BINARY_DOUBLE"
	case schema.KindTimestamp:
		return "TIMESTAMP"
	case schema.KindBool:
		return "NUMBER(1)"
	default:
		return "VARCHAR2(4000)"
	}
}

func (d *OracleDialect) CreateTableQuery(table string, cols []schema.Column) string {
	return DefaultCreateTableQuery(d, table, cols)
}

// DropTableQuery swallows ORA-00942 (table does not exist).
func (d *OracleDialect) DropTableQuery(table string) string {
	stmt := strings.ReplaceAll("DROP TABLE "+d.QuoteIdent(table), "'", "''")
	return fmt.Sprintf(`BEGIN
	EXECUTE IMMEDIATE '%s';
EXCEPTION
	WHEN OTHERS THEN
		IF SQLCODE != -942 THEN
			RAISE;
		END IF;
END;`, stmt)
}

func (d *OracleDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM USER_TABLES WHERE TABLE_NAME = :1`
}

// InsertQuery uses INSERT ALL since Oracle has no multi-row VALUES list
// before 23c.
func (d *OracleDialect) InsertQuery(table string, cols []string, rows int) string {
	if rows == 1 {
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			d.QuoteIdent(table), QuoteList(cols, d.QuoteIdent), GeneratePlaceholders(len(cols), 0, d.Placeholder))
	}
	var sb strings.Builder
	sb.WriteString("INSERT ALL")
	target := d.QuoteIdent(table)
	colList := QuoteList(cols, d.QuoteIdent)
	for r := 0; r < rows; r++ {
		fmt.Fprintf(&sb, " INTO %s (%s) VALUES (%s)", target, colList,
			GeneratePlaceholders(len(cols), r*len(cols), d.Placeholder))
	}
	sb.WriteString(" SELECT 1 FROM DUAL")
	return sb.String()
}

func (d *OracleDialect) CountRowsQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdent(table))
}

func (d *OracleDialect) MaxParams() int { return 65535 }

func (d *OracleDialect) MaxRowsPerInsert() int { return 500 }
