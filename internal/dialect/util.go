package dialect

import (
	"fmt"
	"strings"

	"taxi-ingest/internal/schema"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed, the index of the first one and a
// function that returns the placeholder for a given index.
// It returns a comma-separated string of the generated placeholders.
func GeneratePlaceholders(count, offset int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(offset + i)
	}
	return strings.Join(placeholders, ", ")
}

// QuoteList quotes every name with quote and joins them with commas.
func QuoteList(names []string, quote func(string) string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

// DefaultCreateTableQuery renders CREATE TABLE with one typed column per entry.
func DefaultCreateTableQuery(d Dialect, table string, cols []schema.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", d.QuoteIdent(c.Name), d.ColumnType(c.Kind))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", d.QuoteIdent(table), strings.Join(defs, ",\n\t"))
}

// DefaultInsertQuery renders a multi-row INSERT ... VALUES (...), (...).
func DefaultInsertQuery(d Dialect, table string, cols []string, rows int) string {
	tuples := make([]string, rows)
	for r := 0; r < rows; r++ {
		tuples[r] = "(" + GeneratePlaceholders(len(cols), r*len(cols), d.Placeholder) + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.QuoteIdent(table), QuoteList(cols, d.QuoteIdent), strings.Join(tuples, ", "))
}

// RowsPerStatement is how many rows of width cols fit in one INSERT.
func RowsPerStatement(d Dialect, cols int) int {
	if cols <= 0 {
		return d.MaxRowsPerInsert()
	}
	n := d.MaxParams() / cols
	if n > d.MaxRowsPerInsert() {
		n = d.MaxRowsPerInsert()
	}
	if n < 1 {
		n = 1
	}
	return n
}
