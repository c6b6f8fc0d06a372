package schema

import (
	"fmt"
	"strconv"
	"strings"

	"taxi-ingest/internal/failure"
)

// Coercer applies a Policy batch by batch. The first batch fixes the column
// kinds for the rest of the run.
type Coercer struct {
	policy  Policy
	columns []Column
	rows    int
}

func NewCoercer(p Policy) *Coercer {
	return &Coercer{policy: p}
}

// Apply casts every value of b in place and stamps the resolved kinds on its
// columns.
func (c *Coercer) Apply(b *Batch) error {
	if c.columns == nil {
		c.columns = c.resolve(b)
	} else if err := c.checkColumns(b); err != nil {
		return err
	}

	for r, row := range b.Rows {
		if len(row) != len(c.columns) {
			return fmt.Errorf("%w: batch %d row %d: expected %d values, got %d",
				failure.ErrData, b.Seq, c.rows+r+1, len(c.columns), len(row))
		}
		for i, col := range c.columns {
			v, err := Cast(row[i], col.Kind)
			if err != nil {
				return fmt.Errorf("%w: batch %d row %d column %q: %v",
					failure.ErrData, b.Seq, c.rows+r+1, col.Name, err)
			}
			row[i] = v
		}
	}
	c.rows += len(b.Rows)

	cols := make([]Column, len(c.columns))
	copy(cols, c.columns)
	b.Columns = cols
	return nil
}

func (c *Coercer) resolve(b *Batch) []Column {
	cols := make([]Column, len(b.Columns))
	for i, col := range b.Columns {
		cols[i] = Column{Name: col.Name, Kind: col.Kind}
		if k, ok := c.policy.KindFor(col.Name); ok {
			cols[i].Kind = k
			continue
		}
		if col.Kind != KindUnknown {
			continue
		}
		if c.policy.Infer {
			cols[i].Kind = InferKind(columnValues(b, i))
		} else {
			cols[i].Kind = KindText
		}
	}
	return cols
}

func (c *Coercer) checkColumns(b *Batch) error {
	if len(b.Columns) != len(c.columns) {
		return fmt.Errorf("%w: batch %d has %d columns, first batch had %d",
			failure.ErrData, b.Seq, len(b.Columns), len(c.columns))
	}
	for i, col := range b.Columns {
		if col.Name != c.columns[i].Name {
			return fmt.Errorf("%w: batch %d column %d is %q, first batch had %q",
				failure.ErrData, b.Seq, i+1, col.Name, c.columns[i].Name)
		}
	}
	return nil
}

func columnValues(b *Batch, i int) []any {
	vals := make([]any, 0, len(b.Rows))
	for _, row := range b.Rows {
		if i < len(row) {
			vals = append(vals, row[i])
		}
	}
	return vals
}

// InferKind picks the narrowest kind every raw value fits: int, then float,
// then text. A column with no values at all is text.
func InferKind(values []any) Kind {
	isInt, isFloat, seen := true, true, false
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			if v != nil {
				return KindText
			}
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
				break
			}
		}
	}

	switch {
	case !seen:
		return KindText
	case isInt:
		return KindInt
	case isFloat:
		return KindFloat
	default:
		return KindText
	}
}
