package schema

import "fmt"

// Kind is the semantic type of a column.
type Kind int

const (
	KindUnknown   Kind = iota // raw source text, kind decided by the coercer
	KindInt                   // nullable int64
	KindFloat                 // float64
	KindText                  // string
	KindTimestamp             // time.Time
	KindBool                  // bool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

type Column struct {
	Name string
	Kind Kind
}

// Batch is a group of source rows loaded as one unit. Rows hold one value per
// column; nil is NULL.
type Batch struct {
	Seq     int // 1-based production order
	Columns []Column
	Rows    [][]any
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// ColumnNames returns the column names in order.
func (b *Batch) ColumnNames() []string {
	names := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		names[i] = c.Name
	}
	return names
}

// Empty returns a zero-row batch with the same columns.
func (b *Batch) Empty() *Batch {
	cols := make([]Column, len(b.Columns))
	copy(cols, b.Columns)
	return &Batch{Seq: b.Seq, Columns: cols}
}

func (b *Batch) String() string {
	return fmt.Sprintf("batch #%d (%d rows, %d columns)", b.Seq, b.Len(), len(b.Columns))
}
