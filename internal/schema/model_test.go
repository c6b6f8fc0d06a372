package schema_test

import (
	"testing"

	"taxi-ingest/internal/schema"

	"github.com/stretchr/testify/assert"
)

func TestBatch_Empty(t *testing.T) {
	b := &schema.Batch{
		Seq:     1,
		Columns: []schema.Column{{Name: "A", Kind: schema.KindInt}, {Name: "B", Kind: schema.KindText}},
		Rows:    [][]any{{int64(1), "x"}},
	}
	e := b.Empty()
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, []string{"A", "B"}, e.ColumnNames())

	e.Columns[0].Name = "changed"
	assert.Equal(t, "A", b.Columns[0].Name)
}

func TestBatch_NilLen(t *testing.T) {
	var b *schema.Batch
	assert.Equal(t, 0, b.Len())
}
