package schema_test

import (
	"math"
	"testing"
	"time"

	"taxi-ingest/internal/failure"
	"taxi-ingest/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCast(t *testing.T) {
	ts := time.Date(2021, 1, 1, 0, 30, 10, 0, time.UTC)
	cases := []struct {
		name string
		in   any
		kind schema.Kind
		want any
	}{
		{"empty string is null", "", schema.KindInt, nil},
		{"nil stays nil", nil, schema.KindFloat, nil},
		{"int from string", "42", schema.KindInt, int64(42)},
		{"int from integral float string", "1.0", schema.KindInt, int64(1)},
		{"float from string", "3.25", schema.KindFloat, 3.25},
		{"text keeps string", "N", schema.KindText, "N"},
		{"timestamp from string", "2021-01-01 00:30:10", schema.KindTimestamp, ts},
		{"int from float", 2.0, schema.KindInt, int64(2)},
		{"nan is null", math.NaN(), schema.KindInt, nil},
		{"float from int", int64(7), schema.KindFloat, 7.0},
		{"bool from string", "true", schema.KindBool, true},
		{"timestamp passes through", ts, schema.KindTimestamp, ts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := schema.Cast(tc.in, tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCast_Failures(t *testing.T) {
	_, err := schema.Cast("abc", schema.KindInt)
	assert.Error(t, err)

	_, err = schema.Cast(1.5, schema.KindInt)
	assert.Error(t, err)

	_, err = schema.Cast("yesterday", schema.KindTimestamp)
	assert.Error(t, err)

	_, err = schema.Cast(time.Now(), schema.KindInt)
	assert.Error(t, err)
}

func TestPolicy_KindFor(t *testing.T) {
	k, ok := schema.CSVTripPolicy.KindFor("tpep_pickup_datetime")
	require.True(t, ok)
	assert.Equal(t, schema.KindTimestamp, k)

	k, ok = schema.CSVTripPolicy.KindFor("passenger_count")
	require.True(t, ok)
	assert.Equal(t, schema.KindInt, k)

	_, ok = schema.ParquetTripPolicy.KindFor("tpep_pickup_datetime")
	assert.False(t, ok, "parse dates only apply to CSV")
}

func TestInferKind(t *testing.T) {
	assert.Equal(t, schema.KindInt, schema.InferKind([]any{"1", "", "3"}))
	assert.Equal(t, schema.KindFloat, schema.InferKind([]any{"1", "2.5"}))
	assert.Equal(t, schema.KindText, schema.InferKind([]any{"1", "x"}))
	assert.Equal(t, schema.KindText, schema.InferKind([]any{"", nil}))
}

func rawBatch(seq int, cols []string, rows ...[]any) *schema.Batch {
	b := &schema.Batch{Seq: seq}
	for _, c := range cols {
		b.Columns = append(b.Columns, schema.Column{Name: c})
	}
	b.Rows = rows
	return b
}

func TestCoercer_FirstBatchFixesKinds(t *testing.T) {
	c := schema.NewCoercer(schema.CSVTripPolicy)
	cols := []string{"VendorID", "tpep_pickup_datetime", "trip_distance", "airport_fee"}

	first := rawBatch(1, cols,
		[]any{"1", "2021-01-01 00:30:10", "2.10", "0"},
		[]any{"2", "2021-01-01 00:51:20", "0.20", ""},
	)
	require.NoError(t, c.Apply(first))

	want := []schema.Column{
		{Name: "VendorID", Kind: schema.KindInt},
		{Name: "tpep_pickup_datetime", Kind: schema.KindTimestamp},
		{Name: "trip_distance", Kind: schema.KindFloat},
		{Name: "airport_fee", Kind: schema.KindInt},
	}
	assert.Equal(t, want, first.Columns)
	assert.Equal(t, int64(1), first.Rows[0][0])
	assert.Nil(t, first.Rows[1][3])

	// airport_fee was inferred as int; a later fractional value is a data error.
	second := rawBatch(2, cols, []any{"1", "2021-01-02 10:00:00", "1.0", "1.25"})
	err := c.Apply(second)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrData)
	assert.Contains(t, err.Error(), `row 3 column "airport_fee"`)
}

func TestCoercer_ColumnSetChange(t *testing.T) {
	c := schema.NewCoercer(schema.Policy{Infer: true})
	require.NoError(t, c.Apply(rawBatch(1, []string{"A", "B"}, []any{"1", "x"})))

	err := c.Apply(rawBatch(2, []string{"A", "C"}, []any{"1", "x"}))
	assert.ErrorIs(t, err, failure.ErrData)
}

func TestCoercer_TypedColumnsKeepKind(t *testing.T) {
	c := schema.NewCoercer(schema.ParquetTripPolicy)
	b := &schema.Batch{
		Seq: 1,
		Columns: []schema.Column{
			{Name: "passenger_count", Kind: schema.KindFloat},
			{Name: "fare_amount", Kind: schema.KindFloat},
		},
		Rows: [][]any{{1.0, 5.5}, {nil, 7.0}},
	}
	require.NoError(t, c.Apply(b))

	assert.Equal(t, schema.KindInt, b.Columns[0].Kind)
	assert.Equal(t, schema.KindFloat, b.Columns[1].Kind)
	assert.Equal(t, int64(1), b.Rows[0][0])
	assert.Nil(t, b.Rows[1][0])
}
