// Package testinfra holds fixtures and containers shared by integration and
// package tests.
package testinfra

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/brianvoe/gofakeit/v6"
)

// Trip is one synthetic taxi trip.
type Trip struct {
	VendorID        int64
	PickupAt        time.Time
	DropoffAt       time.Time
	PassengerCount  *float64 // stored as double in the parquet files
	TripDistance    float64
	StoreAndFwdFlag string
	PULocationID    int64
	DOLocationID    int64
	PaymentType     int64
	FareAmount      float64
	TipAmount       float64
	TotalAmount     float64
}

// GenerateTrips returns n deterministic trips for seed. Every tenth trip has
// no passenger count.
func GenerateTrips(seed int64, n int) []Trip {
	f := gofakeit.New(seed)
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 1, 31, 23, 0, 0, 0, time.UTC)

	trips := make([]Trip, n)
	for i := range trips {
		pickup := f.DateRange(start, end).Truncate(time.Second).UTC()
		fare := float64(f.Number(250, 9000)) / 100
		tip := float64(f.Number(0, 500)) / 100
		t := Trip{
			VendorID:        int64(f.Number(1, 2)),
			PickupAt:        pickup,
			DropoffAt:       pickup.Add(time.Duration(f.Number(60, 3600)) * time.Second),
			TripDistance:    float64(f.Number(10, 2500)) / 100,
			StoreAndFwdFlag: f.RandomString([]string{"N", "Y"}),
			PULocationID:    int64(f.Number(1, 265)),
			DOLocationID:    int64(f.Number(1, 265)),
			PaymentType:     int64(f.Number(1, 4)),
			FareAmount:      fare,
			TipAmount:       tip,
			TotalAmount:     fare + tip + 0.5,
		}
		if i%10 != 9 {
			pc := float64(f.Number(1, 6))
			t.PassengerCount = &pc
		}
		trips[i] = t
	}
	return trips
}

// CSVHeader is the yellow trip CSV header subset the fixtures carry.
var CSVHeader = []string{
	"VendorID", "tpep_pickup_datetime", "tpep_dropoff_datetime", "passenger_count",
	"trip_distance", "store_and_fwd_flag", "PULocationID", "DOLocationID",
	"payment_type", "fare_amount", "tip_amount", "total_amount",
}

const csvTimeLayout = "2006-01-02 15:04:05"

// WriteCSV writes trips in yellow-trip CSV layout.
func WriteCSV(w io.Writer, trips []Trip) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, t := range trips {
		pc := ""
		if t.PassengerCount != nil {
			pc = strconv.FormatInt(int64(*t.PassengerCount), 10)
		}
		rec := []string{
			strconv.FormatInt(t.VendorID, 10),
			t.PickupAt.Format(csvTimeLayout),
			t.DropoffAt.Format(csvTimeLayout),
			pc,
			strconv.FormatFloat(t.TripDistance, 'f', 2, 64),
			t.StoreAndFwdFlag,
			strconv.FormatInt(t.PULocationID, 10),
			strconv.FormatInt(t.DOLocationID, 10),
			strconv.FormatInt(t.PaymentType, 10),
			strconv.FormatFloat(t.FareAmount, 'f', 2, 64),
			strconv.FormatFloat(t.TipAmount, 'f', 2, 64),
			strconv.FormatFloat(t.TotalAmount, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParquetSchema mirrors the green trip parquet layout for the fixture columns.
var ParquetSchema = arrow.NewSchema([]arrow.Field{
	{Name: "VendorID", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "lpep_pickup_datetime", Type: arrow.FixedWidthTypes.Timestamp_us, Nullable: true},
	{Name: "lpep_dropoff_datetime", Type: arrow.FixedWidthTypes.Timestamp_us, Nullable: true},
	{Name: "passenger_count", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "trip_distance", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "store_and_fwd_flag", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "PULocationID", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "DOLocationID", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "payment_type", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "fare_amount", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "tip_amount", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "total_amount", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// WriteParquet writes trips to path in row groups of at most rowGroup rows.
func WriteParquet(path string, trips []Trip, rowGroup int64) error {
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, ParquetSchema)
	defer b.Release()

	for _, t := range trips {
		b.Field(0).(*array.Int64Builder).Append(t.VendorID)
		b.Field(1).(*array.TimestampBuilder).Append(arrow.Timestamp(t.PickupAt.UnixMicro()))
		b.Field(2).(*array.TimestampBuilder).Append(arrow.Timestamp(t.DropoffAt.UnixMicro()))
		if t.PassengerCount != nil {
			b.Field(3).(*array.Float64Builder).Append(*t.PassengerCount)
		} else {
			b.Field(3).(*array.Float64Builder).AppendNull()
		}
		b.Field(4).(*array.Float64Builder).Append(t.TripDistance)
		b.Field(5).(*array.StringBuilder).Append(t.StoreAndFwdFlag)
		b.Field(6).(*array.Int32Builder).Append(int32(t.PULocationID))
		b.Field(7).(*array.Int32Builder).Append(int32(t.DOLocationID))
		b.Field(8).(*array.Int64Builder).Append(t.PaymentType)
		b.Field(9).(*array.Float64Builder).Append(t.FareAmount)
		b.Field(10).(*array.Float64Builder).Append(t.TipAmount)
		b.Field(11).(*array.Float64Builder).Append(t.TotalAmount)
	}
	rec := b.NewRecord()
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithMaxRowGroupLength(rowGroup))
	w, err := pqarrow.NewFileWriter(ParquetSchema, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("parquet write: %w", err)
	}
	return w.Close()
}
