package source_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"taxi-ingest/internal/failure"
	"taxi-ingest/internal/schema"
	"taxi-ingest/internal/source"
	"taxi-ingest/internal/testinfra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripCSV(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, testinfra.WriteCSV(&buf, testinfra.GenerateTrips(42, n)))
	return buf.Bytes()
}

func serve(t *testing.T, path string, body []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func batchSizes(batches []*schema.Batch) []int {
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = b.Len()
	}
	return sizes
}

func TestCSVSource_BatchesInOrder(t *testing.T) {
	ctx := context.Background()
	srv := serve(t, "/yellow_tripdata_2021-01.csv", tripCSV(t, 250))

	src, err := source.OpenCSV(ctx, srv.Client(), srv.URL+"/yellow_tripdata_2021-01.csv", 100)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(-1), src.Total())
	assert.Equal(t, testinfra.CSVHeader[0], src.Columns()[0].Name)

	batches, err := source.Drain(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 50}, batchSizes(batches))

	for i, b := range batches {
		assert.Equal(t, i+1, b.Seq)
		assert.Len(t, b.Columns, len(testinfra.CSVHeader))
	}

	// Concatenated batches reproduce the source rows.
	trips := testinfra.GenerateTrips(42, 250)
	var pickups []any
	for _, b := range batches {
		for _, row := range b.Rows {
			pickups = append(pickups, row[1])
		}
	}
	require.Len(t, pickups, 250)
	for i, tr := range trips {
		assert.Equal(t, tr.PickupAt.Format("2006-01-02 15:04:05"), pickups[i])
	}

	// Produce-once: exhausted stays exhausted.
	_, err = src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestCSVSource_Gzip(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write(tripCSV(t, 30))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := serve(t, "/yellow_tripdata_2021-01.csv.gz", gz.Bytes())

	src, err := source.OpenCSV(context.Background(), srv.Client(), srv.URL+"/yellow_tripdata_2021-01.csv.gz", 100)
	require.NoError(t, err)
	defer src.Close()

	batches, err := source.Drain(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{30}, batchSizes(batches))
}

func TestCSVSource_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := source.OpenCSV(context.Background(), srv.Client(), srv.URL+"/missing.csv", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrNetwork)
	assert.Contains(t, err.Error(), "404")
}

func TestCSVSource_MissingLocalFile(t *testing.T) {
	_, err := source.OpenCSV(context.Background(), nil, filepath.Join(t.TempDir(), "nope.csv"), 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrConfig)
	assert.NotErrorIs(t, err, failure.ErrNetwork)
}

func TestCSVSource_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(path, tripCSV(t, 5), 0o644))

	src, err := source.OpenCSV(context.Background(), nil, path, 2)
	require.NoError(t, err)
	defer src.Close()

	batches, err := source.Drain(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, batchSizes(batches))
}

func TestCSVSource_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("A,B\n"), 0o644))

	src, err := source.OpenCSV(context.Background(), nil, path, 10)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestCSVSource_RaggedRowIsDataError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("A,B\n1,2\n3\n"), 0o644))

	src, err := source.OpenCSV(context.Background(), nil, path, 10)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, failure.ErrData)
}

func TestCSVSource_RejectsBadChunkSize(t *testing.T) {
	_, err := source.OpenCSV(context.Background(), nil, "whatever.csv", 0)
	assert.ErrorIs(t, err, failure.ErrConfig)
}
