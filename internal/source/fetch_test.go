package source_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"taxi-ingest/internal/failure"
	"taxi-ingest/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripDataURL(t *testing.T) {
	assert.Equal(t,
		"https://d37ci6vzurychx.cloudfront.net/trip-data/green_tripdata_2021-01.parquet",
		source.TripDataURL("green", 2021, 1))
	assert.Equal(t,
		"https://d37ci6vzurychx.cloudfront.net/trip-data/yellow_tripdata_2019-11.parquet",
		source.TripDataURL("Yellow", 2019, 11))
	assert.Equal(t, source.TripDataURL("green", 2020, 3), source.TripDataURL("", 2020, 3))
}

func TestDownload_WritesAndCleansUp(t *testing.T) {
	payload := bytes.Repeat([]byte("taxi"), source.ChunkSize/2) // two chunks
	srv := serve(t, "/green.parquet", payload)
	dir := t.TempDir()

	path, cleanup, err := source.Download(context.Background(), srv.Client(), srv.URL+"/green.parquet", dir)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	cleanup() // second call is a no-op
}

func TestDownload_NotFoundLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	dir := t.TempDir()

	_, _, err := source.Download(context.Background(), srv.Client(), srv.URL+"/green_tripdata_2099-01.parquet", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrNetwork)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownload_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("short"))
	}))
	defer srv.Close()
	dir := t.TempDir()

	_, _, err := source.Download(context.Background(), srv.Client(), srv.URL, dir)
	assert.ErrorIs(t, err, failure.ErrNetwork)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownload_MissingDownloadDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PAR1"))
	}))
	defer srv.Close()

	_, _, err := source.Download(context.Background(), srv.Client(), srv.URL, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrConfig)
}
