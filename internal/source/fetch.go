package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"taxi-ingest/internal/failure"
)

// ChunkSize is the write unit for streamed downloads.
const ChunkSize = 1024 * 1024

// Download streams url into a new temp file under dir ("" for the OS temp
// dir). The returned cleanup removes the file and is safe to call more than
// once. On error nothing is left on disk.
func Download(ctx context.Context, client *http.Client, url, dir string) (path string, cleanup func(), err error) {
	if client == nil {
		client = DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, failure.Wrap(failure.ErrNetwork, err, "build request for %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", nil, failure.Wrap(failure.ErrNetwork, err, "download %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, fmt.Errorf("%w: download %s: unexpected response %s", failure.ErrNetwork, url, resp.Status)
	}

	f, err := os.CreateTemp(dir, "tripdata-*.parquet")
	if err != nil {
		return "", nil, failure.Wrap(failure.ErrConfig, err, "create temp file in %q", dir)
	}
	name := f.Name()
	cleanup = func() {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: failed to remove %s: %v\n", name, err)
		}
	}

	n, err := copyChunks(f, resp.Body)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", nil, failure.Wrap(failure.ErrNetwork, err, "download %s", url)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		cleanup()
		return "", nil, fmt.Errorf("%w: download %s: got %d of %d bytes", failure.ErrNetwork, url, n, resp.ContentLength)
	}

	log.Printf("Downloaded %s (%d bytes) to %s\n", url, n, name)
	return name, cleanup, nil
}

// copyChunks writes src to dst one ChunkSize read at a time.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	return io.CopyBuffer(struct{ io.Writer }{dst}, src, buf)
}
