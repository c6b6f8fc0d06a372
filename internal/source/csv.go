package source

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"taxi-ingest/internal/failure"
	"taxi-ingest/internal/schema"
)

// CSVSource streams a CSV file, header first, straight off its reader. No
// local copy is made.
type CSVSource struct {
	location  string
	chunkSize int
	body      io.ReadCloser
	gz        *gzip.Reader
	reader    *csv.Reader
	columns   []schema.Column
	seq       int
	offset    int64
	done      bool
}

// OpenCSV opens location (http(s) URL or local path) for batched reading.
// Paths ending in .gz are decompressed on the fly.
func OpenCSV(ctx context.Context, client *http.Client, location string, chunkSize int) (*CSVSource, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", failure.ErrConfig, chunkSize)
	}

	body, err := openLocation(ctx, client, location)
	if err != nil {
		return nil, err
	}
	s := &CSVSource{location: location, chunkSize: chunkSize, body: body}

	var r io.Reader = body
	if isGzip(location) {
		s.gz, err = gzip.NewReader(body)
		if err != nil {
			body.Close()
			return nil, failure.Wrap(failure.ErrData, err, "open gzip stream %s", location)
		}
		r = s.gz
	}

	s.reader = csv.NewReader(r)

	// First row is always headers
	headers, err := s.reader.Read()
	if err != nil {
		s.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s is empty", failure.ErrData, location)
		}
		return nil, failure.Wrap(failure.ErrData, err, "reading csv headers")
	}
	s.reader.FieldsPerRecord = len(headers)
	for _, h := range headers {
		s.columns = append(s.columns, schema.Column{Name: strings.TrimPrefix(h, "\ufeff")})
	}
	return s, nil
}

func openLocation(ctx context.Context, client *http.Client, location string) (io.ReadCloser, error) {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		f, err := os.Open(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, failure.Wrap(failure.ErrConfig, err, "open csv %s", location)
		}
		return f, nil
	}

	if client == nil {
		client = DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, failure.Wrap(failure.ErrNetwork, err, "build request for %s", location)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.ErrNetwork, err, "fetch %s", location)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: fetch %s: unexpected response %s", failure.ErrNetwork, location, resp.Status)
	}
	return resp.Body, nil
}

func isGzip(location string) bool {
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		return strings.HasSuffix(strings.ToLower(u.Path), ".gz")
	}
	return strings.HasSuffix(strings.ToLower(location), ".gz")
}

// Columns are the header names; every value read is a raw string.
func (s *CSVSource) Columns() []schema.Column {
	return s.columns
}

func (s *CSVSource) Total() int64 { return -1 }

func (s *CSVSource) Next(ctx context.Context) (*schema.Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([][]any, 0, s.chunkSize)
	for len(rows) < s.chunkSize {
		record, err := s.reader.Read()
		if err == io.EOF {
			s.done = true
			break
		}
		if err != nil {
			return nil, failure.Wrap(failure.ErrData, err, "read %s after row %d", s.location, s.offset)
		}
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}
		rows = append(rows, row)
		s.offset++
	}

	if len(rows) == 0 {
		return nil, io.EOF
	}
	s.seq++
	cols := make([]schema.Column, len(s.columns))
	copy(cols, s.columns)
	return &schema.Batch{Seq: s.seq, Columns: cols, Rows: rows}, nil
}

func (s *CSVSource) Close() error {
	s.done = true
	if s.gz != nil {
		s.gz.Close()
	}
	if s.body != nil {
		err := s.body.Close()
		s.body = nil
		return err
	}
	return nil
}
