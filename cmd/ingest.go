package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"time"

	"taxi-ingest/internal/engine"
	"taxi-ingest/internal/failure"
	"taxi-ingest/internal/progress"
	"taxi-ingest/internal/schema"
	"taxi-ingest/internal/source"
)

// runIngest executes one pipeline run. The source is opened, and for parquet
// fully downloaded, before any database connection is made.
func runIngest(ctx context.Context, out io.Writer, cfg Config) error {
	start := time.Now()

	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	var (
		sink   engine.Sink
		loader *engine.SQLSink
		dry    *engine.DryRunSink
	)
	if cfg.Load.DryRun {
		log.Println("[SIMULATION] Dry-Run Mode Active: No data will be written.")
		dry = engine.NewDryRunSink(cfg.Driver)
		sink = dry
	} else {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintf(out, "🚕 Connected via %s\n", cfg.Redacted())
		loader = engine.NewSQLSink(db, cfg.Driver)
		log.Printf("Using Dialect: %s", loader.Dialect().Name())
		sink = loader
	}

	opts := engine.Options{Table: cfg.Load.TargetTable}
	label := "Ingesting parquet"
	switch cfg.Pipeline {
	case PipelineCSV:
		opts.Mode = engine.ModeReplace
		opts.Policy = schema.CSVTripPolicy
		label = "Ingesting CSV"
	default:
		opts.Mode = engine.ModeAppend
		if cfg.Load.CreateTable {
			opts.Mode = engine.ModeCreateIfMissing
		}
		opts.Policy = schema.ParquetTripPolicy
	}
	log.Printf("Loading into %s (mode=%s, chunksize=%d)", cfg.Load.TargetTable, opts.Mode, cfg.Load.ChunkSize)

	bar := progress.New(out, label, src.Total())
	bar.Start()
	res, err := engine.Run(ctx, src, sink, opts, bar.Add)
	bar.Stop()
	if err != nil {
		log.Printf("Stopped after %d batches (%d rows committed)", res.Batches, res.Rows)
		return err
	}

	report(ctx, out, cfg, res, loader, dry)
	log.Printf("Ingest Done! Time Elapsed: %s", time.Since(start))
	return nil
}

func openSource(ctx context.Context, cfg Config) (source.Source, error) {
	switch cfg.Pipeline {
	case PipelineCSV:
		log.Printf("Streaming csv from %s", cfg.Source.CSVURL)
		return source.OpenCSV(ctx, nil, cfg.Source.CSVURL, cfg.Load.ChunkSize)
	case PipelineParquet:
		url := cfg.Source.ParquetURL
		if url == "" {
			url = source.TripDataURL(cfg.Source.Color, cfg.Source.Year, cfg.Source.Month)
		}
		log.Printf("Downloading %s", url)
		return source.FetchParquet(ctx, nil, url, cfg.Load.DownloadDir, cfg.Load.ChunkSize)
	}
	return nil, fmt.Errorf("%w: unknown pipeline %q", failure.ErrConfig, cfg.Pipeline)
}

func openDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, failure.Wrap(failure.ErrDatabase, err, "failed to open db")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, failure.Wrap(failure.ErrDatabase, err, "failed to connect to %s", cfg.Redacted())
	}
	return db, nil
}

// report prints the run summary. The table count is taken after the run, so
// an append to a table that already held rows shows up as a surplus.
func report(ctx context.Context, out io.Writer, cfg Config, res engine.Result, loader *engine.SQLSink, dry *engine.DryRunSink) {
	fmt.Fprintln(out, "\n📊 Summary Report:")

	icon, status := "✓", "OK"
	var (
		actual int64 = -1
		verr   error
	)
	switch {
	case dry != nil:
		status = "SIMULATED"
	case loader != nil:
		n, err := loader.CountRows(ctx, cfg.Load.TargetTable)
		switch {
		case err != nil:
			icon, status, verr = "!", "UNVERIFIED", err
		case n < res.Rows:
			icon, status = "!", "MISSING ROWS"
		case n > res.Rows:
			status = "OK (table already held rows; re-runs append duplicates)"
		default:
			status = "OK (Verified)"
		}
		if err == nil {
			actual = n
		}
	}

	fmt.Fprintf(out, "[%s] %-20s : %d rows in %d batches - %s\n",
		icon, cfg.Load.TargetTable, res.Rows, res.Batches, status)
	if actual >= 0 {
		fmt.Fprintf(out, "    └ Table now holds %d rows\n", actual)
	}
	if verr != nil {
		fmt.Fprintf(out, "    └ Error: %s\n", verr)
	}
	fmt.Fprintln(out, "--------------------------------------------------")
	fmt.Fprintf(out, "Elapsed: %s\n", res.Elapsed.Round(time.Millisecond))
}
