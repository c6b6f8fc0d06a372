package cmd

import (
	"fmt"
	"slices"

	"taxi-ingest/internal/dialect"
	"taxi-ingest/internal/failure"
	"taxi-ingest/internal/source"

	"github.com/spf13/viper"
)

const (
	PipelineParquet = "parquet"
	PipelineCSV     = "csv"
)

type PGConfig struct {
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DB      string `mapstructure:"db"`
	SSLMode string `mapstructure:"sslmode"`
}

type SourceConfig struct {
	Year       int    `mapstructure:"year"`
	Month      int    `mapstructure:"month"`
	Color      string `mapstructure:"color"`
	ParquetURL string `mapstructure:"parquet-url"`
	CSVURL     string `mapstructure:"csv-url"`
}

type LoadConfig struct {
	ChunkSize   int    `mapstructure:"chunksize"`
	TargetTable string `mapstructure:"target-table"`
	CreateTable bool   `mapstructure:"create-table"`
	DownloadDir string `mapstructure:"download-dir"`
	DryRun      bool   `mapstructure:"dry-run"`
}

// Config is resolved once per invocation and passed by value from then on.
type Config struct {
	Pipeline string       `mapstructure:"pipeline"`
	Driver   string       `mapstructure:"driver"`
	DSN      string       `mapstructure:"dsn"`
	PG       PGConfig     `mapstructure:"pg"`
	Source   SourceConfig `mapstructure:"source"`
	Load     LoadConfig   `mapstructure:"load"`
}

// loadConfig reads the merged flag/env/file settings out of v and checks
// them. Every problem found here is a failure.ErrConfig.
func loadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, failure.Wrap(failure.ErrConfig, err, "failed to parse settings")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Pipeline {
	case PipelineParquet, PipelineCSV:
	case "":
		return fmt.Errorf("%w: --pipeline is required (parquet or csv)", failure.ErrConfig)
	default:
		return fmt.Errorf("%w: unknown pipeline %q (want parquet or csv)", failure.ErrConfig, c.Pipeline)
	}

	if c.Pipeline == PipelineCSV && c.Source.CSVURL == "" {
		return fmt.Errorf("%w: --csv-url is required for the csv pipeline", failure.ErrConfig)
	}
	if c.Pipeline == PipelineParquet && c.Source.ParquetURL == "" {
		if c.Source.Month < 1 || c.Source.Month > 12 {
			return fmt.Errorf("%w: month must be 1-12, got %d", failure.ErrConfig, c.Source.Month)
		}
		if c.Source.Year < 2009 {
			return fmt.Errorf("%w: no trip data published for year %d", failure.ErrConfig, c.Source.Year)
		}
		if !slices.Contains(source.Colors, c.Source.Color) {
			return fmt.Errorf("%w: unknown color %q (want one of %v)", failure.ErrConfig, c.Source.Color, source.Colors)
		}
	}

	if c.Load.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunksize must be positive, got %d", failure.ErrConfig, c.Load.ChunkSize)
	}
	if c.Load.TargetTable == "" {
		return fmt.Errorf("%w: --target-table must not be empty", failure.ErrConfig)
	}
	if !slices.Contains(dialect.Drivers, c.Driver) {
		return fmt.Errorf("%w: unsupported driver %q (want one of %v)", failure.ErrConfig, c.Driver, dialect.Drivers)
	}
	if c.DSN == "" && c.PG.Host == "" {
		return fmt.Errorf("%w: set --dsn or --pg-host", failure.ErrConfig)
	}
	return nil
}

// ConnString is --dsn when given, otherwise one built from the pg-* settings
// for the selected driver.
func (c Config) ConnString() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	dsn, err := dialect.BuildDSN(c.Driver, dialect.ConnParams{
		User:     c.PG.User,
		Password: c.PG.Pass,
		Host:     c.PG.Host,
		Port:     c.PG.Port,
		Database: c.PG.DB,
		SSLMode:  c.PG.SSLMode,
	})
	if err != nil {
		return "", failure.Wrap(failure.ErrConfig, err, "build dsn")
	}
	return dsn, nil
}

// Redacted is the connection target with the password masked, for logs.
func (c Config) Redacted() string {
	if c.DSN != "" {
		return c.Driver + " (dsn)"
	}
	return fmt.Sprintf("%s://%s:***@%s:%d/%s", c.Driver, c.PG.User, c.PG.Host, c.PG.Port, c.PG.DB)
}
