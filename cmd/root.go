package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"taxi-ingest/internal/failure"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "INGEST"

var RootCmd = newRootCmd(viper.GetViper())

// flagKeys maps each flag to its viper key. Env vars follow the key:
// pg.pass -> INGEST_PG_PASS, source.csv-url -> INGEST_SOURCE_CSV_URL.
var flagKeys = map[string]string{
	"pipeline":     "pipeline",
	"driver":       "driver",
	"dsn":          "dsn",
	"pg-user":      "pg.user",
	"pg-pass":      "pg.pass",
	"pg-host":      "pg.host",
	"pg-port":      "pg.port",
	"pg-db":        "pg.db",
	"pg-sslmode":   "pg.sslmode",
	"year":         "source.year",
	"month":        "source.month",
	"color":        "source.color",
	"parquet-url":  "source.parquet-url",
	"csv-url":      "source.csv-url",
	"chunksize":    "load.chunksize",
	"target-table": "load.target-table",
	"create-table": "load.create-table",
	"download-dir": "load.download-dir",
	"dry-run":      "load.dry-run",
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxi-ingest",
		Short: "Load NYC taxi trip data into a SQL table",
		Long: `
TAXI INGEST 🚕 - NYC TLC trip data loader

Streams a monthly trip file (parquet or csv) in fixed-size batches and
appends every batch to a database table.`,
		Example: `  taxi-ingest --pipeline parquet --year 2021 --month 1 --target-table green_taxi_trips
  taxi-ingest --pipeline csv --csv-url https://example.com/yellow_tripdata_2021-01.csv.gz`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	f.String("config", "", "config file (default is ./taxi-ingest.yaml)")
	f.String("env-file", ".env", "dotenv file loaded before reading INGEST_* variables")

	f.String("pipeline", "", "ingestion variant: parquet or csv (required)")
	f.String("driver", "postgres", "database/sql driver: postgres, pgx, mysql, sqlserver or oracle")
	f.String("dsn", "", "connection string; overrides the pg-* flags")
	f.String("pg-user", "root", "database user")
	f.String("pg-pass", "root", "database password")
	f.String("pg-host", "pgdatabase", "database host")
	f.Int("pg-port", 5432, "database port")
	f.String("pg-db", "ny_taxi", "database name")
	f.String("pg-sslmode", "disable", "postgres sslmode")

	f.Int("year", 2021, "trip data year (parquet)")
	f.Int("month", 1, "trip data month, 1-12 (parquet)")
	f.String("color", "green", "trip dataset: green, yellow, fhv or fhvhv (parquet)")
	f.String("parquet-url", "", "parquet file URL; overrides year/month/color")
	f.String("csv-url", "", "csv file URL or path, optionally .gz (required for csv)")

	f.Int("chunksize", 100000, "rows per batch")
	f.String("target-table", "yellow_taxi_trips", "table to load into")
	f.Bool("create-table", false, "parquet: create the target table when it does not exist")
	f.String("download-dir", "", "directory for the temporary parquet download (default OS temp dir)")
	f.Bool("dry-run", false, "read and coerce every batch without touching a database")

	for name, key := range flagKeys {
		v.BindPFlag(key, f.Lookup(name)) //nolint:errcheck // flag defined above
	}
	return cmd
}

// Execute runs the root command and exits 1 on any error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		if needsUsage(err) {
			fmt.Println("Run 'taxi-ingest --help' for usage.")
		}
		os.Exit(1)
	}
}

// needsUsage reports whether err came from the invocation itself: a
// configuration error, or a cobra flag error that carries no kind.
func needsUsage(err error) bool {
	kind := failure.Kind(err)
	return kind == nil || kind == failure.ErrConfig
}

// initConfig loads the dotenv file, then the config file, then turns on
// INGEST_* lookups. Flags still win over all of them.
func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			// The default .env is optional; an explicit one is not.
			if cmd.Flags().Changed("env-file") || !errors.Is(err, os.ErrNotExist) {
				return failure.Wrap(failure.ErrConfig, err, "load env file %s", envFile)
			}
		}
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
		// 2. Current Directory (Priority 2)
		v.AddConfigPath(".")

		v.SetConfigName("taxi-ingest")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return failure.Wrap(failure.ErrConfig, err, "read config")
		}
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
	return nil
}
