package testinfra

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:16-alpine"
	PostgresUser     = "root"
	PostgresPassword = "root"
	PostgresDB       = "ny_taxi"

	// DSNEnv points tests at an existing database instead of a container.
	DSNEnv = "INGEST_TEST_DSN"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// StartPostgres runs a throwaway Postgres container and returns its DSN.
func StartPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("start postgres: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, "", fmt.Errorf("get connection string: %w", err)
	}
	return ctr, dsn, nil
}

// RequirePostgres returns a Postgres DSN for integration tests.
// Priority: INGEST_TEST_DSN > shared testcontainer > skip.
func RequirePostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	if dsn := os.Getenv(DSNEnv); dsn != "" {
		return dsn
	}

	containerOnce.Do(func() {
		// testcontainers panics when it cannot locate a Docker host.
		defer func() {
			if r := recover(); r != nil {
				containerErr = fmt.Errorf("docker: %v", r)
			}
		}()
		// Left running for the rest of the test binary; ryuk reaps it.
		_, containerDSN, containerErr = StartPostgres(context.Background())
	})
	if containerErr != nil {
		t.Skipf("%s not set and Docker unavailable: %v", DSNEnv, containerErr)
	}
	return containerDSN
}
