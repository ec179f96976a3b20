package pgxdbtest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
)

// CreateTestDatabase creates a test database with migrations applied.
// Returns the connection pool and database URL for further connections.
func CreateTestDatabase(t *testing.T, migrationsDir string) (*pgxpool.Pool, string) {
	t.Helper()

	config := pgtestdb.Config{
		DriverName: "pgx",
		User:       "aliento",
		Password:   "aliento",
		Host:       "localhost",
		Port:       "5432",
		Options:    "sslmode=disable",
	}

	// Set up sql-migrate migrator
	source := &migrate.FileMigrationSource{
		Dir: migrationsDir,
	}
	migrationSet := &migrate.MigrationSet{
		TableName: "schema_migrations",
	}
	migrator := sqlmigrator.New(source, migrationSet)

	// Create test database and get its config
	dbConfig := pgtestdb.Custom(t, config, migrator)
	dbURL := dbConfig.URL()

	t.Logf("testdbconf: %s", dbURL)

	pool, err := createTestConnection(t.Context(), dbURL)
	require.NoError(t, err)

	return pool, dbURL
}

// createTestConnection creates a connection pool optimized for integration tests
func createTestConnection(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, err
	}

	// Minimal pool size, short lifecycles and fast failure detection; tests
	// are typically sequential and should fail fast
	config.MinConns = 1
	config.MaxConns = 2
	config.MaxConnLifetime = 10 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, config)
}
