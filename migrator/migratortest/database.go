package migratortest

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/stretchr/testify/require"

	"github.com/eddiespino/aliento-pay/migrator"
)

// CreatePaymentsTestDatabase creates a test database with the payment schema
// applied. Returns the connection pool ready for use.
func CreatePaymentsTestDatabase(t *testing.T, migrationsDir string) *pgxpool.Pool {
	t.Helper()

	migratorInstance := migrator.NewSchemaMigrator(migrationsDir)
	return createTestDatabaseWithMigrator(t, migratorInstance)
}

// CreateSeededTestDatabase creates a test database with the schema and demo
// payment batches seeded. Returns the connection pool ready for use.
func CreateSeededTestDatabase(t *testing.T, migrationsDir, demoSender string, demoBatches int, seedTimeout time.Duration) *pgxpool.Pool {
	t.Helper()

	migratorInstance := migrator.NewSeededMigrator(migrationsDir, demoSender, demoBatches, seedTimeout)
	return createTestDatabaseWithMigrator(t, migratorInstance)
}

// createTestDatabaseWithMigrator creates a test database using the provided migrator
func createTestDatabaseWithMigrator(t *testing.T, migratorInstance pgtestdb.Migrator) *pgxpool.Pool {
	t.Helper()

	config := createTestDatabaseConfig()

	// Create test database and get its config
	dbConfig := pgtestdb.Custom(t, config, migratorInstance)

	// Connect to the test database using test context for proper lifecycle management
	pool, err := pgxpool.New(t.Context(), dbConfig.URL())
	require.NoError(t, err)

	// Log the database URL for debugging
	t.Logf("testdbconf: %s", dbConfig.URL())

	return pool
}

// createTestDatabaseConfig creates the standard pgtestdb configuration for aliento tests
func createTestDatabaseConfig() pgtestdb.Config {
	return pgtestdb.Config{
		DriverName: "pgx",
		User:       "aliento",
		Password:   "aliento",
		Host:       "localhost",
		Port:       "5432",
		Options:    "sslmode=disable",
	}
}
