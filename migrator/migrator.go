// Package migrator applies the payment schema and optional demo seed data.
package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/payment/store/pgxstore"
	"github.com/eddiespino/aliento-pay/pkg/pgxdb"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_demo_"
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrSeedingFailed      = errors.New("demo data seeding failed")
)

// SchemaMigrator applies only database schema migrations
// Used for production and tests that need schema-only setup
type SchemaMigrator struct {
	migrationsDir string
}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{
		migrationsDir: migrationsDir,
	}
}

func (m *SchemaMigrator) Hash() (string, error) {
	source := &migrate.FileMigrationSource{Dir: m.migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}
	sqlMigrator := sqlmigrator.New(source, migrationSet)

	baseHash, err := sqlMigrator.Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %s: %w", m.migrationsDir, err)
	}

	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	return applyMigrations(db, m.migrationsDir)
}

// SeededMigrator applies schema migrations + seeds demo payment batches
// Used for web API tests that need realistic data to test against
type SeededMigrator struct {
	migrationsDir string
	demoSender    string
	demoBatches   int
	seedTimeout   time.Duration
}

// NewSeededMigrator creates a migrator that applies schema + seeds demo data
func NewSeededMigrator(migrationsDir, demoSender string, demoBatches int, seedTimeout time.Duration) *SeededMigrator {
	return &SeededMigrator{
		migrationsDir: migrationsDir,
		demoSender:    demoSender,
		demoBatches:   demoBatches,
		seedTimeout:   seedTimeout,
	}
}

func (m *SeededMigrator) Hash() (string, error) {
	source := &migrate.FileMigrationSource{Dir: m.migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}
	sqlMigrator := sqlmigrator.New(source, migrationSet)

	baseHash, err := sqlMigrator.Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %s: %w", m.migrationsDir, err)
	}

	return fmt.Sprintf("%s%s_%s_%d", seededHashPrefix, baseHash, m.demoSender, m.demoBatches), nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	// Apply schema migrations using common function
	if err := applyMigrations(db, m.migrationsDir); err != nil {
		return err
	}

	// Then seed with demo payment data
	return m.seedDemoData(ctx, conf.URL())
}

// seedDemoData fills the template database with demo payment batches in
// every lifecycle state the web API can serve
func (m *SeededMigrator) seedDemoData(ctx context.Context, dbURL string) error {
	slog.InfoContext(ctx, "Seeding demo database with payment data",
		"sender", m.demoSender,
		"batches", m.demoBatches,
		"timeout", m.seedTimeout)

	seedCtx, cancel := context.WithTimeout(ctx, m.seedTimeout)
	defer cancel()

	pool, err := pgxdb.NewConnection(seedCtx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, storeCloser := pgxstore.New(pool)
	defer storeCloser()

	for _, b := range DemoBatches(m.demoSender, m.demoBatches) {
		if err := store.SaveBatch(seedCtx, b); err != nil {
			return fmt.Errorf("%w: %w", ErrSeedingFailed, err)
		}
	}

	slog.InfoContext(seedCtx, "Demo database seeding completed successfully")
	return nil
}

// DemoBatches builds n deterministic demo batches cycling through the
// lifecycle states
func DemoBatches(sender string, n int) []*payment.Batch {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	batches := make([]*payment.Batch, 0, n)
	for i := 0; i < n; i++ {
		var payments []*payment.Payment
		for j := 0; j < 5; j++ {
			p, err := payment.NewPayment(
				sender,
				fmt.Sprintf("delegator-%d-%d", i, j),
				float64(j+1)*0.25,
				payment.DefaultCurrency,
				"demo delegation rewards",
				payment.TypeBatch,
				createdAt.AddDate(0, 0, i),
			)
			if err != nil {
				panic(err) // deterministic inputs, cannot fail
			}
			payments = append(payments, p)
		}

		b, err := payment.NewBatch(sender, payments, createdAt.AddDate(0, 0, i))
		if err != nil {
			panic(err)
		}

		// Cycle through completed, failed and pending states
		now := createdAt.AddDate(0, 0, i+1)
		switch i % 3 {
		case 0:
			_ = b.MarkAsProcessing()
			_ = b.MarkAsCompleted(fmt.Sprintf("demo-tx-%d", i), now)
		case 1:
			_ = b.MarkAsProcessing()
			_ = b.MarkAsFailed("demo failure", now)
		}

		batches = append(batches, b)
	}
	return batches
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) error {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, migrationsDir string) error {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	_, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return nil
}
