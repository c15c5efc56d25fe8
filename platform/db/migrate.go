package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"supaco_backend/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
)

// Migrator applies the embedded schema migrations with goose.
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
}

// MigrationStatus describes one migration file and whether it has been applied.
type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

// NewMigrator opens a database/sql handle over pgx and prepares a goose provider
// for the migrations in fsys.
func NewMigrator(cfg config.DatabaseConfig, fsys fs.FS) (*Migrator, error) {
	sqlDB, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}

	return &Migrator{db: sqlDB, provider: provider}, nil
}

// Up applies all pending migrations and returns how many were applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("apply migrations: %w", err)
	}
	return len(results), nil
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	if _, err := m.provider.Down(ctx); err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

// Status lists every known migration in version order.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Close releases the underlying database handle.
func (m *Migrator) Close() error {
	return m.db.Close()
}

// RunMigrations applies all pending migrations from fsys.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig, fsys fs.FS) (int, error) {
	m, err := NewMigrator(cfg, fsys)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	return m.Up(ctx)
}
