// Package testutil provides a PostgreSQL database for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Postgres is a schema-initialized database for one test binary
type Postgres struct {
	DB        *gorm.DB
	container *postgres.PostgresContainer
}

// StartPostgres connects to TEST_DB_HOST when set, otherwise starts a throwaway
// postgres container, then loads db/init_pg_db.sql.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	pg := &Postgres{}

	dsn, err := pg.dsn(ctx)
	if err != nil {
		return nil, err
	}

	pg.DB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		pg.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pg.initSchema(); err != nil {
		pg.Terminate(ctx)
		return nil, err
	}

	return pg, nil
}

func (pg *Postgres) dsn(ctx context.Context) (string, error) {
	if dbHost := os.Getenv("TEST_DB_HOST"); dbHost != "" {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost,
			getenv("TEST_DB_PORT", "5432"),
			getenv("TEST_DB_USER", "postgres"),
			getenv("TEST_DB_PASSWORD", "postgres"),
			getenv("TEST_DB_NAME", "test_db"))
		fmt.Printf("Using external database: %s\n", dbHost)
		return dsn, nil
	}

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}
	pg.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		pg.Terminate(ctx)
		return "", fmt.Errorf("failed to get connection string: %w", err)
	}
	return dsn, nil
}

func (pg *Postgres) initSchema() error {
	sqlDB, err := pg.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	schemaSQL, err := os.ReadFile(schemaPath()) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := sqlDB.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Truncate empties every table
func (pg *Postgres) Truncate() error {
	return pg.DB.Exec(`TRUNCATE
		owner_update_requested_events, owner_updated_events, account_metadata_emitted_events,
		transfer_events, given_events,
		address_driver_split_receivers, repo_driver_split_receivers, drip_list_split_receivers,
		git_projects, drip_lists, changes_journal, key_value_store
		RESTART IDENTITY CASCADE`).Error
}

// Terminate stops the container if one was started
func (pg *Postgres) Terminate(ctx context.Context) {
	if pg.container == nil {
		return
	}
	if err := pg.container.Terminate(ctx); err != nil {
		fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
	}
}

// schemaPath resolves db/init_pg_db.sql relative to this file so any package can use it
func schemaPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "db", "init_pg_db.sql")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
