package database

import (
	"context"
	"os"
	"testing"
	"time"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/database/migration"
	timeprovider "github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/time"
	"gorm.io/gorm"
)

// TestDSNEnv names the variable holding the DSN of a disposable PostgreSQL database.
// Database-backed tests are skipped when it is not set.
const TestDSNEnv = "UA_TEST_DATABASE_DSN"

// TestDBManager provides utilities for testing with a database
type TestDBManager struct {
	Manager      *Manager
	Config       *Config
	Logger       coreport.Logger
	TimeProvider coreport.TimeProvider
}

// NewTestDBManager connects to the test database, recreating the schema from scratch.
// The test is skipped when UA_TEST_DATABASE_DSN is not set.
func NewTestDBManager(t *testing.T, logger coreport.Logger) *TestDBManager {
	t.Helper()

	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set, skipping database test", TestDSNEnv)
	}

	timeProvider := timeprovider.NewRealTimeProvider()
	config := &Config{
		Driver:          "postgres",
		URL:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    5 * time.Second,
		LogLevel:        "silent",
		RetryAttempts:   1,
	}

	m := &TestDBManager{
		Manager:      NewManager(config, logger, timeProvider),
		Config:       config,
		Logger:       logger,
		TimeProvider: timeProvider,
	}

	if _, err := m.Manager.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Manager.Close(); err != nil {
			t.Logf("Warning: Failed to close test database connection: %v", err)
		}
	})

	m.SetupTestDB(t)
	return m
}

// SetupTestDB drops every table and migrates the schema
func (m *TestDBManager) SetupTestDB(t *testing.T) {
	t.Helper()

	if err := dropAllTables(m.Manager.DB()); err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}
	if err := m.Manager.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
}

// dropAllTables drops all tables in the test database
func dropAllTables(db *gorm.DB) error {
	return db.Exec(`
		DO $$ DECLARE
			r RECORD;
		BEGIN
			FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = current_schema()) LOOP
				EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
			END LOOP;
		END $$;
	`).Error
}

// TruncateAllTables truncates all tables in the test database
func (m *TestDBManager) TruncateAllTables(t *testing.T) {
	t.Helper()

	tables := make([]string, 0, len(migration.Models()))
	for _, mdl := range migration.Models() {
		stmt := &gorm.Statement{DB: m.Manager.DB()}
		if err := stmt.Parse(mdl); err != nil {
			t.Fatalf("Failed to parse model: %v", err)
		}
		tables = append(tables, stmt.Schema.Table)
	}

	for _, table := range tables {
		if err := m.Manager.DB().Exec("TRUNCATE TABLE " + table + " CASCADE").Error; err != nil {
			t.Fatalf("Failed to truncate %s: %v", table, err)
		}
	}
}
