package migration

import (
	"context"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"gorm.io/gorm"
)

// AdvancedIndexManager manages PostgreSQL-specific advanced indexes
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

type indexStatement struct {
	name string
	sql  string
}

var advancedIndexes = []indexStatement{
	{
		// One queued ticket per agent and unit; a second insert fails with a unique violation
		name: "idx_reservations_unit_agent_queued",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_unit_agent_queued
			ON reservations (unit_id, agent_id)
			WHERE status IN ('ACTIVE', 'YOUR_TURN')`,
	},
	{
		// At most one non-terminal booking per unit
		name: "idx_bookings_unit_open",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_unit_open
			ON bookings (unit_id)
			WHERE status IN ('PENDING_PAYMENT', 'PENDING_APPROVAL', 'CONFIRMED')`,
	},
	{
		// At most one non-terminal deposit per unit
		name: "idx_deposits_unit_open",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_deposits_unit_open
			ON deposits (unit_id)
			WHERE status IN ('PENDING_APPROVAL', 'CONFIRMED', 'OVERDUE')`,
	},
	{
		name: "idx_reservations_your_turn_deadline",
		sql: `CREATE INDEX IF NOT EXISTS idx_reservations_your_turn_deadline
			ON reservations (deposit_deadline)
			WHERE status = 'YOUR_TURN'`,
	},
	{
		name: "idx_installments_pending_due",
		sql: `CREATE INDEX IF NOT EXISTS idx_installments_pending_due
			ON installments (due_date)
			WHERE status = 'PENDING'`,
	},
	{
		name: "idx_job_locks_expires_at",
		sql: `CREATE INDEX IF NOT EXISTS idx_job_locks_expires_at
			ON job_locks (expires_at)`,
	},
	{
		name: "idx_audit_logs_created_at_brin",
		sql: `CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at_brin
			ON audit_logs USING BRIN (created_at)
			WITH (pages_per_range = 32)`,
	},
}

// CreateAdvancedIndexes creates partial and BRIN indexes
func (m *AdvancedIndexManager) CreateAdvancedIndexes(ctx context.Context) error {
	m.logger.Info("Creating advanced PostgreSQL indexes", nil)

	for _, idx := range advancedIndexes {
		if err := m.db.WithContext(ctx).Exec(idx.sql).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": idx.name,
				"error": err.Error(),
			})
			return err
		}
	}

	m.logger.Info("Advanced PostgreSQL indexes created successfully", nil)
	return nil
}

// CreatePerformanceTweaks applies PostgreSQL performance tweaks
func (m *AdvancedIndexManager) CreatePerformanceTweaks(ctx context.Context) error {
	m.logger.Info("Applying PostgreSQL performance tweaks", nil)

	// Units and reservations are updated in place on every status change
	for _, table := range []string{"units", "reservations"} {
		if err := m.db.WithContext(ctx).Exec("ALTER TABLE " + table + " SET (fillfactor = 90)").Error; err != nil {
			m.logger.Warn("Failed to set fillfactor", map[string]any{
				"table": table,
				"error": err.Error(),
			})
		}
	}

	if err := m.db.WithContext(ctx).Exec(`
		ALTER TABLE reservations ALTER COLUMN unit_id SET STATISTICS 1000
	`).Error; err != nil {
		m.logger.Warn("Failed to set statistics target for reservations.unit_id", map[string]any{
			"error": err.Error(),
		})
	}

	m.logger.Info("PostgreSQL performance tweaks applied successfully", nil)
	return nil
}
