package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormAuditLog implements external.AuditLog on the audit_logs table.
// Entries are written outside the business transaction, after it committed.
type GormAuditLog struct {
	baseRepository
}

// NewGormAuditLog creates a new GormAuditLog instance
func NewGormAuditLog(db *gorm.DB, logger coreport.Logger) *GormAuditLog {
	return &GormAuditLog{baseRepository: newBaseRepository(db, logger)}
}

func encodeAuditValue(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Record stores one audit entry
func (a *GormAuditLog) Record(ctx context.Context, entry entity.AuditEntry) error {
	oldValue, err := encodeAuditValue(entry.OldValue)
	if err != nil {
		return fmt.Errorf("%w: encoding old value: %s", errs.ErrInternalServer, err.Error())
	}
	newValue, err := encodeAuditValue(entry.NewValue)
	if err != nil {
		return fmt.Errorf("%w: encoding new value: %s", errs.ErrInternalServer, err.Error())
	}

	m := model.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  entry.CreatedAt,
	}
	if err := a.db.WithContext(ctx).Create(&m).Error; err != nil {
		return a.handleDatabaseError("recording audit entry", err, nil, map[string]any{
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
			"action":      entry.Action,
		})
	}
	return nil
}
