package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcessingLogRepository implements persistence.ProcessingLogRepository using GORM
type ProcessingLogRepository struct {
	baseRepository
}

// NewProcessingLogRepository creates a new ProcessingLogRepository instance
func NewProcessingLogRepository(db *gorm.DB, logger coreport.Logger) *ProcessingLogRepository {
	return &ProcessingLogRepository{baseRepository: newBaseRepository(db, logger)}
}

// Create stores a finished dispatcher run
func (r *ProcessingLogRepository) Create(ctx context.Context, log *entity.ProcessingLog) error {
	failures, err := json.Marshal(log.Failures)
	if err != nil {
		return fmt.Errorf("%w: encoding failures: %s", errs.ErrInternalServer, err.Error())
	}

	m := model.ProcessingLog{
		ID:          log.ID,
		ProjectID:   log.ProjectID,
		Kind:        string(log.Kind),
		ParentLogID: log.ParentLogID,
		TriggeredBy: log.TriggeredBy,
		Total:       log.Total,
		Succeeded:   log.Succeeded,
		Skipped:     log.Skipped,
		Failed:      log.Failed,
		Failures:    datatypes.JSON(failures),
		StartedAt:   log.StartedAt,
		FinishedAt:  log.FinishedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.handleDatabaseError("creating processing log", err, nil, map[string]any{"log_id": log.ID})
	}
	return nil
}

// GetByID retrieves a processing log
func (r *ProcessingLogRepository) GetByID(ctx context.Context, id string) (*entity.ProcessingLog, error) {
	var m model.ProcessingLog
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("getting processing log", err, errs.ErrProcessingLogNotFound,
			map[string]any{"log_id": id})
	}

	failures := []entity.UnitFailure{}
	if len(m.Failures) > 0 {
		if err := json.Unmarshal(m.Failures, &failures); err != nil {
			return nil, fmt.Errorf("%w: decoding failures of log %s: %s", errs.ErrInternalServer, id, err.Error())
		}
	}

	return &entity.ProcessingLog{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Kind:        entity.ProcessingKind(m.Kind),
		ParentLogID: m.ParentLogID,
		TriggeredBy: m.TriggeredBy,
		Total:       m.Total,
		Succeeded:   m.Succeeded,
		Skipped:     m.Skipped,
		Failed:      m.Failed,
		Failures:    failures,
		StartedAt:   m.StartedAt,
		FinishedAt:  m.FinishedAt,
	}, nil
}

// SettingRepository implements persistence.SettingRepository using GORM
type SettingRepository struct {
	baseRepository
	timeProvider coreport.TimeProvider
}

// NewSettingRepository creates a new SettingRepository instance
func NewSettingRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *SettingRepository {
	return &SettingRepository{
		baseRepository: newBaseRepository(db, logger),
		timeProvider:   timeProvider,
	}
}

// Get returns the raw value of a key
func (r *SettingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var m model.Setting
	err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, r.handleDatabaseError("reading setting", err, nil, map[string]any{"key": key})
	}
	return m.Value, true, nil
}

// Set creates or replaces a key
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	m := model.Setting{Key: key, Value: value, UpdatedAt: r.timeProvider.Now()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&m).Error
	if err != nil {
		return r.handleDatabaseError("writing setting", err, nil, map[string]any{"key": key})
	}
	return nil
}
