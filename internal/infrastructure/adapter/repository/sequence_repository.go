package repository

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// familyTables maps each code family to the table holding its codes
var familyTables = map[entity.CodeFamily]string{
	entity.FamilyReservation: model.Reservation{}.TableName(),
	entity.FamilyBooking:     model.Booking{}.TableName(),
	entity.FamilyDeposit:     model.Deposit{}.TableName(),
}

// SequenceRepository implements persistence.SequenceRepository using GORM
type SequenceRepository struct {
	baseRepository
	timeProvider coreport.TimeProvider
}

// NewSequenceRepository creates a new SequenceRepository instance
func NewSequenceRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *SequenceRepository {
	return &SequenceRepository{
		baseRepository: newBaseRepository(db, logger),
		timeProvider:   timeProvider,
	}
}

func (r *SequenceRepository) tableFor(family entity.CodeFamily) (string, error) {
	table, ok := familyTables[family]
	if !ok {
		return "", fmt.Errorf("%w: unknown code family %q", errs.ErrInvalidRequest, family)
	}
	return table, nil
}

// Increment bumps the family counter with UPDATE ... RETURNING
func (r *SequenceRepository) Increment(ctx context.Context, family entity.CodeFamily) (int64, bool, error) {
	var value int64
	result := r.db.WithContext(ctx).Raw(
		"UPDATE sequences SET current = current + 1, updated_at = ? WHERE family = ? RETURNING current",
		r.timeProvider.Now(), string(family),
	).Scan(&value)
	if result.Error != nil {
		return 0, false, r.handleDatabaseError("incrementing sequence", result.Error, nil,
			map[string]any{"family": family})
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return value, true, nil
}

// Create inserts a counter row
func (r *SequenceRepository) Create(ctx context.Context, sequence *entity.Sequence) error {
	m := model.Sequence{
		Family:    string(sequence.Family),
		Prefix:    sequence.Prefix,
		Current:   sequence.Current,
		UpdatedAt: sequence.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.handleDatabaseError("creating sequence", err, nil, map[string]any{"family": sequence.Family})
	}
	return nil
}

// MaxIssuedNumber returns the highest number used by the family's codes, 0 if none
func (r *SequenceRepository) MaxIssuedNumber(ctx context.Context, family entity.CodeFamily) (int64, error) {
	table, err := r.tableFor(family)
	if err != nil {
		return 0, err
	}

	prefix := family.Prefix()
	var highest int64
	err = r.db.WithContext(ctx).Raw(
		fmt.Sprintf(`SELECT COALESCE(MAX(CAST(SUBSTRING(code FROM ?) AS BIGINT)), 0) FROM %s
			WHERE code LIKE ? AND SUBSTRING(code FROM ?) ~ '^[0-9]+$'`, table),
		len(prefix)+1, prefix+"%", len(prefix)+1,
	).Scan(&highest).Error
	if err != nil {
		return 0, r.handleDatabaseError("reading highest issued code", err, nil, map[string]any{"family": family})
	}
	return highest, nil
}

// CodeExists checks the family's table for the code
func (r *SequenceRepository) CodeExists(ctx context.Context, family entity.CodeFamily, code string) (bool, error) {
	table, err := r.tableFor(family)
	if err != nil {
		return false, err
	}

	var count int64
	if err := r.db.WithContext(ctx).Table(table).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, r.handleDatabaseError("checking code", err, nil, map[string]any{
			"family": family,
			"code":   code,
		})
	}
	return count > 0, nil
}
