package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// DepositRepository implements persistence.DepositRepository using GORM
type DepositRepository struct {
	baseRepository
}

// NewDepositRepository creates a new DepositRepository instance
func NewDepositRepository(db *gorm.DB, logger coreport.Logger) *DepositRepository {
	return &DepositRepository{baseRepository: newBaseRepository(db, logger)}
}

func depositToEntity(m *model.Deposit) *entity.Deposit {
	return &entity.Deposit{
		ID:                m.ID,
		Code:              m.Code,
		UnitID:            m.UnitID,
		ProjectID:         m.ProjectID,
		AgentID:           m.AgentID,
		BookingID:         m.BookingID,
		ReservationID:     m.ReservationID,
		DepositAmount:     m.DepositAmount,
		DepositPercentage: m.DepositPercentage,
		FinalPrice:        m.FinalPrice,
		Status:            entity.DepositStatus(m.Status),
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		CompletedAt:       m.CompletedAt,
		CancelledBy:       m.CancelledBy,
		CancelReason:      m.CancelReason,
		Note:              m.Note,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// Create inserts a deposit
func (r *DepositRepository) Create(ctx context.Context, deposit *entity.Deposit) error {
	m := model.Deposit{
		ID:                deposit.ID,
		Code:              deposit.Code,
		UnitID:            deposit.UnitID,
		ProjectID:         deposit.ProjectID,
		AgentID:           deposit.AgentID,
		BookingID:         deposit.BookingID,
		ReservationID:     deposit.ReservationID,
		DepositAmount:     deposit.DepositAmount,
		DepositPercentage: deposit.DepositPercentage,
		FinalPrice:        deposit.FinalPrice,
		Status:            string(deposit.Status),
		ApprovedBy:        deposit.ApprovedBy,
		ApprovedAt:        deposit.ApprovedAt,
		CompletedAt:       deposit.CompletedAt,
		CancelledBy:       deposit.CancelledBy,
		CancelReason:      deposit.CancelReason,
		Note:              deposit.Note,
		CreatedAt:         deposit.CreatedAt,
		UpdatedAt:         deposit.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.handleDatabaseError("creating deposit", err, nil, map[string]any{
			"deposit_id": deposit.ID,
			"code":       deposit.Code,
		})
	}
	return nil
}

// GetByID retrieves a deposit
func (r *DepositRepository) GetByID(ctx context.Context, id string) (*entity.Deposit, error) {
	var m model.Deposit
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("getting deposit", err, errs.ErrDepositNotFound, map[string]any{"deposit_id": id})
	}
	return depositToEntity(&m), nil
}

// Update persists the mutable deposit fields
func (r *DepositRepository) Update(ctx context.Context, deposit *entity.Deposit) error {
	result := r.db.WithContext(ctx).
		Model(&model.Deposit{}).
		Where("id = ?", deposit.ID).
		Updates(map[string]any{
			"status":        string(deposit.Status),
			"final_price":   deposit.FinalPrice,
			"approved_by":   deposit.ApprovedBy,
			"approved_at":   deposit.ApprovedAt,
			"completed_at":  deposit.CompletedAt,
			"cancelled_by":  deposit.CancelledBy,
			"cancel_reason": deposit.CancelReason,
			"note":          deposit.Note,
			"updated_at":    deposit.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating deposit", result.Error, nil, map[string]any{"deposit_id": deposit.ID})
	}
	if result.RowsAffected == 0 {
		return errs.ErrDepositNotFound
	}
	return nil
}

// FindOpenByUnit returns the unit's non-terminal deposit, or nil
func (r *DepositRepository) FindOpenByUnit(ctx context.Context, unitID string) (*entity.Deposit, error) {
	var m model.Deposit
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND status IN ?", unitID, toStrings(entity.OpenDepositStatuses())).
		Order("created_at").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.handleDatabaseError("finding open deposit", err, nil, map[string]any{"unit_id": unitID})
	}
	return depositToEntity(&m), nil
}

// ListOpenByUnit lists every non-terminal deposit of the unit
func (r *DepositRepository) ListOpenByUnit(ctx context.Context, unitID string) ([]*entity.Deposit, error) {
	var models []model.Deposit
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND status IN ?", unitID, toStrings(entity.OpenDepositStatuses())).
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing open deposits", err, nil, map[string]any{"unit_id": unitID})
	}

	out := make([]*entity.Deposit, len(models))
	for i := range models {
		out[i] = depositToEntity(&models[i])
	}
	return out, nil
}

// CountByUnit counts the unit's deposits having one of the statuses
func (r *DepositRepository) CountByUnit(ctx context.Context, unitID string, statuses []entity.DepositStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Deposit{}).
		Where("unit_id = ? AND status IN ?", unitID, toStrings(statuses)).
		Count(&count).Error
	if err != nil {
		return 0, r.handleDatabaseError("counting deposits", err, nil, map[string]any{"unit_id": unitID})
	}
	return count, nil
}

// InstallmentRepository implements persistence.InstallmentRepository using GORM
type InstallmentRepository struct {
	baseRepository
}

// NewInstallmentRepository creates a new InstallmentRepository instance
func NewInstallmentRepository(db *gorm.DB, logger coreport.Logger) *InstallmentRepository {
	return &InstallmentRepository{baseRepository: newBaseRepository(db, logger)}
}

func installmentToEntity(m *model.Installment) entity.Installment {
	return entity.Installment{
		ID:         m.ID,
		DepositID:  m.DepositID,
		UnitID:     m.UnitID,
		Sequence:   m.Sequence,
		Name:       m.Name,
		Percentage: m.Percentage,
		Amount:     m.Amount,
		DueDate:    m.DueDate,
		Status:     entity.InstallmentStatus(m.Status),
		PaidAt:     m.PaidAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func installmentsToEntities(models []model.Installment) []entity.Installment {
	out := make([]entity.Installment, len(models))
	for i := range models {
		out[i] = installmentToEntity(&models[i])
	}
	return out
}

// CreateBatch inserts a whole payment schedule
func (r *InstallmentRepository) CreateBatch(ctx context.Context, installments []entity.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	models := make([]model.Installment, len(installments))
	for i, inst := range installments {
		models[i] = model.Installment{
			ID:         inst.ID,
			DepositID:  inst.DepositID,
			UnitID:     inst.UnitID,
			Sequence:   inst.Sequence,
			Name:       inst.Name,
			Percentage: inst.Percentage,
			Amount:     inst.Amount,
			DueDate:    inst.DueDate,
			Status:     string(inst.Status),
			PaidAt:     inst.PaidAt,
			CreatedAt:  inst.CreatedAt,
			UpdatedAt:  inst.UpdatedAt,
		}
	}

	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return r.handleDatabaseError("creating payment schedule", err, nil, map[string]any{
			"deposit_id": installments[0].DepositID,
			"rows":       len(installments),
		})
	}
	return nil
}

// GetByID retrieves an installment
func (r *InstallmentRepository) GetByID(ctx context.Context, id string) (*entity.Installment, error) {
	var m model.Installment
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("getting installment", err, errs.ErrInstallmentNotFound,
			map[string]any{"installment_id": id})
	}
	inst := installmentToEntity(&m)
	return &inst, nil
}

// Update persists status and payment time
func (r *InstallmentRepository) Update(ctx context.Context, installment *entity.Installment) error {
	result := r.db.WithContext(ctx).
		Model(&model.Installment{}).
		Where("id = ?", installment.ID).
		Updates(map[string]any{
			"status":     string(installment.Status),
			"due_date":   installment.DueDate,
			"paid_at":    installment.PaidAt,
			"updated_at": installment.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating installment", result.Error, nil,
			map[string]any{"installment_id": installment.ID})
	}
	if result.RowsAffected == 0 {
		return errs.ErrInstallmentNotFound
	}
	return nil
}

// ListByDeposit lists a deposit's schedule ordered by sequence
func (r *InstallmentRepository) ListByDeposit(ctx context.Context, depositID string) ([]entity.Installment, error) {
	var models []model.Installment
	err := r.db.WithContext(ctx).
		Where("deposit_id = ?", depositID).
		Order("sequence").
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing payment schedule", err, nil, map[string]any{"deposit_id": depositID})
	}
	return installmentsToEntities(models), nil
}

// ListPastDue lists PENDING installments whose due date passed
func (r *InstallmentRepository) ListPastDue(ctx context.Context, now time.Time, limit int) ([]entity.Installment, error) {
	var models []model.Installment
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", string(entity.InstallmentPending), now).
		Order("due_date").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing overdue installments", err, nil, nil)
	}
	return installmentsToEntities(models), nil
}
