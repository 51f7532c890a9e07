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

// ReservationRepository implements persistence.ReservationRepository using GORM
type ReservationRepository struct {
	baseRepository
}

// NewReservationRepository creates a new ReservationRepository instance
func NewReservationRepository(db *gorm.DB, logger coreport.Logger) *ReservationRepository {
	return &ReservationRepository{baseRepository: newBaseRepository(db, logger)}
}

func reservationToEntity(m *model.Reservation) *entity.Reservation {
	return &entity.Reservation{
		ID:              m.ID,
		Code:            m.Code,
		UnitID:          m.UnitID,
		ProjectID:       m.ProjectID,
		AgentID:         m.AgentID,
		Status:          entity.ReservationStatus(m.Status),
		Priority:        m.Priority,
		ReservedUntil:   m.ReservedUntil,
		DepositDeadline: m.DepositDeadline,
		Note:            m.Note,
		CancelledBy:     m.CancelledBy,
		CancelReason:    m.CancelReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func reservationsToEntities(models []model.Reservation) []*entity.Reservation {
	out := make([]*entity.Reservation, len(models))
	for i := range models {
		out[i] = reservationToEntity(&models[i])
	}
	return out
}

// Create inserts a reservation
func (r *ReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	r.logger.Debug("Creating reservation", map[string]any{
		"reservation_id": reservation.ID,
		"unit_id":        reservation.UnitID,
		"priority":       reservation.Priority,
	})

	m := model.Reservation{
		ID:              reservation.ID,
		Code:            reservation.Code,
		UnitID:          reservation.UnitID,
		ProjectID:       reservation.ProjectID,
		AgentID:         reservation.AgentID,
		Status:          string(reservation.Status),
		Priority:        reservation.Priority,
		ReservedUntil:   reservation.ReservedUntil,
		DepositDeadline: reservation.DepositDeadline,
		Note:            reservation.Note,
		CancelledBy:     reservation.CancelledBy,
		CancelReason:    reservation.CancelReason,
		CreatedAt:       reservation.CreatedAt,
		UpdatedAt:       reservation.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.handleDatabaseError("creating reservation", err, nil, map[string]any{
			"reservation_id": reservation.ID,
			"code":           reservation.Code,
		})
	}
	return nil
}

// GetByID retrieves a reservation
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	var m model.Reservation
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("getting reservation", err, errs.ErrReservationNotFound,
			map[string]any{"reservation_id": id})
	}
	return reservationToEntity(&m), nil
}

// Update persists status, queue and cancellation fields
func (r *ReservationRepository) Update(ctx context.Context, reservation *entity.Reservation) error {
	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ?", reservation.ID).
		Updates(map[string]any{
			"status":           string(reservation.Status),
			"priority":         reservation.Priority,
			"reserved_until":   reservation.ReservedUntil,
			"deposit_deadline": reservation.DepositDeadline,
			"note":             reservation.Note,
			"cancelled_by":     reservation.CancelledBy,
			"cancel_reason":    reservation.CancelReason,
			"updated_at":       reservation.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating reservation", result.Error, nil,
			map[string]any{"reservation_id": reservation.ID})
	}
	if result.RowsAffected == 0 {
		return errs.ErrReservationNotFound
	}
	return nil
}

// FindQueuedByUnitAndAgent returns the agent's queued reservation on the unit, or nil
func (r *ReservationRepository) FindQueuedByUnitAndAgent(ctx context.Context, unitID, agentID string) (*entity.Reservation, error) {
	var m model.Reservation
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND agent_id = ? AND status IN ?", unitID, agentID,
			toStrings(entity.QueuedReservationStatuses())).
		Order("created_at").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.handleDatabaseError("finding queued reservation", err, nil, map[string]any{
			"unit_id":  unitID,
			"agent_id": agentID,
		})
	}
	return reservationToEntity(&m), nil
}

// CountByUnit counts the unit's reservations having one of the statuses
func (r *ReservationRepository) CountByUnit(ctx context.Context, unitID string, statuses []entity.ReservationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("unit_id = ? AND status IN ?", unitID, toStrings(statuses)).
		Count(&count).Error
	if err != nil {
		return 0, r.handleDatabaseError("counting reservations", err, nil, map[string]any{"unit_id": unitID})
	}
	return count, nil
}

// NextActive returns the head of the unit's ACTIVE queue, or nil
func (r *ReservationRepository) NextActive(ctx context.Context, unitID string) (*entity.Reservation, error) {
	var m model.Reservation
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND status = ?", unitID, string(entity.ReservationActive)).
		Order("priority").
		Order("created_at").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.handleDatabaseError("reading queue head", err, nil, map[string]any{"unit_id": unitID})
	}
	return reservationToEntity(&m), nil
}

// ListQueuedByUnit lists the unit's ACTIVE and YOUR_TURN reservations in queue order
func (r *ReservationRepository) ListQueuedByUnit(ctx context.Context, unitID string) ([]*entity.Reservation, error) {
	var models []model.Reservation
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND status IN ?", unitID, toStrings(entity.QueuedReservationStatuses())).
		Order("priority").
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing queue", err, nil, map[string]any{"unit_id": unitID})
	}
	return reservationsToEntities(models), nil
}

// ListPastExpiry lists YOUR_TURN reservations, and ACTIVE ones of projects that are not open,
// whose reservedUntil passed
func (r *ReservationRepository) ListPastExpiry(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	var models []model.Reservation
	err := r.db.WithContext(ctx).
		Select("reservations.*").
		Joins("JOIN projects ON projects.id = reservations.project_id").
		Where("reservations.reserved_until < ?", now).
		Where("reservations.status = ? OR (reservations.status = ? AND projects.phase <> ?)",
			string(entity.ReservationYourTurn), string(entity.ReservationActive), string(entity.ProjectOpen)).
		Order("reservations.reserved_until").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing expired reservations", err, nil, nil)
	}
	return reservationsToEntities(models), nil
}

// ListPastDepositDeadline lists YOUR_TURN reservations whose deposit deadline passed
func (r *ReservationRepository) ListPastDepositDeadline(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	var models []model.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND deposit_deadline < ?", string(entity.ReservationYourTurn), now).
		Order("deposit_deadline").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing missed turns", err, nil, nil)
	}
	return reservationsToEntities(models), nil
}
