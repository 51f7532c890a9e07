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

// BookingRepository implements persistence.BookingRepository using GORM
type BookingRepository struct {
	baseRepository
}

// NewBookingRepository creates a new BookingRepository instance
func NewBookingRepository(db *gorm.DB, logger coreport.Logger) *BookingRepository {
	return &BookingRepository{baseRepository: newBaseRepository(db, logger)}
}

func bookingToEntity(m *model.Booking) *entity.Booking {
	return &entity.Booking{
		ID:            m.ID,
		Code:          m.Code,
		UnitID:        m.UnitID,
		ProjectID:     m.ProjectID,
		AgentID:       m.AgentID,
		ReservationID: m.ReservationID,
		Amount:        m.Amount,
		PaymentProof:  m.PaymentProof,
		Status:        entity.BookingStatus(m.Status),
		ExpiresAt:     m.ExpiresAt,
		RefundAmount:  m.RefundAmount,
		ApprovedBy:    m.ApprovedBy,
		ApprovedAt:    m.ApprovedAt,
		CancelledBy:   m.CancelledBy,
		CancelReason:  m.CancelReason,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func bookingsToEntities(models []model.Booking) []*entity.Booking {
	out := make([]*entity.Booking, len(models))
	for i := range models {
		out[i] = bookingToEntity(&models[i])
	}
	return out
}

// Create inserts a booking
func (r *BookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	m := model.Booking{
		ID:            booking.ID,
		Code:          booking.Code,
		UnitID:        booking.UnitID,
		ProjectID:     booking.ProjectID,
		AgentID:       booking.AgentID,
		ReservationID: booking.ReservationID,
		Amount:        booking.Amount,
		PaymentProof:  booking.PaymentProof,
		Status:        string(booking.Status),
		ExpiresAt:     booking.ExpiresAt,
		RefundAmount:  booking.RefundAmount,
		ApprovedBy:    booking.ApprovedBy,
		ApprovedAt:    booking.ApprovedAt,
		CancelledBy:   booking.CancelledBy,
		CancelReason:  booking.CancelReason,
		Note:          booking.Note,
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return r.handleDatabaseError("creating booking", err, nil, map[string]any{
			"booking_id": booking.ID,
			"code":       booking.Code,
		})
	}
	return nil
}

// GetByID retrieves a booking
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	var m model.Booking
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("getting booking", err, errs.ErrBookingNotFound, map[string]any{"booking_id": id})
	}
	return bookingToEntity(&m), nil
}

// Update persists the mutable booking fields
func (r *BookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	result := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]any{
			"payment_proof": booking.PaymentProof,
			"status":        string(booking.Status),
			"expires_at":    booking.ExpiresAt,
			"refund_amount": booking.RefundAmount,
			"approved_by":   booking.ApprovedBy,
			"approved_at":   booking.ApprovedAt,
			"cancelled_by":  booking.CancelledBy,
			"cancel_reason": booking.CancelReason,
			"note":          booking.Note,
			"updated_at":    booking.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating booking", result.Error, nil, map[string]any{"booking_id": booking.ID})
	}
	if result.RowsAffected == 0 {
		return errs.ErrBookingNotFound
	}
	return nil
}

// FindOpenByUnit returns the unit's non-terminal booking, or nil
func (r *BookingRepository) FindOpenByUnit(ctx context.Context, unitID string) (*entity.Booking, error) {
	var m model.Booking
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND status IN ?", unitID, toStrings(entity.OpenBookingStatuses())).
		Order("created_at").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.handleDatabaseError("finding open booking", err, nil, map[string]any{"unit_id": unitID})
	}
	return bookingToEntity(&m), nil
}

// ListOpenByUnit lists every non-terminal booking of the unit
func (r *BookingRepository) ListOpenByUnit(ctx context.Context, unitID string) ([]*entity.Booking, error) {
	var models []model.Booking
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND status IN ?", unitID, toStrings(entity.OpenBookingStatuses())).
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing open bookings", err, nil, map[string]any{"unit_id": unitID})
	}
	return bookingsToEntities(models), nil
}

// CountByUnit counts the unit's bookings having one of the statuses
func (r *BookingRepository) CountByUnit(ctx context.Context, unitID string, statuses []entity.BookingStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("unit_id = ? AND status IN ?", unitID, toStrings(statuses)).
		Count(&count).Error
	if err != nil {
		return 0, r.handleDatabaseError("counting bookings", err, nil, map[string]any{"unit_id": unitID})
	}
	return count, nil
}

// ListPastExpiry lists unpaid or unapproved bookings whose expiresAt passed
func (r *BookingRepository) ListPastExpiry(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	var models []model.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at < ?", toStrings(entity.ExpirableBookingStatuses()), now).
		Order("expires_at").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing expired bookings", err, nil, nil)
	}
	return bookingsToEntities(models), nil
}
