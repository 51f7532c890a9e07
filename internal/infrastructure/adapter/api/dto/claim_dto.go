package dto

import (
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
)

// CreateReservationRequest represents the API request for queueing on a unit
type CreateReservationRequest struct {
	UnitID string `json:"unitId" binding:"required"`
	Note   string `json:"note"`
}

// CreateBookingRequest represents the API request for booking a unit
type CreateBookingRequest struct {
	UnitID       string `json:"unitId" binding:"required"`
	PaymentProof string `json:"paymentProof"`
	Note         string `json:"note"`
}

// CreateDepositRequest represents the API request for placing a deposit
type CreateDepositRequest struct {
	UnitID     string `json:"unitId" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	FinalPrice string `json:"finalPrice"`
	Note       string `json:"note"`
}

// SubmitPaymentRequest carries the proof of a booking payment
type SubmitPaymentRequest struct {
	PaymentProof string `json:"paymentProof" binding:"required"`
}

// ReasonRequest is the body of rejections, cancellations and cleanups
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ReservationResponse represents a reservation in API responses
type ReservationResponse struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	UnitID          string     `json:"unitId"`
	ProjectID       string     `json:"projectId"`
	AgentID         string     `json:"agentId"`
	Status          string     `json:"status"`
	Priority        int        `json:"priority"`
	ReservedUntil   time.Time  `json:"reservedUntil"`
	DepositDeadline *time.Time `json:"depositDeadline,omitempty"`
	CancelReason    string     `json:"cancelReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// NewReservationResponse maps a reservation to its API representation
func NewReservationResponse(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		Code:            r.Code,
		UnitID:          r.UnitID,
		ProjectID:       r.ProjectID,
		AgentID:         r.AgentID,
		Status:          string(r.Status),
		Priority:        r.Priority,
		ReservedUntil:   r.ReservedUntil,
		DepositDeadline: r.DepositDeadline,
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt,
	}
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	UnitID        string     `json:"unitId"`
	ProjectID     string     `json:"projectId"`
	AgentID       string     `json:"agentId"`
	ReservationID *string    `json:"reservationId,omitempty"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	RefundAmount  string     `json:"refundAmount,omitempty"`
	ApprovedBy    string     `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	CancelReason  string     `json:"cancelReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// NewBookingResponse maps a booking to its API representation
func NewBookingResponse(b *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		Code:          b.Code,
		UnitID:        b.UnitID,
		ProjectID:     b.ProjectID,
		AgentID:       b.AgentID,
		ReservationID: b.ReservationID,
		Amount:        entity.FormatAmount(b.Amount),
		Status:        string(b.Status),
		ExpiresAt:     b.ExpiresAt,
		ApprovedBy:    b.ApprovedBy,
		ApprovedAt:    b.ApprovedAt,
		CancelReason:  b.CancelReason,
		CreatedAt:     b.CreatedAt,
	}
	if b.RefundAmount != nil {
		resp.RefundAmount = entity.FormatAmount(*b.RefundAmount)
	}
	return resp
}

// DepositResponse represents a deposit in API responses
type DepositResponse struct {
	ID                string                `json:"id"`
	Code              string                `json:"code"`
	UnitID            string                `json:"unitId"`
	ProjectID         string                `json:"projectId"`
	AgentID           string                `json:"agentId"`
	BookingID         *string               `json:"bookingId,omitempty"`
	ReservationID     *string               `json:"reservationId,omitempty"`
	DepositAmount     string                `json:"depositAmount"`
	DepositPercentage string                `json:"depositPercentage"`
	FinalPrice        string                `json:"finalPrice,omitempty"`
	Status            string                `json:"status"`
	ApprovedAt        *time.Time            `json:"approvedAt,omitempty"`
	CompletedAt       *time.Time            `json:"completedAt,omitempty"`
	CancelReason      string                `json:"cancelReason,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	Schedule          []InstallmentResponse `json:"schedule,omitempty"`
}

// NewDepositResponse maps a deposit and its optional schedule to their API representation
func NewDepositResponse(d *entity.Deposit, schedule []entity.Installment) DepositResponse {
	resp := DepositResponse{
		ID:                d.ID,
		Code:              d.Code,
		UnitID:            d.UnitID,
		ProjectID:         d.ProjectID,
		AgentID:           d.AgentID,
		BookingID:         d.BookingID,
		ReservationID:     d.ReservationID,
		DepositAmount:     entity.FormatAmount(d.DepositAmount),
		DepositPercentage: d.DepositPercentage.StringFixed(2),
		Status:            string(d.Status),
		ApprovedAt:        d.ApprovedAt,
		CompletedAt:       d.CompletedAt,
		CancelReason:      d.CancelReason,
		CreatedAt:         d.CreatedAt,
	}
	if d.FinalPrice != nil {
		resp.FinalPrice = entity.FormatAmount(*d.FinalPrice)
	}
	for i := range schedule {
		resp.Schedule = append(resp.Schedule, NewInstallmentResponse(&schedule[i]))
	}
	return resp
}

// InstallmentResponse represents one payment schedule row
type InstallmentResponse struct {
	ID         string     `json:"id"`
	DepositID  string     `json:"depositId"`
	Sequence   int        `json:"sequence"`
	Name       string     `json:"name"`
	Percentage string     `json:"percentage"`
	Amount     string     `json:"amount"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Status     string     `json:"status"`
	PaidAt     *time.Time `json:"paidAt,omitempty"`
}

// NewInstallmentResponse maps an installment to its API representation
func NewInstallmentResponse(i *entity.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:         i.ID,
		DepositID:  i.DepositID,
		Sequence:   i.Sequence,
		Name:       i.Name,
		Percentage: i.Percentage.StringFixed(2),
		Amount:     entity.FormatAmount(i.Amount),
		DueDate:    i.DueDate,
		Status:     string(i.Status),
		PaidAt:     i.PaidAt,
	}
}
