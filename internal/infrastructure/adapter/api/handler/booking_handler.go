package handler

import (
	"net/http"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/booking"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// BookingHandler handles booking lifecycle requests
type BookingHandler struct {
	service *booking.Service
	logger  coreport.Logger
}

// NewBookingHandler creates a new booking handler instance
func NewBookingHandler(service *booking.Service, logger coreport.Logger) *BookingHandler {
	return &BookingHandler{service: service, logger: logger}
}

// Create handles POST /v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateInput{
		UnitID:       req.UnitID,
		AgentID:      actor(c).ID,
		PaymentProof: req.PaymentProof,
		Note:         req.Note,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.logger.Info("Booking created", map[string]any{
		"bookingId": b.ID,
		"unitId":    b.UnitID,
		"status":    string(b.Status),
	})
	c.JSON(http.StatusCreated, dto.NewBookingResponse(b))
}

// Get handles GET /v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !canView(c, b.AgentID) {
		return
	}
	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

// SubmitPayment handles POST /v1/bookings/:id/payment
func (h *BookingHandler) SubmitPayment(c *gin.Context) {
	var req dto.SubmitPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.service.SubmitPayment(c.Request.Context(), c.Param("id"), actor(c), req.PaymentProof)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

// Approve handles POST /v1/bookings/:id/approve
func (h *BookingHandler) Approve(c *gin.Context) {
	b, err := h.service.Approve(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

// Reject handles POST /v1/bookings/:id/reject
func (h *BookingHandler) Reject(c *gin.Context) {
	why, ok := reason(c)
	if !ok {
		return
	}

	b, err := h.service.Reject(c.Request.Context(), c.Param("id"), actor(c), why)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

// Cancel handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	why, ok := reason(c)
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), c.Param("id"), actor(c), why)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}
