package handler

import (
	"net/http"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/reservation"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// ReservationHandler handles reservation queue requests
type ReservationHandler struct {
	service *reservation.Service
	logger  coreport.Logger
}

// NewReservationHandler creates a new reservation handler instance
func NewReservationHandler(service *reservation.Service, logger coreport.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, logger: logger}
}

// Create handles POST /v1/reservations. The caller is queued as the agent.
func (h *ReservationHandler) Create(c *gin.Context) {
	var req dto.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.service.Create(c.Request.Context(), reservation.CreateInput{
		UnitID:  req.UnitID,
		AgentID: actor(c).ID,
		Note:    req.Note,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.logger.Info("Reservation created", map[string]any{
		"reservationId": r.ID,
		"unitId":        r.UnitID,
		"priority":      r.Priority,
	})
	c.JSON(http.StatusCreated, dto.NewReservationResponse(r))
}

// Get handles GET /v1/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !canView(c, r.AgentID) {
		return
	}
	c.JSON(http.StatusOK, dto.NewReservationResponse(r))
}

// Cancel handles POST /v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	why, ok := reason(c)
	if !ok {
		return
	}

	r, err := h.service.Cancel(c.Request.Context(), c.Param("id"), actor(c), why)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewReservationResponse(r))
}
