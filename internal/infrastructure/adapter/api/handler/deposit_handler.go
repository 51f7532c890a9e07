package handler

import (
	"net/http"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/deposit"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// DepositHandler handles deposit lifecycle and payment schedule requests
type DepositHandler struct {
	service *deposit.Service
	logger  coreport.Logger
}

// NewDepositHandler creates a new deposit handler instance
func NewDepositHandler(service *deposit.Service, logger coreport.Logger) *DepositHandler {
	return &DepositHandler{service: service, logger: logger}
}

// Create handles POST /v1/deposits
func (h *DepositHandler) Create(c *gin.Context) {
	var req dto.CreateDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.service.Create(c.Request.Context(), deposit.CreateInput{
		UnitID:     req.UnitID,
		AgentID:    actor(c).ID,
		Amount:     req.Amount,
		FinalPrice: req.FinalPrice,
		Note:       req.Note,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.logger.Info("Deposit created", map[string]any{
		"depositId": d.ID,
		"unitId":    d.UnitID,
		"amount":    d.DepositAmount.String(),
	})
	c.JSON(http.StatusCreated, dto.NewDepositResponse(d, nil))
}

// Get handles GET /v1/deposits/:id and includes the payment schedule
func (h *DepositHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	d, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !canView(c, d.AgentID) {
		return
	}

	schedule, err := h.service.Schedule(ctx, d.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDepositResponse(d, schedule))
}

// Approve handles POST /v1/deposits/:id/approve and returns the generated schedule
func (h *DepositHandler) Approve(c *gin.Context) {
	d, schedule, err := h.service.Approve(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDepositResponse(d, schedule))
}

// Reject handles POST /v1/deposits/:id/reject
func (h *DepositHandler) Reject(c *gin.Context) {
	why, ok := reason(c)
	if !ok {
		return
	}

	d, err := h.service.Reject(c.Request.Context(), c.Param("id"), actor(c), why)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDepositResponse(d, nil))
}

// Cancel handles POST /v1/deposits/:id/cancel
func (h *DepositHandler) Cancel(c *gin.Context) {
	why, ok := reason(c)
	if !ok {
		return
	}

	d, err := h.service.Cancel(c.Request.Context(), c.Param("id"), actor(c), why)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDepositResponse(d, nil))
}

// Complete handles POST /v1/deposits/:id/complete
func (h *DepositHandler) Complete(c *gin.Context) {
	d, err := h.service.CompleteSale(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDepositResponse(d, nil))
}

// PayInstallment handles POST /v1/installments/:id/pay
func (h *DepositHandler) PayInstallment(c *gin.Context) {
	i, err := h.service.MarkInstallmentPaid(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewInstallmentResponse(i))
}
