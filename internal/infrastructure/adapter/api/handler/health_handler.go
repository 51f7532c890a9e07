package handler

import (
	"context"
	"net/http"

	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/database"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports the database state
type HealthChecker interface {
	Check(ctx context.Context) database.HealthStatus
}

// HealthHandler serves the liveness probe
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := h.checker.Check(c.Request.Context())
	if !status.Healthy {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Database: status})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: status})
}
