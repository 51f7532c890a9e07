package handler

import (
	"errors"
	"fmt"
	"io"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// fail hands err to the error middleware, which renders the response
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON decodes a required request body
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, fmt.Errorf("%w: %s", domainerr.ErrInvalidRequest, err.Error()))
		return false
	}
	return true
}

// reason reads the optional {"reason": ...} body
func reason(c *gin.Context) (string, bool) {
	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, fmt.Errorf("%w: %s", domainerr.ErrInvalidRequest, err.Error()))
		return "", false
	}
	return req.Reason, true
}

func actor(c *gin.Context) entity.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func requireAdmin(c *gin.Context) (entity.Actor, bool) {
	a := actor(c)
	if !a.IsAdmin() {
		fail(c, domainerr.ErrForbidden)
		return a, false
	}
	return a, true
}

// canView lets administrators and the owning agent read a claim
func canView(c *gin.Context, ownerID string) bool {
	if !actor(c).CanManage(ownerID) {
		fail(c, domainerr.ErrForbidden)
		return false
	}
	return true
}
