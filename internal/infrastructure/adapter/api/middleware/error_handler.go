package middleware

import (
	"errors"
	"net/http"

	domainerr "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is advertised when a request gave up on concurrent updates
const retryAfterSeconds = "1"

type logFielder interface {
	LogFields() map[string]any
}

// StatusCode maps a domain error onto an HTTP status
func StatusCode(err error) int {
	switch domainerr.Classify(err) {
	case domainerr.CategoryValidation:
		return http.StatusBadRequest
	case domainerr.CategoryNotFound:
		return http.StatusNotFound
	case domainerr.CategoryForbidden:
		return http.StatusForbidden
	case domainerr.CategoryConflict:
		return http.StatusConflict
	case domainerr.CategoryConcurrency:
		if errors.Is(err, domainerr.ErrRetryLater) {
			return http.StatusServiceUnavailable
		}
		return http.StatusConflict
	default:
		if errors.Is(err, domainerr.ErrDatabaseConnection) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
}

// ErrorHandler middleware recovers from panics and renders the last error a handler attached
// with c.Error as a dto.ErrorResponse
func ErrorHandler(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered in API request", map[string]any{
					"error":      err,
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"client_ip":  c.ClientIP(),
					"request_id": c.GetHeader("X-Request-ID"),
					"user_agent": c.Request.UserAgent(),
				})

				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Code:    domainerr.ErrorCode(domainerr.ErrInternalServer),
					Message: "Internal server error",
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := StatusCode(err)

		fields := map[string]any{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		}
		var lf logFielder
		if errors.As(err, &lf) {
			for k, v := range lf.LogFields() {
				fields[k] = v
			}
		}

		message := err.Error()
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", fields)
			if status == http.StatusInternalServerError {
				message = "Internal server error"
			}
		} else {
			logger.Debug("Request rejected", fields)
		}
		if status == http.StatusServiceUnavailable {
			c.Header("Retry-After", retryAfterSeconds)
		}

		c.AbortWithStatusJSON(status, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: message,
		})
	}
}
