package routes

import (
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups every API handler
type Handlers struct {
	Reservations *handler.ReservationHandler
	Bookings     *handler.BookingHandler
	Deposits     *handler.DepositHandler
	Admin        *handler.AdminHandler
	Health       *handler.HealthHandler
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Health)

	v1 := router.Group("/v1", middleware.Actor())

	reservations := v1.Group("/reservations")
	{
		reservations.POST("", h.Reservations.Create)
		reservations.GET("/:id", h.Reservations.Get)
		reservations.POST("/:id/cancel", h.Reservations.Cancel)
	}

	bookings := v1.Group("/bookings")
	{
		bookings.POST("", h.Bookings.Create)
		bookings.GET("/:id", h.Bookings.Get)
		bookings.POST("/:id/payment", h.Bookings.SubmitPayment)
		bookings.POST("/:id/approve", h.Bookings.Approve)
		bookings.POST("/:id/reject", h.Bookings.Reject)
		bookings.POST("/:id/cancel", h.Bookings.Cancel)
	}

	deposits := v1.Group("/deposits")
	{
		deposits.POST("", h.Deposits.Create)
		deposits.GET("/:id", h.Deposits.Get)
		deposits.POST("/:id/approve", h.Deposits.Approve)
		deposits.POST("/:id/reject", h.Deposits.Reject)
		deposits.POST("/:id/cancel", h.Deposits.Cancel)
		deposits.POST("/:id/complete", h.Deposits.Complete)
	}

	v1.POST("/installments/:id/pay", h.Deposits.PayInstallment)

	v1.POST("/units/:id/sync", h.Admin.SyncUnit)
	v1.POST("/units/:id/cleanup", h.Admin.CleanupUnit)
	v1.POST("/projects/:id/open", h.Admin.OpenProject)
	v1.POST("/projects/:id/dispatch", h.Admin.DispatchProject)
	v1.POST("/processing-logs/:id/retry", h.Admin.RetryDispatch)
	v1.GET("/jobs", h.Admin.ListJobs)
	v1.POST("/jobs/:name/run", h.Admin.RunJob)
}

// SetupMiddlewares configures global middlewares for the API.
// The request logger wraps the error handler so it sees the final status.
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, timeProvider coreport.TimeProvider, allowedOrigins []string) {
	router.Use(middleware.Logger(logger, timeProvider))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(allowedOrigins))
}
