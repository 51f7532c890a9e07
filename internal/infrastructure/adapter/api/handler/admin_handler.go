package handler

import (
	"context"
	"net/http"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/deposit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/jobs"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// UnitSynchronizer recomputes a unit's derived status
type UnitSynchronizer interface {
	Sync(ctx context.Context, unitID string) (entity.UnitStatus, bool, error)
}

// UnitCleaner removes stale sale claims from a unit
type UnitCleaner interface {
	Cleanup(ctx context.Context, unitID string, admin entity.Actor, reason string) (deposit.CleanupResult, error)
}

// ProjectDispatcher opens projects and re-drives failed dispatches
type ProjectDispatcher interface {
	OpenProject(ctx context.Context, projectID string, actor entity.Actor) (*entity.ProcessingLog, error)
	Redispatch(ctx context.Context, projectID string, actor entity.Actor) (*entity.ProcessingLog, error)
	RetryFailed(ctx context.Context, logID string, actor entity.Actor) (*entity.ProcessingLog, error)
}

// JobRunner runs named sweeps on demand
type JobRunner interface {
	Names() []string
	RunOnce(ctx context.Context, name string) (jobs.Report, error)
}

// AdminHandler handles administrative requests
type AdminHandler struct {
	units      UnitSynchronizer
	cleaner    UnitCleaner
	dispatcher ProjectDispatcher
	jobs       JobRunner
	logger     coreport.Logger
}

// NewAdminHandler creates a new admin handler instance
func NewAdminHandler(
	units UnitSynchronizer,
	cleaner UnitCleaner,
	dispatcher ProjectDispatcher,
	jobs JobRunner,
	logger coreport.Logger,
) *AdminHandler {
	return &AdminHandler{
		units:      units,
		cleaner:    cleaner,
		dispatcher: dispatcher,
		jobs:       jobs,
		logger:     logger,
	}
}

// SyncUnit handles POST /v1/units/:id/sync
func (h *AdminHandler) SyncUnit(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	unitID := c.Param("id")
	status, changed, err := h.units.Sync(c.Request.Context(), unitID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnitStatusResponse{UnitID: unitID, Status: string(status), Changed: changed})
}

// CleanupUnit handles POST /v1/units/:id/cleanup
func (h *AdminHandler) CleanupUnit(c *gin.Context) {
	why, ok := reason(c)
	if !ok {
		return
	}

	result, err := h.cleaner.Cleanup(c.Request.Context(), c.Param("id"), actor(c), why)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OpenProject handles POST /v1/projects/:id/open
func (h *AdminHandler) OpenProject(c *gin.Context) {
	log, err := h.dispatcher.OpenProject(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}

	h.logger.Info("Project opened", map[string]any{
		"projectId": log.ProjectID,
		"logId":     log.ID,
		"failed":    log.Failed,
	})
	c.JSON(http.StatusOK, dto.NewProcessingLogResponse(log))
}

// DispatchProject handles POST /v1/projects/:id/dispatch
func (h *AdminHandler) DispatchProject(c *gin.Context) {
	log, err := h.dispatcher.Redispatch(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProcessingLogResponse(log))
}

// RetryDispatch handles POST /v1/processing-logs/:id/retry
func (h *AdminHandler) RetryDispatch(c *gin.Context) {
	log, err := h.dispatcher.RetryFailed(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProcessingLogResponse(log))
}

// ListJobs handles GET /v1/jobs
func (h *AdminHandler) ListJobs(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobs.Names()})
}

// RunJob handles POST /v1/jobs/:name/run. A skipped report means another replica holds the lock.
func (h *AdminHandler) RunJob(c *gin.Context) {
	admin, ok := requireAdmin(c)
	if !ok {
		return
	}

	report, err := h.jobs.RunOnce(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}

	h.logger.Info("Job triggered over HTTP", map[string]any{
		"job":     report.Job,
		"actorId": admin.ID,
		"skipped": report.Skipped,
	})
	c.JSON(http.StatusOK, report)
}
