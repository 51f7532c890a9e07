package dto

import (
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
)

// ProcessingLogResponse represents a dispatcher run
type ProcessingLogResponse struct {
	ID          string               `json:"id"`
	ProjectID   string               `json:"projectId"`
	Kind        string               `json:"kind"`
	ParentLogID *string              `json:"parentLogId,omitempty"`
	TriggeredBy string               `json:"triggeredBy"`
	Total       int                  `json:"total"`
	Succeeded   int                  `json:"succeeded"`
	Skipped     int                  `json:"skipped"`
	Failed      int                  `json:"failed"`
	Failures    []entity.UnitFailure `json:"failures,omitempty"`
	StartedAt   time.Time            `json:"startedAt"`
	FinishedAt  time.Time            `json:"finishedAt"`
}

// NewProcessingLogResponse maps a processing log to its API representation
func NewProcessingLogResponse(l *entity.ProcessingLog) ProcessingLogResponse {
	return ProcessingLogResponse{
		ID:          l.ID,
		ProjectID:   l.ProjectID,
		Kind:        string(l.Kind),
		ParentLogID: l.ParentLogID,
		TriggeredBy: l.TriggeredBy,
		Total:       l.Total,
		Succeeded:   l.Succeeded,
		Skipped:     l.Skipped,
		Failed:      l.Failed,
		Failures:    l.Failures,
		StartedAt:   l.StartedAt,
		FinishedAt:  l.FinishedAt,
	}
}

// UnitStatusResponse is returned by a unit status sync
type UnitStatusResponse struct {
	UnitID  string `json:"unitId"`
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}

// HealthResponse reports the service and database state
type HealthResponse struct {
	Status   string `json:"status"`
	Database any    `json:"database"`
}
