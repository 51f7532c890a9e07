package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingKind tells how a dispatcher run was started
type ProcessingKind string

// Processing kinds
const (
	ProcessingProjectOpen ProcessingKind = "PROJECT_OPEN"
	ProcessingRetry       ProcessingKind = "RETRY"
)

// UnitOutcome is the result of advancing one unit's queue
type UnitOutcome string

// Unit outcomes
const (
	OutcomeSucceeded UnitOutcome = "SUCCEEDED"
	OutcomeSkipped   UnitOutcome = "SKIPPED"
	OutcomeFailed    UnitOutcome = "FAILED"
)

// UnitFailure records why a unit could not be processed
type UnitFailure struct {
	UnitID string `json:"unitId"`
	Error  string `json:"error"`
}

// ProcessingLog is the audit record of one dispatcher run
type ProcessingLog struct {
	ID          string
	ProjectID   string
	Kind        ProcessingKind
	ParentLogID *string // Log whose failures this run re-drove
	TriggeredBy string
	Total       int
	Succeeded   int
	Skipped     int
	Failed      int
	Failures    []UnitFailure
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewProcessingLog starts a log for a run over total units
func NewProcessingLog(projectID string, kind ProcessingKind, triggeredBy string, total int, startedAt time.Time) *ProcessingLog {
	return &ProcessingLog{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Kind:        kind,
		TriggeredBy: triggeredBy,
		Total:       total,
		Failures:    []UnitFailure{},
		StartedAt:   startedAt,
	}
}

// Record counts one unit outcome
func (l *ProcessingLog) Record(unitID string, outcome UnitOutcome, err error) {
	switch outcome {
	case OutcomeSucceeded:
		l.Succeeded++
	case OutcomeSkipped:
		l.Skipped++
	case OutcomeFailed:
		l.Failed++
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		l.Failures = append(l.Failures, UnitFailure{UnitID: unitID, Error: msg})
	}
}

// FailedUnitIDs lists the units that failed in this run
func (l *ProcessingLog) FailedUnitIDs() []string {
	ids := make([]string, 0, len(l.Failures))
	for _, f := range l.Failures {
		ids = append(ids, f.UnitID)
	}
	return ids
}

// HasFailures reports whether any unit failed
func (l *ProcessingLog) HasFailures() bool {
	return l.Failed > 0
}
