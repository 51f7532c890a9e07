package dispatcher

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
)

// RetryFailed re-drives exactly the units that failed in a stored run and records the attempt
// as a RETRY log pointing at its parent.
func (d *Dispatcher) RetryFailed(ctx context.Context, logID string, actor entity.Actor) (*entity.ProcessingLog, error) {
	if !actor.IsAdmin() {
		return nil, errs.ErrForbidden
	}

	parent, err := d.runner.UnitOfWork().GetProcessingLogRepository(ctx).GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	if !parent.HasFailures() {
		return nil, fmt.Errorf("%w: processing log %s has no failed units", errs.ErrInvalidRequest, logID)
	}

	unitIDs := parent.FailedUnitIDs()
	log := entity.NewProcessingLog(parent.ProjectID, entity.ProcessingRetry, actor.ID, len(unitIDs), d.timeProvider.Now())
	log.ParentLogID = &parent.ID

	d.logger.Info("Retrying failed units", map[string]any{
		"parentLogId": parent.ID,
		"logId":       log.ID,
		"units":       len(unitIDs),
	})
	return d.process(ctx, log, unitIDs)
}
