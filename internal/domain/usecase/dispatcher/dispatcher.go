// Package dispatcher advances every reservation queue of a project when it opens for sale.
package dispatcher

import (
	"context"
	"sync"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/postcommit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/settings"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
	"golang.org/x/sync/errgroup"
)

// Dispatcher opens projects and promotes the head of each queued unit
type Dispatcher struct {
	runner       *txrunner.Runner
	advancer     usecase.QueueAdvancer
	settings     *settings.Provider
	effects      *postcommit.Effects
	adminIDs     []string
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewDispatcher creates a new Dispatcher. adminIDs receive the failure alerts.
func NewDispatcher(
	runner *txrunner.Runner,
	advancer usecase.QueueAdvancer,
	settings *settings.Provider,
	effects *postcommit.Effects,
	adminIDs []string,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Dispatcher {
	return &Dispatcher{
		runner:       runner,
		advancer:     advancer,
		settings:     settings,
		effects:      effects,
		adminIDs:     adminIDs,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Dispatch advances the queue of every unit of the project that still has ACTIVE reservations
// and persists the run as a PROJECT_OPEN processing log.
func (d *Dispatcher) Dispatch(ctx context.Context, projectID, triggeredBy string) (*entity.ProcessingLog, error) {
	var unitIDs []string
	err := d.runner.Run(ctx, "dispatcher.collect", txrunner.BulkPolicy(), func(ctx context.Context) error {
		ids, err := d.runner.UnitOfWork().GetUnitRepository(ctx).ListIDsWithActiveQueue(ctx, projectID)
		if err != nil {
			return err
		}
		unitIDs = ids
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := entity.NewProcessingLog(projectID, entity.ProcessingProjectOpen, triggeredBy, len(unitIDs), d.timeProvider.Now())
	return d.process(ctx, log, unitIDs)
}

func (d *Dispatcher) process(ctx context.Context, log *entity.ProcessingLog, unitIDs []string) (*entity.ProcessingLog, error) {
	batchSize := d.settings.QueueBatchSize(ctx)
	concurrency := d.settings.QueueConcurrency(ctx)

	d.logger.Info("Queue dispatch started", map[string]any{
		"projectId":   log.ProjectID,
		"logId":       log.ID,
		"kind":        string(log.Kind),
		"units":       len(unitIDs),
		"batchSize":   batchSize,
		"concurrency": concurrency,
	})

	var mu sync.Mutex
	record := func(unitID string, outcome entity.UnitOutcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		log.Record(unitID, outcome, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, batch := range chunk(unitIDs, batchSize) {
		batch := batch
		g.Go(func() error {
			for _, unitID := range batch {
				if err := gctx.Err(); err != nil {
					record(unitID, entity.OutcomeFailed, err)
					continue
				}
				outcome, err := d.advance(gctx, unitID)
				record(unitID, outcome, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	log.FinishedAt = d.timeProvider.Now()
	err := d.runner.Run(ctx, "dispatcher.log", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		return d.runner.UnitOfWork().GetProcessingLogRepository(ctx).Create(ctx, log)
	})
	if err != nil {
		d.logger.Error("Failed to persist processing log", map[string]any{
			"logId":     log.ID,
			"projectId": log.ProjectID,
			"error":     err.Error(),
		})
		return log, err
	}

	d.notify(ctx, log)

	d.logger.Info("Queue dispatch finished", map[string]any{
		"projectId": log.ProjectID,
		"logId":     log.ID,
		"total":     log.Total,
		"succeeded": log.Succeeded,
		"skipped":   log.Skipped,
		"failed":    log.Failed,
	})
	return log, nil
}

func (d *Dispatcher) advance(ctx context.Context, unitID string) (entity.UnitOutcome, error) {
	result, err := d.advancer.MoveToNextInQueue(ctx, unitID)
	if err != nil {
		d.logger.Warn("Failed to advance unit queue", map[string]any{
			"unitId": unitID,
			"error":  err.Error(),
		})
		return entity.OutcomeFailed, err
	}
	if !result.Advanced {
		d.logger.Debug("Unit queue not advanced", map[string]any{
			"unitId": unitID,
			"reason": result.Reason,
		})
		return entity.OutcomeSkipped, nil
	}
	return entity.OutcomeSucceeded, nil
}

// notify alerts administrators about failed units and tells the initiator the run finished with
// failures. Clean runs send nothing.
func (d *Dispatcher) notify(ctx context.Context, log *entity.ProcessingLog) {
	summary := map[string]any{
		"logId":     log.ID,
		"projectId": log.ProjectID,
		"kind":      string(log.Kind),
		"total":     log.Total,
		"succeeded": log.Succeeded,
		"skipped":   log.Skipped,
		"failed":    log.Failed,
	}

	if !log.HasFailures() {
		return
	}

	alert := make(map[string]any, len(summary)+1)
	for k, v := range summary {
		alert[k] = v
	}
	alert["failures"] = log.Failures
	for _, adminID := range d.adminIDs {
		d.effects.Notify(ctx, adminID, entity.NotifyQueueFailures, alert)
	}

	if log.TriggeredBy != entity.SystemActor().ID {
		d.effects.Notify(ctx, log.TriggeredBy, entity.NotifyQueueCompleted, summary)
	}
}

func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}
