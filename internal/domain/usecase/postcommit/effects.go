// Package postcommit registers the best-effort side effects shared by the claim lifecycles.
// Every effect runs after the surrounding transaction commits and never fails the operation.
package postcommit

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/external"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// Effects schedules status resyncs, notifications and audit records
type Effects struct {
	runner       *txrunner.Runner
	sync         usecase.UnitStatusSynchronizer
	notifier     external.NotificationSender
	audit        external.AuditLog
	timeProvider coreport.TimeProvider
}

// NewEffects creates a new Effects
func NewEffects(
	runner *txrunner.Runner,
	sync usecase.UnitStatusSynchronizer,
	notifier external.NotificationSender,
	audit external.AuditLog,
	timeProvider coreport.TimeProvider,
) *Effects {
	return &Effects{
		runner:       runner,
		sync:         sync,
		notifier:     notifier,
		audit:        audit,
		timeProvider: timeProvider,
	}
}

// Resync recomputes the unit status once the transaction committed
func (e *Effects) Resync(ctx context.Context, unitID string) {
	e.runner.AfterCommit(ctx, "unit.sync", map[string]any{"unitId": unitID}, func(ctx context.Context) error {
		_, _, err := e.sync.Sync(ctx, unitID)
		return err
	})
}

// Notify sends a notification once the transaction committed
func (e *Effects) Notify(ctx context.Context, userID string, kind entity.NotificationType, payload map[string]any) {
	if userID == "" {
		return
	}
	fields := map[string]any{"userId": userID, "type": string(kind)}
	e.runner.AfterCommit(ctx, "notification.send", fields, func(ctx context.Context) error {
		return e.notifier.Send(ctx, userID, kind, payload)
	})
}

// Audit records an audit entry once the transaction committed
func (e *Effects) Audit(ctx context.Context, actorID, action, entityType, entityID string, oldValue, newValue any) {
	entry := entity.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  e.timeProvider.Now(),
	}
	fields := map[string]any{"action": action, "entityType": entityType, "entityId": entityID}
	e.runner.AfterCommit(ctx, "audit.record", fields, func(ctx context.Context) error {
		return e.audit.Record(ctx, entry)
	})
}

// After schedules an arbitrary best-effort task
func (e *Effects) After(ctx context.Context, name string, fields map[string]any, task txrunner.Task) {
	e.runner.AfterCommit(ctx, name, fields, task)
}
