package dispatcher

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// OpenProject moves an UPCOMING project to OPEN and, once that commits, dispatches its queues
// exactly once. The returned log describes the dispatch.
func (d *Dispatcher) OpenProject(ctx context.Context, projectID string, actor entity.Actor) (*entity.ProcessingLog, error) {
	if !actor.IsAdmin() {
		return nil, errs.ErrForbidden
	}

	err := d.runner.Run(ctx, "project.open", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		repo := d.runner.UnitOfWork().GetProjectRepository(ctx)

		project, err := repo.GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		before := map[string]any{"phase": string(project.Phase)}
		if err := project.Open(d.timeProvider); err != nil {
			return err
		}
		if err := repo.Update(ctx, project); err != nil {
			return err
		}

		d.effects.Audit(ctx, actor.ID, entity.ActionOpen, entity.EntityProject, project.ID, before,
			map[string]any{"phase": string(project.Phase), "openedAt": project.OpenedAt})
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("Project opened", map[string]any{
		"projectId": projectID,
		"openedBy":  actor.ID,
	})
	return d.Dispatch(ctx, projectID, actor.ID)
}

// Redispatch runs the queue dispatch again for a project that is already OPEN. It recovers a
// project whose opening committed but whose dispatch never produced a processing log. Units
// whose turn is already held are skipped, so repeating it is harmless.
func (d *Dispatcher) Redispatch(ctx context.Context, projectID string, actor entity.Actor) (*entity.ProcessingLog, error) {
	if !actor.IsAdmin() {
		return nil, errs.ErrForbidden
	}

	err := d.runner.Run(ctx, "project.redispatch", txrunner.DefaultPolicy(), func(ctx context.Context) error {
		project, err := d.runner.UnitOfWork().GetProjectRepository(ctx).GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if project.Phase != entity.ProjectOpen {
			return fmt.Errorf("%w: dispatch needs an open project, project %s is %s",
				errs.ErrProjectPhase, project.ID, project.Phase)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("Project queues redispatched", map[string]any{
		"projectId":   projectID,
		"triggeredBy": actor.ID,
	})
	return d.Dispatch(ctx, projectID, actor.ID)
}
