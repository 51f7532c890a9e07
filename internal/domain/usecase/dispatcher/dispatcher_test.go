package dispatcher_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/dispatcher"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/settings"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil/fixture"
	mockusecase "github.com/amirhossein-jamali/unit-allocator/mocks/port/usecase"
)

func seedQueue(env *fixture.Env, unitID string, agents ...string) []string {
	ids := make([]string, 0, len(agents))
	for i, agent := range agents {
		id := unitID + "-" + agent
		env.Store.SeedReservation(entity.Reservation{
			ID:            id,
			Code:          id,
			UnitID:        unitID,
			ProjectID:     "p1",
			AgentID:       agent,
			Status:        entity.ReservationActive,
			Priority:      i + 1,
			ReservedUntil: fixture.Start,
			CreatedAt:     fixture.Start.Add(-time.Duration(len(agents)-i) * time.Minute),
			UpdatedAt:     fixture.Start,
		})
		ids = append(ids, id)
	}
	return ids
}

// newProject seeds an upcoming project with queues on u1 and u2 and an idle u3
func newProject(t *testing.T) (*fixture.Env, []string, []string) {
	env := fixture.New(t)
	openDate := fixture.Start
	env.SeedProject("p1", entity.ProjectUpcoming, &openDate)
	env.SeedUnit("u1", "p1", 1_000_000, entity.UnitReservedBooking)
	env.SeedUnit("u2", "p1", 1_000_000, entity.UnitReservedBooking)
	env.SeedUnit("u3", "p1", 1_000_000, entity.UnitAvailable)
	env.Store.SetSetting(settings.KeyQueueBatchSize, "1")
	env.Store.SetSetting(settings.KeyQueueConcurrency, "2")
	return env, seedQueue(env, "u1", "agent-a", "agent-b"), seedQueue(env, "u2", "agent-c")
}

func TestDispatcher_OpenProject(t *testing.T) {
	ctx := context.Background()

	t.Run("should promote the head of every queue once", func(t *testing.T) {
		// Arrange
		env, u1, u2 := newProject(t)

		// Act
		log, err := env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())

		// Assert
		require.NoError(t, err)
		project := env.Store.Project("p1")
		assert.Equal(t, entity.ProjectOpen, project.Phase)
		require.NotNil(t, project.OpenedAt)

		assert.Equal(t, entity.ProcessingProjectOpen, log.Kind)
		assert.Equal(t, 2, log.Total)
		assert.Equal(t, 2, log.Succeeded)
		assert.Zero(t, log.Failed)
		assert.Empty(t, log.Failures)

		assert.Equal(t, entity.ReservationYourTurn, env.Store.Reservation(u1[0]).Status)
		assert.Equal(t, entity.ReservationActive, env.Store.Reservation(u1[1]).Status)
		assert.Equal(t, entity.ReservationYourTurn, env.Store.Reservation(u2[0]).Status)

		stored, ok := env.Store.ProcessingLog(log.ID)
		require.True(t, ok)
		assert.Equal(t, 2, stored.Succeeded)
		assert.False(t, env.Notified(fixture.AdminID, entity.NotifyQueueCompleted), "clean runs send no completion notice")
		assert.False(t, env.Notified(fixture.AdminID, entity.NotifyQueueFailures))
	})

	t.Run("should refuse a project that is already open", func(t *testing.T) {
		env, _, _ := newProject(t)
		_, err := env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())
		require.NoError(t, err)

		_, err = env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())

		assert.ErrorIs(t, err, errs.ErrProjectAlreadyOpen)
	})

	t.Run("should only let administrators open a project", func(t *testing.T) {
		env, _, _ := newProject(t)

		_, err := env.Dispatcher.OpenProject(ctx, "p1", fixture.Agent("agent-a"))

		assert.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, entity.ProjectUpcoming, env.Store.Project("p1").Phase)
	})

	t.Run("should record failed units and alert administrators", func(t *testing.T) {
		// Arrange
		env, _, u2 := newProject(t)
		env.Store.InjectUnitLockError("u2", errs.ErrDatabaseConnection)

		// Act
		log, err := env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, log.Succeeded)
		assert.Equal(t, 1, log.Failed)
		require.Len(t, log.Failures, 1)
		assert.Equal(t, "u2", log.Failures[0].UnitID)
		assert.Contains(t, log.Failures[0].Error, errs.ErrDatabaseConnection.Error())
		assert.Equal(t, entity.ReservationActive, env.Store.Reservation(u2[0]).Status)
		assert.True(t, env.Notified(fixture.AdminID, entity.NotifyQueueFailures))
		assert.True(t, env.Notified(fixture.AdminID, entity.NotifyQueueCompleted))
	})
}

func TestDispatcher_Redispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("should recover an opened project whose dispatch never ran", func(t *testing.T) {
		// Arrange
		env, u1, u2 := newProject(t)
		env.Store.InjectQueueScanError(errs.ErrDatabaseConnection)

		_, err := env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())
		require.ErrorIs(t, err, errs.ErrDatabaseConnection)
		assert.Equal(t, entity.ProjectOpen, env.Store.Project("p1").Phase)
		assert.Equal(t, entity.ReservationActive, env.Store.Reservation(u1[0]).Status)

		_, err = env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())
		require.ErrorIs(t, err, errs.ErrProjectAlreadyOpen)
		env.Store.InjectQueueScanError(nil)

		// Act
		log, err := env.Dispatcher.Redispatch(ctx, "p1", fixture.Admin())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.ProcessingProjectOpen, log.Kind)
		assert.Equal(t, 2, log.Succeeded)
		assert.Equal(t, entity.ReservationYourTurn, env.Store.Reservation(u1[0]).Status)
		assert.Equal(t, entity.ReservationYourTurn, env.Store.Reservation(u2[0]).Status)
		_, ok := env.Store.ProcessingLog(log.ID)
		assert.True(t, ok)
	})

	t.Run("should skip queues that were already advanced", func(t *testing.T) {
		env, u1, _ := newProject(t)
		_, err := env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())
		require.NoError(t, err)

		log, err := env.Dispatcher.Redispatch(ctx, "p1", fixture.Admin())

		require.NoError(t, err)
		assert.Equal(t, 1, log.Total, "u2 has no ACTIVE reservation left")
		assert.Equal(t, 1, log.Skipped)
		assert.Zero(t, log.Succeeded)
		assert.Equal(t, entity.ReservationActive, env.Store.Reservation(u1[1]).Status)
	})

	t.Run("should refuse a project that is not open", func(t *testing.T) {
		env, _, _ := newProject(t)

		_, err := env.Dispatcher.Redispatch(ctx, "p1", fixture.Admin())

		assert.ErrorIs(t, err, errs.ErrProjectPhase)
	})

	t.Run("should only let administrators redispatch", func(t *testing.T) {
		env, _, _ := newProject(t)

		_, err := env.Dispatcher.Redispatch(ctx, "p1", fixture.Agent("agent-a"))

		assert.ErrorIs(t, err, errs.ErrForbidden)
	})
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("should skip units whose turn is already held", func(t *testing.T) {
		env := fixture.New(t)
		past := fixture.Start.Add(-time.Hour)
		env.SeedProject("p1", entity.ProjectOpen, &past)
		env.SeedUnit("u1", "p1", 1_000_000, entity.UnitReservedBooking)
		ids := seedQueue(env, "u1", "agent-a", "agent-b")
		_, err := env.Reservations.MoveToNextInQueue(ctx, "u1")
		require.NoError(t, err)

		log, err := env.Dispatcher.Dispatch(ctx, "p1", entity.SystemActor().ID)

		require.NoError(t, err)
		assert.Equal(t, 1, log.Total)
		assert.Equal(t, 1, log.Skipped)
		assert.Equal(t, entity.ReservationActive, env.Store.Reservation(ids[1]).Status)
		assert.False(t, env.Notified(entity.SystemActor().ID, entity.NotifyQueueCompleted))
	})

	t.Run("should classify every advancer outcome", func(t *testing.T) {
		// Arrange
		env, _, _ := newProject(t)
		env.SeedUnit("u4", "p1", 1_000_000, entity.UnitReservedBooking)
		seedQueue(env, "u4", "agent-d")

		advancer := mockusecase.NewMockQueueAdvancer(t)
		advancer.EXPECT().MoveToNextInQueue(mock.Anything, "u1").
			Return(usecase.AdvanceResult{Advanced: true, Reservation: &entity.Reservation{ID: "u1-agent-a"}}, nil).Once()
		advancer.EXPECT().MoveToNextInQueue(mock.Anything, "u2").
			Return(usecase.AdvanceResult{Reason: "no active reservation in queue"}, nil).Once()
		advancer.EXPECT().MoveToNextInQueue(mock.Anything, "u4").
			Return(usecase.AdvanceResult{}, errors.New("lock timeout")).Once()

		d := dispatcher.NewDispatcher(env.Runner, advancer, env.Settings, env.Effects,
			[]string{fixture.AdminID, "admin-2"}, env.Clock, env.Logger)

		// Act
		log, err := d.Dispatch(ctx, "p1", "admin-2")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, log.Total)
		assert.Equal(t, 1, log.Succeeded)
		assert.Equal(t, 1, log.Skipped)
		assert.Equal(t, 1, log.Failed)
		assert.Equal(t, []string{"u4"}, log.FailedUnitIDs())
		assert.True(t, env.Notified(fixture.AdminID, entity.NotifyQueueFailures))
		assert.True(t, env.Notified("admin-2", entity.NotifyQueueFailures))
		assert.True(t, env.Notified("admin-2", entity.NotifyQueueCompleted))
	})
}

func TestDispatcher_RetryFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("should re-drive exactly the failed units", func(t *testing.T) {
		// Arrange
		env, u1, u2 := newProject(t)
		env.Store.InjectUnitLockError("u2", errs.ErrDatabaseConnection)
		parent, err := env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())
		require.NoError(t, err)
		env.Store.InjectUnitLockError("u2", nil)

		// Act
		retry, err := env.Dispatcher.RetryFailed(ctx, parent.ID, fixture.Admin())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.ProcessingRetry, retry.Kind)
		require.NotNil(t, retry.ParentLogID)
		assert.Equal(t, parent.ID, *retry.ParentLogID)
		assert.Equal(t, 1, retry.Total)
		assert.Equal(t, 1, retry.Succeeded)
		assert.Equal(t, entity.ReservationYourTurn, env.Store.Reservation(u2[0]).Status)
		assert.Equal(t, entity.ReservationActive, env.Store.Reservation(u1[1]).Status)

		_, ok := env.Store.ProcessingLog(retry.ID)
		assert.True(t, ok)
	})

	t.Run("should refuse a run without failures", func(t *testing.T) {
		env, _, _ := newProject(t)
		log, err := env.Dispatcher.OpenProject(ctx, "p1", fixture.Admin())
		require.NoError(t, err)

		_, err = env.Dispatcher.RetryFailed(ctx, log.ID, fixture.Admin())

		assert.ErrorIs(t, err, errs.ErrInvalidRequest)
	})

	t.Run("should report an unknown log", func(t *testing.T) {
		env := fixture.New(t)

		_, err := env.Dispatcher.RetryFailed(ctx, "missing", fixture.Admin())

		assert.ErrorIs(t, err, errs.ErrProcessingLogNotFound)
	})
}
