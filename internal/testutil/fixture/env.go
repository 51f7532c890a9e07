// Package fixture wires the allocation use cases on top of the in-memory store for tests.
package fixture

import (
	"testing"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/booking"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/deposit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/dispatcher"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/postcommit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/reservation"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/sequence"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/settings"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/unitstatus"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil/memstore"
	mockexternal "github.com/amirhossein-jamali/unit-allocator/mocks/port/external"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// Start is the fixed instant every environment clock starts at
var Start = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// AdminID is the administrator registered for dispatcher alerts
const AdminID = "admin-1"

// Env is a fully wired allocation engine backed by memstore
type Env struct {
	Store        *memstore.Store
	Clock        *testutil.Clock
	Logger       coreport.Logger
	Runner       *txrunner.Runner
	Settings     *settings.Provider
	Codes        *sequence.Generator
	Sync         *unitstatus.Synchronizer
	Effects      *postcommit.Effects
	Reservations *reservation.Service
	Bookings     *booking.Service
	Deposits     *deposit.Service
	Dispatcher   *dispatcher.Dispatcher
	Notifier     *mockexternal.MockNotificationSender
	Audit        *mockexternal.MockAuditLog
	Commission   *mockexternal.MockCommissionCalculator
}

// New builds an environment whose collaborators accept any call
func New(t *testing.T) *Env {
	t.Helper()

	env := &Env{
		Store:      memstore.New(),
		Clock:      testutil.NewFixedClock(Start),
		Logger:     logger.NewNoopLogger(),
		Notifier:   mockexternal.NewMockNotificationSender(t),
		Audit:      mockexternal.NewMockAuditLog(t),
		Commission: mockexternal.NewMockCommissionCalculator(t),
	}
	env.Notifier.EXPECT().Send(mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	env.Audit.EXPECT().Record(mock.Anything, mock.Anything).Return(nil).Maybe()
	env.Commission.EXPECT().CreateForDeposit(mock.Anything, mock.Anything).Return(nil).Maybe()

	env.Runner = txrunner.NewRunner(env.Store, env.Clock, env.Logger)
	env.Settings = settings.NewProvider(env.Store, settings.DefaultValues(), env.Logger)
	env.Codes = sequence.NewGenerator(env.Runner, env.Clock, env.Logger)
	env.Sync = unitstatus.NewSynchronizer(env.Runner, env.Clock, env.Logger)
	env.Effects = postcommit.NewEffects(env.Runner, env.Sync, env.Notifier, env.Audit, env.Clock)
	env.Reservations = reservation.NewService(env.Runner, env.Codes, env.Settings, env.Effects, env.Clock, env.Logger)
	env.Bookings = booking.NewService(env.Runner, env.Codes, env.Reservations, env.Settings, env.Effects, env.Clock, env.Logger)
	env.Deposits = deposit.NewService(env.Runner, env.Codes, env.Reservations, env.Settings, env.Effects,
		env.Commission, env.Clock, env.Logger)
	env.Dispatcher = dispatcher.NewDispatcher(env.Runner, env.Reservations, env.Settings, env.Effects,
		[]string{AdminID}, env.Clock, env.Logger)
	return env
}

// Agent returns an agent actor
func Agent(id string) entity.Actor {
	return entity.Actor{ID: id, Role: entity.RoleAgent}
}

// Admin returns the administrator actor
func Admin() entity.Actor {
	return entity.Actor{ID: AdminID, Role: entity.RoleAdmin}
}

// SeedProject stores a project in the given phase. A nil openDate leaves it unplanned.
func (e *Env) SeedProject(id string, phase entity.ProjectPhase, openDate *time.Time) {
	e.Store.SeedProject(entity.Project{
		ID:        id,
		Name:      "Project " + id,
		Phase:     phase,
		OpenDate:  openDate,
		CreatedAt: Start,
		UpdatedAt: Start,
	})
}

// SeedUnit stores a unit with the given list price and status
func (e *Env) SeedUnit(id, projectID string, price int64, status entity.UnitStatus) {
	e.Store.SeedUnit(entity.Unit{
		ID:        id,
		ProjectID: projectID,
		Code:      "U-" + id,
		Price:     decimal.NewFromInt(price),
		Status:    status,
		CreatedAt: Start,
		UpdatedAt: Start,
	})
}

// Notified reports whether a notification of kind was sent to userID
func (e *Env) Notified(userID string, kind entity.NotificationType) bool {
	for _, call := range e.Notifier.Calls {
		if call.Method != "Send" {
			continue
		}
		if call.Arguments.String(1) == userID && call.Arguments.Get(2) == kind {
			return true
		}
	}
	return false
}
