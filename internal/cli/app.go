package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/external"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/booking"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/deposit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/dispatcher"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/jobs"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/postcommit"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/reservation"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/sequence"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/settings"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/unitstatus"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/lock"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/messaging"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/repository"
	timeprovider "github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/config"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// lockCleanupJob purges expired rows of the job_locks table when the database lock is in use
const lockCleanupJob = "job-lock-cleanup"

// App holds the wired allocation engine
type App struct {
	Config       *config.Config
	Logger       coreport.Logger
	TimeProvider coreport.TimeProvider
	DB           *database.Manager
	UnitOfWork   *database.UnitOfWork
	Runner       *txrunner.Runner
	Defaults     settings.Defaults
	Settings     *settings.Provider
	Sync         *unitstatus.Synchronizer
	Reservations *reservation.Service
	Bookings     *booking.Service
	Deposits     *deposit.Service
	Dispatcher   *dispatcher.Dispatcher
	Jobs         *jobs.Catalog
	Health       *database.HealthChecker

	closers []func() error
}

// NewApp creates the logger and connects to the database. Wire builds the use cases.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appLogger := logger.NewZapLogger(cfg.Environment == config.Production, coreport.ParseLogLevel(cfg.Logger.Level))
	tp := timeprovider.NewRealTimeProvider()

	defaults, err := allocationDefaults(cfg.Allocation)
	if err != nil {
		return nil, err
	}

	dbManager := database.NewManager(database.CreateConfigFromViperConfig(cfg), appLogger, tp)
	if _, err := dbManager.Connect(ctx); err != nil {
		return nil, err
	}

	app := &App{
		Config:       cfg,
		Logger:       appLogger,
		TimeProvider: tp,
		DB:           dbManager,
		Defaults:     defaults,
	}
	app.closers = append(app.closers, dbManager.Close)
	return app, nil
}

// Migrate brings the schema up to date and seeds the business settings
func (a *App) Migrate(ctx context.Context) error {
	return a.DB.Migrate(ctx, a.Defaults.AsMap())
}

// Wire builds the use cases, collaborators and job catalog on top of the connection
func (a *App) Wire(ctx context.Context) error {
	db := a.DB.DB()

	a.UnitOfWork = a.DB.CreateUnitOfWork()
	a.Runner = txrunner.NewRunner(a.UnitOfWork, a.TimeProvider, a.Logger)
	a.Settings = settings.NewProvider(a.UnitOfWork, a.Defaults, a.Logger)
	a.Health = database.NewHealthChecker(db, a.DB.PoolMonitor(), a.Logger)

	notifier, commission, err := a.messaging()
	if err != nil {
		return err
	}
	audit := repository.NewGormAuditLog(db, a.Logger)

	codes := sequence.NewGenerator(a.Runner, a.TimeProvider, a.Logger)
	a.Sync = unitstatus.NewSynchronizer(a.Runner, a.TimeProvider, a.Logger)
	effects := postcommit.NewEffects(a.Runner, a.Sync, notifier, audit, a.TimeProvider)

	a.Reservations = reservation.NewService(a.Runner, codes, a.Settings, effects, a.TimeProvider, a.Logger)
	a.Bookings = booking.NewService(a.Runner, codes, a.Reservations, a.Settings, effects, a.TimeProvider, a.Logger)
	a.Deposits = deposit.NewService(a.Runner, codes, a.Reservations, a.Settings, effects, commission, a.TimeProvider, a.Logger)
	a.Dispatcher = dispatcher.NewDispatcher(a.Runner, a.Reservations, a.Settings, effects, a.Config.AdminIDs, a.TimeProvider, a.Logger)

	locker, dbLocker, err := a.jobLocker(ctx)
	if err != nil {
		return err
	}
	a.Jobs = jobs.NewCatalog(a.Reservations, a.Bookings, a.Deposits, a.Sync,
		schedulerIntervals(a.Config.Scheduler), locker, a.TimeProvider, a.Logger)
	if dbLocker != nil {
		a.Jobs.Register(jobs.Job{Name: lockCleanupJob, Interval: time.Hour, Run: func(ctx context.Context) (any, error) {
			return nil, dbLocker.CleanupExpiredLocks(ctx)
		}})
	}
	return nil
}

// messaging publishes to RabbitMQ when a broker is configured and logs otherwise
func (a *App) messaging() (external.NotificationSender, external.CommissionCalculator, error) {
	if a.Config.AMQP.URL == "" {
		a.Logger.Info("No message broker configured, notifications are logged only", nil)
		return messaging.NewLogNotificationSender(a.Logger), messaging.NewLogCommissionCalculator(a.Logger), nil
	}

	publisher, err := messaging.NewAMQPPublisher(a.Config.AMQP.URL, a.Config.AMQP.Exchange)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}
	a.closers = append(a.closers, publisher.Close)

	a.Logger.Info("Publishing allocation events", map[string]any{"exchange": a.Config.AMQP.Exchange})
	return messaging.NewAMQPNotificationSender(publisher, a.TimeProvider),
		messaging.NewAMQPCommissionRequester(publisher, a.TimeProvider), nil
}

// jobLocker prefers Redis and falls back to the job_locks table
func (a *App) jobLocker(ctx context.Context) (coreport.JobLocker, *repository.DBJobLocker, error) {
	if a.Config.Redis.Addr == "" {
		l := repository.NewDBJobLocker(a.DB.DB(), a.TimeProvider, a.Logger)
		return l, l, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	a.closers = append(a.closers, client.Close)

	l := lock.NewRedisJobLocker(client, a.Logger)
	if err := l.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", a.Config.Redis.Addr, err)
	}
	a.Logger.Info("Using redis job lock", map[string]any{"addr": a.Config.Redis.Addr})
	return l, nil, nil
}

// Close releases every connection in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.Logger.Flush()
	return errors.Join(errs...)
}

// allocationDefaults overlays the configured allocation values on the built-in defaults.
// Decimal values are parsed here so a malformed setting fails at startup.
func allocationDefaults(c config.AllocationConfig) (settings.Defaults, error) {
	d := settings.DefaultValues()

	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	var invalid []string
	setDecimal := func(dst *decimal.Decimal, key, v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		parsed, err := decimal.NewFromString(v)
		if err != nil || parsed.IsNegative() {
			invalid = append(invalid, fmt.Sprintf("allocation.%s=%q", key, v))
			return
		}
		*dst = parsed
	}

	setInt(&d.BookingDurationHours, c.BookingDurationHours)
	if c.BookingAmountType != "" {
		d.BookingAmountType = c.BookingAmountType
	}
	setDecimal(&d.BookingAmountFixed, "bookingAmountFixed", c.BookingAmountFixed)
	setDecimal(&d.BookingAmountPercentage, "bookingAmountPercentage", c.BookingAmountPercentage)
	setDecimal(&d.RefundConfirmedPercentage, "refundConfirmedPercentage", c.RefundConfirmedPercentage)
	setDecimal(&d.RefundDefaultPercentage, "refundDefaultPercentage", c.RefundDefaultPercentage)
	setDecimal(&d.DepositMinPercentage, "depositMinPercentage", c.DepositMinPercentage)
	setInt(&d.ReservationDurationHours, c.ReservationDurationHours)
	setInt(&d.YourTurnDeadlineHours, c.YourTurnDeadlineHours)
	setInt(&d.QueueBatchSize, c.QueueBatchSize)
	setInt(&d.QueueConcurrency, c.QueueConcurrency)

	if len(invalid) > 0 {
		return settings.Defaults{}, fmt.Errorf("invalid decimal configuration, want a non-negative number: %s",
			strings.Join(invalid, ", "))
	}
	return d, nil
}

func schedulerIntervals(c config.SchedulerConfig) jobs.Intervals {
	iv := jobs.DefaultIntervals()
	if c.ReservationExpiry > 0 {
		iv.ReservationExpiry = c.ReservationExpiry
	}
	if c.OverduePayments > 0 {
		iv.OverduePayments = c.OverduePayments
	}
	if c.MissedTurns > 0 {
		iv.MissedTurns = c.MissedTurns
	}
	return iv
}
