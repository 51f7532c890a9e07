// Package jobs names the time-driven sweeps and runs them under a distributed job lock.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/unitstatus"
)

// Job names
const (
	ReservationExpiry = "reservation-expiry"
	OverduePayments   = "overdue-payments"
	MissedTurns       = "missed-turns"
	BookingExpiry     = "booking-expiry"
	Reconcile         = "reconcile"
)

const defaultLockTTL = 10 * time.Minute

// ReservationSweeper expires reservations and turns
type ReservationSweeper interface {
	ExpireReservations(ctx context.Context) (usecase.SweepResult, error)
	ProcessMissedTurns(ctx context.Context) (usecase.SweepResult, error)
}

// BookingSweeper expires unpaid or unapproved bookings
type BookingSweeper interface {
	ExpireBookings(ctx context.Context) (usecase.SweepResult, error)
}

// PaymentSweeper flags overdue installments
type PaymentSweeper interface {
	ProcessOverduePayments(ctx context.Context) (usecase.SweepResult, error)
}

// StatusReconciler re-derives unit statuses
type StatusReconciler interface {
	Reconcile(ctx context.Context, projectID string) (unitstatus.ReconcileResult, error)
}

// Job is a named sweep. A zero Interval means the job only runs on demand.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (any, error)
}

// Intervals configures the periodic jobs
type Intervals struct {
	ReservationExpiry time.Duration
	OverduePayments   time.Duration
	MissedTurns       time.Duration
}

// DefaultIntervals returns the standard schedule
func DefaultIntervals() Intervals {
	return Intervals{
		ReservationExpiry: time.Hour,
		OverduePayments:   time.Hour,
		MissedTurns:       30 * time.Minute,
	}
}

// Report describes one job execution
type Report struct {
	Job       string        `json:"job"`
	Skipped   bool          `json:"skipped"` // Another replica held the lock
	Result    any           `json:"result,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Catalog holds the registered jobs
type Catalog struct {
	jobs         map[string]Job
	locker       coreport.JobLocker
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewCatalog registers the allocation sweeps
func NewCatalog(
	reservations ReservationSweeper,
	bookings BookingSweeper,
	payments PaymentSweeper,
	reconciler StatusReconciler,
	intervals Intervals,
	locker coreport.JobLocker,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Catalog {
	c := &Catalog{
		jobs:         make(map[string]Job),
		locker:       locker,
		timeProvider: timeProvider,
		logger:       logger,
	}

	c.Register(Job{Name: ReservationExpiry, Interval: intervals.ReservationExpiry, Run: func(ctx context.Context) (any, error) {
		return reservations.ExpireReservations(ctx)
	}})
	c.Register(Job{Name: OverduePayments, Interval: intervals.OverduePayments, Run: func(ctx context.Context) (any, error) {
		return payments.ProcessOverduePayments(ctx)
	}})
	c.Register(Job{Name: MissedTurns, Interval: intervals.MissedTurns, Run: func(ctx context.Context) (any, error) {
		return reservations.ProcessMissedTurns(ctx)
	}})
	c.Register(Job{Name: BookingExpiry, Run: func(ctx context.Context) (any, error) {
		return bookings.ExpireBookings(ctx)
	}})
	c.Register(Job{Name: Reconcile, Run: func(ctx context.Context) (any, error) {
		return reconciler.Reconcile(ctx, "")
	}})
	return c
}

// Register adds or replaces a job
func (c *Catalog) Register(job Job) {
	c.jobs[job.Name] = job
}

// Names lists the registered jobs in alphabetical order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.jobs))
	for name := range c.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scheduled lists the jobs that run periodically
func (c *Catalog) Scheduled() []Job {
	scheduled := make([]Job, 0, len(c.jobs))
	for _, name := range c.Names() {
		if job := c.jobs[name]; job.Interval > 0 {
			scheduled = append(scheduled, job)
		}
	}
	return scheduled
}

// RunOnce executes the named job if its lock can be taken
func (c *Catalog) RunOnce(ctx context.Context, name string) (Report, error) {
	job, ok := c.jobs[name]
	if !ok {
		return Report{}, fmt.Errorf("%w: unknown job %q", errs.ErrInvalidRequest, name)
	}

	ttl := job.Interval
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	report := Report{Job: name, StartedAt: c.timeProvider.Now()}
	release, acquired, err := c.locker.TryLock(ctx, "job:"+name, ttl)
	if err != nil {
		return report, fmt.Errorf("failed to acquire lock for job %s: %w", name, err)
	}
	if !acquired {
		c.logger.Debug("Job already running elsewhere, skipping", map[string]any{"job": name})
		report.Skipped = true
		return report, nil
	}
	defer release()

	result, err := job.Run(ctx)
	report.Result = result
	report.Duration = c.timeProvider.Since(report.StartedAt).Std()
	if err != nil {
		c.logger.Error("Job failed", map[string]any{
			"job":   name,
			"error": err.Error(),
		})
		return report, err
	}

	c.logger.Info("Job finished", map[string]any{
		"job":        name,
		"durationMs": report.Duration.Milliseconds(),
	})
	return report, nil
}
