package jobs

import (
	"context"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
)

// Scheduler ticks every periodic job of a catalog until its context is cancelled
type Scheduler struct {
	catalog *Catalog
	logger  coreport.Logger
}

// NewScheduler creates a new Scheduler
func NewScheduler(catalog *Catalog, logger coreport.Logger) *Scheduler {
	return &Scheduler{catalog: catalog, logger: logger}
}

// Run blocks until ctx is done. Each job gets its own ticker, so a slow sweep never delays another.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.catalog.Scheduled() {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, job)
		}()
	}

	s.logger.Info("Scheduler started", map[string]any{"jobs": len(s.catalog.Scheduled())})
	wg.Wait()
	s.logger.Info("Scheduler stopped", nil)
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.catalog.RunOnce(ctx, job.Name); err != nil && ctx.Err() == nil {
				s.logger.Warn("Scheduled job run failed", map[string]any{
					"job":   job.Name,
					"error": err.Error(),
				})
			}
		}
	}
}
