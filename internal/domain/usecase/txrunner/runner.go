package txrunner

import (
	"context"
	"fmt"
	"sync"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/persistence"
)

// Task is a best-effort side effect executed after a successful commit
type Task func(ctx context.Context) error

type scopeKey struct{}

type pendingTask struct {
	name   string
	fields map[string]any
	fn     Task
}

// scope collects the post-commit tasks of one transaction attempt
type scope struct {
	mu    sync.Mutex
	tasks []pendingTask
}

func (s *scope) add(t pendingTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

func (s *scope) drain() []pendingTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.tasks
	s.tasks = nil
	return tasks
}

// Runner executes operations in a SERIALIZABLE transaction and retries them on serialization conflicts
type Runner struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewRunner creates a new Runner
func NewRunner(uow persistence.UnitOfWork, timeProvider coreport.TimeProvider, logger coreport.Logger) *Runner {
	return &Runner{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// UnitOfWork returns the unit of work the runner opens transactions on
func (r *Runner) UnitOfWork() persistence.UnitOfWork {
	return r.uow
}

// Run executes fn inside a transaction.
// When ctx already carries a transaction fn joins it and the outer Run owns commit and retries.
// Only ErrConcurrentUpdate is retried; every other error is returned as is.
// After MaxAttempts conflicts a RetryExhaustedError (ErrRetryLater) is returned.
func (r *Runner) Run(ctx context.Context, operation string, policy Policy, fn func(ctx context.Context) error) error {
	if r.uow.InTransaction(ctx) {
		return fn(ctx)
	}

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		tasks, err := r.runOnce(ctx, policy, fn)
		if err == nil {
			r.runTasks(ctx, operation, tasks)
			return nil
		}

		if !errs.IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		backoff := Backoff(attempt, policy)
		r.logger.Warn("Serialization conflict, retrying operation", map[string]any{
			"operation":    operation,
			"attempt":      attempt + 1,
			"max_attempts": attempts,
			"error":        err.Error(),
			"retry_after":  backoff.String(),
		})

		select {
		case <-r.timeProvider.After(coreport.Duration(backoff)):
		case <-ctx.Done():
			r.logger.Warn("Retry operation canceled by context", map[string]any{
				"operation": operation,
				"attempts":  attempt + 1,
				"error":     ctx.Err().Error(),
			})
			return ctx.Err()
		}
	}

	exhausted := &errs.RetryExhaustedError{Operation: operation, Attempts: attempts, Err: lastErr}
	r.logger.Error("All retry attempts failed", exhausted.LogFields())
	return exhausted
}

// runOnce performs a single attempt and returns the tasks registered by it
func (r *Runner) runOnce(ctx context.Context, policy Policy, fn func(ctx context.Context) error) (tasks []pendingTask, err error) {
	attemptCtx := ctx
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = r.timeProvider.WithTimeout(ctx, coreport.Duration(policy.Timeout))
		defer cancel()
	}

	txCtx, err := r.uow.Begin(attemptCtx)
	if err != nil {
		return nil, err
	}

	sc := &scope{}
	txCtx = context.WithValue(txCtx, scopeKey{}, sc)

	defer func() {
		if p := recover(); p != nil {
			_ = r.uow.Rollback(txCtx)
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := r.uow.Rollback(txCtx); rbErr != nil {
			r.logger.Warn("Failed to roll back transaction", map[string]any{
				"error":          rbErr.Error(),
				"original_error": err.Error(),
			})
		}
		return nil, err
	}

	if err := r.uow.Commit(txCtx); err != nil {
		return nil, err
	}

	return sc.drain(), nil
}

// AfterCommit registers a best-effort task to run once the surrounding transaction commits.
// The task is dropped when the attempt rolls back. Outside a transaction it runs immediately.
// Failures are logged with the task name and fields and never reach the caller.
func (r *Runner) AfterCommit(ctx context.Context, name string, fields map[string]any, fn Task) {
	t := pendingTask{name: name, fields: fields, fn: fn}
	if sc, ok := ctx.Value(scopeKey{}).(*scope); ok {
		sc.add(t)
		return
	}
	r.runTasks(ctx, "", []pendingTask{t})
}

func (r *Runner) runTasks(ctx context.Context, operation string, tasks []pendingTask) {
	for _, t := range tasks {
		r.runTask(ctx, operation, t)
	}
}

func (r *Runner) runTask(ctx context.Context, operation string, t pendingTask) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Post-commit task panicked", r.taskFields(operation, t, fmt.Errorf("panic: %v", p)))
		}
	}()

	if err := t.fn(ctx); err != nil {
		r.logger.Warn("Post-commit task failed", r.taskFields(operation, t, err))
	}
}

func (r *Runner) taskFields(operation string, t pendingTask, err error) map[string]any {
	fields := make(map[string]any, len(t.fields)+3)
	for k, v := range t.fields {
		fields[k] = v
	}
	fields["task"] = t.name
	fields["error"] = err.Error()
	if operation != "" {
		fields["operation"] = operation
	}
	return fields
}
