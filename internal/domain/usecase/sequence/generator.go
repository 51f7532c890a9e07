// Package sequence issues gap-free human-readable codes such as RS000007.
package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/txrunner"
)

// Generator issues codes from the persisted per-family counters
type Generator struct {
	runner       *txrunner.Runner
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewGenerator creates a new code generator
func NewGenerator(runner *txrunner.Runner, timeProvider coreport.TimeProvider, logger coreport.Logger) *Generator {
	return &Generator{
		runner:       runner,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Next returns the next code of the family.
//
// Inside a transaction the counter is incremented as part of it, in a single attempt: a
// concurrent counter creation surfaces as ErrConcurrentUpdate so the caller's transaction is
// retried as a whole. Without a transaction the generator opens its own, retried up to
// 5 times with 10ms x 2^attempt backoff; exhaustion yields ErrCodeGeneration.
func (g *Generator) Next(ctx context.Context, family entity.CodeFamily) (string, error) {
	if !family.IsValid() {
		return "", errs.NewValidationError("family", fmt.Sprintf("unknown code family %q", family))
	}

	if g.runner.UnitOfWork().InTransaction(ctx) {
		return g.next(ctx, family)
	}

	var code string
	err := g.runner.Run(ctx, "sequence.next", txrunner.CodeGenerationPolicy(), func(ctx context.Context) error {
		var err error
		code, err = g.next(ctx, family)
		return err
	})
	if err != nil {
		if errors.Is(err, errs.ErrRetryLater) {
			return "", fmt.Errorf("%w: %s: %s", errs.ErrCodeGeneration, family, err.Error())
		}
		return "", err
	}
	return code, nil
}

func (g *Generator) next(ctx context.Context, family entity.CodeFamily) (string, error) {
	repo := g.runner.UnitOfWork().GetSequenceRepository(ctx)

	value, found, err := repo.Increment(ctx, family)
	if err != nil {
		return "", err
	}

	if !found {
		// Seed from codes issued before the counter existed
		maxIssued, err := repo.MaxIssuedNumber(ctx, family)
		if err != nil {
			return "", err
		}
		value = maxIssued + 1
		err = repo.Create(ctx, &entity.Sequence{
			Family:    family,
			Prefix:    family.Prefix(),
			Current:   value,
			UpdatedAt: g.timeProvider.Now(),
		})
		if errors.Is(err, errs.ErrDuplicateKey) {
			return "", fmt.Errorf("%w: sequence %s created concurrently", errs.ErrConcurrentUpdate, family)
		}
		if err != nil {
			return "", err
		}
	}

	code := entity.FormatCode(family, value)
	exists, err := repo.CodeExists(ctx, family, code)
	if err != nil {
		return "", err
	}
	if !exists {
		return code, nil
	}

	g.logger.Warn("Generated code already in use, skipping ahead", map[string]any{
		"family": string(family),
		"code":   code,
	})

	value, _, err = repo.Increment(ctx, family)
	if err != nil {
		return "", err
	}
	code = entity.FormatCode(family, value)
	exists, err = repo.CodeExists(ctx, family, code)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: %s collides with an existing record", errs.ErrCodeGeneration, code)
	}
	return code, nil
}
