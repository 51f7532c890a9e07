package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorClassifier_Classify(t *testing.T) {
	c := NewErrorClassifier()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"unique violation", &pgconn.PgError{Code: "23505"}, DuplicateKeyError},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), DuplicateKeyError},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, SerializationError},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, SerializationError},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, SerializationError},
		{"foreign key", &pgconn.PgError{Code: "23503", Message: "insert violates foreign key"}, ConstraintError},
		{"message fallback", errors.New("could not serialize access due to concurrent update"), SerializationError},
		{"connection refused", errors.New("dial tcp: connection refused"), TransientError},
		{"unknown", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err))
		})
	}
}

func TestErrorClassifier_ToDomainError(t *testing.T) {
	c := NewErrorClassifier()

	assert.NoError(t, c.ToDomainError(nil, errs.ErrUnitNotFound))
	assert.Equal(t, errs.ErrUnitNotFound, c.ToDomainError(gorm.ErrRecordNotFound, errs.ErrUnitNotFound))
	assert.ErrorIs(t, c.ToDomainError(&pgconn.PgError{Code: "40001"}, nil), errs.ErrConcurrentUpdate)
	assert.ErrorIs(t, c.ToDomainError(&pgconn.PgError{Code: "23505"}, nil), errs.ErrDuplicateKey)
	assert.ErrorIs(t, c.ToDomainError(context.DeadlineExceeded, nil), context.DeadlineExceeded)
	assert.ErrorIs(t, c.ToDomainError(errors.New("syntax error"), nil), errs.ErrDatabaseConnection)

	// Without a not-found sentinel the record error is a plain database error
	assert.ErrorIs(t, c.ToDomainError(gorm.ErrRecordNotFound, nil), errs.ErrDatabaseConnection)
}

func TestToStrings(t *testing.T) {
	type status string
	assert.Equal(t, []string{"A", "B"}, toStrings([]status{"A", "B"}))
	assert.Empty(t, toStrings([]status{}))
}
