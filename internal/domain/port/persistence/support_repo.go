package persistence

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
)

// SequenceRepository defines access to code counters
type SequenceRepository interface {
	// Increment atomically adds one to the family counter and returns the new value.
	// found is false when the family has no counter row yet.
	Increment(ctx context.Context, family entity.CodeFamily) (value int64, found bool, err error)

	// Create inserts a counter row
	//
	// Possible errors:
	// - ErrDuplicateKey: If a concurrent transaction created the row first
	Create(ctx context.Context, sequence *entity.Sequence) error

	// MaxIssuedNumber returns the highest number already used by codes of the family, 0 if none
	MaxIssuedNumber(ctx context.Context, family entity.CodeFamily) (int64, error)

	// CodeExists checks the family's target table for the code
	CodeExists(ctx context.Context, family entity.CodeFamily, code string) (bool, error)
}

// ProcessingLogRepository defines access to dispatcher run logs
type ProcessingLogRepository interface {
	Create(ctx context.Context, log *entity.ProcessingLog) error

	// GetByID retrieves a log
	//
	// Possible errors:
	// - ErrProcessingLogNotFound: If the log doesn't exist
	GetByID(ctx context.Context, id string) (*entity.ProcessingLog, error)
}

// SettingRepository is the typed configuration key/value store
type SettingRepository interface {
	// Get returns the raw value of a key; found is false when the key is not set
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set creates or replaces a key
	Set(ctx context.Context, key, value string) error
}
