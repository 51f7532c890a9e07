package migration

import (
	"context"
	"sort"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedDefaultSettings stores the given values for every key that is not set yet.
// Keys already present keep their value so administrator changes survive redeploys.
func SeedDefaultSettings(ctx context.Context, db *gorm.DB, values map[string]string, now time.Time) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]model.Setting, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, model.Setting{Key: k, Value: values[k], UpdatedAt: now})
	}

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
		Create(&rows)
	return result.RowsAffected, result.Error
}
