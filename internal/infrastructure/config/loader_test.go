package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("UA_ENV", "unit-test-without-file")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "unit-test-without-file", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "allocation.events", cfg.AMQP.Exchange)
	assert.Equal(t, time.Hour, cfg.Scheduler.ReservationExpiry)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.MissedTurns)
	assert.Equal(t, 48, cfg.Allocation.BookingDurationHours)
	assert.Equal(t, "50000000", cfg.Allocation.BookingAmountFixed)
	assert.Equal(t, 20, cfg.Allocation.QueueBatchSize)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("UA_ENV", "unit-test-without-file")
	t.Setenv("UA_DB_HOST", "db.internal")
	t.Setenv("UA_DB_PASSWORD", "secret")
	t.Setenv("UA_REDIS_ADDR", "redis:6379")
	t.Setenv("UA_ADMIN_IDS", "admin-1, admin-2,,")
	t.Setenv("UA_QUEUE_PROCESSING_CONCURRENCY", "8")
	t.Setenv("UA_SCHEDULER_ENABLED", "false")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"admin-1", "admin-2"}, cfg.AdminIDs)
	assert.Equal(t, 8, cfg.Allocation.QueueConcurrency)
	assert.False(t, cfg.Scheduler.Enabled)
}
