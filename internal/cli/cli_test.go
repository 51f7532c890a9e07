package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/jobs"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/usecase/settings"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *config.Config {
	return &config.Config{
		Environment: config.Development,
		Server:      config.ServerConfig{Port: 8080, ShutdownTimeout: 15 * time.Second},
		Database: config.DatabaseConfig{
			Host:         "localhost",
			Username:     "allocator",
			Database:     "allocator",
			SSLMode:      "disable",
			QueryTimeout: 10 * time.Second,
		},
		Logger: config.LoggerConfig{Level: "info"},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid development config", func(*config.Config) {}, ""},
		{"missing database host", func(c *config.Config) { c.Database.Host = "" }, "database.host"},
		{"unknown environment", func(c *config.Config) { c.Environment = "staging" }, "invalid environment"},
		{"production without tls", func(c *config.Config) {
			c.Environment = config.Production
			c.AdminIDs = []string{"admin-1"}
		}, "sslMode"},
		{"production without administrators", func(c *config.Config) {
			c.Environment = config.Production
			c.Database.SSLMode = "require"
		}, "adminIds"},
		{"malformed deposit percentage", func(c *config.Config) {
			c.Allocation.DepositMinPercentage = "5%"
		}, "allocation.depositMinPercentage"},
		{"negative refund percentage", func(c *config.Config) {
			c.Allocation.RefundConfirmedPercentage = "-50"
		}, "allocation.refundConfirmedPercentage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAllocationDefaults(t *testing.T) {
	t.Run("should keep built-in values for unset fields", func(t *testing.T) {
		d, err := allocationDefaults(config.AllocationConfig{})

		require.NoError(t, err)
		assert.Equal(t, settings.DefaultValues(), d)
	})

	t.Run("should apply configured overrides", func(t *testing.T) {
		d, err := allocationDefaults(config.AllocationConfig{
			BookingDurationHours: 72,
			BookingAmountType:    entity.BookingAmountPercentage,
			DepositMinPercentage: " 7.5 ",
			QueueConcurrency:     2,
		})

		require.NoError(t, err)
		assert.Equal(t, 72, d.BookingDurationHours)
		assert.Equal(t, entity.BookingAmountPercentage, d.BookingAmountType)
		assert.True(t, d.DepositMinPercentage.Equal(decimal.RequireFromString("7.5")))
		assert.Equal(t, 2, d.QueueConcurrency)
		assert.Equal(t, settings.DefaultValues().QueueBatchSize, d.QueueBatchSize)
	})

	t.Run("should reject every malformed decimal", func(t *testing.T) {
		_, err := allocationDefaults(config.AllocationConfig{
			DepositMinPercentage: "5%",
			BookingAmountFixed:   "fifty million",
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `allocation.depositMinPercentage="5%"`)
		assert.Contains(t, err.Error(), `allocation.bookingAmountFixed="fifty million"`)
	})
}

func TestSchedulerIntervals(t *testing.T) {
	iv := schedulerIntervals(config.SchedulerConfig{MissedTurns: 5 * time.Minute})

	assert.Equal(t, 5*time.Minute, iv.MissedTurns)
	assert.Equal(t, jobs.DefaultIntervals().ReservationExpiry, iv.ReservationExpiry)
}

func TestRootCommand(t *testing.T) {
	t.Run("should register every subcommand", func(t *testing.T) {
		cmd := NewRootCommand()

		for _, name := range []string{"serve", "migrate", "job", "open-project", "dispatch", "retry-dispatch"} {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		}
	})

	t.Run("should require a job name", func(t *testing.T) {
		cmd := NewRootCommand()
		cmd.SetArgs([]string{"job"})
		cmd.SetOut(&bytes.Buffer{})

		assert.Error(t, cmd.Execute())
	})

	t.Run("should surface configuration errors before connecting", func(t *testing.T) {
		loadErr := errors.New("boom")
		opts := &RootOptions{LoadConfig: func() (*config.Config, error) { return nil, loadErr }}

		_, err := opts.bootstrap(context.Background(), false)

		assert.ErrorIs(t, err, loadErr)
	})
}

func TestRootOptions_Actor(t *testing.T) {
	assert.Equal(t, entity.SystemActor(), (&RootOptions{}).actor())

	admin := (&RootOptions{ActorID: "ops-1"}).actor()
	assert.Equal(t, entity.RoleAdmin, admin.Role)
	assert.Equal(t, "ops-1", admin.ID)
}
