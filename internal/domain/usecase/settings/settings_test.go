package settings

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil/memstore"
	mockcore "github.com/amirhossein-jamali/unit-allocator/mocks/port/core"
)

func newProvider(t *testing.T) (*Provider, *memstore.Store, *mockcore.MockLogger) {
	store := memstore.New()
	logger := mockcore.NewMockLogger(t)
	return NewProvider(store, DefaultValues(), logger), store, logger
}

func TestProvider_Defaults(t *testing.T) {
	ctx := context.Background()
	provider, _, _ := newProvider(t)

	assert.Equal(t, 48*time.Hour, provider.BookingDuration(ctx).Std())
	assert.Equal(t, 24*time.Hour, provider.ReservationDuration(ctx).Std())
	assert.Equal(t, 48*time.Hour, provider.YourTurnDeadline(ctx).Std())
	assert.Equal(t, 20, provider.QueueBatchSize(ctx))
	assert.Equal(t, 5, provider.QueueConcurrency(ctx))
	assert.True(t, provider.DepositMinPercentage(ctx).Equal(decimal.NewFromInt(5)))

	rule := provider.BookingAmountRule(ctx)
	assert.Equal(t, entity.BookingAmountFixed, rule.Type)
	assert.True(t, rule.Fixed.Equal(decimal.NewFromInt(50_000_000)))

	refund := provider.RefundPolicy(ctx)
	assert.True(t, refund.ConfirmedPercentage.Equal(decimal.NewFromInt(50)))
	assert.True(t, refund.DefaultPercentage.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, entity.DefaultScheduleTemplate(), provider.PaymentScheduleTemplate(ctx))
}

func TestProvider_StoredValues(t *testing.T) {
	ctx := context.Background()
	provider, store, _ := newProvider(t)
	store.SetSetting(KeyBookingDurationHours, "72")
	store.SetSetting(KeyQueueConcurrency, " 8 ")
	store.SetSetting(KeyBookingAmountType, "percentage")
	store.SetSetting(KeyBookingAmountPercentage, "2.5")
	store.SetSetting(KeyBookingRefundConfirmedPct, "0")
	store.SetSetting(KeyDepositScheduleTemplate, `[{"name":"Handover","percentage":"90"}]`)

	assert.Equal(t, 72*time.Hour, provider.BookingDuration(ctx).Std())
	assert.Equal(t, 8, provider.QueueConcurrency(ctx))

	rule := provider.BookingAmountRule(ctx)
	assert.Equal(t, entity.BookingAmountPercentage, rule.Type)
	amount, err := rule.AmountFor(decimal.NewFromInt(2_000_000_000))
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(50_000_000)))

	assert.True(t, provider.RefundPolicy(ctx).ConfirmedPercentage.IsZero())

	template := provider.PaymentScheduleTemplate(ctx)
	require.Len(t, template, 1)
	assert.Equal(t, "Handover", template[0].Name)
	assert.Nil(t, template[0].OffsetDays)
}

func TestProvider_InvalidValuesFallBack(t *testing.T) {
	ctx := context.Background()
	provider, store, logger := newProvider(t)
	logger.EXPECT().Warn("Invalid integer setting, using default", mock.Anything).Twice()
	logger.EXPECT().Warn("Invalid decimal setting, using default", mock.Anything).Once()
	logger.EXPECT().Warn("Invalid payment schedule template, using default", mock.Anything).Twice()

	store.SetSetting(KeyQueueBatchSize, "0")
	store.SetSetting(KeyReservationDurationHours, "one day")
	store.SetSetting(KeyDepositMinPercentage, "-5")

	assert.Equal(t, 20, provider.QueueBatchSize(ctx))
	assert.Equal(t, 24*time.Hour, provider.ReservationDuration(ctx).Std())
	assert.True(t, provider.DepositMinPercentage(ctx).Equal(decimal.NewFromInt(5)))

	store.SetSetting(KeyDepositScheduleTemplate, "not json")
	assert.Equal(t, entity.DefaultScheduleTemplate(), provider.PaymentScheduleTemplate(ctx))
	store.SetSetting(KeyDepositScheduleTemplate, "[]")
	assert.Equal(t, entity.DefaultScheduleTemplate(), provider.PaymentScheduleTemplate(ctx))
}

func TestDefaults_AsMap(t *testing.T) {
	values := DefaultValues().AsMap()

	assert.Equal(t, "48", values[KeyBookingDurationHours])
	assert.Equal(t, "FIXED", values[KeyBookingAmountType])
	assert.Equal(t, "50000000", values[KeyBookingAmountFixed])
	assert.Equal(t, "20", values[KeyQueueBatchSize])
	assert.Equal(t, "5", values[KeyDepositMinPercentage])
	assert.Equal(t, "100", values[KeyBookingRefundDefaultPct])
	assert.NotContains(t, values, KeyDepositScheduleTemplate)
}

func TestProvider_ConfiguredDecimalDefaults(t *testing.T) {
	ctx := context.Background()
	defaults := DefaultValues()
	defaults.DepositMinPercentage = decimal.RequireFromString("7.5")
	defaults.RefundConfirmedPercentage = decimal.Zero
	provider := NewProvider(memstore.New(), defaults, mockcore.NewMockLogger(t))

	var got decimal.Decimal
	require.NotPanics(t, func() { got = provider.DepositMinPercentage(ctx) })

	assert.True(t, got.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, provider.RefundPolicy(ctx).ConfirmedPercentage.IsZero())
	assert.Equal(t, "7.5", defaults.AsMap()[KeyDepositMinPercentage])
}
