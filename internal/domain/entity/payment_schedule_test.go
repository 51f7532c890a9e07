package entity

import (
	"testing"
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approvedAt = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func depositOf(amount, price int64) *Deposit {
	return &Deposit{
		ID:                "d1",
		UnitID:            "u1",
		DepositAmount:     decimal.NewFromInt(amount),
		DepositPercentage: PercentageOf(decimal.NewFromInt(amount), decimal.NewFromInt(price)),
		Status:            DepositConfirmed,
	}
}

func TestBuildPaymentSchedule(t *testing.T) {
	t.Run("default template", func(t *testing.T) {
		schedule, err := BuildPaymentSchedule(depositOf(100_000, 1_000_000), decimal.NewFromInt(1_000_000), nil, approvedAt)
		require.NoError(t, err)
		require.Len(t, schedule, 4)

		expected := []struct {
			amount string
			pct    string
			due    *time.Time
			status InstallmentStatus
		}{
			{"100000.00", "10", &approvedAt, InstallmentPaid},
			{"300000.00", "30", ptr(approvedAt.AddDate(0, 0, 30)), InstallmentPending},
			{"300000.00", "30", ptr(approvedAt.AddDate(0, 0, 60)), InstallmentPending},
			{"300000.00", "30", nil, InstallmentPending},
		}
		for i, want := range expected {
			inst := schedule[i]
			assert.Equal(t, i+1, inst.Sequence)
			assert.Equal(t, want.amount, FormatAmount(inst.Amount))
			assert.Equal(t, want.pct, inst.Percentage.String())
			assert.Equal(t, want.status, inst.Status)
			if want.due == nil {
				assert.Nil(t, inst.DueDate)
			} else {
				require.NotNil(t, inst.DueDate)
				assert.True(t, want.due.Equal(*inst.DueDate))
			}
			assert.Equal(t, "d1", inst.DepositID)
			assert.Equal(t, "u1", inst.UnitID)
		}
		assert.Equal(t, DepositInstallmentName, schedule[0].Name)
		assert.True(t, TotalPercentage(schedule).Equal(decimal.NewFromInt(100)))
	})

	t.Run("final installment absorbs rounding", func(t *testing.T) {
		price := decimal.NewFromInt(1_000_001)
		schedule, err := BuildPaymentSchedule(depositOf(100_000, 1_000_001), price, nil, approvedAt)
		require.NoError(t, err)

		total := decimal.Zero
		for _, inst := range schedule {
			total = total.Add(inst.Amount)
		}
		assert.True(t, total.Equal(price))
		assert.Equal(t, "300000.40", FormatAmount(schedule[3].Amount))
	})

	t.Run("custom template names missing entries", func(t *testing.T) {
		ten := 10
		template := []ScheduleTemplateEntry{
			{Percentage: decimal.NewFromInt(50), OffsetDays: &ten},
			{Name: "Handover", Percentage: decimal.NewFromInt(50)},
		}

		schedule, err := BuildPaymentSchedule(depositOf(100_000, 1_000_000), decimal.NewFromInt(1_000_000), template, approvedAt)
		require.NoError(t, err)
		require.Len(t, schedule, 3)
		assert.Equal(t, "Installment 2", schedule[1].Name)
		assert.Equal(t, "500000.00", FormatAmount(schedule[1].Amount))
		assert.Equal(t, "Handover", schedule[2].Name)
		assert.Equal(t, "40", schedule[2].Percentage.String())
		assert.Equal(t, "400000.00", FormatAmount(schedule[2].Amount))
	})

	t.Run("template over the price is rejected", func(t *testing.T) {
		template := []ScheduleTemplateEntry{
			{Name: "Big", Percentage: decimal.NewFromInt(95)},
			{Name: "Final", Percentage: decimal.NewFromInt(5)},
		}

		_, err := BuildPaymentSchedule(depositOf(100_000, 1_000_000), decimal.NewFromInt(1_000_000), template, approvedAt)
		assert.ErrorIs(t, err, errs.ErrInvalidRequest)
	})
}

func TestInstallmentLifecycle(t *testing.T) {
	due := approvedAt.AddDate(0, 0, 30)
	after := due.Add(time.Hour)

	inst := Installment{Status: InstallmentPending, DueDate: &due}
	assert.False(t, inst.MarkOverdue(due.Add(-time.Hour)))
	assert.True(t, inst.MarkOverdue(after))
	assert.Equal(t, InstallmentOverdue, inst.Status)
	assert.False(t, inst.MarkOverdue(after))

	require.NoError(t, inst.MarkPaid(after))
	assert.Equal(t, InstallmentPaid, inst.Status)
	require.NotNil(t, inst.PaidAt)
	assert.ErrorIs(t, inst.MarkPaid(after), errs.ErrInvalidTransition)
	assert.False(t, inst.Cancel(after))

	open := Installment{Status: InstallmentPending}
	assert.False(t, open.IsPastDue(after.AddDate(10, 0, 0)))
	assert.True(t, open.Cancel(after))
	assert.Equal(t, InstallmentCancelled, open.Status)
}

func TestScheduleAggregates(t *testing.T) {
	assert.False(t, AllPaid(nil))
	assert.True(t, AllPaid([]Installment{{Status: InstallmentPaid}, {Status: InstallmentCancelled}}))
	assert.False(t, AllPaid([]Installment{{Status: InstallmentPaid}, {Status: InstallmentOverdue}}))
	assert.True(t, HasOverdue([]Installment{{Status: InstallmentPaid}, {Status: InstallmentOverdue}}))
	assert.False(t, HasOverdue([]Installment{{Status: InstallmentPending}}))
}

func ptr[T any](v T) *T {
	return &v
}
