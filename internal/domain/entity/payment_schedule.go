package entity

import (
	"fmt"
	"time"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus is the state of a payment schedule row
type InstallmentStatus string

// Installment statuses
const (
	InstallmentPending   InstallmentStatus = "PENDING"
	InstallmentPaid      InstallmentStatus = "PAID"
	InstallmentOverdue   InstallmentStatus = "OVERDUE"
	InstallmentCancelled InstallmentStatus = "CANCELLED"
)

// DepositInstallmentName names the first installment, which is the deposit itself
const DepositInstallmentName = "Deposit"

// Installment is one row of a deposit's payment schedule
type Installment struct {
	ID         string
	DepositID  string
	UnitID     string
	Sequence   int // 1-based order, 1 is the deposit
	Name       string
	Percentage decimal.Decimal
	Amount     decimal.Decimal
	DueDate    *time.Time // nil for the open-ended final installment
	Status     InstallmentStatus
	PaidAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsUnpaid reports whether the installment still awaits payment
func (i *Installment) IsUnpaid() bool {
	return i.Status == InstallmentPending || i.Status == InstallmentOverdue
}

// IsPastDue reports whether a pending installment passed its due date
func (i *Installment) IsPastDue(now time.Time) bool {
	return i.Status == InstallmentPending && i.DueDate != nil && i.DueDate.Before(now)
}

// MarkPaid records the payment of an unpaid installment
func (i *Installment) MarkPaid(now time.Time) error {
	if !i.IsUnpaid() {
		return errs.NewInvalidTransitionError("installment", string(i.Status), string(InstallmentPaid),
			[]string{string(InstallmentPending), string(InstallmentOverdue)})
	}
	i.Status = InstallmentPaid
	i.PaidAt = &now
	i.UpdatedAt = now
	return nil
}

// ScheduleTemplateEntry is one configurable installment after the deposit
type ScheduleTemplateEntry struct {
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	OffsetDays *int            `json:"offsetDays,omitempty"` // days after approval, nil means no due date
}

// DefaultScheduleTemplate is the 30/30/40 split used when no template is configured.
// The final entry is re-balanced so the whole schedule adds up to 100%.
func DefaultScheduleTemplate() []ScheduleTemplateEntry {
	thirty, sixty := 30, 60
	return []ScheduleTemplateEntry{
		{Name: "Installment 2", Percentage: decimal.NewFromInt(30), OffsetDays: &thirty},
		{Name: "Installment 3", Percentage: decimal.NewFromInt(30), OffsetDays: &sixty},
		{Name: "Final installment", Percentage: decimal.NewFromInt(40)},
	}
}

// BuildPaymentSchedule creates the installments of an approved deposit.
// Installment 1 is the deposit itself and is already paid. The final template entry takes
// whatever percentage and amount is left so the schedule totals exactly 100% of price.
func BuildPaymentSchedule(
	deposit *Deposit,
	price decimal.Decimal,
	template []ScheduleTemplateEntry,
	approvedAt time.Time,
) ([]Installment, error) {
	if len(template) == 0 {
		template = DefaultScheduleTemplate()
	}

	schedule := make([]Installment, 0, len(template)+1)
	schedule = append(schedule, Installment{
		ID:         uuid.NewString(),
		DepositID:  deposit.ID,
		UnitID:     deposit.UnitID,
		Sequence:   1,
		Name:       DepositInstallmentName,
		Percentage: deposit.DepositPercentage,
		Amount:     deposit.DepositAmount,
		DueDate:    &approvedAt,
		Status:     InstallmentPaid,
		PaidAt:     &approvedAt,
		CreatedAt:  approvedAt,
		UpdatedAt:  approvedAt,
	})

	sumPct := deposit.DepositPercentage
	sumAmount := deposit.DepositAmount

	for i, entry := range template {
		pct := entry.Percentage
		amount := PercentOf(price, pct)
		if i == len(template)-1 {
			pct = hundred.Sub(sumPct)
			amount = price.Sub(sumAmount)
		}
		if !pct.IsPositive() || !amount.IsPositive() {
			return nil, fmt.Errorf("%w: payment schedule template allocates more than 100%% of the price",
				errs.ErrInvalidRequest)
		}

		var due *time.Time
		if entry.OffsetDays != nil {
			d := approvedAt.AddDate(0, 0, *entry.OffsetDays)
			due = &d
		}

		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("Installment %d", i+2)
		}

		schedule = append(schedule, Installment{
			ID:         uuid.NewString(),
			DepositID:  deposit.ID,
			UnitID:     deposit.UnitID,
			Sequence:   i + 2,
			Name:       name,
			Percentage: pct,
			Amount:     amount,
			DueDate:    due,
			Status:     InstallmentPending,
			CreatedAt:  approvedAt,
			UpdatedAt:  approvedAt,
		})
		sumPct = sumPct.Add(pct)
		sumAmount = sumAmount.Add(amount)
	}

	return schedule, nil
}

// TotalPercentage sums the percentages of a schedule
func TotalPercentage(schedule []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range schedule {
		total = total.Add(inst.Percentage)
	}
	return total
}

// AllPaid reports whether every active installment has been paid
func AllPaid(schedule []Installment) bool {
	if len(schedule) == 0 {
		return false
	}
	for _, inst := range schedule {
		if inst.Status == InstallmentCancelled {
			continue
		}
		if inst.Status != InstallmentPaid {
			return false
		}
	}
	return true
}

// MarkOverdue flags a pending installment whose due date passed
func (i *Installment) MarkOverdue(now time.Time) bool {
	if !i.IsPastDue(now) {
		return false
	}
	i.Status = InstallmentOverdue
	i.UpdatedAt = now
	return true
}

// Cancel voids an unpaid installment when its deposit is cancelled
func (i *Installment) Cancel(now time.Time) bool {
	if !i.IsUnpaid() {
		return false
	}
	i.Status = InstallmentCancelled
	i.UpdatedAt = now
	return true
}

// HasOverdue reports whether any installment is overdue
func HasOverdue(schedule []Installment) bool {
	for _, inst := range schedule {
		if inst.Status == InstallmentOverdue {
			return true
		}
	}
	return false
}
