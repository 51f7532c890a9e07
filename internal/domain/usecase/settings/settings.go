// Package settings exposes the typed business configuration stored in the settings table.
package settings

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/persistence"
	"github.com/shopspring/decimal"
)

// Setting keys
const (
	KeyBookingDurationHours        = "booking_duration_hours"
	KeyBookingAmountType           = "booking_amount_type"
	KeyBookingAmountFixed          = "booking_amount_fixed"
	KeyBookingAmountPercentage     = "booking_amount_percentage"
	KeyBookingRefundConfirmedPct   = "booking_refund_confirmed_percentage"
	KeyBookingRefundDefaultPct     = "booking_refund_default_percentage"
	KeyDepositMinPercentage        = "deposit_min_percentage"
	KeyDepositScheduleTemplate     = "deposit_payment_schedule_template"
	KeyReservationDurationHours    = "reservation_duration_hours"
	KeyReservationYourTurnDeadline = "reservation_your_turn_deadline_hours"
	KeyQueueBatchSize              = "queue_processing_batch_size"
	KeyQueueConcurrency            = "queue_processing_concurrency"
)

// Defaults are used when a key is missing from the store or holds an unusable value
type Defaults struct {
	BookingDurationHours      int
	BookingAmountType         string
	BookingAmountFixed        decimal.Decimal
	BookingAmountPercentage   decimal.Decimal
	RefundConfirmedPercentage decimal.Decimal
	RefundDefaultPercentage   decimal.Decimal
	DepositMinPercentage      decimal.Decimal
	ReservationDurationHours  int
	YourTurnDeadlineHours     int
	QueueBatchSize            int
	QueueConcurrency          int
}

// DefaultValues returns the built-in business defaults
func DefaultValues() Defaults {
	return Defaults{
		BookingDurationHours:      48,
		BookingAmountType:         entity.BookingAmountFixed,
		BookingAmountFixed:        decimal.NewFromInt(50_000_000),
		BookingAmountPercentage:   decimal.NewFromInt(1),
		RefundConfirmedPercentage: decimal.NewFromInt(50),
		RefundDefaultPercentage:   decimal.NewFromInt(100),
		DepositMinPercentage:      decimal.NewFromInt(5),
		ReservationDurationHours:  24,
		YourTurnDeadlineHours:     48,
		QueueBatchSize:            20,
		QueueConcurrency:          5,
	}
}

// AsMap renders the defaults as raw setting values, used to seed the store
func (d Defaults) AsMap() map[string]string {
	return map[string]string{
		KeyBookingDurationHours:        strconv.Itoa(d.BookingDurationHours),
		KeyBookingAmountType:           d.BookingAmountType,
		KeyBookingAmountFixed:          d.BookingAmountFixed.String(),
		KeyBookingAmountPercentage:     d.BookingAmountPercentage.String(),
		KeyBookingRefundConfirmedPct:   d.RefundConfirmedPercentage.String(),
		KeyBookingRefundDefaultPct:     d.RefundDefaultPercentage.String(),
		KeyDepositMinPercentage:        d.DepositMinPercentage.String(),
		KeyReservationDurationHours:    strconv.Itoa(d.ReservationDurationHours),
		KeyReservationYourTurnDeadline: strconv.Itoa(d.YourTurnDeadlineHours),
		KeyQueueBatchSize:              strconv.Itoa(d.QueueBatchSize),
		KeyQueueConcurrency:            strconv.Itoa(d.QueueConcurrency),
	}
}

// Provider reads typed settings through the unit of work.
// When ctx carries a transaction the read takes part in it.
type Provider struct {
	uow      persistence.UnitOfWork
	defaults Defaults
	logger   coreport.Logger
}

// NewProvider creates a new settings provider
func NewProvider(uow persistence.UnitOfWork, defaults Defaults, logger coreport.Logger) *Provider {
	return &Provider{
		uow:      uow,
		defaults: defaults,
		logger:   logger,
	}
}

func (p *Provider) raw(ctx context.Context, key string) (string, bool) {
	value, found, err := p.uow.GetSettingRepository(ctx).Get(ctx, key)
	if err != nil {
		p.logger.Warn("Failed to read setting, using default", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, found && value != ""
}

func (p *Provider) positiveInt(ctx context.Context, key string, fallback int) int {
	value, ok := p.raw(ctx, key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		p.logger.Warn("Invalid integer setting, using default", map[string]any{
			"key":     key,
			"value":   value,
			"default": fallback,
		})
		return fallback
	}
	return n
}

func (p *Provider) decimalValue(ctx context.Context, key string, fallback decimal.Decimal) decimal.Decimal {
	value, ok := p.raw(ctx, key)
	if !ok {
		return fallback
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		p.logger.Warn("Invalid decimal setting, using default", map[string]any{
			"key":     key,
			"value":   value,
			"default": fallback.String(),
		})
		return fallback
	}
	return d
}

// BookingDuration is how long a booking may stay unpaid or unapproved
func (p *Provider) BookingDuration(ctx context.Context) coreport.Duration {
	return coreport.Hours(p.positiveInt(ctx, KeyBookingDurationHours, p.defaults.BookingDurationHours))
}

// ReservationDuration is the maximum lifetime of a reservation before the project opens
func (p *Provider) ReservationDuration(ctx context.Context) coreport.Duration {
	return coreport.Hours(p.positiveInt(ctx, KeyReservationDurationHours, p.defaults.ReservationDurationHours))
}

// YourTurnDeadline is how long a promoted reservation has to place its deposit
func (p *Provider) YourTurnDeadline(ctx context.Context) coreport.Duration {
	return coreport.Hours(p.positiveInt(ctx, KeyReservationYourTurnDeadline, p.defaults.YourTurnDeadlineHours))
}

// QueueBatchSize is the number of units handled by one dispatcher batch
func (p *Provider) QueueBatchSize(ctx context.Context) int {
	return p.positiveInt(ctx, KeyQueueBatchSize, p.defaults.QueueBatchSize)
}

// QueueConcurrency is the number of dispatcher batches run at once
func (p *Provider) QueueConcurrency(ctx context.Context) int {
	return p.positiveInt(ctx, KeyQueueConcurrency, p.defaults.QueueConcurrency)
}

// DepositMinPercentage is the lowest share of the price a deposit may cover
func (p *Provider) DepositMinPercentage(ctx context.Context) decimal.Decimal {
	return p.decimalValue(ctx, KeyDepositMinPercentage, p.defaults.DepositMinPercentage)
}

// BookingAmountRule describes how booking amounts are computed
func (p *Provider) BookingAmountRule(ctx context.Context) entity.BookingAmountRule {
	amountType := p.defaults.BookingAmountType
	if value, ok := p.raw(ctx, KeyBookingAmountType); ok {
		amountType = strings.ToUpper(value)
	}
	return entity.BookingAmountRule{
		Type:       amountType,
		Fixed:      p.decimalValue(ctx, KeyBookingAmountFixed, p.defaults.BookingAmountFixed),
		Percentage: p.decimalValue(ctx, KeyBookingAmountPercentage, p.defaults.BookingAmountPercentage),
	}
}

// RefundPolicy returns the booking cancellation refund rule
func (p *Provider) RefundPolicy(ctx context.Context) entity.RefundPolicy {
	return entity.RefundPolicy{
		ConfirmedPercentage: p.decimalValue(ctx, KeyBookingRefundConfirmedPct, p.defaults.RefundConfirmedPercentage),
		DefaultPercentage:   p.decimalValue(ctx, KeyBookingRefundDefaultPct, p.defaults.RefundDefaultPercentage),
	}
}

// PaymentScheduleTemplate returns the configured installments after the deposit.
// A missing or malformed template falls back to the 30/30/40 split.
func (p *Provider) PaymentScheduleTemplate(ctx context.Context) []entity.ScheduleTemplateEntry {
	value, ok := p.raw(ctx, KeyDepositScheduleTemplate)
	if !ok {
		return entity.DefaultScheduleTemplate()
	}

	var template []entity.ScheduleTemplateEntry
	if err := json.Unmarshal([]byte(value), &template); err != nil || len(template) == 0 {
		fields := map[string]any{"key": KeyDepositScheduleTemplate}
		if err != nil {
			fields["error"] = err.Error()
		}
		p.logger.Warn("Invalid payment schedule template, using default", fields)
		return entity.DefaultScheduleTemplate()
	}
	return template
}
