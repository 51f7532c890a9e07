package entity

import (
	"fmt"
	"strings"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/shopspring/decimal"
)

// MaxDecimalPlaces defines the maximum number of decimal places allowed for money amounts
const MaxDecimalPlaces = 2

var hundred = decimal.NewFromInt(100)

// ParseAmount validates a string amount and converts it to a decimal.
// Empty, negative, zero or over-precise values are rejected.
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, err.Error())
	}
	if !value.IsPositive() {
		return decimal.Zero, errs.ErrInvalidAmount
	}
	if value.Exponent() < -MaxDecimalPlaces && !value.Equal(value.Round(MaxDecimalPlaces)) {
		return decimal.Zero, fmt.Errorf("%w: more than %d decimal places", errs.ErrInvalidAmount, MaxDecimalPlaces)
	}
	return value, nil
}

// PercentOf returns amount * percentage / 100 rounded to money precision
func PercentOf(amount, percentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentage).Div(hundred).Round(MaxDecimalPlaces)
}

// CeilPercentOf returns amount * percentage / 100 rounded up to a whole currency unit
func CeilPercentOf(amount, percentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentage).Div(hundred).Ceil()
}

// PercentageOf returns part / whole * 100 rounded to two decimals
func PercentageOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

// FormatAmount renders an amount with money precision
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MaxDecimalPlaces)
}
