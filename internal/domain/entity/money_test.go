package entity

import (
	"testing"

	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	t.Run("Valid amounts", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected string
		}{
			{"100.00", "100.00"},
			{"0.01", "0.01"},
			{"1", "1.00"},
			{" 50000000 ", "50000000.00"},
			{"1.230", "1.23"},
			{"2000000000", "2000000000.00"},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				value, err := ParseAmount(tc.input)
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, FormatAmount(value))
			})
		}
	})

	t.Run("Invalid amounts", func(t *testing.T) {
		testCases := []struct {
			input       string
			description string
		}{
			{"", "Empty string"},
			{"   ", "Whitespace only"},
			{"-1.00", "Negative amount"},
			{"0", "Zero"},
			{"1.234", "Too many decimal places"},
			{"abc", "Non-numeric"},
			{"1,000.00", "Comma as thousands separator"},
			{"$100", "Currency symbol"},
		}

		for _, tc := range testCases {
			t.Run(tc.description, func(t *testing.T) {
				_, err := ParseAmount(tc.input)
				assert.ErrorIs(t, err, errs.ErrInvalidAmount)
			})
		}
	})
}

func TestPercentHelpers(t *testing.T) {
	price := decimal.NewFromInt(1_000_001)

	assert.Equal(t, "300000.30", FormatAmount(PercentOf(price, decimal.NewFromInt(30))))
	assert.Equal(t, "50001", CeilPercentOf(price, decimal.NewFromInt(5)).String())
	assert.Equal(t, "10", PercentageOf(decimal.NewFromInt(100_000), decimal.NewFromInt(1_000_000)).String())
	assert.True(t, PercentageOf(decimal.NewFromInt(1), decimal.Zero).IsZero())
}

func TestValidateDepositAmount(t *testing.T) {
	price := decimal.NewFromInt(1_000_000)
	minPct := decimal.NewFromInt(5)

	testCases := []struct {
		name     string
		amount   int64
		expected error
	}{
		{"exactly the minimum", 50_000, nil},
		{"full price", 1_000_000, nil},
		{"below the minimum", 49_999, errs.ErrAmountBelowMinimum},
		{"above the price", 1_000_001, errs.ErrAmountExceedsPrice},
		{"zero", 0, errs.ErrInvalidAmount},
		{"negative", -10, errs.ErrInvalidAmount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDepositAmount(decimal.NewFromInt(tc.amount), price, minPct)
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	t.Run("minimum is rounded up to a whole unit", func(t *testing.T) {
		odd := decimal.NewFromInt(1_000_001)
		assert.ErrorIs(t, ValidateDepositAmount(decimal.NewFromInt(50_000), odd, minPct), errs.ErrAmountBelowMinimum)
		assert.NoError(t, ValidateDepositAmount(decimal.NewFromInt(50_001), odd, minPct))
	})
}

func TestEffectivePrice(t *testing.T) {
	list := decimal.NewFromInt(1_000_000)
	negotiated := decimal.NewFromInt(900_000)
	zero := decimal.Zero

	assert.True(t, EffectivePrice(list, nil).Equal(list))
	assert.True(t, EffectivePrice(list, &negotiated).Equal(negotiated))
	assert.True(t, EffectivePrice(list, &zero).Equal(list))
}
