package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the ledger's native token precision.
const Decimals = 6

var ErrInvalidAmount = errors.New("invalid amount")

// ParseUnits converts a human decimal ("25.00") into ledger units
// (25000000). Digits beyond the ledger precision are rounded half away
// from zero.
func ParseUnits(human string) (decimal.Decimal, error) {
	human = strings.TrimSpace(human)
	if human == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(human)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, human)
	}

	return d.Shift(Decimals).Round(0), nil
}

// FormatUnits converts ledger units back to the human value.
func FormatUnits(units decimal.Decimal) decimal.Decimal {
	return units.Shift(-Decimals)
}
