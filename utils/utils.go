package utils

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fraction digits every wallet amount carries.
const MoneyPlaces = 2

var ErrEmptyAmount = errors.New("amount is empty")

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// ParseMoney parses a user supplied amount and rounds it to two places.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return RoundMoney(d), nil
}

// RoundedPercent returns part/whole as an integer percentage rounded half up.
func RoundedPercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}
