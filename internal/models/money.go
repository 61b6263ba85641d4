package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in a currency. Token costs are tracked with it so that
// many tiny per-request prices add up without float drift.
type Money struct {
	Amount   decimal.Decimal `json:"amount" yaml:"amount"`
	Currency string          `json:"currency" yaml:"currency"`
}

// NewMoney creates a new Money instance with the given amount and currency
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Add adds another Money value to this one.
// Returns an error if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot add different currencies: %s and %s", m.Currency, other.Currency)
	}
	return Money{
		Amount:   m.Amount.Add(other.Amount),
		Currency: m.Currency,
	}, nil
}

// Mul multiplies the money amount by a decimal factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{
		Amount:   m.Amount.Mul(factor),
		Currency: m.Currency,
	}
}

// String formats the amount with two decimals.
func (m Money) String() string {
	return m.StringFixed(2)
}

// StringFixed returns a string representation with fixed decimal places
func (m Money) StringFixed(places int32) string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(places), m.Currency)
}
