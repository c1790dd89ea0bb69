// Package core provides the statement domain model and cell parsing
// utilities shared by the loader and the summarizer.
//
// This file contains money-string cleaning: bank exports render amounts
// with a currency symbol and thousands separators (for example
// "₦1,234.56"), which must be reduced to a plain decimal before use.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseMoney converts a statement money cell to a decimal amount.
//
// Currency symbols and grouping characters are stripped; only digits and
// the decimal point survive. Empty cells (including the literal "nan" some
// exports produce) mean zero. A non-empty cell with no digits, more than
// one decimal point, or a leading minus sign is invalid: statement amounts
// are non-negative by definition.
//
// Examples:
//
//	ParseMoney("₦1,234.56") -> 1234.56, nil
//	ParseMoney("")          -> 0, nil
//	ParseMoney("-12.00")    -> 0, ErrInvalidAmount
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.Zero, nil
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}

	var b strings.Builder
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			dots++
			b.WriteRune(r)
		}
	}
	if dots > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	cleaned := b.String()
	if strings.Trim(cleaned, ".") == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
