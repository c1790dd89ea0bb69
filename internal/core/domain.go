package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Transaction is one normalized row of a bank statement. MoneyIn and
	// MoneyOut are non-negative; typically exactly one of them is non-zero
	// per row (expected, not enforced).
	Transaction struct {
		Timestamp    time.Time
		MoneyIn      decimal.Decimal
		MoneyOut     decimal.Decimal
		Category     string
		Counterparty string // "To / From"
		Description  string
		Balance      decimal.Decimal
	}

	// AccountInfo carries the free-text metadata printed above the
	// transaction table in a Kuda export. Any field may be empty.
	AccountInfo struct {
		AccountNumber  string
		ClosingBalance string
		SummaryIn      string
		SummaryOut     string
	}

	// Statement is the normalized in-memory representation of an uploaded
	// bank statement. Rows are immutable once loaded; filters build new
	// slices instead of mutating in place.
	Statement struct {
		Account AccountInfo
		Rows    []Transaction
	}
)

// IsSavings reports whether the description contains the substring
// "savings", case-insensitively. Such rows are excluded from all
// downstream aggregates.
func (t Transaction) IsSavings() bool {
	return strings.Contains(strings.ToLower(t.Description), "savings")
}

// Equal compares two transactions field by field. Decimal fields compare
// by numeric value, not representation.
func (t Transaction) Equal(o Transaction) bool {
	return t.Timestamp.Equal(o.Timestamp) &&
		t.MoneyIn.Equal(o.MoneyIn) &&
		t.MoneyOut.Equal(o.MoneyOut) &&
		t.Category == o.Category &&
		t.Counterparty == o.Counterparty &&
		t.Description == o.Description &&
		t.Balance.Equal(o.Balance)
}
