package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kudalens/internal/core"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC)
}

func tx(t time.Time, in, out, category, counterparty, desc string) core.Transaction {
	return core.Transaction{
		Timestamp:    t,
		MoneyIn:      dec(in),
		MoneyOut:     dec(out),
		Category:     category,
		Counterparty: counterparty,
		Description:  desc,
	}
}

func TestExcludeSavings(t *testing.T) {
	rows := []core.Transaction{
		tx(day(2020, 1, 1), "0", "100", "transfer", "Vault", "Savings Plan"),
		tx(day(2020, 1, 2), "0", "50", "shopping", "Market", "Groceries"),
	}

	got := ExcludeSavings(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "Groceries", got[0].Description)

	// Idempotent: applying twice equals applying once.
	again := ExcludeSavings(got)
	assert.Equal(t, got, again)

	// Input untouched.
	assert.Len(t, rows, 2)
}

func TestFilterByDateRange(t *testing.T) {
	rows := []core.Transaction{
		tx(day(2020, 1, 1), "10", "0", "", "", ""),
		tx(day(2020, 1, 15), "20", "0", "", "", ""),
		tx(day(2020, 2, 1), "30", "0", "", "", ""),
	}

	got := FilterByDateRange(rows, day(2020, 1, 1), day(2020, 1, 31))
	require.Len(t, got, 2)

	// Inclusive bounds.
	got = FilterByDateRange(rows, day(2020, 1, 15), day(2020, 1, 15))
	require.Len(t, got, 1)
	assert.Equal(t, "20", got[0].MoneyIn.String())

	// Inverted range yields empty, not an error.
	got = FilterByDateRange(rows, day(2020, 2, 1), day(2020, 1, 1))
	assert.Empty(t, got)
}

func TestTopRecipients(t *testing.T) {
	rows := []core.Transaction{
		tx(day(2020, 1, 1), "0", "100", "", "Alice", ""),
		tx(day(2020, 1, 2), "0", "40", "", "Bob", ""),
		tx(day(2020, 1, 3), "0", "200", "", "Alice", ""),
		tx(day(2020, 1, 4), "0", "40", "", "Carol", ""),
		tx(day(2020, 1, 5), "500", "0", "", "Employer", ""), // inflow only, ignored
	}

	got := TopRecipients(rows, 10)
	require.Len(t, got, 3)
	assert.Equal(t, "Alice", got[0].Counterparty)
	assert.Equal(t, "300", got[0].Total.String())
	// Bob and Carol tie at 40; Bob appeared first.
	assert.Equal(t, "Bob", got[1].Counterparty)
	assert.Equal(t, "Carol", got[2].Counterparty)

	// Truncation.
	got = TopRecipients(rows, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Counterparty)

	assert.Nil(t, TopRecipients(rows, 0))
}

func TestMonthlyTotals(t *testing.T) {
	rows := []core.Transaction{
		tx(day(2020, 1, 5), "100", "30", "", "", ""),
		tx(day(2020, 1, 20), "50", "20", "", "", ""),
		tx(day(2020, 3, 1), "0", "10", "", "", ""),
	}

	got := MonthlyTotals(rows, false)
	require.Len(t, got, 2)
	assert.Equal(t, time.January, got[0].Month)
	assert.Equal(t, "150", got[0].In.String())
	assert.Equal(t, "50", got[0].Out.String())
	assert.Equal(t, time.March, got[1].Month)
	assert.Equal(t, "Jan 2020", got[0].Label())

	// Month sums equal grand totals.
	sum := Totals(rows)
	var in, out decimal.Decimal
	for _, m := range got {
		in = in.Add(m.In)
		out = out.Add(m.Out)
	}
	assert.True(t, in.Equal(sum.TotalIn))
	assert.True(t, out.Equal(sum.TotalOut))

	// Zero-fill only when requested.
	filled := MonthlyTotals(rows, true)
	require.Len(t, filled, 3)
	assert.Equal(t, time.February, filled[1].Month)
	assert.True(t, filled[1].In.IsZero())
	assert.True(t, filled[1].Out.IsZero())

	assert.Nil(t, MonthlyTotals(nil, true))
}

func TestCategoryBreakdown(t *testing.T) {
	rows := []core.Transaction{
		tx(day(2020, 1, 1), "0", "100", "transport", "", ""),
		tx(day(2020, 1, 2), "0", "60", "food", "", ""),
		tx(day(2020, 1, 3), "0", "50", "transport", "", ""),
		tx(day(2020, 1, 4), "0", "10", "", "", ""), // empty category
		tx(day(2020, 1, 5), "900", "0", "salary", "", ""),
	}

	got := CategoryBreakdown(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "transport", got[0].Name)
	assert.Equal(t, "150", got[0].Total.String())
	assert.Equal(t, "food", got[1].Name)
	assert.Equal(t, "Unknown", got[2].Name)

	income := IncomeByCategory(rows)
	require.Len(t, income, 1)
	assert.Equal(t, "salary", income[0].Name)
	assert.Equal(t, "900", income[0].Total.String())
}

func TestCategoriesAndFilter(t *testing.T) {
	rows := []core.Transaction{
		tx(day(2020, 1, 1), "0", "1", "b", "", ""),
		tx(day(2020, 1, 2), "0", "1", "a", "", ""),
		tx(day(2020, 1, 3), "0", "1", "b", "", ""),
	}
	assert.Equal(t, []string{"a", "b"}, Categories(rows))

	got := FilterByCategory(rows, "b")
	assert.Len(t, got, 2)
	assert.Empty(t, FilterByCategory(rows, "zzz"))
}

func TestTotals(t *testing.T) {
	rows := []core.Transaction{
		{Timestamp: day(2020, 1, 1), MoneyIn: dec("100"), Balance: dec("100")},
		{Timestamp: day(2020, 1, 2), MoneyOut: dec("40"), Balance: dec("60")},
	}
	s := Totals(rows)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, "100", s.TotalIn.String())
	assert.Equal(t, "40", s.TotalOut.String())
	assert.Equal(t, "60", s.NetChange.String())
	assert.Equal(t, "60", s.LastBalance.String())

	empty := Totals(nil)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.NetChange.IsZero())
}
