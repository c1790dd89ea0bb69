// Package analysis derives filtered views and aggregates from a loaded
// statement. Every function is a pure transformation: inputs are never
// mutated, results are fresh slices.
package analysis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kudalens/internal/core"
)

type (
	// RecipientTotal is the total outflow towards one counterparty.
	RecipientTotal struct {
		Counterparty string
		Total        decimal.Decimal
	}

	// MonthTotal is the inflow/outflow for one calendar month.
	MonthTotal struct {
		Year  int
		Month time.Month
		In    decimal.Decimal
		Out   decimal.Decimal
	}

	// CategoryTotal is the aggregated amount for one category.
	CategoryTotal struct {
		Name  string
		Total decimal.Decimal
	}

	// Summary is the key-metrics strip: grand totals, net change and the
	// balance after the most recent row of the view.
	Summary struct {
		TotalIn     decimal.Decimal
		TotalOut    decimal.Decimal
		NetChange   decimal.Decimal
		LastBalance decimal.Decimal
		Count       int
	}
)

// Label renders the month as "Jan 2020" for chart axes.
func (m MonthTotal) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// FilterByDateRange keeps rows with Timestamp within [start, end]
// inclusive. An inverted range yields an empty view, not an error.
func FilterByDateRange(rows []core.Transaction, start, end time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, tx := range rows {
		if tx.Timestamp.Before(start) || tx.Timestamp.After(end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// FilterByCategory keeps rows whose category matches exactly.
func FilterByCategory(rows []core.Transaction, category string) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, tx := range rows {
		if tx.Category == category {
			out = append(out, tx)
		}
	}
	return out
}

// ExcludeSavings drops rows whose description contains "savings",
// case-insensitively. Order-preserving and idempotent.
func ExcludeSavings(rows []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, tx := range rows {
		if tx.IsSavings() {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// TopRecipients aggregates outflow per counterparty and returns at most n
// entries, descending by total. Ties keep first-appearance order.
func TopRecipients(rows []core.Transaction, n int) []RecipientTotal {
	if n <= 0 {
		return nil
	}
	totals := make(map[string]int)
	var recipients []RecipientTotal
	for _, tx := range rows {
		if !tx.MoneyOut.IsPositive() {
			continue
		}
		if idx, ok := totals[tx.Counterparty]; ok {
			recipients[idx].Total = recipients[idx].Total.Add(tx.MoneyOut)
			continue
		}
		totals[tx.Counterparty] = len(recipients)
		recipients = append(recipients, RecipientTotal{Counterparty: tx.Counterparty, Total: tx.MoneyOut})
	}
	sort.SliceStable(recipients, func(i, j int) bool {
		return recipients[i].Total.GreaterThan(recipients[j].Total)
	})
	if len(recipients) > n {
		recipients = recipients[:n]
	}
	return recipients
}

// MonthlyTotals buckets inflow and outflow per calendar month, in
// chronological order. With fillGaps set, months between the first and
// last observed month are zero-filled; otherwise only months present in
// the data appear.
func MonthlyTotals(rows []core.Transaction, fillGaps bool) []MonthTotal {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthTotal)
	for _, tx := range rows {
		k := key{tx.Timestamp.Year(), tx.Timestamp.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthTotal{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		b.In = b.In.Add(tx.MoneyIn)
		b.Out = b.Out.Add(tx.MoneyOut)
	}
	if len(buckets) == 0 {
		return nil
	}

	months := make([]MonthTotal, 0, len(buckets))
	for _, b := range buckets {
		months = append(months, *b)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})

	if !fillGaps {
		return months
	}

	filled := make([]MonthTotal, 0, len(months))
	cur := time.Date(months[0].Year, months[0].Month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(months[len(months)-1].Year, months[len(months)-1].Month, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	for !cur.After(last) {
		if i < len(months) && months[i].Year == cur.Year() && months[i].Month == cur.Month() {
			filled = append(filled, months[i])
			i++
		} else {
			filled = append(filled, MonthTotal{Year: cur.Year(), Month: cur.Month()})
		}
		cur = cur.AddDate(0, 1, 0)
	}
	return filled
}

// CategoryBreakdown aggregates outflow per category, descending by total.
// Categories appear once; ties keep first-appearance order.
func CategoryBreakdown(rows []core.Transaction) []CategoryTotal {
	return categoryTotals(rows, func(tx core.Transaction) decimal.Decimal { return tx.MoneyOut })
}

// IncomeByCategory aggregates inflow per category, descending by total.
func IncomeByCategory(rows []core.Transaction) []CategoryTotal {
	return categoryTotals(rows, func(tx core.Transaction) decimal.Decimal { return tx.MoneyIn })
}

func categoryTotals(rows []core.Transaction, amount func(core.Transaction) decimal.Decimal) []CategoryTotal {
	index := make(map[string]int)
	var cats []CategoryTotal
	for _, tx := range rows {
		amt := amount(tx)
		if !amt.IsPositive() {
			continue
		}
		name := tx.Category
		if name == "" {
			name = "Unknown"
		}
		if i, ok := index[name]; ok {
			cats[i].Total = cats[i].Total.Add(amt)
			continue
		}
		index[name] = len(cats)
		cats = append(cats, CategoryTotal{Name: name, Total: amt})
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].Total.GreaterThan(cats[j].Total)
	})
	return cats
}

// Categories returns the distinct category names of a view, sorted, with
// empty categories reported as "Unknown".
func Categories(rows []core.Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range rows {
		name := tx.Category
		if name == "" {
			name = "Unknown"
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Totals computes the key metrics of a view. LastBalance is the balance
// after the final row, the most recent transaction of the view.
func Totals(rows []core.Transaction) Summary {
	s := Summary{Count: len(rows)}
	for _, tx := range rows {
		s.TotalIn = s.TotalIn.Add(tx.MoneyIn)
		s.TotalOut = s.TotalOut.Add(tx.MoneyOut)
	}
	s.NetChange = s.TotalIn.Sub(s.TotalOut)
	if len(rows) > 0 {
		s.LastBalance = rows[len(rows)-1].Balance
	}
	return s
}
