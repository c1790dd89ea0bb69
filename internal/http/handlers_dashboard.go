package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"kudalens/internal/analysis"
)

// maxTableRows caps the transaction table partial; the CSV export carries
// the full view.
const maxTableRows = 200

// handleDashboard renders the dashboard page for the loaded statement.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	st, ok := s.sessionStatement(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	q := parseViewQuery(r)
	rows := analysis.ExcludeSavings(st.Rows)

	data := struct {
		AccountNumber  string
		ClosingBalance string
		SummaryIn      string
		SummaryOut     string
		HasAccountInfo bool
		Categories     []string
		Category       string
		Start          string
		End            string
		RowCount       int
	}{
		AccountNumber:  st.Account.AccountNumber,
		ClosingBalance: st.Account.ClosingBalance,
		SummaryIn:      st.Account.SummaryIn,
		SummaryOut:     st.Account.SummaryOut,
		Categories:     analysis.Categories(rows),
		Category:       q.category,
		Start:          r.URL.Query().Get("start"),
		End:            r.URL.Query().Get("end"),
		RowCount:       len(rows),
	}
	data.HasAccountInfo = data.AccountNumber != "" || data.ClosingBalance != "" ||
		data.SummaryIn != "" || data.SummaryOut != ""

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// noStatement writes the placeholder partial shown when the session has
// no loaded statement.
func noStatement(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="placeholder">No statement loaded. <a href="/">Upload one</a>.</div>`))
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// handleMetrics renders the key-metrics strip partial.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	st, ok := s.sessionStatement(r)
	if !ok {
		noStatement(w)
		return
	}
	rows := applyView(st, parseViewQuery(r))
	sum := analysis.Totals(rows)

	pct := ""
	if sum.TotalIn.IsPositive() {
		pct = sum.NetChange.Div(sum.TotalIn).Mul(hundred).StringFixed(1) + "%"
	}

	data := struct {
		TotalIn        string
		TotalOut       string
		NetChange      string
		NetChangeClass string
		NetChangePct   string
		Balance        string
		Count          int
	}{
		TotalIn:      formatNaira(sum.TotalIn),
		TotalOut:     formatNaira(sum.TotalOut),
		NetChange:    formatNaira(sum.NetChange),
		NetChangePct: pct,
		Balance:      formatNaira(sum.LastBalance),
		Count:        sum.Count,
	}
	if sum.NetChange.IsNegative() {
		data.NetChangeClass = "metric--negative"
	} else if sum.NetChange.IsPositive() {
		data.NetChangeClass = "metric--positive"
	}

	if err := s.templates.ExecuteTemplate(w, "metrics.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Metrics template failed", "error", err)
	}
}

// handleRecipients renders the top-recipients bar list partial.
func (s *Server) handleRecipients(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	st, ok := s.sessionStatement(r)
	if !ok {
		noStatement(w)
		return
	}

	limit := s.opts.RecipientLimit
	if v := strings.TrimSpace(r.URL.Query().Get("n")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	rows := applyView(st, parseViewQuery(r))
	recipients := analysis.TopRecipients(rows, limit)

	var max = zeroDecimal
	if len(recipients) > 0 {
		max = recipients[0].Total
	}

	type row struct {
		Name   string
		Amount string
		Width  int
	}
	data := struct {
		Limit int
		Rows  []row
	}{Limit: limit}
	for _, rec := range recipients {
		data.Rows = append(data.Rows, row{
			Name:   rec.Counterparty,
			Amount: formatNaira(rec.Total),
			Width:  barWidth(rec.Total, max),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "recipients.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Recipients template failed", "error", err)
	}
}

// handleMonthly renders the monthly income-vs-spending partial.
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	st, ok := s.sessionStatement(r)
	if !ok {
		noStatement(w)
		return
	}

	fillGaps := r.URL.Query().Get("fill") == "true"
	rows := applyView(st, parseViewQuery(r))
	months := analysis.MonthlyTotals(rows, fillGaps)

	max := zeroDecimal
	for _, m := range months {
		if m.In.GreaterThan(max) {
			max = m.In
		}
		if m.Out.GreaterThan(max) {
			max = m.Out
		}
	}

	type row struct {
		Label    string
		In       string
		Out      string
		InWidth  int
		OutWidth int
	}
	data := struct {
		Rows []row
	}{}
	for _, m := range months {
		data.Rows = append(data.Rows, row{
			Label:    m.Label(),
			In:       formatNaira(m.In),
			Out:      formatNaira(m.Out),
			InWidth:  barWidth(m.In, max),
			OutWidth: barWidth(m.Out, max),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "monthly.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Monthly template failed", "error", err)
	}
}

// handleCategories renders spending and income grouped by category.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	st, ok := s.sessionStatement(r)
	if !ok {
		noStatement(w)
		return
	}

	rows := applyView(st, parseViewQuery(r))
	spending := analysis.CategoryBreakdown(rows)
	income := analysis.IncomeByCategory(rows)

	type row struct {
		Name   string
		Amount string
		Width  int
	}
	build := func(cats []analysis.CategoryTotal) []row {
		max := zeroDecimal
		if len(cats) > 0 {
			max = cats[0].Total
		}
		var out []row
		for _, c := range cats {
			out = append(out, row{Name: c.Name, Amount: formatNaira(c.Total), Width: barWidth(c.Total, max)})
		}
		return out
	}

	data := struct {
		Spending []row
		Income   []row
	}{Spending: build(spending), Income: build(income)}

	if err := s.templates.ExecuteTemplate(w, "categories.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Categories template failed", "error", err)
	}
}

// handleTransactions renders the transaction table partial.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	st, ok := s.sessionStatement(r)
	if !ok {
		noStatement(w)
		return
	}

	rows := applyView(st, parseViewQuery(r))

	type row struct {
		Date         string
		In           string
		Out          string
		Category     string
		Counterparty string
		Description  string
		Balance      string
	}
	data := struct {
		Total     int
		Truncated bool
		Rows      []row
	}{Total: len(rows)}

	shown := rows
	if len(shown) > maxTableRows {
		shown = shown[:maxTableRows]
		data.Truncated = true
	}
	for _, tx := range shown {
		v := row{
			Date:         tx.Timestamp.Format("02/01/2006 15:04"),
			Category:     tx.Category,
			Counterparty: tx.Counterparty,
			Description:  tx.Description,
			Balance:      formatNaira(tx.Balance),
		}
		if !tx.MoneyIn.IsZero() {
			v.In = formatNaira(tx.MoneyIn)
		}
		if !tx.MoneyOut.IsZero() {
			v.Out = formatNaira(tx.MoneyOut)
		}
		data.Rows = append(data.Rows, v)
	}

	if err := s.templates.ExecuteTemplate(w, "transactions.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Transactions template failed", "error", err)
	}
}
