package http

import (
	"log/slog"
	"net/http"

	"kudalens/internal/statement"
)

// handleExportCSV streams the current filtered view as a CSV download.
// The same query parameters the dashboard partials accept apply here, so
// the file matches what the tables and charts show.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	st, ok := s.sessionStatement(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	rows := applyView(st, parseViewQuery(r))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bank_statement_filtered.csv"`)

	if err := statement.WriteCSV(w, rows); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err, "rows", len(rows))
		return
	}
	slog.InfoContext(r.Context(), "CSV export served", "rows", len(rows))
}
