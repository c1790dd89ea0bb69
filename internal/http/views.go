package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kudalens/internal/analysis"
	"kudalens/internal/core"
)

const sessionCookieName = "kudalens_session"

// dateParam is the layout of the start/end query parameters.
const dateParam = "2006-01-02"

// sessionID returns the session cookie value, if any.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// sessionStatement resolves the caller's statement, if one is loaded.
func (s *Server) sessionStatement(r *http.Request) (*core.Statement, bool) {
	id := sessionID(r)
	if id == "" {
		return nil, false
	}
	return s.sessions.Get(id)
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// viewQuery is the filter state carried in query parameters by every
// partial and the CSV export.
type viewQuery struct {
	start    time.Time
	end      time.Time
	hasRange bool
	category string
}

// parseViewQuery reads start, end and category parameters. Unparsable
// dates are ignored, an open end means "until the end of time".
func parseViewQuery(r *http.Request) viewQuery {
	var q viewQuery

	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		if ts, err := time.Parse(dateParam, v); err == nil {
			q.start = ts
			q.hasRange = true
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		if ts, err := time.Parse(dateParam, v); err == nil {
			// Inclusive end: cover the whole day.
			q.end = ts.Add(24*time.Hour - time.Nanosecond)
			q.hasRange = true
		}
	}
	if q.hasRange && q.end.IsZero() {
		q.end = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	}

	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" && v != "All" {
		q.category = v
	}
	return q
}

// applyView derives the filtered view the dashboard renders: savings rows
// are always excluded, then the date range and category selections apply.
func applyView(st *core.Statement, q viewQuery) []core.Transaction {
	rows := analysis.ExcludeSavings(st.Rows)
	if q.hasRange {
		rows = analysis.FilterByDateRange(rows, q.start, q.end)
	}
	if q.category != "" {
		rows = analysis.FilterByCategory(rows, q.category)
	}
	return rows
}

var (
	zeroDecimal = decimal.Zero
	hundred     = decimal.NewFromInt(100)
)

// barWidth scales an amount against the largest value in its chart,
// returning a percentage for the bar's inline width.
func barWidth(v, max decimal.Decimal) int {
	if max.IsZero() || !v.IsPositive() {
		return 0
	}
	w := int(v.Div(max).Mul(hundred).IntPart())
	if w < 1 {
		w = 1
	}
	if w > 100 {
		w = 100
	}
	return w
}

// formatNaira renders an amount as "₦1,234.56".
func formatNaira(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}

	out := "₦" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
