package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fixtureCSV = `Date/Time,Money In,Money out,Category,To / From,Description,Balance
01/02/2024 09:30:00,,1500.00,Groceries,Market Square,Weekly shop,198500.00
05/02/2024 10:00:00,200000.00,,Salary,Acme Corp,February salary,398500.00
06/02/2024 11:00:00,,5000.00,Transfer,Savings Plan,Auto savings sweep,393500.00
10/03/2024 08:15:00,,2500.00,Transport,City Cabs,Airport run,391000.00
`

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	srv := NewServer(":0", opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

// uploadFixture posts the fixture CSV and returns the session cookie.
func uploadFixture(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("statement", "statement.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte(fixtureCSV)); err != nil {
		t.Fatalf("write form: %v", err)
	}
	mw.Close()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("upload status=%d body=%s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("upload redirect=%q", loc)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("no session cookie set")
	return nil
}

func get(srv *Server, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(srv, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "KudaLens") {
		t.Fatalf("index body missing heading")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := get(srv, path, nil); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestUploadMethodAndValidation(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(srv, "/upload", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Multipart form without the statement field
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "x")
	mw.Close()

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUploadMalformedStatement(t *testing.T) {
	srv := newTestServer(t, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("statement", "statement.csv")
	_, _ = fw.Write([]byte("Date/Time,Money In\nnot,a,statement\n"))
	mw.Close()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "alert--error") {
		t.Fatalf("expected error alert in body")
	}
}

func TestDashboardFlow(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := uploadFixture(t, srv)

	rr := get(srv, "/dashboard", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	body := rr.Body.String()
	// The savings sweep is excluded from the dashboard view.
	if !strings.Contains(body, "3 rows") {
		t.Fatalf("dashboard row count missing: %s", body)
	}
	for _, cat := range []string{"Groceries", "Salary", "Transport"} {
		if !strings.Contains(body, cat) {
			t.Fatalf("dashboard missing category %q", cat)
		}
	}

	// Without a session the dashboard bounces back to the upload page.
	rr = get(srv, "/dashboard", nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestMetricsPartial(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := uploadFixture(t, srv)

	rr := get(srv, "/ui/metrics", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "₦200,000.00") {
		t.Fatalf("metrics missing total in: %s", body)
	}
	// Savings sweep excluded: 1500 + 2500 out.
	if !strings.Contains(body, "₦4,000.00") {
		t.Fatalf("metrics missing total out: %s", body)
	}
}

func TestRecipientsPartial(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := uploadFixture(t, srv)

	rr := get(srv, "/ui/recipients", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("recipients status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "City Cabs") || !strings.Contains(body, "Market Square") {
		t.Fatalf("recipients missing counterparties: %s", body)
	}
	if strings.Contains(body, "Savings Plan") {
		t.Fatalf("savings counterparty should be excluded: %s", body)
	}

	// n caps the list.
	rr = get(srv, "/ui/recipients?n=1", cookie)
	body = rr.Body.String()
	if !strings.Contains(body, "City Cabs") || strings.Contains(body, "Market Square") {
		t.Fatalf("n=1 should keep only the top recipient: %s", body)
	}
}

func TestMonthlyAndCategoriesPartials(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := uploadFixture(t, srv)

	rr := get(srv, "/ui/monthly", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("monthly status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Feb 2024") || !strings.Contains(body, "Mar 2024") {
		t.Fatalf("monthly labels missing: %s", body)
	}

	rr = get(srv, "/ui/categories", cookie)
	body = rr.Body.String()
	if !strings.Contains(body, "Groceries") || !strings.Contains(body, "Salary") {
		t.Fatalf("categories missing: %s", body)
	}
}

func TestPartialsWithoutSession(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{"/ui/metrics", "/ui/recipients", "/ui/monthly", "/ui/categories", "/ui/transactions"} {
		rr := get(srv, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "No statement loaded") {
			t.Fatalf("%s missing placeholder: %s", path, rr.Body.String())
		}
	}
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := uploadFixture(t, srv)

	rr := get(srv, "/export.csv", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("export content type=%q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "bank_statement_filtered.csv") {
		t.Fatalf("export disposition=%q", cd)
	}

	body := rr.Body.String()
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 4 { // header + 3 non-savings rows
		t.Fatalf("export lines=%d body=%s", len(lines), body)
	}
	if strings.Contains(body, "Savings Plan") {
		t.Fatalf("export should exclude savings rows: %s", body)
	}

	// Filters apply to the export.
	rr = get(srv, "/export.csv?category=Groceries", cookie)
	lines = strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("filtered export lines=%d", len(lines))
	}
	if !strings.Contains(lines[1], "Market Square") {
		t.Fatalf("filtered export row: %s", lines[1])
	}

	// Date range filter.
	rr = get(srv, "/export.csv?start=2024-03-01&end=2024-03-31", cookie)
	lines = strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "City Cabs") {
		t.Fatalf("date filtered export: %v", lines)
	}

	// No session redirects home.
	rr = get(srv, "/export.csv", nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect without session, got %d", rr.Code)
	}
}

func TestSampleStatement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	if err := os.WriteFile(path, []byte(fixtureCSV), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	srv := newTestServer(t, Options{SampleStatementPath: path})

	rr := get(srv, "/", nil)
	if !strings.Contains(rr.Body.String(), "sample statement") {
		t.Fatalf("index should offer the sample")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sample", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("sample status=%d", rr.Code)
	}
}

func TestUploadRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{})

	var last int
	for i := 0; i < 61; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
		srv.Handler.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(srv, "/", nil)
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Fatalf("missing header %s", h)
		}
	}
}
