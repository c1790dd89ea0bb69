package http

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"kudalens/internal/core"
	"kudalens/internal/statement"
)

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	_, hasStatement := s.sessionStatement(r)
	data := indexData{
		HasSample:    s.opts.SampleStatementPath != "",
		HasStatement: hasStatement,
	}
	s.renderIndex(w, r, data, http.StatusOK)
}

type indexData struct {
	HasSample    bool
	HasStatement bool
	Error        string
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, data indexData, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
	}
}

// handleUpload accepts a statement file (xlsx or a previously exported
// CSV), parses it and stores it in the caller's session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		slog.ErrorContext(r.Context(), "Upload parse error", "error", err)
		s.renderIndex(w, r, indexData{
			HasSample: s.opts.SampleStatementPath != "",
			Error:     "Upload failed: file too large or malformed request",
		}, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("statement")
	if err != nil {
		s.renderIndex(w, r, indexData{
			HasSample: s.opts.SampleStatementPath != "",
			Error:     "Choose a statement file to upload",
		}, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Upload read error", "error", err, "file", header.Filename)
		s.renderIndex(w, r, indexData{
			HasSample: s.opts.SampleStatementPath != "",
			Error:     "Could not read the uploaded file",
		}, http.StatusBadRequest)
		return
	}

	st, err := parseStatementFile(header.Filename, data)
	if err != nil {
		var fe *statement.FormatError
		msg := "Could not parse the statement"
		if errors.As(err, &fe) {
			msg = fe.Error()
		}
		slog.WarnContext(r.Context(), "Statement parse failed", "error", err, "file", header.Filename)
		s.renderIndex(w, r, indexData{
			HasSample: s.opts.SampleStatementPath != "",
			Error:     template.HTMLEscapeString(msg),
		}, http.StatusUnprocessableEntity)
		return
	}

	id := s.sessions.Put(sessionID(r), st)
	setSessionCookie(w, id)
	slog.InfoContext(r.Context(), "Statement loaded", "file", header.Filename, "rows", len(st.Rows))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleSample loads the pre-configured sample statement into the session.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.opts.SampleStatementPath == "" {
		http.NotFound(w, r)
		return
	}

	data, err := os.ReadFile(s.opts.SampleStatementPath)
	if err != nil {
		slog.ErrorContext(r.Context(), "Sample statement read error", "error", err, "path", s.opts.SampleStatementPath)
		http.Error(w, "sample statement unavailable", http.StatusInternalServerError)
		return
	}

	st, err := parseStatementFile(s.opts.SampleStatementPath, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Sample statement parse failed", "error", err, "path", s.opts.SampleStatementPath)
		http.Error(w, "sample statement unavailable", http.StatusInternalServerError)
		return
	}

	id := s.sessions.Put(sessionID(r), st)
	setSessionCookie(w, id)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// parseStatementFile picks the parser by file extension: exported CSVs
// re-import through ReadCSV, everything else is treated as a workbook.
func parseStatementFile(name string, data []byte) (*core.Statement, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		rows, err := statement.ReadCSV(strings.NewReader(string(data)))
		if err != nil {
			return nil, err
		}
		return &core.Statement{Rows: rows}, nil
	}
	return statement.LoadBytes(data)
}
