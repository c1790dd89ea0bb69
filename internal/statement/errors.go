package statement

import "fmt"

// FormatError is the single error kind the loader produces: the workbook
// or CSV does not have the expected statement format, either because
// required columns are missing or because a cell failed to parse. There is
// no partial load; the first FormatError aborts the whole statement.
type FormatError struct {
	Row    int    // 1-based sheet row, 0 when not tied to a row
	Column string // offending column name, "" when not tied to a column
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("statement format: row %d, column %q: %s", e.Row, e.Column, e.Msg)
	case e.Row > 0:
		return fmt.Sprintf("statement format: row %d: %s", e.Row, e.Msg)
	default:
		return "statement format: " + e.Msg
	}
}

func (e *FormatError) Unwrap() error { return e.Err }
