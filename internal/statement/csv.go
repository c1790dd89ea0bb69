package statement

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"kudalens/internal/core"
)

// Header is the CSV header for statement exports.
const Header = "Date/Time,Money In,Money out,Category,To / From,Description,Balance"

const (
	numFields  = 7
	timeLayout = "02/01/2006 15:04:05"
	colDate    = 0
	colIn      = 1
	colOut     = 2
	colCat     = 3
	colCparty  = 4
	colDesc    = 5
	colBalance = 6
)

// WriteCSV writes a filtered view as UTF-8 CSV, header included. The
// output re-parses with ReadCSV into an equal table.
func WriteCSV(w io.Writer, rows []core.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return &FormatError{Msg: "writing header: " + err.Error(), Err: err}
	}
	for i, tx := range rows {
		if err := cw.Write(MarshalRow(tx)); err != nil {
			return &FormatError{Row: i + 2, Msg: "writing row: " + err.Error(), Err: err}
		}
	}
	return cw.Error()
}

// ReadCSV parses a statement CSV produced by WriteCSV (or any file with
// the same seven columns). It returns a *FormatError on malformed input.
func ReadCSV(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &FormatError{Msg: "reading CSV: " + err.Error(), Err: err}
	}
	if len(records) == 0 {
		return nil, &FormatError{Msg: "empty CSV"}
	}
	if !strings.EqualFold(strings.TrimSpace(records[0][colDate]), "date/time") {
		return nil, &FormatError{Row: 1, Msg: "missing header row " + strconv.Quote(Header)}
	}

	var rows []core.Transaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalRow(rec, i+2)
		if err != nil {
			return nil, err
		}
		rows = append(rows, tx)
	}
	return rows, nil
}

// MarshalRow converts a Transaction to a CSV record. Zero in/out amounts
// serialize as empty cells, matching the source exports.
func MarshalRow(tx core.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = tx.Timestamp.Format(timeLayout)
	if !tx.MoneyIn.IsZero() {
		row[colIn] = tx.MoneyIn.StringFixed(2)
	}
	if !tx.MoneyOut.IsZero() {
		row[colOut] = tx.MoneyOut.StringFixed(2)
	}
	row[colCat] = tx.Category
	row[colCparty] = tx.Counterparty
	row[colDesc] = tx.Description
	row[colBalance] = tx.Balance.StringFixed(2)
	return row
}

// UnmarshalRow converts a CSV record to a Transaction. csvRow is 1-based
// for error messages.
func UnmarshalRow(rec []string, csvRow int) (core.Transaction, error) {
	if len(rec) != numFields {
		return core.Transaction{}, &FormatError{Row: csvRow, Msg: "expected " + strconv.Itoa(numFields) + " fields, got " + strconv.Itoa(len(rec))}
	}

	ts, err := core.ParseTimestamp(rec[colDate])
	if err != nil {
		return core.Transaction{}, &FormatError{Row: csvRow, Column: "Date/Time", Msg: "unparsable date " + strconv.Quote(rec[colDate]), Err: err}
	}
	moneyIn, err := core.ParseMoney(rec[colIn])
	if err != nil {
		return core.Transaction{}, &FormatError{Row: csvRow, Column: "Money In", Msg: "unparsable amount " + strconv.Quote(rec[colIn]), Err: err}
	}
	moneyOut, err := core.ParseMoney(rec[colOut])
	if err != nil {
		return core.Transaction{}, &FormatError{Row: csvRow, Column: "Money out", Msg: "unparsable amount " + strconv.Quote(rec[colOut]), Err: err}
	}
	balance, err := core.ParseMoney(rec[colBalance])
	if err != nil {
		return core.Transaction{}, &FormatError{Row: csvRow, Column: "Balance", Msg: "unparsable amount " + strconv.Quote(rec[colBalance]), Err: err}
	}

	return core.Transaction{
		Timestamp:    ts,
		MoneyIn:      moneyIn,
		MoneyOut:     moneyOut,
		Category:     rec[colCat],
		Counterparty: rec[colCparty],
		Description:  rec[colDesc],
		Balance:      balance,
	}, nil
}
