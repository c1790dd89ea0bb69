// Package statement loads bank statement exports into the normalized
// in-memory table the dashboard works on.
//
// Kuda workbooks put account metadata in the first rows of the sheet and
// the transaction table below it, headed by a row whose first cell of
// interest ("Date/Time") conventionally sits at cell C16. The loader
// locates that header row, maps the required columns by name, extracts the
// metadata above it, and parses every following row strictly: a cell that
// does not parse fails the whole load with a *FormatError.
package statement

import (
	"io"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"

	"kudalens/internal/core"
)

// Columns of the normalized table, in export order.
var Columns = []string{"Date/Time", "Money In", "Money out", "Category", "To / From", "Description", "Balance"}

// requiredColumns maps the lowercased header cell text to the canonical
// column name.
var requiredColumns = map[string]string{
	"date/time":   "Date/Time",
	"money in":    "Money In",
	"money out":   "Money out",
	"category":    "Category",
	"to / from":   "To / From",
	"description": "Description",
	"balance":     "Balance",
}

// conventionalHeaderRow is the 0-based sheet row where Kuda exports place
// the transaction header (row 16 on the sheet), with Date/Time in column C.
const (
	conventionalHeaderRow = 15
	dateTimeColumn        = 2
)

// Load reads a statement workbook and returns the normalized table.
func Load(r io.Reader) (*core.Statement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FormatError{Msg: "reading workbook: " + err.Error(), Err: err}
	}
	return LoadBytes(data)
}

// LoadBytes parses workbook bytes. The first sheet is the statement.
func LoadBytes(data []byte) (*core.Statement, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, &FormatError{Msg: "not a readable workbook: " + err.Error(), Err: err}
	}
	if len(f.Sheets) == 0 {
		return nil, &FormatError{Msg: "workbook has no sheets"}
	}
	return fromGrid(sheetGrid(f.Sheets[0]))
}

// sheetGrid flattens a sheet into trimmed cell strings.
func sheetGrid(sheet *xlsx.Sheet) [][]string {
	grid := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, strings.TrimSpace(cell.String()))
		}
		grid = append(grid, cells)
	}
	return grid
}

// fromGrid builds the normalized statement from raw sheet cells.
func fromGrid(grid [][]string) (*core.Statement, error) {
	headerIdx, err := findHeaderRow(grid)
	if err != nil {
		return nil, err
	}

	colIdx, err := mapColumns(grid[headerIdx])
	if err != nil {
		return nil, err
	}

	st := &core.Statement{Account: extractAccountInfo(grid[:headerIdx])}

	for i := headerIdx + 1; i < len(grid); i++ {
		row := grid[i]
		if emptyRow(row) {
			continue
		}
		tx, err := parseRow(row, colIdx, i+1)
		if err != nil {
			return nil, err
		}
		st.Rows = append(st.Rows, tx)
	}
	return st, nil
}

// findHeaderRow locates the transaction header. The conventional position
// is checked first, then progressively looser scans over the whole sheet.
func findHeaderRow(grid [][]string) (int, error) {
	if len(grid) > conventionalHeaderRow {
		row := grid[conventionalHeaderRow]
		if len(row) > dateTimeColumn && strings.Contains(strings.ToLower(row[dateTimeColumn]), "date/time") {
			return conventionalHeaderRow, nil
		}
	}

	// Exact cell match anywhere.
	for i, row := range grid {
		for _, cell := range row {
			if strings.EqualFold(cell, "date/time") {
				return i, nil
			}
		}
	}

	// A row mentioning both a date column and a money column.
	for i, row := range grid {
		var hasDate, hasMoney bool
		for _, cell := range row {
			lc := strings.ToLower(cell)
			if strings.Contains(lc, "date") {
				hasDate = true
			}
			if strings.Contains(lc, "money") {
				hasMoney = true
			}
		}
		if hasDate && hasMoney {
			return i, nil
		}
	}

	// Last resort: partial match over the joined row text.
	for i, row := range grid {
		text := strings.ToLower(strings.Join(row, " "))
		if (strings.Contains(text, "date") || strings.Contains(text, "time")) &&
			(strings.Contains(text, "money") || strings.Contains(text, "balance")) {
			return i, nil
		}
	}

	return 0, &FormatError{Msg: "could not find the transaction header row (looking for \"Date/Time\" at cell C16 or similar headers)"}
}

// mapColumns resolves the position of every required column in the header
// row: exact matches first, then substring matches for whatever is left.
func mapColumns(header []string) (map[string]int, error) {
	colIdx := make(map[string]int, len(requiredColumns))

	for i, cell := range header {
		lc := strings.ToLower(cell)
		if name, ok := requiredColumns[lc]; ok {
			if _, seen := colIdx[name]; !seen {
				colIdx[name] = i
			}
		}
	}

	if len(colIdx) < len(requiredColumns) {
		for i, cell := range header {
			lc := strings.ToLower(cell)
			if lc == "" {
				continue
			}
			for key, name := range requiredColumns {
				if _, seen := colIdx[name]; seen {
					continue
				}
				if strings.Contains(lc, key) {
					colIdx[name] = i
					break
				}
			}
		}
	}

	var missing []string
	for _, name := range Columns {
		if _, ok := colIdx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &FormatError{Msg: "missing required columns: " + strings.Join(missing, ", ")}
	}
	return colIdx, nil
}

// parseRow converts one sheet row into a Transaction. sheetRow is 1-based
// for error messages.
func parseRow(row []string, colIdx map[string]int, sheetRow int) (core.Transaction, error) {
	ts, err := core.ParseTimestamp(cellAt(row, colIdx["Date/Time"]))
	if err != nil {
		return core.Transaction{}, &FormatError{
			Row: sheetRow, Column: "Date/Time",
			Msg: "unparsable date " + strconv.Quote(cellAt(row, colIdx["Date/Time"])), Err: err,
		}
	}

	moneyIn, err := core.ParseMoney(cellAt(row, colIdx["Money In"]))
	if err != nil {
		return core.Transaction{}, &FormatError{
			Row: sheetRow, Column: "Money In",
			Msg: "unparsable amount " + strconv.Quote(cellAt(row, colIdx["Money In"])), Err: err,
		}
	}
	moneyOut, err := core.ParseMoney(cellAt(row, colIdx["Money out"]))
	if err != nil {
		return core.Transaction{}, &FormatError{
			Row: sheetRow, Column: "Money out",
			Msg: "unparsable amount " + strconv.Quote(cellAt(row, colIdx["Money out"])), Err: err,
		}
	}
	balance, err := core.ParseMoney(cellAt(row, colIdx["Balance"]))
	if err != nil {
		return core.Transaction{}, &FormatError{
			Row: sheetRow, Column: "Balance",
			Msg: "unparsable amount " + strconv.Quote(cellAt(row, colIdx["Balance"])), Err: err,
		}
	}

	return core.Transaction{
		Timestamp:    ts,
		MoneyIn:      moneyIn,
		MoneyOut:     moneyOut,
		Category:     textCell(cellAt(row, colIdx["Category"])),
		Counterparty: textCell(cellAt(row, colIdx["To / From"])),
		Description:  textCell(cellAt(row, colIdx["Description"])),
		Balance:      balance,
	}, nil
}

// extractAccountInfo scans the rows above the header for the account
// number, closing balance and the summary Money In / Money Out figures.
func extractAccountInfo(rows [][]string) core.AccountInfo {
	var info core.AccountInfo

	for i, row := range rows {
		text := strings.ToLower(strings.Join(row, " "))

		if info.AccountNumber == "" && strings.Contains(text, "account") {
			for j, cell := range row {
				if !strings.Contains(strings.ToLower(cell), "account") {
					continue
				}
				if v := nextNonEmpty(row, j+1); v != "" {
					info.AccountNumber = v
					break
				}
				if j > 0 && isDigits(row[j-1]) {
					info.AccountNumber = row[j-1]
					break
				}
			}
		}

		if info.ClosingBalance == "" && (strings.Contains(text, "balance") || strings.Contains(text, "closing")) {
			for j, cell := range row {
				lc := strings.ToLower(cell)
				if !strings.Contains(lc, "balance") && !strings.Contains(lc, "closing") {
					continue
				}
				for k := j + 1; k < len(row) && k <= j+2; k++ {
					if looksLikeMoney(row[k]) {
						info.ClosingBalance = row[k]
						break
					}
				}
			}
		}

		if strings.Contains(text, "summary") {
			// Summary figures live in the few rows below the heading.
			for j := i + 1; j < len(rows) && j <= i+4; j++ {
				summaryRow := rows[j]
				for k, cell := range summaryRow {
					lc := strings.ToLower(cell)
					if info.SummaryIn == "" && strings.Contains(lc, "money in") {
						info.SummaryIn = nextNonEmpty(summaryRow, k+1)
					}
					if info.SummaryOut == "" && strings.Contains(lc, "money out") {
						info.SummaryOut = nextNonEmpty(summaryRow, k+1)
					}
				}
			}
		}
	}
	return info
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// textCell normalizes a free-text cell; the literal "nan" marks an empty
// cell in some exports.
func textCell(s string) string {
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if cell != "" && !strings.EqualFold(cell, "nan") {
			return false
		}
	}
	return true
}

func nextNonEmpty(row []string, from int) string {
	for i := from; i < len(row); i++ {
		if row[i] != "" && !strings.EqualFold(row[i], "nan") {
			return row[i]
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func looksLikeMoney(s string) bool {
	if s == "" || strings.EqualFold(s, "nan") {
		return false
	}
	if strings.ContainsRune(s, '₦') {
		return true
	}
	_, err := core.ParseMoney(s)
	return err == nil
}
