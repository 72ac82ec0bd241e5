package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RowOutcome is the tagged result of normalizing one data row: either a
// Transaction or a skip with its reason. Skips are always row-level;
// they never abort the enclosing file.
type RowOutcome struct {
	Transaction Transaction
	Skipped     bool
	Reason      string
}

// NormalizeRow turns one raw data row into a Transaction using the
// detected column mapping. Rows that are empty, too short for the
// mapping, or that fail date/amount parsing are skipped.
func NormalizeRow(row []string, cols ColumnMapping) RowOutcome {
	if isEmptyRow(row) {
		return skipRow("empty row")
	}
	if cols.maxIndex() >= len(row) {
		return skipRow("too few columns")
	}
	date, err := ParseDate(row[cols.Date])
	if err != nil {
		return skipRow(err.Error())
	}
	amount, err := resolveAmount(row, cols)
	if err != nil {
		return skipRow(err.Error())
	}
	tx := Transaction{Date: date, Category: DefaultCategory, Amount: amount}
	if cols.Category >= 0 {
		tx.Category = row[cols.Category]
	}
	if cols.Description >= 0 {
		tx.Description = row[cols.Description]
	}
	if cols.Account >= 0 {
		tx.Account = row[cols.Account]
	}
	return RowOutcome{Transaction: tx}
}

// NormalizeRows applies NormalizeRow to each data row, collecting the
// transactions in row order and the skips as diagnostics. startLine is
// the 1-based file line of the first data row.
func NormalizeRows(file string, rows [][]string, startLine int, cols ColumnMapping) ([]Transaction, []SkippedRow) {
	var txs []Transaction
	var skipped []SkippedRow
	for i, row := range rows {
		outcome := NormalizeRow(row, cols)
		if outcome.Skipped {
			skipped = append(skipped, SkippedRow{File: file, Line: startLine + i, Reason: outcome.Reason})
			continue
		}
		txs = append(txs, outcome.Transaction)
	}
	return txs, skipped
}

// resolveAmount reads the amount column when one is mapped, otherwise
// reconciles credit minus debit with each side defaulting to zero when
// its column is missing.
func resolveAmount(row []string, cols ColumnMapping) (decimal.Decimal, error) {
	if cols.Amount >= 0 {
		return ParseAmount(row[cols.Amount])
	}
	credit, debit := decimal.Zero, decimal.Zero
	var err error
	if cols.Credit >= 0 {
		if credit, err = ParseAmount(row[cols.Credit]); err != nil {
			return decimal.Decimal{}, err
		}
	}
	if cols.Debit >= 0 {
		if debit, err = ParseAmount(row[cols.Debit]); err != nil {
			return decimal.Decimal{}, err
		}
	}
	return credit.Sub(debit), nil
}

func (c ColumnMapping) maxIndex() int {
	max := c.Date
	for _, idx := range []int{c.Category, c.Amount, c.Credit, c.Debit, c.Description, c.Account} {
		if idx > max {
			max = idx
		}
	}
	return max
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func skipRow(reason string) RowOutcome {
	return RowOutcome{Skipped: true, Reason: reason}
}
