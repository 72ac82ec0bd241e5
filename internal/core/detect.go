package core

import "strings"

// Accepted header names per semantic field, in priority order. Matching
// is done on lowercased, whitespace-trimmed cells; the first name that
// appears anywhere in the header wins for its field.
var (
	dateHeaders        = []string{"date", "transaction date", "posting date", "settlement date", "run date"}
	categoryHeaders    = []string{"category", "description", "transaction type", "type", "details"}
	amountHeaders      = []string{"amount", "amount ($)"}
	creditHeaders      = []string{"credit"}
	debitHeaders       = []string{"debit"}
	descriptionHeaders = []string{"description"}
	accountHeaders     = []string{"account"}
)

// DetectionKind discriminates the outcome of layout detection.
type DetectionKind int

const (
	// HeaderFound means a header row was located; rows before it are
	// metadata and must be discarded.
	HeaderFound DetectionKind = iota
	// Headerless means no header exists but the first row starts with a
	// parseable date, so columns are positional: date, category, amount.
	Headerless
	// NotFound means no date column could be identified at all.
	NotFound
)

type (
	// ColumnMapping holds the cell index of each semantic field, -1 when
	// the field has no column in this file.
	ColumnMapping struct {
		Date        int
		Category    int
		Amount      int
		Credit      int
		Debit       int
		Description int
		Account     int
	}

	// Detection is the result of scanning a file's rows for its layout.
	Detection struct {
		Kind      DetectionKind
		HeaderRow int // index of the header row, valid for HeaderFound
		Columns   ColumnMapping
	}
)

// DetectLayout scans rows in order for a header: the first row with at
// least three columns containing a date-field name. If none exists and
// the first cell of the first row parses as a date, the file is treated
// as headerless with fixed column order (date, category, amount).
// Otherwise the result is NotFound, which callers surface as
// ErrNoDateColumn.
func DetectLayout(rows [][]string) Detection {
	for i, row := range rows {
		if len(row) < 3 {
			continue
		}
		cells := normalizeHeaderCells(row)
		if findColumn(cells, dateHeaders) < 0 {
			continue
		}
		return Detection{
			Kind:      HeaderFound,
			HeaderRow: i,
			Columns: ColumnMapping{
				Date:        findColumn(cells, dateHeaders),
				Category:    findColumn(cells, categoryHeaders),
				Amount:      findColumn(cells, amountHeaders),
				Credit:      findColumn(cells, creditHeaders),
				Debit:       findColumn(cells, debitHeaders),
				Description: findColumn(cells, descriptionHeaders),
				Account:     findColumn(cells, accountHeaders),
			},
		}
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		if _, err := ParseDate(rows[0][0]); err == nil {
			return Detection{Kind: Headerless, Columns: positionalColumns()}
		}
	}
	return Detection{Kind: NotFound}
}

// positionalColumns is the fixed mapping for headerless files.
func positionalColumns() ColumnMapping {
	return ColumnMapping{
		Date:        0,
		Category:    1,
		Amount:      2,
		Credit:      -1,
		Debit:       -1,
		Description: -1,
		Account:     -1,
	}
}

func normalizeHeaderCells(row []string) []string {
	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	return cells
}

// findColumn returns the index of the first name, in priority order,
// present among the normalized cells, or -1 when none is.
func findColumn(cells []string, names []string) int {
	for _, name := range names {
		for i, cell := range cells {
			if cell == name {
				return i
			}
		}
	}
	return -1
}
