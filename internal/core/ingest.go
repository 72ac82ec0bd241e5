package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ParseReader parses one CSV stream into transactions. name labels the
// stream in diagnostics and errors. Records are read permissively:
// varying field counts and lazy quoting are allowed, and cells are not
// trimmed (the value parsers trim their own input). An empty stream
// yields no transactions and no error; a stream where no date column
// can be identified fails with ErrNoDateColumn.
func ParseReader(name string, r io.Reader) ([]Transaction, []SkippedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	detection := DetectLayout(rows)
	switch detection.Kind {
	case HeaderFound:
		data := rows[detection.HeaderRow+1:]
		txs, skipped := NormalizeRows(name, data, detection.HeaderRow+2, detection.Columns)
		return txs, skipped, nil
	case Headerless:
		txs, skipped := NormalizeRows(name, rows, 1, detection.Columns)
		return txs, skipped, nil
	}
	return nil, nil, fmt.Errorf("%s: %w", name, ErrNoDateColumn)
}

// ParseFiles parses the given files in order and concatenates their
// transactions, each file's internal order preserved. File-level
// failures (unreadable file, no date column) abort the whole call;
// row-level problems only produce skip diagnostics.
func ParseFiles(paths ...string) ([]Transaction, []SkippedRow, error) {
	var txs []Transaction
	var skipped []SkippedRow
	for _, path := range paths {
		fileTxs, fileSkipped, err := parseFile(path)
		if err != nil {
			return nil, nil, err
		}
		txs = append(txs, fileTxs...)
		skipped = append(skipped, fileSkipped...)
	}
	return txs, skipped, nil
}

func parseFile(path string) ([]Transaction, []SkippedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParseReader(path, f)
}
