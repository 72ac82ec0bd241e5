package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseFilesWithHeader(t *testing.T) {
	path := writeCSV(t, "a.csv", "Date,Category,Amount\n2024-01-01,income,3000\n2024-01-02,rent,-1200\n")
	txs, skipped, err := ParseFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skips, got %+v", skipped)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Category != "income" || !txs[0].Amount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected first transaction: %+v", txs[0])
	}
	if txs[1].Category != "rent" || !txs[1].Amount.Equal(decimal.NewFromInt(-1200)) {
		t.Fatalf("unexpected second transaction: %+v", txs[1])
	}
}

func TestParseFilesHeaderless(t *testing.T) {
	path := writeCSV(t, "a.csv", "2024-01-01,income,3000\n2024-01-02,rent,-1200\n")
	txs, _, err := ParseFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Date.Year() != 2024 || txs[0].Category != "income" {
		t.Fatalf("unexpected first transaction: %+v", txs[0])
	}
}

func TestParseFilesSkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, "a.csv", "Date,Category,Amount\n2024-01-01,income,3000\nbad,row\n2024-01-02,rent,-1200\n")
	txs, skipped, err := ParseFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Category != "income" || txs[1].Category != "rent" {
		t.Fatalf("surrounding rows not retained in order: %+v", txs)
	}
	if len(skipped) != 1 || skipped[0].Line != 3 {
		t.Fatalf("expected one skip on line 3, got %+v", skipped)
	}
}

func TestParseFilesDiscardsPreamble(t *testing.T) {
	content := "Statement Export\nGenerated,2024-02-01\nDate,Category,Amount\n2024-01-01,income,3000\n"
	path := writeCSV(t, "a.csv", content)
	txs, _, err := ParseFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 || txs[0].Category != "income" {
		t.Fatalf("expected only the data row, got %+v", txs)
	}
}

func TestParseFilesNoDateColumn(t *testing.T) {
	path := writeCSV(t, "a.csv", "Name,Category,Amount\nx,y,1\n")
	_, _, err := ParseFiles(path)
	if !errors.Is(err, ErrNoDateColumn) {
		t.Fatalf("expected ErrNoDateColumn, got %v", err)
	}
}

func TestParseFilesEmptyFile(t *testing.T) {
	path := writeCSV(t, "a.csv", "")
	txs, skipped, err := ParseFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 0 || len(skipped) != 0 {
		t.Fatalf("expected empty result, got %d txs, %d skips", len(txs), len(skipped))
	}
}

func TestParseFilesMissingFile(t *testing.T) {
	_, _, err := ParseFiles(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseFilesIdempotent(t *testing.T) {
	path := writeCSV(t, "a.csv", "Date,Category,Amount\n2024-01-01,income,3000\n2024-01-02,rent,-1200\n")
	first, _, err := ParseFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := ParseFiles(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Date.Equal(second[i].Date) || first[i].Category != second[i].Category ||
			!first[i].Amount.Equal(second[i].Amount) {
			t.Fatalf("transaction %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestParseFilesConcatenatesInOrder(t *testing.T) {
	a := writeCSV(t, "a.csv", "Date,Category,Amount\n2024-01-01,income,3000\n")
	b := writeCSV(t, "b.csv", "Date,Category,Amount\n2024-02-01,rent,-1200\n")

	both, _, err := ParseFiles(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromA, _, err := ParseFiles(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromB, _, err := ParseFiles(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(both) != len(fromA)+len(fromB) {
		t.Fatalf("expected %d transactions, got %d", len(fromA)+len(fromB), len(both))
	}
	if both[0].Category != "income" || both[1].Category != "rent" {
		t.Fatalf("file order not preserved: %+v", both)
	}
}

func TestParseReaderQuotedCells(t *testing.T) {
	content := "Date,Category,Amount\n2024-01-01,\"groceries, misc\",\"-1,200.50\"\n"
	txs, _, err := ParseReader("quoted.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Category != "groceries, misc" {
		t.Fatalf("category %q, want %q", txs[0].Category, "groceries, misc")
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("-1200.50")) {
		t.Fatalf("amount %s, want -1200.50", txs[0].Amount)
	}
}
