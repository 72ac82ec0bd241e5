package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeRow(t *testing.T) {
	cols := ColumnMapping{Date: 0, Category: 1, Amount: 2, Credit: -1, Debit: -1, Description: -1, Account: -1}
	cases := []struct {
		row      []string
		amount   string
		category string
		skip     bool
	}{
		{[]string{"2024-01-01", "income", "3000"}, "3000", "income", false},
		{[]string{"2024-01-02", "rent", "(1,200.50)"}, "-1200.50", "rent", false},
		{[]string{"2024-01-03", "", "5"}, "5", "", false}, // empty cell stays empty
		{[]string{"", "", ""}, "", "", true},              // empty row
		{[]string{"bad", "row"}, "", "", true},            // wrong arity
		{[]string{"not-a-date", "x", "1"}, "", "", true},
		{[]string{"2024-01-04", "x", "abc"}, "", "", true},
	}
	for i, tc := range cases {
		got := NormalizeRow(tc.row, cols)
		if got.Skipped != tc.skip {
			t.Fatalf("case %d skipped=%v, want %v (reason=%q)", i, got.Skipped, tc.skip, got.Reason)
		}
		if tc.skip {
			if got.Reason == "" {
				t.Fatalf("case %d expected a skip reason", i)
			}
			continue
		}
		want := decimal.RequireFromString(tc.amount)
		if !got.Transaction.Amount.Equal(want) {
			t.Fatalf("case %d amount %s, want %s", i, got.Transaction.Amount, want)
		}
		if got.Transaction.Category != tc.category {
			t.Fatalf("case %d category %q, want %q", i, got.Transaction.Category, tc.category)
		}
	}
}

func TestNormalizeRowCreditDebit(t *testing.T) {
	cols := ColumnMapping{Date: 0, Category: 1, Amount: -1, Credit: 2, Debit: 3, Description: -1, Account: -1}
	cases := []struct {
		row    []string
		amount string
	}{
		{[]string{"2024-01-01", "salary", "3000", ""}, "3000"},
		{[]string{"2024-01-02", "rent", "", "1200"}, "-1200"},
		{[]string{"2024-01-03", "mixed", "100", "40"}, "60"},
		{[]string{"2024-01-04", "nothing", "", ""}, "0"},
	}
	for i, tc := range cases {
		got := NormalizeRow(tc.row, cols)
		if got.Skipped {
			t.Fatalf("case %d unexpectedly skipped: %s", i, got.Reason)
		}
		want := decimal.RequireFromString(tc.amount)
		if !got.Transaction.Amount.Equal(want) {
			t.Fatalf("case %d amount %s, want %s", i, got.Transaction.Amount, want)
		}
	}
}

func TestNormalizeRowDefaultCategory(t *testing.T) {
	// No category-like column at all: the default applies.
	cols := ColumnMapping{Date: 0, Category: -1, Amount: 1, Credit: -1, Debit: -1, Description: -1, Account: -1}
	got := NormalizeRow([]string{"2024-01-01", "12"}, cols)
	if got.Skipped {
		t.Fatalf("unexpectedly skipped: %s", got.Reason)
	}
	if got.Transaction.Category != DefaultCategory {
		t.Fatalf("category %q, want %q", got.Transaction.Category, DefaultCategory)
	}
}

func TestNormalizeRowDescriptionAndAccount(t *testing.T) {
	cols := ColumnMapping{Date: 0, Category: 1, Amount: 2, Credit: -1, Debit: -1, Description: 1, Account: 3}
	got := NormalizeRow([]string{"01/05/2024", "Coffee", "-5", "checking"}, cols)
	if got.Skipped {
		t.Fatalf("unexpectedly skipped: %s", got.Reason)
	}
	if got.Transaction.Category != "Coffee" || got.Transaction.Description != "Coffee" {
		t.Fatalf("expected description column to fill both fields, got %+v", got.Transaction)
	}
	if got.Transaction.Account != "checking" {
		t.Fatalf("account %q, want %q", got.Transaction.Account, "checking")
	}
}

func TestNormalizeRows(t *testing.T) {
	cols := positionalColumns()
	rows := [][]string{
		{"2024-01-01", "income", "3000"},
		{"bad", "row"},
		{"2024-01-02", "rent", "-1200"},
	}
	txs, skipped := NormalizeRows("jan.csv", rows, 1, cols)
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Category != "income" || txs[1].Category != "rent" {
		t.Fatalf("order not preserved: %+v", txs)
	}
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skip, got %d", len(skipped))
	}
	if skipped[0].File != "jan.csv" || skipped[0].Line != 2 {
		t.Fatalf("unexpected skip location: %+v", skipped[0])
	}
	if !strings.Contains(skipped[0].Reason, "columns") {
		t.Fatalf("unexpected skip reason: %q", skipped[0].Reason)
	}
}
