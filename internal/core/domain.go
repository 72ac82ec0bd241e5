// Package core implements the CSV normalization and aggregation engine:
// header detection, date and amount parsing, row normalization, and the
// derived financial metrics. Everything in this package is pure and
// in-memory; persistence and transport live in the serving layers.
package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned when a file has no category-like column at all.
const DefaultCategory = "uncategorized"

type (
	// Transaction is a single dated, categorized, signed monetary movement.
	// Amount >= 0 is income, Amount < 0 is an expense whose magnitude is
	// the expense amount. Description and Account carry the raw cell text
	// of their columns when the source file has them, otherwise "".
	Transaction struct {
		Date        time.Time
		Category    string
		Amount      decimal.Decimal
		Description string
		Account     string
	}

	// MonthKey identifies one calendar year+month.
	MonthKey struct {
		Year  int
		Month time.Month
	}

	// MonthBucket accumulates income and expenses for one month.
	// Both values are non-negative; expenses are stored as magnitudes.
	MonthBucket struct {
		Income   decimal.Decimal
		Expenses decimal.Decimal
	}

	// MonthBuckets holds one bucket per distinct month seen in the input.
	MonthBuckets map[MonthKey]MonthBucket

	// CategoryTotals maps a category label to the sum of its amounts.
	CategoryTotals map[string]decimal.Decimal

	// Aggregation is the full reduction of a transaction list.
	Aggregation struct {
		CategoryTotals CategoryTotals
		ByMonth        MonthBuckets
		OverallBalance decimal.Decimal
	}

	// Summary is the caller-facing aggregate: category totals, savings
	// rate per month keyed "YYYY-MM", and the overall balance.
	Summary struct {
		CategoryTotals CategoryTotals
		SavingsRate    map[string]decimal.Decimal
		OverallBalance decimal.Decimal
	}

	// SkippedRow records one row dropped during normalization. Skips are
	// diagnostics only; they never affect the parsed output.
	SkippedRow struct {
		File   string
		Line   int
		Reason string
	}
)

var (
	ErrNoDateColumn          = errors.New("date column not found")
	ErrUnsupportedDateFormat = errors.New("unsupported date format")
	ErrMalformedAmount       = errors.New("malformed amount")
)

// MonthKeyOf returns the key for the transaction date's year and month.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// String renders the key zero-padded as "YYYY-MM".
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Total returns the accumulated amount for a category, zero if unseen.
func (ct CategoryTotals) Total(category string) decimal.Decimal {
	return ct[category]
}

func (ct CategoryTotals) add(category string, amount decimal.Decimal) {
	ct[category] = ct[category].Add(amount)
}

// Bucket returns the month's accumulator, a zero bucket if unseen.
func (mb MonthBuckets) Bucket(k MonthKey) MonthBucket {
	return mb[k]
}

func (mb MonthBuckets) addIncome(k MonthKey, amount decimal.Decimal) {
	b := mb[k]
	b.Income = b.Income.Add(amount)
	mb[k] = b
}

func (mb MonthBuckets) addExpense(k MonthKey, magnitude decimal.Decimal) {
	b := mb[k]
	b.Expenses = b.Expenses.Add(magnitude)
	mb[k] = b
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return errors.New("transaction date cannot be zero")
	}
	return nil
}
