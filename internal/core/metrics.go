package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MonthDetails returns category totals restricted to transactions whose
// month renders as the given "YYYY-MM" key. The result is empty, never
// nil, when nothing matches. Validating the month string's shape is the
// caller's concern; an unparseable month simply matches nothing.
func MonthDetails(txs []Transaction, month string) map[string]decimal.Decimal {
	details := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if MonthKeyOf(tx.Date).String() != month {
			continue
		}
		details[tx.Category] = details[tx.Category].Add(tx.Amount)
	}
	return details
}

// YoYMonthlyExpenses averages expense magnitudes per calendar month
// across all years present, keyed "MM". The divisor for a calendar
// month is the number of distinct (year, month) pairs that had at least
// one expense transaction, so years without expenses in that month do
// not pull the average down.
func YoYMonthlyExpenses(txs []Transaction) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	bearing := make(map[string]map[MonthKey]struct{})
	for _, tx := range txs {
		if tx.Amount.Sign() >= 0 {
			continue
		}
		mm := fmt.Sprintf("%02d", int(tx.Date.Month()))
		sums[mm] = sums[mm].Add(tx.Amount.Abs())
		if bearing[mm] == nil {
			bearing[mm] = make(map[MonthKey]struct{})
		}
		bearing[mm][MonthKeyOf(tx.Date)] = struct{}{}
	}
	averages := make(map[string]decimal.Decimal, len(sums))
	for mm, sum := range sums {
		averages[mm] = sum.Div(decimal.NewFromInt(int64(len(bearing[mm]))))
	}
	return averages
}
