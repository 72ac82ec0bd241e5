package core

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Aggregate reduces a transaction list to category totals, per-month
// income/expense buckets, and the overall balance. The reduction is
// pure; input order never affects the result.
//
// Bucketing uses a non-strict boundary: a zero amount counts as income
// and contributes nothing to either side.
func Aggregate(txs []Transaction) Aggregation {
	totals := make(CategoryTotals)
	byMonth := make(MonthBuckets)
	for _, tx := range txs {
		totals.add(tx.Category, tx.Amount)
		key := MonthKeyOf(tx.Date)
		if tx.Amount.Sign() >= 0 {
			byMonth.addIncome(key, tx.Amount)
		} else {
			byMonth.addExpense(key, tx.Amount.Abs())
		}
	}
	balance := decimal.Zero
	for _, total := range totals {
		balance = balance.Add(total)
	}
	return Aggregation{CategoryTotals: totals, ByMonth: byMonth, OverallBalance: balance}
}

// SavingsRate computes the percentage of income retained per month,
// (income - expenses) / income * 100, keyed "YYYY-MM". Months without
// positive income are omitted entirely.
func SavingsRate(byMonth MonthBuckets) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal)
	for key, bucket := range byMonth {
		if bucket.Income.Sign() <= 0 {
			continue
		}
		rate := bucket.Income.Sub(bucket.Expenses).Div(bucket.Income).Mul(oneHundred)
		rates[key.String()] = rate
	}
	return rates
}

// Summarize is the one-call aggregate used by the CLI and HTTP layers.
func Summarize(txs []Transaction) Summary {
	agg := Aggregate(txs)
	return Summary{
		CategoryTotals: agg.CategoryTotals,
		SavingsRate:    SavingsRate(agg.ByMonth),
		OverallBalance: agg.OverallBalance,
	}
}
