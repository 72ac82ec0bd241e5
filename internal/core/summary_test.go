package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func tx(date string, category string, amount string) Transaction {
	d, err := ParseDate(date)
	if err != nil {
		panic(err)
	}
	return Transaction{Date: d, Category: category, Amount: decimal.RequireFromString(amount)}
}

func TestAggregate(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-01", "income", "3000"),
		tx("2024-01-02", "rent", "-1200"),
	}
	agg := Aggregate(txs)

	if !agg.CategoryTotals.Total("income").Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("income total %s, want 3000", agg.CategoryTotals.Total("income"))
	}
	if !agg.CategoryTotals.Total("rent").Equal(decimal.NewFromInt(-1200)) {
		t.Fatalf("rent total %s, want -1200", agg.CategoryTotals.Total("rent"))
	}
	if !agg.OverallBalance.Equal(decimal.NewFromInt(1800)) {
		t.Fatalf("overall balance %s, want 1800", agg.OverallBalance)
	}

	bucket := agg.ByMonth.Bucket(MonthKey{Year: 2024, Month: time.January})
	if !bucket.Income.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("january income %s, want 3000", bucket.Income)
	}
	if !bucket.Expenses.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("january expenses %s, want 1200", bucket.Expenses)
	}
}

func TestAggregateZeroAmountCountsAsIncome(t *testing.T) {
	agg := Aggregate([]Transaction{tx("2024-03-01", "adjustment", "0")})
	bucket := agg.ByMonth.Bucket(MonthKey{Year: 2024, Month: time.March})
	if !bucket.Income.IsZero() || !bucket.Expenses.IsZero() {
		t.Fatalf("zero amount must not move either side: %+v", bucket)
	}
	if _, ok := agg.ByMonth[MonthKey{Year: 2024, Month: time.March}]; !ok {
		t.Fatalf("zero amount should still create the month bucket")
	}
}

func TestAggregateSumInvariant(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-01", "income", "3000.33"),
		tx("2024-01-02", "rent", "-1200.50"),
		tx("2024-02-03", "groceries", "-89.99"),
		tx("2024-02-04", "income", "3000.33"),
		tx("2024-03-05", "groceries", "-12.01"),
	}
	agg := Aggregate(txs)
	sum := decimal.Zero
	for _, total := range agg.CategoryTotals {
		sum = sum.Add(total)
	}
	if !agg.OverallBalance.Equal(sum) {
		t.Fatalf("overall balance %s != category sum %s", agg.OverallBalance, sum)
	}
}

func TestSavingsRate(t *testing.T) {
	byMonth := MonthBuckets{
		{Year: 2024, Month: time.January}:  {Income: decimal.NewFromInt(3000), Expenses: decimal.NewFromInt(1200)},
		{Year: 2024, Month: time.February}: {Income: decimal.NewFromInt(1000), Expenses: decimal.NewFromInt(1500)},
		{Year: 2024, Month: time.March}:    {Income: decimal.Zero, Expenses: decimal.NewFromInt(400)},
	}
	rates := SavingsRate(byMonth)

	if !rates["2024-01"].Equal(decimal.NewFromInt(60)) {
		t.Fatalf("2024-01 rate %s, want 60", rates["2024-01"])
	}
	// Overspending yields a negative rate.
	if !rates["2024-02"].Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("2024-02 rate %s, want -50", rates["2024-02"])
	}
	if _, ok := rates["2024-03"]; ok {
		t.Fatalf("zero-income month must be omitted, got %s", rates["2024-03"])
	}
	if len(rates) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(rates))
	}
}

func TestSummarizeScenario(t *testing.T) {
	txs := []Transaction{
		tx("2024-01-01", "income", "3000"),
		tx("2024-01-02", "rent", "-1200"),
	}
	s := Summarize(txs)
	if !s.OverallBalance.Equal(decimal.NewFromInt(1800)) {
		t.Fatalf("overall balance %s, want 1800", s.OverallBalance)
	}
	if !s.SavingsRate["2024-01"].Equal(decimal.NewFromInt(60)) {
		t.Fatalf("savings rate %s, want 60", s.SavingsRate["2024-01"])
	}
	if len(s.CategoryTotals) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(s.CategoryTotals))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if len(s.CategoryTotals) != 0 || len(s.SavingsRate) != 0 {
		t.Fatalf("expected empty summary, got %+v", s)
	}
	if !s.OverallBalance.IsZero() {
		t.Fatalf("overall balance %s, want 0", s.OverallBalance)
	}
}

func TestMonthKeyString(t *testing.T) {
	cases := []struct {
		key MonthKey
		out string
	}{
		{MonthKey{Year: 2024, Month: time.January}, "2024-01"},
		{MonthKey{Year: 2024, Month: time.December}, "2024-12"},
		{MonthKey{Year: 812, Month: time.July}, "0812-07"},
	}
	for _, tc := range cases {
		if got := tc.key.String(); got != tc.out {
			t.Fatalf("%+v rendered %q, want %q", tc.key, got, tc.out)
		}
	}
}
