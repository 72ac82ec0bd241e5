package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"fhm/internal/core"
)

// RenderSummary writes category totals, the overall balance, and the
// per-month savings rates. Categories print in the order they first
// appear in the transaction list.
func RenderSummary(w io.Writer, txs []core.Transaction, summary core.Summary) {
	fmt.Fprintln(w, "Category Totals")
	for _, cat := range categoryOrder(txs) {
		fmt.Fprintf(w, "%-10s %s\n", cat, summary.CategoryTotals.Total(cat).StringFixed(2))
	}
	fmt.Fprintf(w, "Overall Balance: %s\n", summary.OverallBalance.StringFixed(2))

	if len(summary.SavingsRate) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSavings Rate by Month")
	for _, month := range sortedKeys(summary.SavingsRate) {
		fmt.Fprintf(w, "%s: %s%%\n", month, summary.SavingsRate[month].StringFixed(1))
	}
}

// RenderMonthDetails writes the per-category breakdown for one month,
// largest absolute total first. Categories with equal absolute totals
// keep their first-appearance order.
func RenderMonthDetails(w io.Writer, txs []core.Transaction, month string, details map[string]decimal.Decimal) {
	if len(details) == 0 {
		fmt.Fprintf(w, "No transactions found for %s\n", month)
		return
	}

	cats := make([]string, 0, len(details))
	for _, cat := range categoryOrder(txs) {
		if _, ok := details[cat]; ok {
			cats = append(cats, cat)
		}
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return details[cats[i]].Abs().GreaterThan(details[cats[j]].Abs())
	})

	fmt.Fprintf(w, "\nDetails for %s\n", month)
	for _, cat := range cats {
		fmt.Fprintf(w, "%-10s %s\n", cat, details[cat].StringFixed(2))
	}
}

// RenderYoY writes the average expense per calendar month. Nothing is
// written when no month carries expenses.
func RenderYoY(w io.Writer, trends map[string]decimal.Decimal) {
	if len(trends) == 0 {
		return
	}
	fmt.Fprintln(w, "\nAverage Expenses by Month")
	for _, month := range sortedKeys(trends) {
		fmt.Fprintf(w, "%s: %s\n", month, trends[month].StringFixed(2))
	}
}

// categoryOrder returns the distinct categories in first-appearance order.
func categoryOrder(txs []core.Transaction) []string {
	seen := make(map[string]bool, len(txs))
	order := make([]string, 0, len(txs))
	for _, tx := range txs {
		if !seen[tx.Category] {
			seen[tx.Category] = true
			order = append(order, tx.Category)
		}
	}
	return order
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
