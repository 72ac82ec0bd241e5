package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in priority order: ISO, US slash with 4-digit
// year, US slash with 2-digit year. Two-digit years follow the standard
// century inference (69-99 are 19xx, 00-68 are 20xx).
var dateLayouts = []string{"2006-01-02", "01/02/2006", "01/02/06"}

// ParseDate converts raw cell text to a calendar date, trying each
// accepted layout in order.
//
// Examples:
//
//	ParseDate("2024-01-15") -> 2024-01-15
//	ParseDate("01/15/2024") -> 2024-01-15
//	ParseDate("01/15/24")   -> 2024-01-15
//
// Returns ErrUnsupportedDateFormat when no layout matches.
func ParseDate(text string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedDateFormat, text)
}

// ParseAmount converts raw cell text to a signed decimal amount.
//
// Currency symbols ($), thousands separators (,) and surrounding
// whitespace are stripped. An empty cell is zero. Text wrapped in
// parentheses is the accounting negative convention: the enclosed value
// is negated.
//
// Examples:
//
//	ParseAmount("1,200.50")    -> 1200.50
//	ParseAmount("$45")         -> 45
//	ParseAmount("(1,200.50)")  -> -1200.50
//	ParseAmount("")            -> 0
//
// Returns ErrMalformedAmount when the residual text is not numeric.
func ParseAmount(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(text, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, nil
	}
	negate := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negate = true
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
	}
	if negate {
		amount = amount.Neg()
	}
	return amount, nil
}
