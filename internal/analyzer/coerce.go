package analyzer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// toDecimal coerces a parsed JSON value to an exact decimal. Numbers and
// numeric strings pass, everything else (including nil) yields nil.
func toDecimal(value any) *decimal.Decimal {
	if value == nil {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(fmt.Sprintf("%v", value)))
	if err != nil {
		return nil
	}
	return &d
}

// safeStr coerces a value to a trimmed non-empty string, or nil.
func safeStr(value any) *string {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", value))
	if s == "" {
		return nil
	}
	return &s
}

// parseDate reads an ISO date, tolerating a full timestamp. Unparsable
// input yields nil so the caller can fall back to today.
func parseDate(value any) *time.Time {
	s := safeStr(value)
	if s == nil {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, *s); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t
		}
	}
	return nil
}

// isTruthy mirrors loose boolean semantics for the is_receipt flag:
// false, nil, zero and empty string all count as false.
func isTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != "" && !strings.EqualFold(v, "false")
	default:
		return true
	}
}
