package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PaisePerRupee is the single conversion factor between the rupee values
// operators type into sheets and the paise values the database stores.
// Every major-to-minor conversion in the codebase goes through this
// package; call sites must never multiply by 100 themselves.
const PaisePerRupee = 100

// Currency is the only denomination this service prices in.
const Currency = "INR"

var paisePerRupeeDec = decimal.NewFromInt(PaisePerRupee)

// ParseRupees converts a human-entered decimal rupee string into paise,
// rounding half away from zero. It rejects empty and non-numeric input but
// deliberately accepts any sign; positivity rules belong to the caller.
func ParseRupees(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d.Mul(paisePerRupeeDec).Round(0).IntPart(), nil
}

// Rupees converts paise back to a decimal rupee amount.
func Rupees(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Div(paisePerRupeeDec)
}

// FormatRupees renders paise as a display string, e.g. "₹2999.00".
func FormatRupees(paise int64) string {
	return "₹" + Rupees(paise).StringFixed(2)
}

// IsPositive reports whether the parsed paise amount is importable.
func IsPositive(paise int64) bool {
	return paise > 0
}
