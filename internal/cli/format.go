// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/theirongolddev/cashflowcast/internal/forecast"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

var locale = forecast.DefaultLocale

// SetLocale sets the BCP 47 language used for currency symbols and digit
// grouping. An empty name keeps the current locale.
func SetLocale(name string) error {
	if name == "" {
		return nil
	}
	tag, err := language.Parse(name)
	if err != nil {
		return fmt.Errorf("locale %q: %w", name, err)
	}
	locale = tag
	return nil
}

// FormatMoney formats an amount in whole units of the currency code.
func FormatMoney(amount decimal.Decimal, code string) string {
	return forecast.FormatCurrencyIn(locale, amount, code)
}

// FormatSignedMoney is FormatMoney with an explicit "+" on positive values.
func FormatSignedMoney(amount decimal.Decimal, code string) string {
	s := FormatMoney(amount, code)
	if amount.Round(0).Sign() > 0 {
		return "+" + s
	}
	return s
}

// FormatDelta formats the change from previous to current with a sign.
func FormatDelta(current, previous decimal.Decimal, code string) string {
	return FormatSignedMoney(current.Sub(previous), code)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatMonths formats a horizon, e.g. "1 month" or "12 months".
func FormatMonths(n int) string {
	if n == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", n)
}

// FormatUpdated renders a timestamp relative to now, e.g. "3 hours ago".
func FormatUpdated(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
