package forecast

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a project carries no currency code.
const DefaultCurrency = "USD"

// DefaultLocale picks symbols and digit grouping for FormatCurrency.
var DefaultLocale = language.AmericanEnglish

// NormalizeCurrency upper-cases code and checks it against the ISO 4217
// table. Unknown or empty codes yield DefaultCurrency and ok=false.
func NormalizeCurrency(code string) (normalized string, ok bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, false
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return DefaultCurrency, false
	}
	return unit.String(), true
}

// FormatCurrency formats amount in whole units of code for DefaultLocale,
// e.g. "$1,235" or "-€40".
func FormatCurrency(amount decimal.Decimal, code string) string {
	return FormatCurrencyIn(DefaultLocale, amount, code)
}

// FormatCurrencyIn formats amount in whole units of code using tag's
// currency symbol and digit grouping: "€1.235" for German, "£1,235" for
// English. Symbols that end in a letter are separated by a space
// ("CHF 1,200"). Codes outside ISO 4217 are written upper-cased as given.
func FormatCurrencyIn(tag language.Tag, amount decimal.Decimal, code string) string {
	p := message.NewPrinter(tag)
	symbol := currencySymbol(p, code)
	if r, _ := utf8.DecodeLastRuneInString(symbol); unicode.IsLetter(r) {
		symbol += " "
	}

	whole := amount.Round(0).IntPart()
	if whole < 0 {
		return "-" + symbol + p.Sprintf("%d", -whole)
	}
	return symbol + p.Sprintf("%d", whole)
}

func currencySymbol(p *message.Printer, code string) string {
	normalized, ok := NormalizeCurrency(code)
	if !ok {
		if raw := strings.ToUpper(strings.TrimSpace(code)); raw != "" {
			return raw
		}
	}
	return p.Sprint(currency.Symbol(currency.MustParseISO(normalized)))
}
