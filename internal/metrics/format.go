package metrics

// format.go renders computed values for display. All numeric rendering
// goes through an en-US message printer so that formatted values are
// locale-stable and safe to assert on in tests and to diff in
// dashboards.

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NullPlaceholder renders absent values.
const NullPlaceholder = "—"

var printer = message.NewPrinter(language.AmericanEnglish)

// Known currency symbols; anything else prefixes the ISO code.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "CA$",
	"AUD": "A$",
}

// FormatValue renders a computed value per the metric's format
// configuration. A nil value always renders as the em-dash
// placeholder, regardless of format type.
func FormatValue(v *float64, f Format) string {
	if v == nil {
		return NullPlaceholder
	}

	var s string
	switch f.Type {
	case FormatCurrency:
		s = currencySymbol(f.Currency) + formatNumber(*v, decimals(f, 2))
	case FormatPercentage:
		s = formatNumber(*v, decimals(f, 1)) + "%"
	case FormatDuration:
		s = formatDuration(*v, decimals(f, 1))
	default:
		s = formatNumber(*v, decimals(f, 0))
	}

	return f.Prefix + s + f.Suffix
}

// formatNumber renders with en-US grouping and a fixed fraction width.
func formatNumber(v float64, dec int) string {
	return printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(dec),
		number.MaxFractionDigits(dec),
	))
}

// formatDuration treats the value as days: a day or more renders in
// days, anything shorter in hours.
func formatDuration(days float64, dec int) string {
	if days >= 1 {
		return formatNumber(days, dec) + " days"
	}
	return formatNumber(days*hoursPerDay, dec) + " hours"
}

func currencySymbol(code string) string {
	if code == "" {
		code = "USD"
	}
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return code + " "
}

func decimals(f Format, fallback int) int {
	if f.Decimals != nil {
		return *f.Decimals
	}
	return fallback
}

// FormatComparison renders a comparison delta for display, e.g.
// "+12.5%" or the placeholder when no delta could be computed.
func FormatComparison(c *Comparison) string {
	if c == nil || c.DeltaPercent == nil {
		return NullPlaceholder
	}
	return fmt.Sprintf("%+.1f%%", *c.DeltaPercent)
}
