// Package money formats and parses Brazilian Real amounts.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Zero is the canonical rendering of an absent or invalid amount.
const Zero = "R$ 0,00"

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Format renders d with two decimal places, thousands grouping and the
// R$ prefix, e.g. 1234.56 -> "R$ 1.234,56".
func Format(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero
	}
	return "R$ " + printer.Sprintf("%.2f", f)
}

// FormatPtr renders a possibly absent amount. Nil renders as the zero string.
func FormatPtr(d *decimal.Decimal) string {
	if d == nil {
		return Zero
	}
	return Format(*d)
}

// FormatFloat renders a raw float amount. NaN and infinities render as the
// zero string rather than failing.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero
	}
	return Format(decimal.NewFromFloat(f))
}

// Parse reads either a canonical dot-decimal string ("1234.56") or a pt-BR
// formatted string ("R$ 1.234,56"). Unparseable input yields zero, never an
// error: callers treat garbage as an empty field.
func Parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		// pt-BR notation: dots group thousands, comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
