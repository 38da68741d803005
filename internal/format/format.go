// Package format turns stored integer amounts and ratios into the strings the
// back-office screens display. It holds no state beyond the currency code.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter renders minor-unit amounts for one currency.
type Formatter struct {
	Currency string
}

// New returns a Formatter for the given ISO currency code.
func New(currency string) Formatter {
	return Formatter{Currency: currency}
}

// Amount renders cents French-style: "3 500,00 XOF", "-12,50 XOF".
func (f Formatter) Amount(cents int64) string {
	fixed := decimal.New(cents, -2).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	if f.Currency != "" {
		b.WriteByte(' ')
		b.WriteString(f.Currency)
	}
	return b.String()
}

// Percent returns part/whole*100 rounded to one decimal, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(whole)), 4).
		Round(1).
		InexactFloat64()
}

// Hours converts a duration in seconds into hours rounded to one decimal.
func Hours(seconds float64) float64 {
	return decimal.NewFromFloat(seconds).Div(decimal.NewFromInt(3600)).Round(1).InexactFloat64()
}

// Minutes converts a duration in seconds into minutes rounded to one decimal.
func Minutes(seconds float64) float64 {
	return decimal.NewFromFloat(seconds).Div(decimal.NewFromInt(60)).Round(1).InexactFloat64()
}
