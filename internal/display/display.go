// Package display renders money and dates for people. Stored values keep full
// precision; rounding happens here only.
package display

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Formatter struct {
	printer *message.Printer
	symbol  string
}

// New builds a formatter for a BCP 47 locale such as "id-ID". Unknown or
// malformed locales fall back to Indonesian.
func New(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Indonesian
	}
	return &Formatter{printer: message.NewPrinter(tag), symbol: "Rp"}
}

// Currency rounds half away from zero to whole units and groups digits per
// locale, e.g. "Rp 3.050" for id-ID.
func (f *Formatter) Currency(amount decimal.Decimal) string {
	whole := amount.Round(0).IntPart()
	if whole < 0 {
		return f.printer.Sprintf("-%s %d", f.symbol, -whole)
	}
	return f.printer.Sprintf("%s %d", f.symbol, whole)
}

// Number groups a whole number per locale without a currency symbol.
func (f *Formatter) Number(amount decimal.Decimal) string {
	return f.printer.Sprintf("%d", amount.Round(0).IntPart())
}

// Date renders the ISO calendar date.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}
