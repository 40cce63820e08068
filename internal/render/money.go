package render

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Totals are the computed amounts of a quote or invoice.
type Totals struct {
	Subtotal float64
	Discount float64 // applied discount, 0 when none
	Taxable  float64
	GSTRate  float64
	GST      float64
	Total    float64
}

// finite returns v, or 0 for NaN and infinities.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Amount returns quantity times unit price with non-finite inputs as 0.
func (it Item) Amount() float64 {
	return finite(it.Quantity) * finite(it.UnitPrice)
}

// ComputeTotals sums items and applies discount and GST. A discount that is
// not a positive number is ignored; the taxable amount never goes below 0.
func ComputeTotals(items []Item, discount, gstRate float64) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal += it.Amount()
	}
	if d := finite(discount); d > 0 {
		t.Discount = d
	}
	t.GSTRate = math.Max(0, finite(gstRate))
	t.Taxable = math.Max(0, t.Subtotal-t.Discount)
	t.GST = t.Taxable * t.GSTRate / 100
	t.Total = t.Taxable + t.GST
	return t
}

// Money formats amounts for one locale: "$1,234.50".
type Money struct {
	printer *message.Printer
	symbol  string
}

// NewMoney returns a formatter grouping digits the way locale does. An
// unparsable locale falls back to en-NZ.
func NewMoney(locale, symbol string) Money {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("en-NZ")
	}
	return Money{printer: message.NewPrinter(tag), symbol: symbol}
}

// Format renders v with two decimals. Non-finite values print as zero.
func (m Money) Format(v float64) string {
	v = finite(v)
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return sign + m.symbol + m.printer.Sprintf("%.2f", v)
}

// formatQuantity prints a quantity without trailing zeros, or nothing for 0.
func formatQuantity(q float64) string {
	q = finite(q)
	if q == 0 {
		return ""
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// formatRate prints a percentage rounded to two decimals: 15, 12.5.
func formatRate(r float64) string {
	return strconv.FormatFloat(math.Round(finite(r)*100)/100, 'f', -1, 64)
}
