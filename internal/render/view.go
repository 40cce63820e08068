package render

import (
	"html/template"
	"strings"
)

// Document kinds understood by the base page template.
const (
	KindQuote      = "quote"
	KindInvoice    = "invoice"
	KindLetterhead = "letterhead"
)

// View is the deterministic input a base page is rendered from. Dates are
// already formatted for display.
type View struct {
	Kind    string
	Number  string
	Date    string
	DueDate string

	Branch     Party
	Client     Party
	Items      []Item
	Discount   float64
	GSTRate    float64
	Acceptance Acceptance

	// LetterheadHTML is trusted editor output, inserted unescaped.
	LetterheadHTML string
}

// Party is a sender or recipient. Address may span several lines.
type Party struct {
	Name    string
	Address string
	Email   string
	Phone   string
	Website string
	GST     string
	Logo    string
}

// Item is one line item.
type Item struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

// Acceptance is the signature block of a quote.
type Acceptance struct {
	Name      string
	Signature string // image URL
	Date      string
}

// AdviceView feeds the default payment advice sentence.
type AdviceView struct {
	DueDate string
	Payee   string
	Account string
}

// pageData is what the page template sees.
type pageData struct {
	HeaderLeft   string
	HeaderRight  string
	Title        string
	Number       string
	Date         string
	DueDate      string
	DueLabel     string
	ToHeading    string
	IsQuote      bool
	IsLetterhead bool
	HasItems     bool
	Branch       partyData
	Client       partyData
	Totals       totalsData
	Acceptance   acceptanceData
	Letterhead   template.HTML
}

type acceptanceData struct {
	Name      string
	Signature template.URL
	Date      string
}

type partyData struct {
	Name    string
	Address []string
	Email   string
	Phone   string
	Website string
	GST     string
	Logo    template.URL
}

type totalsData struct {
	Subtotal    string
	HasDiscount bool
	Discount    string
	GSTRate     string
	GST         string
	Total       string
}

func newParty(p Party) partyData {
	return partyData{
		Name:    p.Name,
		Address: lines(p.Address),
		Email:   p.Email,
		Phone:   p.Phone,
		Website: p.Website,
		GST:     p.GST,
		Logo:    assetURL(p.Logo),
	}
}

// assetURL marks an image source as safe so data: URLs from logo uploads and
// signature pads survive template escaping.
func assetURL(p string) template.URL {
	return template.URL(MigrateAssetPath(p)) // #nosec G203 -- image sources from the document
}

// lines splits s on newlines, dropping blank lines.
func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Title returns the heading printed for kind.
func Title(kind string) string {
	switch kind {
	case KindInvoice:
		return "Invoice"
	case KindLetterhead:
		return "Letterhead"
	default:
		return "Quote"
	}
}

func toHeading(kind string) string {
	if kind == KindInvoice {
		return "BILL TO"
	}
	return "QUOTE TO"
}

func dueLabel(kind string) string {
	if kind == KindInvoice {
		return "Due Date:"
	}
	return "Validity Date:"
}
