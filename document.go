package docpager

import (
	"fmt"
	"math"
	"strings"

	"github.com/alnah/go-docpager/internal/dateutil"
	"github.com/alnah/go-docpager/internal/render"
	"github.com/google/uuid"
)

// Kind is the type of business document.
type Kind string

// Document kinds.
const (
	KindQuote      Kind = "quote"
	KindInvoice    Kind = "invoice"
	KindLetterhead Kind = "letterhead"
)

// ParseKind reads a kind name, case-insensitively. Empty means KindQuote.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindQuote, nil
	case KindQuote, KindInvoice, KindLetterhead:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q (must be quote, invoice or letterhead)", ErrInvalidKind, s)
	}
}

// HasItems reports whether line items and totals print for k.
func (k Kind) HasItems() bool {
	return k == KindQuote || k == KindInvoice
}

// DefaultGSTRate is the GST percentage of a new document.
const DefaultGSTRate = 15.0

// LineItem is one row of the items table.
type LineItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

// Total returns quantity times unit price. It is never stored.
func (li LineItem) Total() float64 {
	return li.Quantity * li.UnitPrice
}

// normalize replaces non-finite numbers with 0.
func (li LineItem) normalize() LineItem {
	li.Quantity = finite(li.Quantity)
	li.UnitPrice = finite(li.UnitPrice)
	return li
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Party is the recipient of a document.
type Party struct {
	Name    string
	Address string // may span several lines
	Email   string
	Phone   string
}

// Branch is the sender identity printed at the top of every document.
type Branch struct {
	Name    string
	Address string
	Email   string
	Phone   string
	Website string
	GST     string // GST registration number
	Logo    string // image path or URL
}

// Acceptance is the signature block of a quote.
type Acceptance struct {
	Name           string
	SignatureImage string // image path, URL or data URL
	Date           string // YYYY-MM-DD
}

// Theme holds the page background.
type Theme struct {
	Background string
}

// Totals holds the inputs of the totals block. Amounts are computed when
// the document is rendered.
type Totals struct {
	Discount float64
	GSTRate  float64 // percent
}

// Document is a quote, invoice or letterhead. It is changed only through its
// setters, which keep values normalized.
type Document struct {
	id      string
	kind    Kind
	number  string
	date    string
	dueDate string
	client  Party
	branch  Branch
	items   []LineItem
	totals  Totals
	notes   string
	letter  string
	advice  string
	accept  Acceptance
	theme   Theme
}

// NewDocument creates an empty document of kind with a fresh id. An invalid
// kind falls back to KindQuote.
func NewDocument(kind Kind) *Document {
	if _, err := ParseKind(string(kind)); err != nil || kind == "" {
		kind = KindQuote
	}
	return &Document{
		id:     uuid.NewString(),
		kind:   kind,
		totals: Totals{GSTRate: DefaultGSTRate},
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Kind returns the document kind.
func (d *Document) Kind() Kind { return d.kind }

// Number returns the document number, e.g. "TC-1001".
func (d *Document) Number() string { return d.number }

// Date returns the issue date as YYYY-MM-DD.
func (d *Document) Date() string { return d.date }

// DueDate returns the validity date of a quote or the due date of an invoice.
func (d *Document) DueDate() string { return d.dueDate }

// Client returns the recipient.
func (d *Document) Client() Party { return d.client }

// Branch returns the sender.
func (d *Document) Branch() Branch { return d.branch }

// LineItems returns a copy of the line items.
func (d *Document) LineItems() []LineItem {
	return append([]LineItem(nil), d.items...)
}

// Totals returns the discount and GST rate.
func (d *Document) Totals() Totals { return d.totals }

// NotesHTML returns the notes block.
func (d *Document) NotesHTML() string { return d.notes }

// LetterheadHTML returns the letterhead body.
func (d *Document) LetterheadHTML() string { return d.letter }

// PaymentAdviceHTML returns the free-form payment advice.
func (d *Document) PaymentAdviceHTML() string { return d.advice }

// Acceptance returns the signature block.
func (d *Document) Acceptance() Acceptance { return d.accept }

// Theme returns the page theme.
func (d *Document) Theme() Theme { return d.theme }

// SetKind switches the document kind.
func (d *Document) SetKind(k Kind) error {
	k, err := ParseKind(string(k))
	if err != nil {
		return err
	}
	d.kind = k
	return nil
}

// SetNumber sets the document number.
func (d *Document) SetNumber(n string) {
	d.number = strings.TrimSpace(n)
}

// SetDates sets the issue and due dates, both YYYY-MM-DD or empty.
func (d *Document) SetDates(date, due string) error {
	for _, s := range []string{date, due} {
		if _, err := dateutil.Parse(s); err != nil {
			return err
		}
	}
	d.date, d.dueDate = strings.TrimSpace(date), strings.TrimSpace(due)
	return nil
}

// SetClient sets the recipient.
func (d *Document) SetClient(p Party) { d.client = p }

// SetBranch sets the sender.
func (d *Document) SetBranch(b Branch) {
	b.Logo = render.MigrateAssetPath(b.Logo)
	d.branch = b
}

// AddLineItem appends li and returns its index.
func (d *Document) AddLineItem(li LineItem) int {
	d.items = append(d.items, li.normalize())
	return len(d.items) - 1
}

// UpdateLineItem replaces the item at i.
func (d *Document) UpdateLineItem(i int, li LineItem) error {
	if i < 0 || i >= len(d.items) {
		return fmt.Errorf("%w: %d of %d", ErrLineItemIndex, i, len(d.items))
	}
	d.items[i] = li.normalize()
	return nil
}

// RemoveLineItem deletes the item at i.
func (d *Document) RemoveLineItem(i int) error {
	if i < 0 || i >= len(d.items) {
		return fmt.Errorf("%w: %d of %d", ErrLineItemIndex, i, len(d.items))
	}
	d.items = append(d.items[:i], d.items[i+1:]...)
	return nil
}

// SetLineItems replaces every line item.
func (d *Document) SetLineItems(items []LineItem) {
	d.items = make([]LineItem, 0, len(items))
	for _, li := range items {
		d.items = append(d.items, li.normalize())
	}
}

// SetTotals sets the discount and GST rate. A non-finite or negative rate
// becomes 0.
func (d *Document) SetTotals(t Totals) {
	t.Discount = finite(t.Discount)
	t.GSTRate = math.Max(0, finite(t.GSTRate))
	d.totals = t
}

// SetNotesHTML sets the notes block. Plain text is accepted; its line breaks
// are kept.
func (d *Document) SetNotesHTML(s string) { d.notes = s }

// SetLetterheadHTML sets the letterhead body.
func (d *Document) SetLetterheadHTML(s string) { d.letter = s }

// SetPaymentAdviceHTML sets the payment advice. Empty falls back to the
// sentence built from the due date and payment details.
func (d *Document) SetPaymentAdviceHTML(s string) { d.advice = s }

// SetAcceptance sets the signature block.
func (d *Document) SetAcceptance(a Acceptance) error {
	if _, err := dateutil.Parse(a.Date); err != nil {
		return err
	}
	a.SignatureImage = render.MigrateAssetPath(a.SignatureImage)
	d.accept = a
	return nil
}

// SetTheme sets the page background, normalizing legacy asset paths.
func (d *Document) SetTheme(t Theme) {
	t.Background = render.MigrateAssetPath(t.Background)
	d.theme = t
}
