package docpager

import (
	"strconv"
	"sync"
)

// Default number prefixes and first counter value.
const (
	DefaultQuotePrefix   = "TC-"
	DefaultInvoicePrefix = "INV-"
	DefaultFirstNumber   = 1001
)

// Numbering hands out document numbers: a prefix followed by a per-kind
// counter. Letterheads are not numbered. Safe for concurrent use.
type Numbering struct {
	mu            sync.Mutex
	quotePrefix   string
	invoicePrefix string
	nextQuote     int
	nextInvoice   int
}

// NewNumbering creates a Numbering starting at the given counters. A counter
// below 1 starts at DefaultFirstNumber.
func NewNumbering(quotePrefix, invoicePrefix string, nextQuote, nextInvoice int) *Numbering {
	if nextQuote < 1 {
		nextQuote = DefaultFirstNumber
	}
	if nextInvoice < 1 {
		nextInvoice = DefaultFirstNumber
	}
	return &Numbering{
		quotePrefix:   quotePrefix,
		invoicePrefix: invoicePrefix,
		nextQuote:     nextQuote,
		nextInvoice:   nextInvoice,
	}
}

// Next returns the next number for kind and advances its counter.
func (n *Numbering) Next(kind Kind) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch kind {
	case KindQuote:
		v := n.nextQuote
		n.nextQuote++
		return n.quotePrefix + strconv.Itoa(v)
	case KindInvoice:
		v := n.nextInvoice
		n.nextInvoice++
		return n.invoicePrefix + strconv.Itoa(v)
	default:
		return ""
	}
}

// Assign numbers d when it has no number yet.
func (n *Numbering) Assign(d *Document) {
	if d == nil || d.number != "" {
		return
	}
	d.SetNumber(n.Next(d.kind))
}
