// Package pages models the page containers of the document preview: what a
// page looks like, how continuation pages are built, and the ordered stream
// they live in.
package pages

import (
	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/geometry"
	"golang.org/x/net/html"
)

// Markup contract shared with the renderer templates.
const (
	PageClass     = geometry.PageClass
	HeaderClass   = "page-header"
	FooterClass   = geometry.FooterClass
	NumberClass   = "page-number"
	CountClass    = "page-count"
	AttrGenerated = "data-generated"
	AttrRole      = "data-role"
)

// Element ids the base page template provides.
const (
	ItemsBodyID        = "preview-line-items"
	LetterheadSourceID = "preview-letterhead-content"
	AcceptanceID       = "acceptance-preview"
)

// DefaultMaxPages caps the number of visible pages.
const DefaultMaxPages = 10

// Kind identifies who owns a page.
type Kind string

// Page kinds. Every kind but KindBase is a generated continuation page.
const (
	KindBase       Kind = "base"
	KindItems      Kind = "items"
	KindLetterhead Kind = "letterhead"
	KindNotes      Kind = "notes"
	KindAdvice     Kind = "advice"
	KindSignature  Kind = "signature"
	KindOverflow   Kind = "quote-overflow"
)

var kindTags = map[Kind]string{
	KindItems:      "items-page",
	KindLetterhead: "letterhead-page",
	KindNotes:      "notes-page-cont",
	KindAdvice:     "advice-page-cont",
	KindSignature:  "signature-page",
	KindOverflow:   "quote-page-cont",
}

// Tag returns the data-generated value of k, "" for the base page.
func (k Kind) Tag() string {
	return kindTags[k]
}

// KindOfTag maps a data-generated value back to its kind.
func KindOfTag(tag string) Kind {
	if tag == "" {
		return KindBase
	}
	for k, t := range kindTags {
		if t == tag {
			return k
		}
	}
	return Kind(tag)
}

// Content roles tag the slots paginators write into.
const (
	RoleItems          = "items-content"
	RoleLetterhead     = "letterhead-content"
	RoleNotes          = "notes-content"
	RoleAdvice         = "advice-content"
	RoleSignature      = "signature-content"
	RoleOverflow       = "quote-content"
	RoleNotesRender    = "notes-render"
	RoleAdviceRender   = "advice-render"
	RoleLetterheadHeld = "letterhead-held"
)

// Page wraps a page section node. The zero Page stands for "no page".
// Pages compare equal when they wrap the same node.
type Page struct {
	node *html.Node
}

// Wrap returns the Page for a section node, or the zero Page for nil.
func Wrap(n *html.Node) Page {
	return Page{node: n}
}

// IsZero reports whether p wraps nothing.
func (p Page) IsZero() bool {
	return p.node == nil
}

// Node returns the underlying section.
func (p Page) Node() *html.Node {
	return p.node
}

// Kind returns the owner of p.
func (p Page) Kind() Kind {
	return KindOfTag(dom.Attr(p.node, AttrGenerated))
}

// Generated reports whether a paginator created p.
func (p Page) Generated() bool {
	return dom.Attr(p.node, AttrGenerated) != ""
}

// Hidden reports whether p is excluded from display and numbering.
func (p Page) Hidden() bool {
	return dom.IsHidden(p.node)
}

// SetHidden shows or hides p.
func (p Page) SetHidden(hidden bool) {
	dom.SetHidden(p.node, hidden)
}

// Slot returns the first content region tagged role.
func (p Page) Slot(role string) *html.Node {
	return dom.ByRole(p.node, role)
}

// Header returns the header region.
func (p Page) Header() *html.Node {
	return dom.ByClass(p.node, HeaderClass)
}

// Footer returns the footer region.
func (p Page) Footer() *html.Node {
	return geometry.Footer(p.node)
}

// Contains reports whether n sits on p.
func (p Page) Contains(n *html.Node) bool {
	return p.node != nil && n != nil && dom.Contains(p.node, n)
}

// InsertBeforeFooter moves n to the end of the page content, right above the
// footer, or appends it when the page has no footer.
func (p Page) InsertBeforeFooter(n *html.Node) {
	footer := p.Footer()
	if footer == nil || footer.Parent != p.node {
		dom.Append(p.node, n)
		return
	}
	dom.InsertBefore(p.node, n, footer)
}

// ContentElements returns the direct children of p between header and
// footer, ignoring placeholders.
func (p Page) ContentElements() []*html.Node {
	var out []*html.Node
	for _, c := range dom.ElementChildren(p.node) {
		if dom.HasClass(c, HeaderClass) || dom.HasClass(c, FooterClass) || dom.IsElement(c, "template") {
			continue
		}
		out = append(out, c)
	}
	return out
}
