package paginate

import (
	"strings"

	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/geometry"
	"github.com/alnah/go-docpager/internal/pages"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Letterhead relocates the children of the editable letterhead source onto
// letterhead pages, one node at a time. A node that does not fit moves to a
// new page; past the cap the remaining nodes are held in a hidden element
// next to the source so the next run still sees them.
//
// When the first page ends up empty while continuation pages exist, the
// first page is hidden.
func (p *Paginator) Letterhead() {
	source := p.byID(pages.LetterheadSourceID)
	if source == nil {
		return
	}
	p.ClearLetterhead()

	base := p.stream.PageOf(source)
	if base.IsZero() || base.Footer() == nil {
		return
	}
	nodes := dom.Children(source)
	if len(nodes) == 0 {
		return
	}
	dom.Clear(source)

	page, slot := base, source
	created := 0
	for i, n := range nodes {
		slot.AppendChild(n)
		if p.gauge.Fits(page.Node(), slot, geometry.DefaultBuffer) {
			continue
		}
		// Move, not clone: the source stays the editable element
		dom.Detach(n)
		next, ok := p.NewPage(LetterheadPolicy, page)
		if !ok {
			p.hold(source, nodes[i:])
			p.dropped(pages.KindLetterhead, len(elementsOf(nodes[i:])))
			break
		}
		created++
		page, slot = next, slotOf(next, pages.RoleLetterhead)
		slot.AppendChild(n)
	}

	// Hidden pages are left out of numbering
	if created > 0 && !dom.HasContent(source) {
		base.SetHidden(true)
	}
	p.log.Debug("letterhead paginated",
		zap.Int("nodes", len(nodes)),
		zap.Int("pages", created),
		zap.Bool("first_hidden", base.Hidden()),
	)
}

// ClearLetterhead moves every relocated node back into the source, in order,
// removes the letterhead pages and shows the first page again.
func (p *Paginator) ClearLetterhead() {
	source := p.byID(pages.LetterheadSourceID)
	if source == nil {
		return
	}
	for _, page := range p.stream.OfKind(pages.KindLetterhead) {
		if slot := page.Slot(pages.RoleLetterhead); slot != nil {
			moveChildren(slot, source)
		}
		p.stream.Remove(page)
	}
	if held := dom.ByRole(p.stream.Root(), pages.RoleLetterheadHeld); held != nil {
		moveChildren(held, source)
		dom.Detach(held)
	}
	if base := p.stream.PageOf(source); !base.IsZero() {
		base.SetHidden(false)
	}
}

// hold parks nodes in a hidden sibling of source.
func (p *Paginator) hold(source *html.Node, nodes []*html.Node) {
	held := dom.Element("div", pages.AttrRole, pages.RoleLetterheadHeld, "style", "display: none")
	for _, n := range nodes {
		dom.Append(held, n)
	}
	dom.InsertAfter(source, held)
}

func moveChildren(from, to *html.Node) {
	for _, c := range dom.Children(from) {
		dom.Append(to, c)
	}
}

func elementsOf(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode || (n.Type == html.TextNode && strings.TrimSpace(strings.ReplaceAll(n.Data, "\u00a0", " ")) != "") {
			out = append(out, n)
		}
	}
	return out
}
