package paginate

import (
	"strconv"
	"strings"

	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/pages"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// OverflowTolerance is how far, in pixels, the last element of a page may
// reach past the footer top before it is moved.
const OverflowTolerance = 2.0

const (
	attrOrigin      = "data-overflow-origin"
	attrPlaceholder = "data-placeholder"
)

// Overflow restores whatever a previous pass moved, then checks the last
// visible page once layout is known: if its final content element crosses
// the footer, that element alone moves to a new quote continuation page. The
// acceptance block, notes and advice renders and generated content slots are
// never moved; they have their own paginators.
func (p *Paginator) Overflow() {
	p.ClearOverflow()
	p.deferUntilLayout(p.checkOverflow)
}

// ClearOverflow puts every element moved by Overflow back where it came from
// and removes the quote continuation pages.
func (p *Paginator) ClearOverflow() {
	root := p.stream.Root()
	for _, page := range p.stream.OfKind(pages.KindOverflow) {
		for _, el := range dom.FindAll(page.Node(), func(n *html.Node) bool {
			return n.Type == html.ElementNode && dom.HasAttr(n, attrOrigin)
		}) {
			id := dom.Attr(el, attrOrigin)
			dom.RemoveAttr(el, attrOrigin)
			if ph := p.placeholder(id); ph != nil {
				dom.InsertBefore(ph.Parent, el, ph)
			}
		}
		p.stream.Remove(page)
	}
	for _, ph := range dom.FindAll(root, func(n *html.Node) bool {
		return dom.IsElement(n, "template") && dom.HasAttr(n, attrPlaceholder)
	}) {
		dom.Detach(ph)
	}
	p.seq = 0
}

func (p *Paginator) placeholder(id string) *html.Node {
	return dom.Find(p.stream.Root(), func(n *html.Node) bool {
		return dom.IsElement(n, "template") && dom.Attr(n, attrPlaceholder) == id
	})
}

func (p *Paginator) checkOverflow() {
	last := p.stream.LastVisible()
	if last.IsZero() || last.Kind() == pages.KindOverflow {
		return
	}
	fr, ok := p.gauge.Measure(last.Footer())
	if !ok {
		return
	}
	el := lastMovable(last)
	if el == nil {
		return
	}
	r, ok := p.gauge.Measure(el)
	if !ok || r.Bottom-fr.Top <= OverflowTolerance {
		return
	}

	page, ok := p.NewPage(OverflowPolicy, last)
	if !ok {
		return
	}
	p.seq++
	id := strconv.Itoa(p.seq)
	dom.InsertBefore(el.Parent, dom.Element("template", attrPlaceholder, id), el)
	dom.SetAttr(el, attrOrigin, id)
	dom.Append(slotOf(page, pages.RoleOverflow), el)
	p.log.Debug("overflowing element moved",
		zap.String("tag", el.Data),
		zap.Float64("overlap", r.Bottom-fr.Top),
	)
}

// lastMovable returns the final visible content element of page, or nil when
// that element belongs to another paginator.
func lastMovable(page pages.Page) *html.Node {
	content := page.ContentElements()
	for i := len(content) - 1; i >= 0; i-- {
		el := content[i]
		if dom.IsHidden(el) {
			continue
		}
		if ownedElsewhere(el) {
			return nil
		}
		return el
	}
	return nil
}

func ownedElsewhere(el *html.Node) bool {
	if dom.Attr(el, "id") == pages.AcceptanceID || dom.ByID(el, pages.AcceptanceID) != nil {
		return true
	}
	role := dom.Attr(el, pages.AttrRole)
	switch {
	case role == pages.RoleNotesRender, role == pages.RoleAdviceRender:
		return true
	case strings.HasSuffix(role, "-content"):
		return true
	}
	return false
}
