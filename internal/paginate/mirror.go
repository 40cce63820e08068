package paginate

import (
	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/pages"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Notes renders content right after the acceptance block. When the render
// crosses the footer, content is cloned node by node onto notes pages. An
// empty or whitespace-only content removes every notes render and page.
func (p *Paginator) Notes(content string) {
	p.ClearNotes()
	if !dom.HasVisibleText(content) {
		return
	}
	accept := p.byID(pages.AcceptanceID)
	if accept == nil {
		return
	}
	page := p.stream.PageOf(accept)
	if page.IsZero() || page.Footer() == nil {
		return
	}
	render, err := newRender(pages.RoleNotesRender, content)
	if err != nil {
		p.log.Debug("notes not parsed", zap.Error(err))
		return
	}
	dom.InsertAfter(accept, render)
	p.mirror(NotesPolicy, page, render, content)
}

// ClearNotes removes the notes render and every notes page.
func (p *Paginator) ClearNotes() {
	p.removeRenders(pages.RoleNotesRender)
	p.stream.RemoveAllOfKind(pages.KindNotes)
}

// Advice renders the payment advice after the notes: on the last notes page,
// else on the page holding the notes render, else on the page holding the
// acceptance block. Overflow is cloned onto advice pages like notes.
func (p *Paginator) Advice(content string) {
	p.ClearAdvice()
	if !dom.HasVisibleText(content) {
		return
	}
	anchor := p.adviceAnchor()
	if anchor.IsZero() || anchor.Footer() == nil {
		return
	}
	render, err := newRender(pages.RoleAdviceRender, content)
	if err != nil {
		p.log.Debug("payment advice not parsed", zap.Error(err))
		return
	}
	anchor.InsertBeforeFooter(render)
	p.mirror(AdvicePolicy, anchor, render, content)
}

// ClearAdvice removes the advice render and every advice page.
func (p *Paginator) ClearAdvice() {
	p.removeRenders(pages.RoleAdviceRender)
	p.stream.RemoveAllOfKind(pages.KindAdvice)
}

func (p *Paginator) adviceAnchor() pages.Page {
	if last := p.stream.LastOfKind(pages.KindNotes); !last.IsZero() {
		return last
	}
	if render := dom.ByRole(p.stream.Root(), pages.RoleNotesRender); render != nil {
		if page := p.stream.PageOf(render); !page.IsZero() {
			return page
		}
	}
	if accept := p.byID(pages.AcceptanceID); accept != nil {
		return p.stream.PageOf(accept)
	}
	return pages.Page{}
}

func newRender(role, content string) (*html.Node, error) {
	render := dom.Element("div", "class", "text-sm text-gray-700", pages.AttrRole, role)
	if err := dom.SetInnerHTML(render, content); err != nil {
		return nil, err
	}
	return render, nil
}

// mirror checks render once layout is known. If it crosses the footer of
// page, render is emptied and refilled with clones of the parsed content,
// paging forward whenever a clone does not fit.
func (p *Paginator) mirror(pol Policy, page pages.Page, render *html.Node, content string) {
	p.deferUntilLayout(func() {
		if p.gauge.Fits(page.Node(), render, 0) {
			return
		}
		nodes, err := dom.ParseFragment(content)
		if err != nil {
			return
		}
		dom.Clear(render)
		run := &mirrorRun{p: p, pol: pol, page: page, slot: render, nodes: nodes}
		run.place(0)
	})
}

type mirrorRun struct {
	p     *Paginator
	pol   Policy
	page  pages.Page
	slot  *html.Node
	nodes []*html.Node
}

// place clones nodes[i:] into the running slot. When a clone needs a new
// page, the rest of the run waits for the next layout.
func (m *mirrorRun) place(i int) {
	for ; i < len(m.nodes); i++ {
		clone := dom.CloneDeep(m.nodes[i])
		m.slot.AppendChild(clone)
		if m.p.gauge.Fits(m.page.Node(), m.slot, 0) {
			continue
		}

		dom.Detach(clone)
		next, ok := m.p.NewPage(m.pol, m.page)
		if !ok {
			m.p.dropped(m.pol.Kind, len(elementsOf(m.nodes[i:])))
			return
		}
		m.page, m.slot = next, slotOf(next, m.pol.Role)
		m.slot.AppendChild(clone)

		rest := i + 1
		m.p.deferUntilLayout(func() {
			if !m.p.gauge.Fits(m.page.Node(), m.slot, 0) {
				// one page advance per node, a taller node stays where it is
				m.p.log.Debug("node taller than a page left in place",
					zap.String("kind", string(m.pol.Kind)),
					zap.Int("index", rest-1),
				)
			}
			m.place(rest)
		})
		return
	}
}
