package paginate

import (
	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/pages"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Row chunk sizes of the items table.
const (
	FirstPageRows    = 12
	ContinuationRows = 22
)

// MaxRows returns how many line item rows a stream capped at maxPages can
// display.
func MaxRows(maxPages int) int {
	return FirstPageRows + ContinuationRows*max(0, maxPages-1)
}

const itemsTableHTML = `<table class="w-full mb-8 text-sm">` +
	`<thead class="border-b-2 border-gray-800"><tr>` +
	`<th class="text-left font-bold text-gray-600 uppercase py-2">Description</th>` +
	`<th class="text-right font-bold text-gray-600 uppercase py-2 w-24">Quantity</th>` +
	`<th class="text-right font-bold text-gray-600 uppercase py-2 w-28">Unit Price</th>` +
	`<th class="text-right font-bold text-gray-600 uppercase py-2 w-32">Total</th>` +
	`</tr></thead><tbody></tbody></table>`

// itemsTable builds a continuation table holding rows, header row repeated.
func itemsTable(rows []*html.Node) *html.Node {
	nodes, err := dom.ParseFragment(itemsTableHTML)
	if err != nil || len(nodes) == 0 {
		// static markup, never fails
		panic("paginate: invalid items table markup")
	}
	table := nodes[0]
	body := dom.ByTag(table, "tbody")
	for _, r := range rows {
		dom.Append(body, r)
	}
	return table
}

// Items lays the line item rows out: the first FirstPageRows go into the base
// page table body, the rest into items pages of ContinuationRows each. Rows
// past the page cap are not placed.
//
// An items page hosting the acceptance block is never removed while rows
// are being laid out: it is reused for the first continuation chunk, and
// if no chunk needs it the acceptance block is parked on the previous
// items page before the page goes.
func (p *Paginator) Items(rows []*html.Node) {
	body := p.byID(pages.ItemsBodyID)
	if body == nil {
		return
	}

	// The base page keeps the first rows whatever the cap
	dom.Clear(body)
	first := min(len(rows), FirstPageRows)
	for _, r := range rows[:first] {
		dom.Append(body, r)
	}
	placed := first

	// Keep the page holding the acceptance block so it is not rebuilt
	accept := p.byID(pages.AcceptanceID)
	var reuse []pages.Page
	for _, page := range p.stream.OfKind(pages.KindItems) {
		if accept != nil && page.Contains(accept) {
			dom.Clear(slotOf(page, pages.RoleItems))
			reuse = append(reuse, page)
			continue
		}
		p.stream.Remove(page)
	}

	anchor := p.stream.PageOf(body)
	rest := rows[first:]
	for len(rest) > 0 {
		var page pages.Page
		if len(reuse) > 0 {
			page, reuse = reuse[0], reuse[1:]
			if !anchor.IsZero() {
				dom.InsertAfter(anchor.Node(), page.Node())
			}
		} else {
			var ok bool
			if page, ok = p.NewPage(ItemsPolicy, anchor); !ok {
				break
			}
		}
		// Continuation chunks are fixed size; no measuring needed
		n := min(len(rest), ContinuationRows)
		slot := slotOf(page, pages.RoleItems)
		dom.Clear(slot)
		slot.AppendChild(itemsTable(rest[:n]))
		placed += n
		rest = rest[n:]
		anchor = page
	}

	// Unused kept page: park the block one page earlier, then drop it
	for _, page := range reuse {
		if accept != nil && page.Contains(accept) && !anchor.IsZero() {
			anchor.InsertBeforeFooter(accept)
		}
		p.stream.Remove(page)
	}

	p.report.Rows = len(rows)
	p.report.PlacedRows = placed
	p.report.TruncatedRows = len(rows) - placed
	p.metrics.RowsTruncated(len(rows) - placed)
	p.log.Debug("items paginated",
		zap.Int("rows", len(rows)),
		zap.Int("placed", placed),
		zap.Int("pages", len(p.stream.OfKind(pages.KindItems))),
	)
}

// ClearItems empties the base page's items table and removes every items
// page, parking the acceptance block on the page before the first removed one.
func (p *Paginator) ClearItems() {
	if body := p.byID(pages.ItemsBodyID); body != nil {
		dom.Clear(body)
	}
	accept := p.byID(pages.AcceptanceID)
	for _, page := range p.stream.OfKind(pages.KindItems) {
		if accept != nil && page.Contains(accept) {
			p.parkBefore(page, accept)
		}
		p.stream.Remove(page)
	}
}

// parkBefore moves n onto the closest page preceding page, above its footer.
func (p *Paginator) parkBefore(page pages.Page, n *html.Node) {
	prev := page.Node().PrevSibling
	for ; prev != nil; prev = prev.PrevSibling {
		if dom.HasClass(prev, pages.PageClass) {
			break
		}
	}
	if prev == nil {
		if base := p.stream.Base(); !base.IsZero() && base != page {
			base.InsertBeforeFooter(n)
		}
		return
	}
	pages.Wrap(prev).InsertBeforeFooter(n)
}

// slotOf returns the content slot tagged role on page, creating one above
// the footer when the page lacks it.
func slotOf(page pages.Page, role string) *html.Node {
	if slot := page.Slot(role); slot != nil {
		return slot
	}
	slot := dom.Element("div", "class", "text-sm", pages.AttrRole, role)
	page.InsertBeforeFooter(slot)
	return slot
}
