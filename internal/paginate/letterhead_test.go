package paginate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/pages"
)

// blocks returns n letterhead blocks of height px, ids lh-1..lh-n.
func blocks(n int, px int) string {
	var b strings.Builder
	b.WriteString(`<div id="preview-letterhead-content">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div id="lh-%d" data-height="%d"></div>`, i, px)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func TestLetterhead_ExactFit(t *testing.T) {
	t.Parallel()

	// 3 x 320 = 960 leaves 967 - 960 px of room, above the 4px buffer
	f := newFixture(t, blocks(3, 320), pages.DefaultMaxPages)
	f.p.Letterhead()
	f.settle(t)

	if got := len(f.stream.OfKind(pages.KindLetterhead)); got != 0 {
		t.Errorf("letterhead pages = %d, want 0", got)
	}
	if f.stream.Base().Hidden() {
		t.Error("first page should stay visible")
	}
	source := dom.ByID(f.root, pages.LetterheadSourceID)
	if got := len(dom.ElementChildren(source)); got != 3 {
		t.Errorf("source children = %d, want 3", got)
	}
}

func TestLetterhead_Relocates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, blocks(5, 320), pages.DefaultMaxPages)
	source := dom.ByID(f.root, pages.LetterheadSourceID)
	before := len(dom.ElementChildren(source))

	f.p.Letterhead()
	f.settle(t)

	conts := f.stream.OfKind(pages.KindLetterhead)
	if len(conts) != 1 {
		t.Fatalf("letterhead pages = %d, want 1", len(conts))
	}
	moved := len(dom.ElementChildren(conts[0].Slot(pages.RoleLetterhead)))
	if moved != 2 {
		t.Errorf("relocated nodes = %d, want 2", moved)
	}
	if got := len(dom.ElementChildren(source)); got != before-moved {
		t.Errorf("source children = %d, want %d", got, before-moved)
	}
	if dom.ByID(conts[0].Node(), "lh-4") == nil || dom.ByID(conts[0].Node(), "lh-5") == nil {
		t.Error("the last two blocks should move, in order")
	}
	f.assertNoOverlap(t)

	first := f.render(t)
	f.p.Letterhead()
	f.settle(t)
	if second := f.render(t); second != first {
		t.Error("rerun should reproduce the same pages")
	}
}

func TestLetterhead_HidesEmptyFirstPage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, blocks(1, 990), pages.DefaultMaxPages)
	f.p.Letterhead()
	f.settle(t)

	if !f.stream.Base().Hidden() {
		t.Error("empty first page should be hidden")
	}
	if got := f.stream.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}

	f.p.ClearLetterhead()
	if f.stream.Base().Hidden() {
		t.Error("ClearLetterhead() should show the first page again")
	}
	if dom.ByID(dom.ByID(f.root, pages.LetterheadSourceID), "lh-1") == nil {
		t.Error("ClearLetterhead() should move the block back into the source")
	}
}

func TestLetterhead_Cap(t *testing.T) {
	t.Parallel()

	f := newFixture(t, blocks(20, 500), 3)
	f.p.Letterhead()
	f.settle(t)

	if got := f.stream.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
	r := f.p.Report()
	if !r.CapReached {
		t.Error("CapReached = false")
	}
	if got := r.Dropped[pages.KindLetterhead]; got != 17 {
		t.Errorf("dropped = %d, want 17", got)
	}
	held := dom.ByRole(f.root, pages.RoleLetterheadHeld)
	if held == nil || !dom.IsHidden(held) {
		t.Fatal("dropped blocks should be held in a hidden element")
	}

	f.p.ClearLetterhead()
	source := dom.ByID(f.root, pages.LetterheadSourceID)
	children := dom.ElementChildren(source)
	if len(children) != 20 {
		t.Fatalf("source children after clear = %d, want 20", len(children))
	}
	for i, c := range children {
		if id := dom.Attr(c, "id"); id != fmt.Sprintf("lh-%d", i+1) {
			t.Fatalf("child %d is %s, order must be preserved", i, id)
		}
	}
	if dom.ByRole(f.root, pages.RoleLetterheadHeld) != nil {
		t.Error("holding element should be gone")
	}
}

func TestLetterhead_MissingSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `<div data-height="2000"></div>`, pages.DefaultMaxPages)
	f.p.Letterhead()
	f.settle(t)
	if f.stream.Count() != 1 {
		t.Errorf("Count() = %d, want 1", f.stream.Count())
	}
}
