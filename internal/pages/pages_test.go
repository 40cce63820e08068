package pages

import (
	"testing"

	"github.com/alnah/go-docpager/internal/dom"
	"golang.org/x/net/html"
)

func newRoot(t *testing.T) (*html.Node, Page) {
	t.Helper()
	root := dom.Element("div", "id", "document-preview")
	err := dom.SetInnerHTML(root, `<section class="document-page" id="base">`+
		`<div class="page-header"><div></div><div></div></div>`+
		`<div data-role="items-content"><p id="para">hello</p></div>`+
		`<div class="page-footer"><span class="page-number"></span> / <span class="page-count"></span></div>`+
		`</section>`)
	if err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}
	return root, Wrap(dom.ByID(root, "base"))
}

func TestKind_Tag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		tag  string
	}{
		{KindBase, ""},
		{KindItems, "items-page"},
		{KindLetterhead, "letterhead-page"},
		{KindNotes, "notes-page-cont"},
		{KindAdvice, "advice-page-cont"},
		{KindSignature, "signature-page"},
		{KindOverflow, "quote-page-cont"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			if got := tt.kind.Tag(); got != tt.tag {
				t.Errorf("Tag() = %q, want %q", got, tt.tag)
			}
			if got := KindOfTag(tt.tag); got != tt.kind {
				t.Errorf("KindOfTag(%q) = %q, want %q", tt.tag, got, tt.kind)
			}
		})
	}
}

func TestFactory_NewContinuation(t *testing.T) {
	t.Parallel()

	p := NewFactory().NewContinuation(KindNotes, RoleNotes)

	if p.Node().Parent != nil {
		t.Error("NewContinuation() page should be detached")
	}
	if !dom.HasClass(p.Node(), PageClass) {
		t.Errorf("page class = %q, want %q", dom.Attr(p.Node(), "class"), PageClass)
	}
	if p.Kind() != KindNotes || !p.Generated() {
		t.Errorf("Kind() = %q, Generated() = %v", p.Kind(), p.Generated())
	}
	if p.Slot(RoleNotes) == nil {
		t.Error("content slot missing")
	}
	header := p.Header()
	if header == nil || len(dom.ElementChildren(header)) != 2 {
		t.Fatal("header should have two cells")
	}
	if dom.Attr(header, "data-height") != "32" {
		t.Errorf("header height = %q, want 32", dom.Attr(header, "data-height"))
	}
	footer := p.Footer()
	if footer == nil || dom.ByClass(footer, NumberClass) == nil || dom.ByClass(footer, CountClass) == nil {
		t.Error("footer placeholders missing")
	}
}

func TestStream_Cap(t *testing.T) {
	t.Parallel()

	root, base := newRoot(t)
	s := NewStream(root, 3)
	f := NewFactory()

	if s.Base() != base {
		t.Fatal("Base() should return the template page")
	}
	for i := 0; i < 5; i++ {
		s.Append(f.NewContinuation(KindItems, RoleItems))
	}
	if got := s.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
	if s.HasRoom() {
		t.Error("HasRoom() = true at cap")
	}

	// hidden pages free a slot
	base.SetHidden(true)
	if !s.HasRoom() {
		t.Error("HasRoom() = false after hiding a page")
	}
	if !s.Append(f.NewContinuation(KindItems, RoleItems)) {
		t.Error("Append() refused a page below the cap")
	}
	if got := len(s.All()); got != 4 {
		t.Errorf("len(All()) = %d, want 4", got)
	}
}

func TestStream_InsertAndRemove(t *testing.T) {
	t.Parallel()

	root, base := newRoot(t)
	s := NewStream(root, 0)
	f := NewFactory()

	if s.Max() != DefaultMaxPages {
		t.Errorf("Max() = %d, want %d", s.Max(), DefaultMaxPages)
	}

	notes := f.NewContinuation(KindNotes, RoleNotes)
	s.Append(notes)
	items := f.NewContinuation(KindItems, RoleItems)
	s.InsertAfter(base, items)

	all := s.All()
	if len(all) != 3 || all[0] != base || all[1] != items || all[2] != notes {
		t.Fatalf("order = %v, want base, items, notes", all)
	}
	if s.LastOfKind(KindItems) != items {
		t.Error("LastOfKind(items) mismatch")
	}
	if !s.LastOfKind(KindAdvice).IsZero() {
		t.Error("LastOfKind(advice) should be zero")
	}
	if s.PageOf(dom.ByID(root, "para")) != base {
		t.Error("PageOf() should find the base page")
	}
	if !s.PageOf(dom.Element("p")).IsZero() {
		t.Error("PageOf() detached node should be zero")
	}
	if s.LastVisible() != notes {
		t.Error("LastVisible() should be the notes page")
	}

	if got := s.RemoveAllOfKind(KindItems); got != 1 {
		t.Errorf("RemoveAllOfKind() = %d, want 1", got)
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2", s.Count())
	}
}

func TestPage_ContentElements(t *testing.T) {
	t.Parallel()

	_, base := newRoot(t)
	extra := dom.Element("div", "id", "extra")
	base.InsertBeforeFooter(extra)
	dom.Append(base.Node(), dom.Element("template"))

	got := base.ContentElements()
	if len(got) != 2 || got[1] != extra {
		t.Errorf("ContentElements() = %d nodes, want slot then extra", len(got))
	}
	children := dom.ElementChildren(base.Node())
	if !dom.HasClass(children[len(children)-2], FooterClass) {
		t.Error("footer should follow inserted content")
	}
}

func TestStream_Renumber(t *testing.T) {
	t.Parallel()

	root, base := newRoot(t)
	s := NewStream(root, 0)
	f := NewFactory()
	second := f.NewContinuation(KindItems, RoleItems)
	third := f.NewContinuation(KindItems, RoleItems)
	s.Append(second)
	s.Append(third)

	second.SetHidden(true)
	s.Renumber()

	tests := []struct {
		name   string
		page   Page
		number string
		count  string
	}{
		{"base", base, "1", "2"},
		{"hidden", second, "", ""},
		{"last", third, "2", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			number := dom.TextContent(dom.ByClass(tt.page.Node(), NumberClass))
			count := dom.TextContent(dom.ByClass(tt.page.Node(), CountClass))
			if number != tt.number || count != tt.count {
				t.Errorf("footer = %q / %q, want %q / %q", number, count, tt.number, tt.count)
			}
		})
	}
}

func TestStream_HeadersAndBackground(t *testing.T) {
	t.Parallel()

	root, base := newRoot(t)
	s := NewStream(root, 0)
	cont := NewFactory().NewContinuation(KindNotes, RoleNotes)
	s.Append(cont)

	s.ApplyHeaders("Branch", "TC-1 • 1 March 2025")
	s.ApplyBackground("assets/bg.png")

	for _, p := range []Page{base, cont} {
		cells := dom.ElementChildren(p.Header())
		if dom.TextContent(cells[0]) != "Branch" || dom.TextContent(cells[1]) != "TC-1 • 1 March 2025" {
			t.Errorf("header = %q | %q", dom.TextContent(cells[0]), dom.TextContent(cells[1]))
		}
		if got := dom.Style(p.Node(), "background-image"); got != `url("assets/bg.png")` {
			t.Errorf("background-image = %q", got)
		}
	}

	s.ApplyBackground("")
	if dom.HasAttr(base.Node(), "style") {
		t.Error("empty background should drop the style attribute")
	}
}
