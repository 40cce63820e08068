package placement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/geometry"
	"github.com/alnah/go-docpager/internal/pages"
	"github.com/alnah/go-docpager/internal/paginate"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/html"
)

const basePage = `<section class="document-page" id="base">` +
	`<div class="page-header" data-height="32"><div></div><div></div></div>` +
	`<div id="items-wrap"><table><tbody id="preview-line-items"></tbody></table></div>` +
	`<div id="totals" data-height="100"></div>` +
	`<div id="acceptance-preview" data-height="120"></div>` +
	`<div id="preview-letterhead-content"></div>` +
	`<div class="page-footer"><span class="page-number"></span> / <span class="page-count"></span></div>` +
	`</section>`

type fixture struct {
	root  *html.Node
	model *geometry.BlockModel
	c     *Coordinator
}

func newFixture(t *testing.T, maxPages int, opts ...Option) *fixture {
	t.Helper()
	root := dom.Element("div", "id", "document-preview")
	if err := dom.SetInnerHTML(root, basePage); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}
	model := geometry.NewBlockModel(root, geometry.DefaultMetrics())
	p := paginate.New(pages.NewStream(root, maxPages), geometry.NewGauge(model))
	return &fixture{root: root, model: model, c: New(p, opts...)}
}

func (f *fixture) stream() *pages.Stream {
	return f.c.Paginator().Stream()
}

func (f *fixture) run(t *testing.T, in Input) *paginate.Report {
	t.Helper()
	r, err := f.c.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return r
}

func (f *fixture) render(t *testing.T) string {
	t.Helper()
	out, err := dom.Render(f.root)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return out
}

func (f *fixture) index(n *html.Node) int {
	page := f.stream().PageOf(n)
	for i, p := range f.stream().All() {
		if p == page {
			return i
		}
	}
	return -1
}

func rows(n int) []*html.Node {
	out := make([]*html.Node, n)
	for i := range out {
		tr := dom.Element("tr", "id", fmt.Sprintf("row-%d", i+1))
		tr.AppendChild(dom.Element("td"))
		out[i] = tr
	}
	return out
}

func notes(n int) string {
	text := strings.Repeat("word ", 40)
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<p id="note-%d">%s</p>`, i, text)
	}
	return b.String()
}

func quote(nRows, nNotes int) Input {
	return Input{
		Mode:        Quote,
		Rows:        rows(nRows),
		NotesHTML:   notes(nNotes),
		HeaderLeft:  "Tomar Contracting",
		HeaderRight: "TC-1001 • 1 March 2025",
		Background:  "assets/backgrounds/1.png",
	}
}

func TestMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode  Mode
		valid bool
		items bool
	}{
		{Quote, true, true},
		{Invoice, true, true},
		{Letterhead, true, false},
		{Mode("memo"), false, false},
	}
	for _, tt := range tests {
		if tt.mode.Valid() != tt.valid || tt.mode.HasItems() != tt.items {
			t.Errorf("%q: Valid() = %v, HasItems() = %v", tt.mode, tt.mode.Valid(), tt.mode.HasItems())
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   func() Input
	}{
		{name: "quote", in: func() Input { return quote(40, 60) }},
		{name: "quote at cap", in: func() Input { return quote(300, 200) }},
		{name: "invoice", in: func() Input {
			in := quote(75, 0)
			in.Mode = Invoice
			in.AdviceHTML = notes(50)
			return in
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, pages.DefaultMaxPages)
			f.run(t, tt.in())
			first := f.render(t)
			f.run(t, tt.in())
			if second := f.render(t); second != first {
				t.Error("second pass changed the page stream")
			}
		})
	}
}

func TestRun_CapEnforced(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{Quote, Invoice} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, pages.DefaultMaxPages)
			in := quote(500, 300)
			in.Mode = mode
			in.AdviceHTML = notes(300)
			r := f.run(t, in)

			if got := f.stream().Count(); got > pages.DefaultMaxPages {
				t.Errorf("Count() = %d, want <= %d", got, pages.DefaultMaxPages)
			}
			if !r.CapReached || !r.Truncated() {
				t.Errorf("report should flag the truncation: %+v", r)
			}
		})
	}
}

func TestRun_QuoteAnchoring(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pages.DefaultMaxPages)
	f.run(t, quote(40, 60))

	accept := dom.ByID(f.root, pages.AcceptanceID)
	at := f.index(accept)
	for _, p := range f.stream().OfKind(pages.KindItems) {
		if f.index(p.Node()) > at {
			t.Error("acceptance block must follow every items page")
		}
	}
	if got := dom.Style(accept, "margin-top"); got != "96px" {
		t.Errorf("margin-top = %q, want 96px", got)
	}
	render := dom.ByRole(f.root, pages.RoleNotesRender)
	if render == nil || f.index(render) != at {
		t.Fatal("notes render should share the acceptance page")
	}
	if dom.ByRole(f.root, pages.RoleAdviceRender) != nil {
		t.Error("advice only renders in invoice mode")
	}
}

func TestRun_SignaturePromotion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		maxPages   int
		rows       int
		wantPage   bool
		wantMargin string
	}{
		{name: "fits on base page", maxPages: 10, rows: 12, wantPage: false, wantMargin: "96px"},
		{name: "full items page promotes", maxPages: 10, rows: 34, wantPage: true, wantMargin: "96px"},
		{name: "cap collapses spacing", maxPages: 2, rows: 34, wantPage: false, wantMargin: "24px"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, tt.maxPages)
			f.run(t, quote(tt.rows, 0))

			accept := dom.ByID(f.root, pages.AcceptanceID)
			sig := f.stream().LastOfKind(pages.KindSignature)
			if sig.IsZero() == tt.wantPage {
				t.Fatalf("signature page present = %v, want %v", !sig.IsZero(), tt.wantPage)
			}
			if tt.wantPage && !sig.Contains(accept) {
				t.Error("acceptance should sit on the signature page")
			}
			if got := dom.Style(accept, "margin-top"); got != tt.wantMargin {
				t.Errorf("margin-top = %q, want %q", got, tt.wantMargin)
			}
		})
	}
}

func TestRun_Invoice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pages.DefaultMaxPages)
	in := quote(40, 20)
	in.Mode = Invoice
	in.AdviceHTML = `<p id="advice">Due on 1 March 2025.</p>`
	f.run(t, in)

	if dom.ByRole(f.root, pages.RoleNotesRender) != nil {
		t.Error("notes are quote-only")
	}
	advice := dom.ByID(f.root, "advice")
	if advice == nil {
		t.Fatal("advice missing")
	}
	last := f.stream().LastOfKind(pages.KindItems)
	if f.index(advice) < f.index(last.Node()) {
		t.Error("advice must follow the items")
	}
	accept := dom.ByID(f.root, pages.AcceptanceID)
	if dom.Style(accept, "margin-top") != "" {
		t.Error("acceptance spacing only applies in quote mode")
	}
	if len(f.stream().OfKind(pages.KindSignature)) != 0 {
		t.Error("no signature page outside quote mode")
	}
}

func TestRun_Letterhead(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pages.DefaultMaxPages)
	f.run(t, quote(60, 80))

	source := dom.ByID(f.root, pages.LetterheadSourceID)
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString(`<div data-height="320"></div>`)
	}
	if err := dom.SetInnerHTML(source, b.String()); err != nil {
		t.Fatal(err)
	}
	f.run(t, Input{Mode: Letterhead, NotesHTML: notes(10), AdviceHTML: "<p>x</p>"})

	s := f.stream()
	for _, kind := range []pages.Kind{pages.KindItems, pages.KindNotes, pages.KindAdvice, pages.KindSignature} {
		if got := len(s.OfKind(kind)); got != 0 {
			t.Errorf("%s pages = %d, want 0", kind, got)
		}
	}
	if dom.ByRole(f.root, pages.RoleNotesRender) != nil {
		t.Error("notes render left behind")
	}
	if got := len(s.OfKind(pages.KindLetterhead)); got != 1 {
		t.Errorf("letterhead pages = %d, want 1", got)
	}
	if body := dom.ByID(f.root, pages.ItemsBodyID); body.FirstChild != nil {
		t.Error("item rows left on the base page in letterhead mode")
	}

	// the same input on a fresh preview gives the same pages
	fresh := newFixture(t, pages.DefaultMaxPages)
	if err := dom.SetInnerHTML(dom.ByID(fresh.root, pages.LetterheadSourceID), b.String()); err != nil {
		t.Fatal(err)
	}
	fresh.run(t, Input{Mode: Letterhead, NotesHTML: notes(10), AdviceHTML: "<p>x</p>"})
	if got, want := len(s.OfKind(pages.KindLetterhead)), len(fresh.stream().OfKind(pages.KindLetterhead)); got != want {
		t.Errorf("letterhead pages = %d after a quote pass, %d on a fresh preview", got, want)
	}
}

func TestRun_EmptyNotes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pages.DefaultMaxPages)
	f.run(t, quote(5, 80))
	f.run(t, quote(5, 0))

	if dom.ByRole(f.root, pages.RoleNotesRender) != nil {
		t.Error("notes render should be gone")
	}
	if got := len(f.stream().OfKind(pages.KindNotes)); got != 0 {
		t.Errorf("notes pages = %d, want 0", got)
	}
}

func TestRun_PagesRefreshed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pages.DefaultMaxPages)
	f.run(t, quote(40, 0))

	visible := f.stream().Visible()
	for i, p := range visible {
		number := dom.TextContent(dom.ByClass(p.Node(), pages.NumberClass))
		count := dom.TextContent(dom.ByClass(p.Node(), pages.CountClass))
		if number != fmt.Sprint(i+1) || count != fmt.Sprint(len(visible)) {
			t.Errorf("page %d footer = %s / %s", i+1, number, count)
		}
		cells := dom.ElementChildren(p.Header())
		if dom.TextContent(cells[0]) != "Tomar Contracting" {
			t.Errorf("page %d header = %q", i+1, dom.TextContent(cells[0]))
		}
		if !strings.Contains(dom.Style(p.Node(), "background-image"), "assets/backgrounds/1.png") {
			t.Errorf("page %d background missing", i+1)
		}
	}
}

type fakeViewport struct {
	top  float64
	sets []float64
}

func (v *fakeViewport) ScrollTop() float64 { return v.top }

func (v *fakeViewport) SetScrollTop(top float64) {
	v.top = top
	v.sets = append(v.sets, top)
}

func TestRun_RestoresScroll(t *testing.T) {
	t.Parallel()

	vp := &fakeViewport{top: 640}
	f := newFixture(t, pages.DefaultMaxPages, WithViewport(vp))
	f.run(t, quote(40, 60))

	if len(vp.sets) != 1 || vp.sets[0] != 640 {
		t.Errorf("scroll restored to %v, want [640]", vp.sets)
	}
}

// failingProvider fails every Settle.
type failingProvider struct {
	*geometry.BlockModel
}

var errLayout = errors.New("layout failed")

func (failingProvider) Settle(context.Context) error { return errLayout }

func TestRun_ProviderError(t *testing.T) {
	t.Parallel()

	root := dom.Element("div")
	if err := dom.SetInnerHTML(root, basePage); err != nil {
		t.Fatal(err)
	}
	provider := failingProvider{geometry.NewBlockModel(root, geometry.DefaultMetrics())}
	c := New(paginate.New(pages.NewStream(root, 0), geometry.NewGauge(provider)))

	_, err := c.Run(context.Background(), quote(5, 0))
	if !errors.Is(err, errLayout) {
		t.Errorf("Run() error = %v, want errLayout", err)
	}
}

func TestRunStep(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pages.DefaultMaxPages)
	f.run(t, quote(5, 0))

	in := quote(0, 60)
	if _, err := f.c.RunStep(context.Background(), StepNotes, in); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}
	conts := f.stream().OfKind(pages.KindNotes)
	if len(conts) == 0 {
		t.Fatal("expected notes pages")
	}
	last := conts[len(conts)-1]
	if got := dom.TextContent(dom.ByClass(last.Node(), pages.CountClass)); got != fmt.Sprint(f.stream().Count()) {
		t.Errorf("page count = %s, want %d", got, f.stream().Count())
	}

	if _, err := f.c.RunStep(context.Background(), Step("bogus"), in); err == nil {
		t.Error("RunStep() with unknown step should fail")
	}
}

func TestRun_Logs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	f := newFixture(t, pages.DefaultMaxPages, WithLogger(zap.New(core)))
	f.run(t, quote(5, 0))

	if got := logs.FilterMessage("step done").Len(); got != len(Sequence) {
		t.Errorf("step logs = %d, want %d", got, len(Sequence))
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pages.DefaultMaxPages)
	f.run(t, quote(100, 80))
	f.c.Reset()

	if got := f.stream().Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
	accept := dom.ByID(f.root, pages.AcceptanceID)
	if f.stream().PageOf(accept) != f.stream().Base() {
		t.Error("acceptance should be back on the base page")
	}
	if dom.ByRole(f.root, pages.RoleNotesRender) != nil {
		t.Error("notes render left behind")
	}
}
