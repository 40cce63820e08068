package render

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/alnah/go-docpager/internal/assets"
	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/pages"
	"golang.org/x/net/html"
)

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	set, err := assets.LoadTemplateSet(assets.DefaultTemplateSetName)
	if err != nil {
		t.Fatalf("LoadTemplateSet() error = %v", err)
	}
	css, err := assets.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		t.Fatalf("LoadStyle() error = %v", err)
	}
	r, err := New(set, css, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func sampleView(kind string) View {
	return View{
		Kind:    kind,
		Number:  "TC-1001",
		Date:    "3 March 2025",
		DueDate: "31 March 2025",
		Branch: Party{
			Name:    "Tomar Contracting - Hamilton",
			Address: "12 Example Road\n\nHamilton 3200",
			Logo:    "Assets/Assets/logo.png",
		},
		Client: Party{Name: "Jane Client", Address: "1 Main St"},
		Items: []Item{
			{Description: "Labour", Quantity: 10, UnitPrice: 85},
			{Description: "Materials", Quantity: 1, UnitPrice: 1200.5},
		},
		GSTRate:        15,
		Acceptance:     Acceptance{Name: "Jane Client"},
		LetterheadHTML: "<p>Dear Jane,</p><p>Thanks.</p>",
	}
}

// ---- TestNew - template parsing ----

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, ""); !errors.Is(err, ErrNilTemplateSet) {
		t.Errorf("New(nil) error = %v, want ErrNilTemplateSet", err)
	}
	_, err := New(&assets.TemplateSet{Page: "{{.Broken", Advice: ""}, "")
	if !errors.Is(err, ErrTemplateParse) {
		t.Errorf("New() error = %v, want ErrTemplateParse", err)
	}
}

// ---- TestComputeTotals - subtotal, discount, GST ----

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	items := []Item{{Quantity: 2, UnitPrice: 50}, {Quantity: 1, UnitPrice: 100}}
	tests := []struct {
		name     string
		items    []Item
		discount float64
		rate     float64
		want     Totals
	}{
		{
			name:  "no discount",
			items: items,
			rate:  15,
			want:  Totals{Subtotal: 200, Taxable: 200, GSTRate: 15, GST: 30, Total: 230},
		},
		{
			name:     "discount applied",
			items:    items,
			discount: 50,
			rate:     15,
			want:     Totals{Subtotal: 200, Discount: 50, Taxable: 150, GSTRate: 15, GST: 22.5, Total: 172.5},
		},
		{
			name:     "negative discount ignored",
			items:    items,
			discount: -10,
			want:     Totals{Subtotal: 200, Taxable: 200, Total: 200},
		},
		{
			name:     "NaN discount ignored",
			items:    items,
			discount: math.NaN(),
			want:     Totals{Subtotal: 200, Taxable: 200, Total: 200},
		},
		{
			name:     "taxable clamped at zero",
			items:    items,
			discount: 500,
			rate:     15,
			want:     Totals{Subtotal: 200, Discount: 500, GSTRate: 15},
		},
		{
			name:  "non-finite item values count as zero",
			items: []Item{{Quantity: math.Inf(1), UnitPrice: 10}, {Quantity: 3, UnitPrice: 10}},
			want:  Totals{Subtotal: 30, Taxable: 30, Total: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ComputeTotals(tt.items, tt.discount, tt.rate); got != tt.want {
				t.Errorf("ComputeTotals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---- TestMoney_Format - grouping and sign ----

func TestMoney_Format(t *testing.T) {
	t.Parallel()

	m := NewMoney("en-NZ", "$")
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "$0.00"},
		{in: 1234.5, want: "$1,234.50"},
		{in: 1000000, want: "$1,000,000.00"},
		{in: -5, want: "-$5.00"},
		{in: math.NaN(), want: "$0.00"},
	}
	for _, tt := range tests {
		if got := m.Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := NewMoney("not a locale!", "$").Format(1234); got != "$1,234.00" {
		t.Errorf("fallback locale Format() = %q", got)
	}
}

func TestFormatQuantityAndRate(t *testing.T) {
	t.Parallel()

	if got := formatQuantity(0); got != "" {
		t.Errorf("formatQuantity(0) = %q, want empty", got)
	}
	if got := formatQuantity(2.5); got != "2.5" {
		t.Errorf("formatQuantity(2.5) = %q", got)
	}
	if got := formatRate(15); got != "15" {
		t.Errorf("formatRate(15) = %q", got)
	}
	if got := formatRate(7.125); got != "7.13" {
		t.Errorf("formatRate(7.125) = %q", got)
	}
}

// ---- TestMigrateAssetPath - legacy asset values ----

func TestMigrateAssetPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                           "",
		"Assets/Assets/bg.png":       "Assets/bg.png",
		"Assets/Image 1 .png":        "Assets/1.png",
		"Assets/Assets/Image 1 .png": "Assets/1.png",
		"Assets/2.png":               "Assets/2.png",
		"https://cdn.example/x.png":  "https://cdn.example/x.png",
	}
	for in, want := range tests {
		if got := MigrateAssetPath(in); got != want {
			t.Errorf("MigrateAssetPath(%q) = %q, want %q", in, got, want)
		}
	}
}

// ---- TestNotes - plain text and HTML ----

func TestNotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{in: "<p>Keep</p>", want: "<p>Keep</p>"},
		{in: "line one\nline two", want: "line one<br>line two"},
		{in: "R&D", want: "R&amp;D"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := Notes(tt.in); got != tt.want {
			t.Errorf("Notes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ---- TestRenderer_Page - mode visibility ----

func TestRenderer_Page(t *testing.T) {
	t.Parallel()

	r := newRenderer(t)
	tests := []struct {
		kind       string
		visible    []string
		hidden     []string
		contains   []string
		notContain []string
	}{
		{
			kind:     KindQuote,
			visible:  []string{"items-table", "totals-preview", "acceptance-preview"},
			hidden:   []string{"preview-letterhead-content", "preview-discount-row"},
			contains: []string{"QUOTE TO", "Validity Date:", ">Quote<"},
		},
		{
			kind:     KindInvoice,
			visible:  []string{"items-table", "totals-preview"},
			hidden:   []string{"acceptance-preview", "preview-letterhead-content"},
			contains: []string{"BILL TO", "Due Date:", ">Invoice<"},
		},
		{
			kind:       KindLetterhead,
			visible:    []string{"preview-letterhead-content"},
			hidden:     []string{"items-table", "totals-preview", "acceptance-preview"},
			contains:   []string{"<p>Dear Jane,</p>", "preview-letter-to"},
			notContain: []string{"Validity Date:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			t.Parallel()

			page, err := r.Page(sampleView(tt.kind))
			if err != nil {
				t.Fatalf("Page() error = %v", err)
			}
			if !dom.HasClass(page, pages.PageClass) {
				t.Fatal("page lacks document-page class")
			}
			for _, id := range tt.visible {
				n := dom.ByID(page, id)
				if n == nil || dom.IsHidden(n) {
					t.Errorf("#%s should be visible", id)
				}
			}
			for _, id := range tt.hidden {
				n := dom.ByID(page, id)
				if n == nil || !dom.IsHidden(n) {
					t.Errorf("#%s should be present and hidden", id)
				}
			}
			out, _ := dom.Render(page)
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("page should contain %q", s)
				}
			}
			for _, s := range tt.notContain {
				if strings.Contains(out, s) {
					t.Errorf("page should not contain %q", s)
				}
			}
		})
	}
}

func TestRenderer_Page_Fields(t *testing.T) {
	t.Parallel()

	r := newRenderer(t)
	v := sampleView(KindQuote)
	v.Discount = 50.5
	v.Acceptance.Signature = "data:image/png;base64,AAAA"

	page, err := r.Page(v)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}

	text := func(id string) string {
		n := dom.ByID(page, id)
		if n == nil {
			t.Fatalf("#%s missing", id)
		}
		return dom.TextContent(n)
	}
	if got := text("preview-subtotal"); got != "$2,050.50" {
		t.Errorf("subtotal = %q", got)
	}
	if got := text("preview-discount"); got != "$50.50" {
		t.Errorf("discount = %q", got)
	}
	if dom.IsHidden(dom.ByID(page, "preview-discount-row")) {
		t.Error("discount row hidden with a discount set")
	}
	if got := text("preview-gst-rate"); got != "15" {
		t.Errorf("gst rate = %q", got)
	}
	if got := text("preview-grand-total"); got != "$2,300.00" {
		t.Errorf("total = %q", got)
	}
	if got := dom.Attr(dom.ByID(page, "preview-logo"), "src"); got != "Assets/logo.png" {
		t.Errorf("logo src = %q, want migrated path", got)
	}
	if got := dom.Attr(dom.ByID(page, "preview-accept-signature"), "src"); !strings.HasPrefix(got, "data:image/png") {
		t.Errorf("signature src = %q, want data URL kept", got)
	}
	if n := dom.ByID(page, "preview-branch-address"); len(dom.ElementChildren(n)) != 2 {
		t.Errorf("address lines = %d, want 2", len(dom.ElementChildren(n)))
	}
}

// ---- TestRenderer_Header - header cells ----

func TestRenderer_Header(t *testing.T) {
	t.Parallel()

	r := newRenderer(t, WithDefaultSender("Tomar Contracting"))

	left, right := r.Header(sampleView(KindQuote))
	if left != "Tomar Contracting - Hamilton" || right != "TC-1001 • 3 March 2025" {
		t.Errorf("Header() = %q, %q", left, right)
	}

	v := sampleView(KindLetterhead)
	v.Branch.Name, v.Number = "", ""
	left, right = r.Header(v)
	if left != "Tomar Contracting" || right != "3 March 2025" {
		t.Errorf("Header() = %q, %q", left, right)
	}
}

// ---- TestRenderer_Populate - base page replacement ----

func TestRenderer_Populate(t *testing.T) {
	t.Parallel()

	r := newRenderer(t)

	t.Run("replaces base page", func(t *testing.T) {
		t.Parallel()

		root := dom.Element("div", "id", "document-preview")
		old := dom.Element("section", "class", pages.PageClass, "id", "old")
		root.AppendChild(old)
		s := pages.NewStream(root, 0)

		if err := r.Populate(s, sampleView(KindInvoice)); err != nil {
			t.Fatalf("Populate() error = %v", err)
		}
		if old.Parent != nil {
			t.Error("old base page still attached")
		}
		if got := dom.Attr(s.Base().Node(), "id"); got != "base-page" {
			t.Errorf("base id = %q, want base-page", got)
		}
		if len(s.All()) != 1 {
			t.Errorf("pages = %d, want 1", len(s.All()))
		}
	})

	t.Run("empty stream", func(t *testing.T) {
		t.Parallel()

		root := dom.Element("div")
		s := pages.NewStream(root, 0)
		if err := r.Populate(s, sampleView(KindQuote)); err != nil {
			t.Fatalf("Populate() error = %v", err)
		}
		if s.Base().IsZero() || s.Count() != 1 {
			t.Errorf("Count() = %d, want a base page", s.Count())
		}
		if dom.ByID(root, pages.ItemsBodyID) == nil || dom.ByID(root, pages.AcceptanceID) == nil {
			t.Error("base page lacks paginator anchors")
		}
	})
}

// ---- TestRenderer_Rows - detached rows ----

func TestRenderer_Rows(t *testing.T) {
	t.Parallel()

	r := newRenderer(t)
	rows := r.Rows([]Item{
		{Description: "Labour <site>", Quantity: 2, UnitPrice: 1500},
		{Description: "Callout", Quantity: 0, UnitPrice: 90},
	})
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Parent != nil {
			t.Error("row should be detached")
		}
		if cells := dom.ElementChildren(row); len(cells) != 4 {
			t.Errorf("cells = %d, want 4", len(cells))
		}
	}

	cells := dom.ElementChildren(rows[0])
	want := []string{"Labour <site>", "2", "$1,500.00", "$3,000.00"}
	for i, c := range cells {
		if got := dom.TextContent(c); got != want[i] {
			t.Errorf("cell %d = %q, want %q", i, got, want[i])
		}
	}
	if got := dom.TextContent(dom.ElementChildren(rows[1])[1]); got != "" {
		t.Errorf("zero quantity cell = %q, want empty", got)
	}

	out, _ := dom.Render(rows[0])
	if !strings.Contains(out, "Labour &lt;site&gt;") {
		t.Errorf("description not escaped: %s", out)
	}
}

// ---- TestRenderer_Advice - default sentence ----

func TestRenderer_Advice(t *testing.T) {
	t.Parallel()

	r := newRenderer(t)

	got, err := r.Advice(AdviceView{DueDate: "31 March 2025", Payee: "Tomar Contracting Limited", Account: "38-9024-0318399-00"})
	if err != nil {
		t.Fatalf("Advice() error = %v", err)
	}
	for _, s := range []string{"Payment Advice:", "<strong>31 March 2025</strong>", "Tomar Contracting Limited", "38-9024-0318399-00"} {
		if !strings.Contains(got, s) {
			t.Errorf("advice %q should contain %q", got, s)
		}
	}

	got, err = r.Advice(AdviceView{Payee: "Tomar Contracting Limited"})
	if err != nil || got != "" {
		t.Errorf("Advice() without due date = %q, %v; want empty", got, err)
	}

	got, _ = r.Advice(AdviceView{DueDate: "1 May 2025", Payee: "Tomar"})
	if strings.Contains(got, "Account No") {
		t.Errorf("advice without account = %q", got)
	}
}

// ---- TestRenderer_Document - standalone output ----

func TestRenderer_Document(t *testing.T) {
	t.Parallel()

	r := newRenderer(t)
	root := dom.Element("div", "id", "document-preview")
	s := pages.NewStream(root, 0)
	if err := r.Populate(s, sampleView(KindQuote)); err != nil {
		t.Fatal(err)
	}

	out, err := r.Document(root, "Quote TC-1001")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	for _, s := range []string{"<!DOCTYPE html>", "<title>Quote TC-1001</title>", `id="document-preview"`, "page-footer"} {
		if !strings.Contains(out, s) {
			t.Errorf("document should contain %q", s)
		}
	}
	if r.CSS() != "" && !strings.Contains(out, ".document-page") {
		t.Error("stylesheet not inlined")
	}

	if _, err := html.Parse(strings.NewReader(out)); err != nil {
		t.Errorf("document does not parse: %v", err)
	}
}
