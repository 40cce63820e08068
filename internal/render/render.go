// Package render turns document data into the page markup the paginators
// work on: the base page, detached line item rows, the default payment advice
// and the final standalone HTML document.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/alnah/go-docpager/internal/assets"
	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/pages"
	"golang.org/x/net/html"
)

// Sentinel errors for rendering.
var (
	ErrNilTemplateSet = errors.New("template set is nil")
	ErrTemplateParse  = errors.New("failed to parse template")
	ErrTemplateRender = errors.New("failed to render template")
	ErrNoBasePage     = errors.New("page template has no document-page section")
)

// DefaultLocale groups digits the New Zealand way.
const DefaultLocale = "en-NZ"

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
{{.Body}}
</body>
</html>
`

var documentTpl = template.Must(template.New("document").Parse(documentTemplate))

// Renderer renders one template set with one stylesheet.
type Renderer struct {
	page   *template.Template
	advice *template.Template
	css    string
	money  Money
	sender string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMoney sets the currency formatter.
func WithMoney(m Money) Option {
	return func(r *Renderer) {
		r.money = m
	}
}

// WithDefaultSender sets the header text used when the branch has no name.
func WithDefaultSender(name string) Option {
	return func(r *Renderer) {
		r.sender = name
	}
}

// New parses the templates of set.
func New(set *assets.TemplateSet, css string, opts ...Option) (*Renderer, error) {
	if set == nil {
		return nil, ErrNilTemplateSet
	}
	page, err := template.New(assets.PageTemplate).Parse(set.Page)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, assets.PageTemplate, err)
	}
	advice, err := template.New(assets.AdviceTemplate).Parse(set.Advice)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, assets.AdviceTemplate, err)
	}
	r := &Renderer{
		page:   page,
		advice: advice,
		css:    css,
		money:  NewMoney(DefaultLocale, "$"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// CSS returns the stylesheet documents are rendered with.
func (r *Renderer) CSS() string {
	return r.css
}

// Money returns the currency formatter.
func (r *Renderer) Money() Money {
	return r.money
}

// Header returns the text of the two header cells: the branch name on the
// left, number and date on the right.
func (r *Renderer) Header(v View) (left, right string) {
	left = v.Branch.Name
	if left == "" {
		left = r.sender
	}
	var parts []string
	for _, s := range []string{v.Number, v.Date} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return left, strings.Join(parts, " • ")
}

// Page renders the base page of v as a detached section node.
func (r *Renderer) Page(v View) (*html.Node, error) {
	left, right := r.Header(v)
	data := pageData{
		HeaderLeft:   left,
		HeaderRight:  right,
		Title:        Title(v.Kind),
		Number:       v.Number,
		Date:         v.Date,
		DueDate:      v.DueDate,
		DueLabel:     dueLabel(v.Kind),
		ToHeading:    toHeading(v.Kind),
		IsQuote:      v.Kind == KindQuote,
		IsLetterhead: v.Kind == KindLetterhead,
		HasItems:     v.Kind == KindQuote || v.Kind == KindInvoice,
		Branch:       newParty(v.Branch),
		Client:       newParty(v.Client),
		Totals:       r.totals(v),
		Acceptance: acceptanceData{
			Name:      v.Acceptance.Name,
			Signature: assetURL(v.Acceptance.Signature),
			Date:      v.Acceptance.Date,
		},
		// #nosec G203 -- letterhead body is authored in the editor
		Letterhead: template.HTML(v.LetterheadHTML),
	}

	var buf bytes.Buffer
	if err := r.page.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	nodes, err := dom.ParseFragment(buf.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	for _, n := range nodes {
		if dom.HasClass(n, pages.PageClass) {
			return n, nil
		}
	}
	return nil, ErrNoBasePage
}

// Populate renders v and puts the result in place of the stream's base page,
// or at the front of the stream when it has none. Generated pages are left
// alone: clear them first so no relocated content is lost with the old base.
func (r *Renderer) Populate(s *pages.Stream, v View) error {
	page, err := r.Page(v)
	if err != nil {
		return err
	}
	root := s.Root()
	if base := s.Base(); !base.IsZero() {
		dom.InsertBefore(root, page, base.Node())
		dom.Detach(base.Node())
		return nil
	}
	dom.InsertBefore(root, page, root.FirstChild)
	return nil
}

func (r *Renderer) totals(v View) totalsData {
	t := ComputeTotals(v.Items, v.Discount, v.GSTRate)
	d := totalsData{
		Subtotal: r.money.Format(t.Subtotal),
		GSTRate:  formatRate(t.GSTRate),
		GST:      r.money.Format(t.GST),
		Total:    r.money.Format(t.Total),
	}
	if t.Discount > 0 {
		d.HasDiscount = true
		d.Discount = r.money.Format(t.Discount)
	}
	return d
}

// Rows builds one detached table row per item.
func (r *Renderer) Rows(items []Item) []*html.Node {
	rows := make([]*html.Node, 0, len(items))
	for _, it := range items {
		tr := dom.Element("tr", "class", "border-b border-gray-200")
		cells := []struct{ class, text string }{
			{"py-2 pr-2 whitespace-pre-line", it.Description},
			{"text-right py-2 px-2", formatQuantity(it.Quantity)},
			{"text-right py-2 px-2", r.money.Format(it.UnitPrice)},
			{"text-right py-2 pl-2 font-medium", r.money.Format(it.Amount())},
		}
		for _, c := range cells {
			td := dom.Element("td", "class", c.class)
			if c.text != "" {
				td.AppendChild(dom.Text(c.text))
			}
			tr.AppendChild(td)
		}
		rows = append(rows, tr)
	}
	return rows
}

// Advice renders the default payment advice sentence. It is empty when a has
// no due date.
func (r *Renderer) Advice(a AdviceView) (string, error) {
	var buf bytes.Buffer
	if err := r.advice.Execute(&buf, a); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Notes returns notes ready for the page: HTML passes through, plain text
// is escaped with its line breaks kept.
func Notes(content string) string {
	if strings.Contains(content, "<") {
		return content
	}
	return strings.ReplaceAll(html.EscapeString(content), "\n", "<br>")
}

// Document renders the pages under root as a standalone HTML document with
// the stylesheet inlined.
func (r *Renderer) Document(root *html.Node, title string) (string, error) {
	body, err := dom.Render(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	data := struct {
		Title string
		CSS   template.CSS
		Body  template.HTML
	}{
		Title: title,
		CSS:   template.CSS(r.css), // #nosec G203 -- stylesheet comes from the asset loader
		Body:  template.HTML(body), // #nosec G203 -- serialized page tree
	}
	var buf bytes.Buffer
	if err := documentTpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}
