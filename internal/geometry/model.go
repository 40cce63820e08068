package geometry

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-docpager/internal/dom"
	"golang.org/x/net/html"
)

// PageClass marks a page container inside the preview root.
const PageClass = "document-page"

// Metrics drives the synthetic layout. Lengths are CSS pixels.
type Metrics struct {
	PageHeight   float64 // full page box, padding included
	PagePadding  float64 // top and bottom padding of a page
	PageGap      float64 // vertical space between stacked pages
	FooterHeight float64
	LineHeight   float64
	CharsPerLine int     // characters that fit on one text line
	RowHeight    float64 // one table row
	BlockGap     float64 // bottom margin of paragraphs, headings and lists
	ImageHeight  float64 // images without data-height
}

// DefaultMetrics approximates an A4 page at 96 DPI with small body text.
func DefaultMetrics() Metrics {
	return Metrics{
		PageHeight:   1123,
		PagePadding:  48,
		PageGap:      24,
		FooterHeight: 24,
		LineHeight:   20,
		CharsPerLine: 95,
		RowHeight:    36,
		BlockGap:     8,
		ImageHeight:  60,
	}
}

// ContentHeight is the vertical room between the top padding and the footer.
func (m Metrics) ContentHeight() float64 {
	return m.PageHeight - 2*m.PagePadding - m.FooterHeight
}

// BlockModel is a Provider that lays pages out as vertical stacks of blocks.
// Every block starts below the previous one; inline content becomes lines of
// CharsPerLine characters; an element with a data-height attribute takes
// exactly that height. The footer sits at the bottom of its page no matter how
// much content precedes it, so overflow shows up as content crossing it.
//
// Layout is recomputed on every Measure, so measurements always reflect the
// current tree, the same way a forced reflow does in a browser.
type BlockModel struct {
	Frames

	root    *html.Node
	metrics Metrics
	scroll  float64
}

// NewBlockModel creates a model over the preview root holding the pages.
func NewBlockModel(root *html.Node, m Metrics) *BlockModel {
	return &BlockModel{root: root, metrics: m}
}

// Metrics returns the layout constants in use.
func (b *BlockModel) Metrics() Metrics {
	return b.metrics
}

// Measure lays the tree out and returns the box of n.
func (b *BlockModel) Measure(n *html.Node) (Rect, bool) {
	if n == nil || n.Type != html.ElementNode || !dom.Contains(b.root, n) {
		return Rect{}, false
	}
	rects := b.layout()
	r, ok := rects[n]
	return r, ok
}

// Settle drains deferred callbacks. The model needs no work between frames.
func (b *BlockModel) Settle(ctx context.Context) error {
	return b.Frames.Drain(ctx, nil)
}

// ScrollTop implements Viewport.
func (b *BlockModel) ScrollTop() float64 {
	return b.scroll
}

// SetScrollTop implements Viewport.
func (b *BlockModel) SetScrollTop(top float64) {
	b.scroll = math.Max(0, top)
}

// layout computes boxes for every visible element under the root.
func (b *BlockModel) layout() map[*html.Node]Rect {
	l := &modelLayout{m: b.metrics, rects: make(map[*html.Node]Rect)}
	y := 0.0
	for _, page := range dom.ElementChildren(b.root) {
		if !dom.HasClass(page, PageClass) || dom.IsHidden(page) {
			continue
		}
		l.page(page, y)
		y += b.metrics.PageHeight + b.metrics.PageGap
	}
	return l.rects
}

type modelLayout struct {
	m     Metrics
	rects map[*html.Node]Rect
}

func (l *modelLayout) page(page *html.Node, top float64) {
	l.rects[page] = Rect{Top: top, Bottom: top + l.m.PageHeight, Height: l.m.PageHeight}
	cursor := top + l.m.PagePadding
	var footer *html.Node
	for _, c := range dom.ElementChildren(page) {
		if footer == nil && dom.HasClass(c, FooterClass) {
			footer = c
			continue
		}
		cursor = l.block(c, cursor)
	}
	if footer != nil {
		ft := top + l.m.PageHeight - l.m.PagePadding - l.m.FooterHeight
		l.rects[footer] = Rect{Top: ft, Bottom: ft + l.m.FooterHeight, Height: l.m.FooterHeight}
		l.inline(footer, ft)
	}
}

// block places n at cursor and returns the cursor below it.
func (l *modelLayout) block(n *html.Node, cursor float64) float64 {
	if n.Type != html.ElementNode || dom.IsHidden(n) || skipped(n) {
		return cursor
	}
	top := cursor + px(dom.Style(n, "margin-top"))
	var height float64
	if h, ok := fixedHeight(n); ok {
		l.content(n, top)
		height = h
	} else if dom.IsElement(n, "tr") {
		l.inline(n, top)
		height = l.m.RowHeight
	} else if dom.IsElement(n, "img") {
		height = l.m.ImageHeight
	} else {
		height = l.content(n, top)
	}
	l.rects[n] = Rect{Top: top, Bottom: top + height, Height: height}
	bottom := top + height + px(dom.Style(n, "margin-bottom"))
	if gapAfter(n) {
		bottom += l.m.BlockGap
	}
	return bottom
}

// content lays out the children of n from top and returns their height.
func (l *modelLayout) content(n *html.Node, top float64) float64 {
	cursor := top
	lines := 0
	runes := 0
	lineStart := cursor
	flush := func() {
		if runes > 0 {
			lines += l.linesFor(runes)
			runes = 0
		}
		cursor = lineStart + float64(lines)*l.m.LineHeight
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			runes += textRunes(c.Data)
		case c.Type != html.ElementNode || dom.IsHidden(c) || skipped(c):
		case dom.IsElement(c, "br"):
			lines += max(1, l.linesFor(runes))
			runes = 0
		case isInline(c):
			lineTop := lineStart + float64(lines)*l.m.LineHeight
			l.rects[c] = Rect{Top: lineTop, Bottom: lineTop + l.m.LineHeight, Height: l.m.LineHeight}
			runes += textRunes(dom.TextContent(c))
		default:
			flush()
			cursor = l.block(c, cursor)
			lineStart = cursor
			lines = 0
		}
	}
	flush()
	return cursor - top
}

// inline records boxes for the children of a fixed-size element such as a
// table row or footer, all aligned on its top edge.
func (l *modelLayout) inline(n *html.Node, top float64) {
	for _, c := range dom.ElementChildren(n) {
		if dom.IsHidden(c) {
			continue
		}
		l.rects[c] = Rect{Top: top, Bottom: top + l.m.LineHeight, Height: l.m.LineHeight}
		l.inline(c, top)
	}
}

func (l *modelLayout) linesFor(runes int) int {
	if runes <= 0 {
		return 0
	}
	perLine := l.m.CharsPerLine
	if perLine <= 0 {
		perLine = 1
	}
	return (runes + perLine - 1) / perLine
}

var inlineTags = map[string]bool{
	"a": true, "b": true, "code": true, "em": true, "i": true, "label": true,
	"mark": true, "s": true, "small": true, "span": true, "strong": true,
	"sub": true, "sup": true, "u": true,
}

func isInline(n *html.Node) bool {
	return inlineTags[n.Data]
}

func skipped(n *html.Node) bool {
	return dom.IsElement(n, "template", "script", "style", "head", "meta", "link")
}

func gapAfter(n *html.Node) bool {
	return dom.IsElement(n, "p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "blockquote")
}

func fixedHeight(n *html.Node) (float64, bool) {
	v := dom.Attr(n, "data-height")
	if v == "" {
		return 0, false
	}
	h, err := strconv.ParseFloat(v, 64)
	if err != nil || h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, false
	}
	return h, true
}

// textRunes counts characters after collapsing whitespace.
func textRunes(s string) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	return utf8.RuneCountInString(strings.Join(fields, " "))
}

// px parses a CSS pixel length such as "96px". Anything else is zero.
func px(v string) float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
