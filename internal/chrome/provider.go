package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/geometry"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/net/html"
)

// Compile-time interface checks
var (
	_ geometry.Provider = (*Provider)(nil)
	_ geometry.Viewport = (*Provider)(nil)
)

// Attributes stamped on the tree while it is serialized for measuring.
const (
	attrMeasureID   = "data-measure-id"
	attrMeasureRoot = "data-measure-root"
)

// Viewport the measuring tab emulates, in CSS pixels. Wide enough for an A4
// page at 96 DPI.
const (
	viewportWidth  = 1024
	viewportHeight = 1400
)

const measureScript = `() => document.fonts.ready.then(() => {
	const root = document.querySelector('[data-measure-root]');
	const base = root ? root.getBoundingClientRect().top + window.scrollY : 0;
	const out = {};
	for (const el of document.querySelectorAll('[data-measure-id]')) {
		if (el.getClientRects().length === 0) continue;
		const r = el.getBoundingClientRect();
		out[el.getAttribute('data-measure-id')] = [r.top + window.scrollY - base, r.height];
	}
	return JSON.stringify(out);
})`

var shellTpl = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<style>{{.CSS}}</style>
</head>
<body>{{.Body}}</body>
</html>
`))

// Provider measures the page tree by loading it into a browser tab. The tree
// stays the source of truth: each measurement serializes it, and the tab is
// reloaded only when the markup changed since the last load.
//
// Measure cannot report failures, so browser errors are kept and returned by
// the next Settle.
type Provider struct {
	geometry.Frames

	root    *html.Node
	css     string
	browser *Browser
	page    *rod.Page

	loaded string             // markup currently in the tab
	boxes  map[int][2]float64 // measure id -> top, height
	scroll float64
	err    error
}

// NewProvider creates a Provider laying out the pages under root with css.
// The tab opens on first use.
func NewProvider(b *Browser, root *html.Node, css string) *Provider {
	return &Provider{browser: b, root: root, css: css}
}

// Measure implements geometry.Provider.
func (p *Provider) Measure(n *html.Node) (geometry.Rect, bool) {
	if p.err != nil || n == nil || n.Type != html.ElementNode || !dom.Contains(p.root, n) {
		return geometry.Rect{}, false
	}
	nodes, err := p.sync(context.Background())
	if err != nil {
		p.err = err
		return geometry.Rect{}, false
	}
	for i, node := range nodes {
		if node != n {
			continue
		}
		box, ok := p.boxes[i]
		if !ok {
			return geometry.Rect{}, false
		}
		return geometry.Rect{Top: box[0], Bottom: box[0] + box[1], Height: box[1]}, true
	}
	return geometry.Rect{}, false
}

// Settle implements geometry.Provider. Each frame starts from a tab that
// reflects the current tree.
func (p *Provider) Settle(ctx context.Context) error {
	if p.err != nil {
		return p.takeErr()
	}
	err := p.Frames.Drain(ctx, func() error {
		_, err := p.sync(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return p.takeErr()
}

func (p *Provider) takeErr() error {
	err := p.err
	p.err = nil
	return err
}

// ScrollTop implements geometry.Viewport.
func (p *Provider) ScrollTop() float64 {
	if p.page == nil {
		return p.scroll
	}
	res, err := p.page.Timeout(p.browser.Timeout()).Eval(`() => document.scrollingElement.scrollTop`)
	if err != nil {
		return p.scroll
	}
	p.scroll = res.Value.Num()
	return p.scroll
}

// SetScrollTop implements geometry.Viewport.
func (p *Provider) SetScrollTop(top float64) {
	p.scroll = max(0, top)
	if p.page == nil {
		return
	}
	_, _ = p.page.Timeout(p.browser.Timeout()).Eval(`(y) => { document.scrollingElement.scrollTop = y }`, p.scroll)
}

// Close closes the measuring tab. The browser stays open.
func (p *Provider) Close() error {
	if p.page == nil {
		return nil
	}
	err := p.page.Close()
	p.page, p.loaded, p.boxes = nil, "", nil
	return err
}

// sync brings the tab up to date with the tree and returns the elements in
// measure id order.
func (p *Provider) sync(ctx context.Context) ([]*html.Node, error) {
	nodes, markup, err := p.serialize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMeasure, err)
	}
	if markup == p.loaded && p.boxes != nil {
		return nodes, nil
	}
	if err := p.load(ctx, markup); err != nil {
		return nil, err
	}
	return nodes, nil
}

// serialize renders the tree with a measure id on every element, then
// strips the ids again.
func (p *Provider) serialize() ([]*html.Node, string, error) {
	nodes := dom.FindAll(p.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n != p.root
	})
	for i, n := range nodes {
		dom.SetAttr(n, attrMeasureID, strconv.Itoa(i))
	}
	dom.SetAttr(p.root, attrMeasureRoot, "")
	defer func() {
		for _, n := range nodes {
			dom.RemoveAttr(n, attrMeasureID)
		}
		dom.RemoveAttr(p.root, attrMeasureRoot)
	}()

	body, err := dom.Render(p.root)
	if err != nil {
		return nil, "", err
	}
	var buf strings.Builder
	err = shellTpl.Execute(&buf, struct {
		CSS  template.CSS
		Body template.HTML
	}{
		CSS:  template.CSS(p.css), // #nosec G203 -- stylesheet from the asset loader
		Body: template.HTML(body), // #nosec G203 -- serialized page tree
	})
	if err != nil {
		return nil, "", err
	}
	return nodes, buf.String(), nil
}

// load replaces the tab content with markup and reads back every box.
func (p *Provider) load(ctx context.Context, markup string) error {
	if p.page == nil {
		page, err := p.browser.NewPage(ctx)
		if err != nil {
			return err
		}
		err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             viewportWidth,
			Height:            viewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = page.Close()
			return fmt.Errorf("%w: %v", ErrPageCreate, err)
		}
		p.page = page
	}

	page := p.page.Context(ctx).Timeout(p.browser.Timeout())
	if err := page.SetDocumentContent(markup); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	res, err := page.Eval(measureScript)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMeasure, err)
	}
	raw := map[string][2]float64{}
	if err := json.Unmarshal([]byte(res.Value.Str()), &raw); err != nil {
		return fmt.Errorf("%w: decoding boxes: %v", ErrMeasure, err)
	}
	boxes := make(map[int][2]float64, len(raw))
	for k, v := range raw {
		i, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		boxes[i] = v
	}
	p.loaded, p.boxes = markup, boxes
	return nil
}
