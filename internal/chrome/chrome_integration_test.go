//go:build integration

package chrome

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/geometry"
)

const testTimeout = 30 * time.Second

const testCSS = `body { margin: 0 }
.document-page { position: relative; height: 1123px; padding: 48px; box-sizing: border-box; }
.page-footer { position: absolute; bottom: 48px; height: 24px; }
.tall { height: 600px; }`

func TestProvider_Measure_Integration(t *testing.T) {
	b := NewBrowser(testTimeout)
	t.Cleanup(func() { _ = b.Close() })

	root := dom.Element("div", "id", "document-preview")
	err := dom.SetInnerHTML(root, `<section class="document-page">`+
		`<div class="tall" id="a"></div><div class="tall" id="b"></div>`+
		`<div class="page-footer">1</div></section>`)
	if err != nil {
		t.Fatal(err)
	}

	p := NewProvider(b, root, testCSS)
	t.Cleanup(func() { _ = p.Close() })
	gauge := geometry.NewGauge(p)

	page := dom.ByClass(root, "document-page")
	if !gauge.Fits(page, dom.ByID(root, "a"), geometry.DefaultBuffer) {
		t.Error("first block should fit")
	}
	if gauge.Fits(page, dom.ByID(root, "b"), geometry.DefaultBuffer) {
		t.Error("second block should cross the footer")
	}

	r, ok := p.Measure(dom.ByID(root, "a"))
	if !ok || r.Top != 48 || r.Height != 600 {
		t.Errorf("Measure(a) = %+v, %v; want top 48, height 600", r, ok)
	}

	dom.Detach(dom.ByID(root, "b"))
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	ran := false
	p.DeferUntilLayout(func() { ran = true })
	if err := p.Settle(ctx); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if !ran {
		t.Error("deferred callback did not run")
	}
}

func TestBrowser_PrintPDF_Integration(t *testing.T) {
	b := NewBrowser(testTimeout)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	doc := "<!DOCTYPE html><html><body><section class=\"document-page\">" +
		strings.Repeat("<p>Quote line</p>", 20) + "</section></body></html>"
	data, err := b.PrintPDF(ctx, doc)
	if err != nil {
		t.Fatalf("PrintPDF() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("data does not have PDF magic bytes, got prefix: %q", data[:min(10, len(data))])
	}
}
