// Package geometry answers the one question pagination keeps asking: does this
// block still end above the page footer?
//
// Measurements come from a Provider. BlockModel is a synthetic provider that
// stacks blocks with fixed metrics; internal/chrome measures a real browser
// layout. Both defer work until after layout through DeferUntilLayout and run
// it in Settle.
package geometry

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-docpager/internal/dom"
	"golang.org/x/net/html"
)

// DefaultBuffer is the slack, in pixels, kept between a block and the footer.
const DefaultBuffer = 4.0

// FooterClass marks the footer region of a page.
const FooterClass = "page-footer"

// ErrFrameLimit is returned by Settle when deferred callbacks keep scheduling
// new frames past the limit.
var ErrFrameLimit = errors.New("deferred layout did not settle")

// Rect is the vertical extent of a laid-out node, in pixels from the top of
// the preview container.
type Rect struct {
	Top    float64
	Bottom float64
	Height float64
}

// Provider measures laid-out nodes and schedules work after layout.
type Provider interface {
	// Measure returns the box of n. ok is false when n is detached, hidden,
	// or otherwise not part of the computed layout.
	Measure(n *html.Node) (r Rect, ok bool)

	// DeferUntilLayout queues fn to run once layout is up to date.
	DeferUntilLayout(fn func())

	// Settle runs queued callbacks, including the ones they queue, until
	// none remain.
	Settle(ctx context.Context) error
}

// Viewport exposes the scroll position of the element enclosing the pages.
type Viewport interface {
	ScrollTop() float64
	SetScrollTop(top float64)
}

// Gauge checks block placement against page footers.
type Gauge struct {
	provider Provider
}

// NewGauge creates a Gauge backed by p.
func NewGauge(p Provider) *Gauge {
	return &Gauge{provider: p}
}

// Provider returns the measurement backend.
func (p *Gauge) Provider() Provider {
	return p.provider
}

// Measure forwards to the provider.
func (p *Gauge) Measure(n *html.Node) (Rect, bool) {
	if n == nil {
		return Rect{}, false
	}
	return p.provider.Measure(n)
}

// Footer returns the footer region of page, or nil.
func Footer(page *html.Node) *html.Node {
	if page == nil {
		return nil
	}
	for _, c := range dom.ElementChildren(page) {
		if dom.HasClass(c, FooterClass) {
			return c
		}
	}
	return dom.ByClass(page, FooterClass)
}

// Fits reports whether block ends at least buffer pixels above the footer
// of page. A page without a measurable footer, or a block that is not laid
// out, counts as fitting: a missing anchor must never create pages.
func (p *Gauge) Fits(page, block *html.Node, buffer float64) bool {
	footer := Footer(page)
	if footer == nil {
		return true
	}
	fr, ok := p.Measure(footer)
	if !ok {
		return true
	}
	br, ok := p.Measure(block)
	if !ok {
		return true
	}
	return fr.Top-br.Top >= br.Height+buffer
}

// AvailableHeight returns the room between anchorTop and the footer of page.
// ok is false when the footer cannot be measured.
func (p *Gauge) AvailableHeight(page *html.Node, anchorTop float64) (float64, bool) {
	footer := Footer(page)
	if footer == nil {
		return 0, false
	}
	fr, ok := p.Measure(footer)
	if !ok {
		return 0, false
	}
	return fr.Top - anchorTop, true
}

// Frames is a FIFO of callbacks deferred until after layout. Providers embed
// it to implement DeferUntilLayout.
type Frames struct {
	queue []func()

	// Limit caps the number of frames Drain runs. Zero means DefaultFrameLimit.
	Limit int
}

// DefaultFrameLimit bounds measure/split loops that keep rescheduling.
const DefaultFrameLimit = 10000

// DeferUntilLayout queues fn for the next frame.
func (f *Frames) DeferUntilLayout(fn func()) {
	if fn != nil {
		f.queue = append(f.queue, fn)
	}
}

// Pending reports how many callbacks wait for the next frame.
func (f *Frames) Pending() int {
	return len(f.queue)
}

// Drain runs frames until the queue is empty. beforeFrame, when set, runs
// ahead of each frame so the provider can bring its layout up to date.
func (f *Frames) Drain(ctx context.Context, beforeFrame func() error) error {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultFrameLimit
	}
	for frames := 0; len(f.queue) > 0; frames++ {
		if frames >= limit {
			f.queue = nil
			return fmt.Errorf("%w after %d frames", ErrFrameLimit, limit)
		}
		if err := ctx.Err(); err != nil {
			f.queue = nil
			return err
		}
		if beforeFrame != nil {
			if err := beforeFrame(); err != nil {
				f.queue = nil
				return err
			}
		}
		batch := f.queue
		f.queue = nil
		for _, fn := range batch {
			fn()
		}
	}
	return nil
}
