// Package paginate splits document content across continuation pages.
//
// Every content kind runs the same shape: clear the pages it generated on its
// previous run, find its anchor, then place content with one of three
// strategies until it fits or the page cap is reached:
//
//   - rows: the line items table, sliced into fixed-size row chunks.
//   - relocate: editable source nodes are moved onto continuation pages.
//   - mirror: rendered HTML is cloned node by node, the source is untouched.
//
// Paginators mutate the page tree synchronously and defer measurements with
// the geometry provider. Callers must Settle the provider before reading the
// result.
package paginate

import (
	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/geometry"
	"github.com/alnah/go-docpager/internal/metrics"
	"github.com/alnah/go-docpager/internal/pages"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Strategy names how a content kind is placed.
type Strategy string

// Placement strategies.
const (
	Rows     Strategy = "rows"
	Relocate Strategy = "relocate"
	Mirror   Strategy = "mirror"
)

// Policy is the per-kind configuration of the canonical paginator.
type Policy struct {
	Kind     pages.Kind
	Role     string
	Strategy Strategy
}

// Policies of the content kinds sharing the page stream.
var (
	ItemsPolicy      = Policy{Kind: pages.KindItems, Role: pages.RoleItems, Strategy: Rows}
	LetterheadPolicy = Policy{Kind: pages.KindLetterhead, Role: pages.RoleLetterhead, Strategy: Relocate}
	NotesPolicy      = Policy{Kind: pages.KindNotes, Role: pages.RoleNotes, Strategy: Mirror}
	AdvicePolicy     = Policy{Kind: pages.KindAdvice, Role: pages.RoleAdvice, Strategy: Mirror}
	SignaturePolicy  = Policy{Kind: pages.KindSignature, Role: pages.RoleSignature, Strategy: Relocate}
	OverflowPolicy   = Policy{Kind: pages.KindOverflow, Role: pages.RoleOverflow, Strategy: Relocate}
)

// Paginator places content into the page stream.
type Paginator struct {
	stream  *pages.Stream
	factory *pages.Factory
	gauge   *geometry.Gauge
	log     *zap.Logger
	metrics *metrics.Pagination
	report  *Report
	seq     int
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Paginator) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Pagination) Option {
	return func(p *Paginator) {
		p.metrics = m
	}
}

// WithFactory replaces the default page factory.
func WithFactory(f *pages.Factory) Option {
	return func(p *Paginator) {
		if f != nil {
			p.factory = f
		}
	}
}

// New creates a Paginator over stream, measuring with gauge.
func New(stream *pages.Stream, gauge *geometry.Gauge, opts ...Option) *Paginator {
	p := &Paginator{
		stream:  stream,
		factory: pages.NewFactory(),
		gauge:   gauge,
		log:     zap.NewNop(),
		report:  NewReport(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream returns the page stream.
func (p *Paginator) Stream() *pages.Stream {
	return p.stream
}

// Gauge returns the geometry gauge.
func (p *Paginator) Gauge() *geometry.Gauge {
	return p.gauge
}

// Logger returns the debug logger.
func (p *Paginator) Logger() *zap.Logger {
	return p.log
}

// Report returns the outcome collected since the last ResetReport.
func (p *Paginator) Report() *Report {
	return p.report
}

// ResetReport starts a fresh report and returns the previous one.
func (p *Paginator) ResetReport() *Report {
	prev := p.report
	p.report = NewReport()
	return prev
}

// NewPage creates a continuation page for pol and inserts it right after
// anchor, or at the end of the stream when anchor is zero. It reports false
// and records a cap hit when the stream is full; nothing is created then.
func (p *Paginator) NewPage(pol Policy, anchor pages.Page) (pages.Page, bool) {
	if !p.stream.HasRoom() {
		p.capHit(pol.Kind)
		return pages.Page{}, false
	}
	page := p.factory.NewContinuation(pol.Kind, pol.Role)
	if !p.stream.InsertAfter(anchor, page) {
		p.capHit(pol.Kind)
		return pages.Page{}, false
	}
	p.report.Created[pol.Kind]++
	p.metrics.PageCreated(string(pol.Kind))
	p.log.Debug("page created",
		zap.String("kind", string(pol.Kind)),
		zap.Int("visible", p.stream.Count()),
	)
	return page, true
}

func (p *Paginator) capHit(kind pages.Kind) {
	if !p.report.CapReached {
		p.metrics.CapReached()
	}
	p.report.CapReached = true
	p.log.Debug("page cap reached",
		zap.String("kind", string(kind)),
		zap.Int("max", p.stream.Max()),
	)
}

func (p *Paginator) dropped(kind pages.Kind, n int) {
	if n <= 0 {
		return
	}
	p.report.Dropped[kind] += n
	p.metrics.NodesDropped(string(kind), n)
	p.log.Debug("content dropped", zap.String("kind", string(kind)), zap.Int("nodes", n))
}

// deferUntilLayout schedules fn after the next layout.
func (p *Paginator) deferUntilLayout(fn func()) {
	p.gauge.Provider().DeferUntilLayout(fn)
}

// byID looks an element up under the preview root.
func (p *Paginator) byID(id string) *html.Node {
	return dom.ByID(p.stream.Root(), id)
}

// ClearSignature parks the acceptance block on the page before its signature
// page and removes every signature page.
func (p *Paginator) ClearSignature() {
	accept := p.byID(pages.AcceptanceID)
	for _, page := range p.stream.OfKind(pages.KindSignature) {
		if accept != nil && page.Contains(accept) {
			p.parkBefore(page, accept)
		}
		p.stream.Remove(page)
	}
}

// removeRenders detaches every element tagged role under the preview root.
func (p *Paginator) removeRenders(role string) {
	for _, n := range dom.AllByRole(p.stream.Root(), role) {
		if dom.Closest(n, func(c *html.Node) bool { return dom.HasClass(c, pages.PageClass) }) != nil {
			dom.Detach(n)
		}
	}
}
