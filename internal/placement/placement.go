// Package placement runs the paginators in their fixed order and keeps the
// anchoring rules between content kinds: the acceptance block trails the
// items, notes trail the acceptance block, payment advice trails the notes.
package placement

import (
	"context"
	"fmt"

	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/geometry"
	"github.com/alnah/go-docpager/internal/pages"
	"github.com/alnah/go-docpager/internal/paginate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Mode is the kind of document being laid out.
type Mode string

// Document modes.
const (
	Quote      Mode = "quote"
	Invoice    Mode = "invoice"
	Letterhead Mode = "letterhead"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case Quote, Invoice, Letterhead:
		return true
	}
	return false
}

// HasItems reports whether the items table and totals render in m.
func (m Mode) HasItems() bool {
	return m == Quote || m == Invoice
}

// Step names one stage of a pass.
type Step string

// Steps in run order.
const (
	StepContent    Step = "content" // items, or letterhead body in letterhead mode
	StepAcceptance Step = "acceptance"
	StepNotes      Step = "notes"
	StepAdvice     Step = "advice"
	StepOverflow   Step = "overflow"
	StepPages      Step = "pages" // numbering, headers, backgrounds
)

// Sequence is the order Run executes steps in.
var Sequence = []Step{StepContent, StepAcceptance, StepNotes, StepAdvice, StepOverflow, StepPages}

// Spacing above the acceptance block, in pixels.
const (
	SignatureSpacing = 96.0
	FallbackSpacing  = 24.0
)

// Input is everything a pass reads from the document.
type Input struct {
	Mode Mode

	// Rows are the detached line item rows. They are moved into the page
	// tree, so every pass needs a fresh set.
	Rows []*html.Node

	NotesHTML  string
	AdviceHTML string

	HeaderLeft  string
	HeaderRight string
	Background  string
}

// Coordinator orchestrates a Paginator over one page stream.
type Coordinator struct {
	pag      *paginate.Paginator
	viewport geometry.Viewport
	log      *zap.Logger
	tracer   trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithViewport preserves the scroll position of v across passes.
func WithViewport(v geometry.Viewport) Option {
	return func(c *Coordinator) {
		c.viewport = v
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTracer sets the tracer spans are started from.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// New creates a Coordinator driving p.
func New(p *paginate.Paginator, opts ...Option) *Coordinator {
	c := &Coordinator{
		pag:    p,
		log:    p.Logger(),
		tracer: otel.Tracer("github.com/alnah/go-docpager/internal/placement"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Paginator returns the paginator being driven.
func (c *Coordinator) Paginator() *paginate.Paginator {
	return c.pag
}

// Reset returns the stream to its base page: every generated page goes and
// relocated content moves back to where the template put it.
func (c *Coordinator) Reset() {
	c.pag.ClearOverflow()
	c.pag.ClearAdvice()
	c.pag.ClearNotes()
	c.pag.ClearSignature()
	c.pag.ClearItems()
	c.pag.ClearLetterhead()
}

// Run executes a full pass and returns what it placed. Errors only come from
// the geometry provider, or from ctx.
func (c *Coordinator) Run(ctx context.Context, in Input) (*paginate.Report, error) {
	c.pag.ResetReport()
	restore := c.saveScroll()
	defer restore()

	ctx, span := c.tracer.Start(ctx, "placement.Run",
		trace.WithAttributes(attribute.String("docpager.mode", string(in.Mode))))
	defer span.End()

	// pages built after the content step would otherwise count against the
	// cap while items are laid out
	c.pag.ClearOverflow()
	c.pag.ClearAdvice()
	c.pag.ClearNotes()
	c.pag.ClearSignature()

	for _, step := range Sequence {
		if err := c.run(ctx, step, in); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "pagination failed")
			return c.pag.Report(), err
		}
	}
	span.SetAttributes(attribute.Int("docpager.pages", c.pag.Stream().Count()))
	return c.pag.Report(), nil
}

// RunStep executes a single step, then refreshes numbering, headers and
// backgrounds. It serves live edits that only touch one content kind.
func (c *Coordinator) RunStep(ctx context.Context, step Step, in Input) (*paginate.Report, error) {
	c.pag.ResetReport()
	restore := c.saveScroll()
	defer restore()

	if err := c.run(ctx, step, in); err != nil {
		return c.pag.Report(), err
	}
	if step != StepPages {
		if err := c.run(ctx, StepPages, in); err != nil {
			return c.pag.Report(), err
		}
	}
	return c.pag.Report(), nil
}

func (c *Coordinator) run(ctx context.Context, step Step, in Input) error {
	ctx, span := c.tracer.Start(ctx, "placement."+string(step))
	defer span.End()

	switch step {
	case StepContent:
		c.content(in)
	case StepAcceptance:
		c.positionAcceptance(in.Mode)
	case StepNotes:
		if in.Mode == Quote {
			c.pag.Notes(in.NotesHTML)
		} else {
			c.pag.ClearNotes()
		}
	case StepAdvice:
		if in.Mode == Invoice {
			c.pag.Advice(in.AdviceHTML)
		} else {
			c.pag.ClearAdvice()
		}
	case StepOverflow:
		if in.Mode == Quote {
			c.pag.Overflow()
		} else {
			c.pag.ClearOverflow()
		}
	case StepPages:
		c.refreshPages(in)
	default:
		return fmt.Errorf("unknown step %q", step)
	}

	if err := c.pag.Gauge().Provider().Settle(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "settle failed")
		return fmt.Errorf("%s step: %w", step, err)
	}
	c.log.Debug("step done",
		zap.String("step", string(step)),
		zap.String("mode", string(in.Mode)),
		zap.Int("pages", c.pag.Stream().Count()),
	)
	return nil
}

func (c *Coordinator) content(in Input) {
	if in.Mode == Letterhead {
		// rows left from a quote pass would change the letterhead page count
		c.pag.ClearItems()
		c.pag.Letterhead()
		return
	}
	c.pag.ClearLetterhead()
	if in.Mode.HasItems() {
		c.pag.Items(in.Rows)
	}
}

// refreshPages numbers the visible pages and reapplies header text and the
// background image to every page.
func (c *Coordinator) refreshPages(in Input) {
	s := c.pag.Stream()
	s.Renumber()
	s.ApplyHeaders(in.HeaderLeft, in.HeaderRight)
	s.ApplyBackground(in.Background)
}

func (c *Coordinator) saveScroll() func() {
	if c.viewport == nil {
		return func() {}
	}
	top := c.viewport.ScrollTop()
	return func() { c.viewport.SetScrollTop(top) }
}

func (c *Coordinator) acceptance() *html.Node {
	return dom.ByID(c.pag.Stream().Root(), pages.AcceptanceID)
}
