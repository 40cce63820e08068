package docpager

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-docpager/internal/dateutil"
	"github.com/alnah/go-docpager/internal/debounce"
	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/geometry"
	"github.com/alnah/go-docpager/internal/pages"
	"github.com/alnah/go-docpager/internal/paginate"
	"github.com/alnah/go-docpager/internal/placement"
	"github.com/alnah/go-docpager/internal/render"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// PreviewID is the id of the container holding the pages.
const PreviewID = "document-preview"

// Session owns one document and its page preview. Refreshes are serialized,
// so a Session may be edited from several goroutines; Edit refreshes happen
// on the debounce timer's goroutine.
type Session struct {
	mu sync.Mutex

	comp     *Composer
	doc      *Document
	root     *html.Node
	stream   *pages.Stream
	provider geometry.Provider
	coord    *placement.Coordinator
	debounce *debounce.Debouncer
	log      *zap.Logger

	report    *Report
	onRefresh func(*Report, error)
	closed    bool

	// rendered is the kind the base page was last rendered for.
	rendered Kind
}

func newSession(c *Composer, d *Document, provider geometry.Provider, root *html.Node) *Session {
	s := &Session{
		comp:     c,
		doc:      d,
		root:     root,
		stream:   pages.NewStream(root, c.cfg.maxPages),
		provider: provider,
		log:      c.cfg.logger.With(zap.String("document", d.id)),
	}
	pag := paginate.New(s.stream, geometry.NewGauge(provider),
		paginate.WithLogger(s.log),
		paginate.WithMetrics(c.metrics),
		paginate.WithFactory(pages.NewFactory()),
	)
	opts := []placement.Option{placement.WithLogger(s.log), placement.WithTracer(c.tracer)}
	if vp, ok := provider.(geometry.Viewport); ok {
		opts = append(opts, placement.WithViewport(vp))
	}
	s.coord = placement.New(pag, opts...)
	s.debounce = debounce.New(c.cfg.debounce, s.refreshFromEdit)
	return s
}

// Document returns the document being laid out. Mutate it through Edit so the
// preview follows.
func (s *Session) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Report returns the outcome of the last layout pass, nil before the first.
func (s *Session) Report() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// OnRefresh registers fn to run after every debounced refresh.
func (s *Session) OnRefresh(fn func(*Report, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

// Refresh rebuilds the base page from the document and runs a full layout
// pass. Errors come only from the layout engine or ctx: missing anchors and
// the page cap are not errors.
func (s *Session) Refresh(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) (rep *Report, err error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	start := time.Now()
	ctx, span := s.comp.tracer.Start(ctx, "docpager.Refresh", trace.WithAttributes(
		attribute.String("docpager.document", s.doc.id),
		attribute.String("docpager.kind", string(s.doc.kind)),
	))
	defer func() {
		s.comp.metrics.ObserveRefresh(time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "refresh failed")
		}
		span.End()
	}()

	if err := s.render(); err != nil {
		return nil, err
	}
	in, err := s.input()
	if err != nil {
		return nil, err
	}
	r, err := s.coord.Run(ctx, in)
	s.report = newReport(r, s.stream.Count())
	if err != nil {
		return s.report, err
	}
	s.log.Debug("refreshed",
		zap.Int("pages", s.report.Pages),
		zap.Int("rows", s.report.Rows),
		zap.Bool("truncated", s.report.Truncated()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s.report, nil
}

// PaginateItems lays out the line items alone. In letterhead mode it lays
// out the letterhead body instead.
func (s *Session) PaginateItems(ctx context.Context) (*Report, error) {
	return s.step(ctx, placement.StepContent)
}

// PaginateLetterhead lays out the letterhead body alone.
func (s *Session) PaginateLetterhead(ctx context.Context) (*Report, error) {
	return s.step(ctx, placement.StepContent)
}

// PositionAcceptance moves the acceptance block after the last items page.
func (s *Session) PositionAcceptance(ctx context.Context) (*Report, error) {
	return s.step(ctx, placement.StepAcceptance)
}

// PaginateNotes lays out the notes after the acceptance block.
func (s *Session) PaginateNotes(ctx context.Context) (*Report, error) {
	return s.step(ctx, placement.StepNotes)
}

// PaginatePaymentAdvice lays out the payment advice after the notes.
func (s *Session) PaginatePaymentAdvice(ctx context.Context) (*Report, error) {
	return s.step(ctx, placement.StepAdvice)
}

// CheckOverflow moves the last element of the last page onto a new page when
// it crosses the footer.
func (s *Session) CheckOverflow(ctx context.Context) (*Report, error) {
	return s.step(ctx, placement.StepOverflow)
}

// step runs one placement step against the current preview. The base page is
// rendered first if no refresh has happened yet, or if the document changed
// kind since it was.
func (s *Session) step(ctx context.Context, step placement.Step) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.stream.Base().IsZero() || s.rendered != s.doc.kind {
		if err := s.render(); err != nil {
			return nil, err
		}
	}
	in, err := s.input()
	if err != nil {
		return nil, err
	}
	r, err := s.coord.RunStep(ctx, step, in)
	s.report = newReport(r, s.stream.Count())
	return s.report, err
}

// render drops every generated page and renders the base page afresh from
// the document.
func (s *Session) render() error {
	s.coord.Reset()
	if err := s.comp.renderer.Populate(s.stream, s.view()); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	s.rendered = s.doc.kind
	return nil
}

// Edit applies fn to the document and schedules a refresh once edits stop
// arriving for the debounce delay.
func (s *Session) Edit(fn func(*Document)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	fn(s.doc)
	s.mu.Unlock()
	s.debounce.Trigger()
	return nil
}

// Flush runs a pending debounced refresh now. It reports whether one was
// pending.
func (s *Session) Flush() bool {
	return s.debounce.Flush()
}

func (s *Session) refreshFromEdit() {
	ctx, cancel := context.WithTimeout(context.Background(), s.comp.cfg.timeout)
	defer cancel()

	s.mu.Lock()
	rep, err := s.refresh(ctx)
	hook := s.onRefresh
	s.mu.Unlock()

	if err != nil {
		s.log.Debug("debounced refresh failed", zap.Error(err))
	}
	if hook != nil {
		hook(rep, err)
	}
}

// Reset discards the document, replacing it with an empty one of the same
// kind, and refreshes.
func (s *Session) Reset(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.doc = NewDocument(s.doc.kind)
	return s.refresh(ctx)
}

// HTML returns the preview as a standalone HTML document.
func (s *Session) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.comp.renderer.Document(s.root, s.title())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return out, nil
}

// PDF prints the preview through headless Chrome.
func (s *Session) PDF(ctx context.Context) ([]byte, error) {
	doc, err := s.HTML()
	if err != nil {
		return nil, err
	}
	return s.comp.browser.PrintPDF(ctx, doc)
}

// Close stops pending refreshes and releases the layout engine.
func (s *Session) Close() error {
	s.debounce.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Session) title() string {
	return strings.TrimSpace(render.Title(string(s.doc.kind)) + " " + s.doc.number)
}

// view converts the document into what the renderer reads.
func (s *Session) view() render.View {
	d := s.doc
	v := render.View{
		Kind:    string(d.kind),
		Number:  d.number,
		Date:    dateutil.Format(d.date, s.comp.cfg.dateFormat),
		DueDate: dateutil.Format(d.dueDate, s.comp.cfg.dateFormat),
		Branch: render.Party{
			Name:    d.branch.Name,
			Address: d.branch.Address,
			Email:   d.branch.Email,
			Phone:   d.branch.Phone,
			Website: d.branch.Website,
			GST:     d.branch.GST,
			Logo:    d.branch.Logo,
		},
		Client: render.Party{
			Name:    d.client.Name,
			Address: d.client.Address,
			Email:   d.client.Email,
			Phone:   d.client.Phone,
		},
		Discount: d.totals.Discount,
		GSTRate:  d.totals.GSTRate,
		Acceptance: render.Acceptance{
			Name:      d.accept.Name,
			Signature: d.accept.SignatureImage,
			Date:      dateutil.Format(d.accept.Date, s.comp.cfg.dateFormat),
		},
		LetterheadHTML: d.letter,
	}
	for _, li := range d.items {
		v.Items = append(v.Items, render.Item(li))
	}
	return v
}

// input collects what one layout pass reads from the document. Rows are
// rendered fresh on every call since the paginator moves them into the tree.
func (s *Session) input() (placement.Input, error) {
	d := s.doc
	v := s.view()
	in := placement.Input{
		Mode:       placement.Mode(d.kind),
		NotesHTML:  render.Notes(d.notes),
		Background: d.theme.Background,
	}
	if in.Background == "" {
		in.Background = render.MigrateAssetPath(s.comp.cfg.background)
	}
	in.HeaderLeft, in.HeaderRight = s.comp.renderer.Header(v)
	if d.kind.HasItems() {
		in.Rows = s.comp.renderer.Rows(v.Items)
	}
	if d.kind == KindInvoice {
		advice, err := s.advice(v)
		if err != nil {
			return in, err
		}
		in.AdviceHTML = advice
	}
	return in, nil
}

func (s *Session) advice(v render.View) (string, error) {
	if strings.TrimSpace(s.doc.advice) != "" {
		return s.doc.advice, nil
	}
	out, err := s.comp.renderer.Advice(render.AdviceView{
		DueDate: v.DueDate,
		Payee:   s.comp.cfg.payee,
		Account: s.comp.cfg.account,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return out, nil
}

// newPreviewRoot returns the detached container pages are laid out in.
func newPreviewRoot() *html.Node {
	return dom.Element("div", "id", PreviewID)
}
