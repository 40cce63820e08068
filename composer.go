package docpager

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/alnah/go-docpager/internal/assets"
	"github.com/alnah/go-docpager/internal/chrome"
	"github.com/alnah/go-docpager/internal/fileutil"
	"github.com/alnah/go-docpager/internal/geometry"
	"github.com/alnah/go-docpager/internal/hints"
	"github.com/alnah/go-docpager/internal/metrics"
	"github.com/alnah/go-docpager/internal/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Compile-time interface implementation checks.
var (
	_ geometry.Provider = (*geometry.BlockModel)(nil)
	_ geometry.Viewport = (*geometry.BlockModel)(nil)
	_ geometry.Provider = (*chrome.Provider)(nil)
	_ geometry.Viewport = (*chrome.Provider)(nil)
)

// Composer lays out documents with one template set, one stylesheet and one
// layout engine. It owns a headless browser, started on first use, shared by
// the chrome engine and PDF export.
// Create with NewComposer, use Compose or NewSession, and Close when done.
type Composer struct {
	cfg      composerConfig
	loader   assets.AssetLoader
	renderer *render.Renderer
	browser  *chrome.Browser
	metrics  *metrics.Pagination
	tracer   trace.Tracer

	mu     sync.Mutex
	closed bool
}

// Input is one composition request.
type Input struct {
	Document *Document
	// PDF also prints the laid out pages to PDF.
	PDF bool
}

// Result holds the outputs of Compose.
type Result struct {
	HTML   []byte
	PDF    []byte // nil unless Input.PDF was set
	Report *Report
}

// NewComposer creates a Composer. Use options to customize behavior (e.g.
// WithLayout, WithMaxPages, WithAssetPath). Returns an error if the engine is
// unknown or asset loading or template parsing fails.
func NewComposer(opts ...Option) (*Composer, error) {
	c := &Composer{cfg: defaultComposerConfig()}
	for _, opt := range opts {
		opt(c)
	}

	if !slices.Contains(Engines, c.cfg.engine) {
		return nil, fmt.Errorf("%w: %q%s", ErrUnknownEngine, c.cfg.engine, hints.ForEngine(Engines))
	}

	resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	c.loader = resolver

	css, err := c.resolveStyle()
	if err != nil {
		return nil, err
	}

	setName := c.cfg.templateSet
	if setName == "" {
		setName = assets.DefaultTemplateSetName
	}
	set, err := c.loader.LoadTemplateSet(setName)
	if err != nil {
		return nil, fmt.Errorf("loading template set %q: %w", setName, err)
	}

	c.renderer, err = render.New(set, css,
		render.WithMoney(render.NewMoney(c.cfg.locale, c.cfg.symbol)),
		render.WithDefaultSender(c.cfg.sender),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing renderer: %w", err)
	}

	if c.cfg.registerer != nil {
		c.metrics, err = metrics.New(c.cfg.registerer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	c.tracer = c.cfg.tracer
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/alnah/go-docpager")
	}
	c.browser = chrome.NewBrowser(c.cfg.timeout)
	return c, nil
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS
// content.
func (c *Composer) resolveStyle() (string, error) {
	input := c.cfg.styleInput
	if input == "" {
		input = assets.DefaultStyleName
	}

	if fileutil.IsCSS(input) {
		return input, nil
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return "", fmt.Errorf("loading style file %q: %w", input, err)
		}
		return string(content), nil
	}

	css, err := c.loader.LoadStyle(input)
	if err != nil {
		return "", fmt.Errorf("loading style %q: %w", input, err)
	}
	return css, nil
}

// Engine returns the layout engine in use.
func (c *Composer) Engine() string {
	return c.cfg.engine
}

// MaxPages returns the visible page cap.
func (c *Composer) MaxPages() int {
	return c.cfg.maxPages
}

// NewSession opens a live preview of d. Close the session when done.
func (c *Composer) NewSession(d *Document) (*Session, error) {
	if d == nil {
		return nil, ErrNilDocument
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrComposerClosed
	}

	root := newPreviewRoot()
	var provider geometry.Provider
	switch c.cfg.engine {
	case EngineChrome:
		provider = chrome.NewProvider(c.browser, root, c.renderer.CSS())
	default:
		provider = geometry.NewBlockModel(root, c.cfg.geometry)
	}
	return newSession(c, d, provider, root), nil
}

// Compose lays out one document and returns its HTML, and PDF when asked.
// The context is used for cancellation; the composer timeout bounds the
// whole call. Recovers from internal panics to prevent crashes from
// propagating to callers.
func (c *Composer) Compose(ctx context.Context, in Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if in.Document == nil {
		return nil, ErrNilDocument
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	s, err := c.NewSession(in.Document)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	rep, err := s.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("laying out document: %w", err)
	}

	doc, err := s.HTML()
	if err != nil {
		return nil, err
	}
	res := &Result{HTML: []byte(doc), Report: rep}

	if !in.PDF {
		return res, nil
	}
	pdf, err := c.browser.PrintPDF(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("printing PDF: %w", err)
	}
	res.PDF = pdf
	return res, nil
}

// Close releases the headless browser. Sessions still open stop working.
func (c *Composer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.browser.Close()
}
