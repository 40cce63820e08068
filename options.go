package docpager

import (
	"time"

	"github.com/alnah/go-docpager/internal/config"
	"github.com/alnah/go-docpager/internal/dateutil"
	"github.com/alnah/go-docpager/internal/debounce"
	"github.com/alnah/go-docpager/internal/geometry"
	"github.com/alnah/go-docpager/internal/pages"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Layout engines.
const (
	// EngineModel measures with a synthetic block-stacking layout. Fast,
	// deterministic, no browser needed.
	EngineModel = config.EngineModel

	// EngineChrome measures the real layout in headless Chrome.
	EngineChrome = config.EngineChrome
)

// Engines lists the layout engines in order of preference.
var Engines = config.Engines

// DefaultMaxPages caps the number of visible pages of a document.
const DefaultMaxPages = pages.DefaultMaxPages

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// Geometry holds the page dimensions the model engine lays out with, in CSS
// pixels.
type Geometry = geometry.Metrics

// DefaultGeometry approximates an A4 page at 96 DPI.
func DefaultGeometry() Geometry {
	return geometry.DefaultMetrics()
}

// Option configures a Composer.
type Option func(*Composer)

// composerConfig holds internal configuration for Composer.
type composerConfig struct {
	engine      string
	maxPages    int
	geometry    Geometry
	debounce    time.Duration
	timeout     time.Duration
	assetPath   string
	styleInput  string
	templateSet string
	locale      string
	symbol      string
	dateFormat  string
	sender      string
	payee       string
	account     string
	background  string

	logger     *zap.Logger
	registerer prometheus.Registerer
	tracer     trace.Tracer
}

func defaultComposerConfig() composerConfig {
	return composerConfig{
		engine:     EngineModel,
		maxPages:   DefaultMaxPages,
		geometry:   DefaultGeometry(),
		debounce:   debounce.DefaultDelay,
		timeout:    defaultTimeout,
		locale:     "en-NZ",
		symbol:     "$",
		dateFormat: dateutil.DefaultDateFormat,
		sender:     config.DefaultSender,
		logger:     zap.NewNop(),
	}
}

// WithLogger sets the logger steps and refreshes are reported to at Debug
// level. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.cfg.logger = l
		}
	}
}

// WithMetrics registers pagination metrics on r.
func WithMetrics(r prometheus.Registerer) Option {
	return func(c *Composer) {
		c.cfg.registerer = r
	}
}

// WithTracer sets the tracer refresh and step spans are started from.
func WithTracer(t trace.Tracer) Option {
	return func(c *Composer) {
		c.cfg.tracer = t
	}
}

// WithLayout selects the layout engine, EngineModel or EngineChrome.
// NewComposer rejects other values with ErrUnknownEngine.
func WithLayout(engine string) Option {
	return func(c *Composer) {
		c.cfg.engine = engine
	}
}

// WithMaxPages sets the visible page cap.
// Panics if n < 1 (programmer error, similar to time.NewTicker).
func WithMaxPages(n int) Option {
	if n < 1 {
		panic("docpager: WithMaxPages needs at least one page")
	}
	return func(c *Composer) {
		c.cfg.maxPages = n
	}
}

// WithGeometry sets the page dimensions of the model engine.
func WithGeometry(g Geometry) Option {
	return func(c *Composer) {
		c.cfg.geometry = g
	}
}

// WithDebounce sets how long Session.Edit waits for edits to stop before
// refreshing. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.cfg.debounce = d
		}
	}
}

// WithTimeout sets the per-document composition timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("docpager: WithTimeout duration must be positive")
	}
	return func(c *Composer) {
		c.cfg.timeout = d
	}
}

// WithAssetPath looks up styles and template sets in dir before the embedded
// ones.
func WithAssetPath(dir string) Option {
	return func(c *Composer) {
		c.cfg.assetPath = dir
	}
}

// WithStyle sets the stylesheet: a style name, a path to a CSS file, or CSS
// content.
func WithStyle(style string) Option {
	return func(c *Composer) {
		c.cfg.styleInput = style
	}
}

// WithTemplateSet sets the template set name or directory.
func WithTemplateSet(name string) Option {
	return func(c *Composer) {
		c.cfg.templateSet = name
	}
}

// WithLocale sets digit grouping and the currency symbol of amounts.
func WithLocale(locale, symbol string) Option {
	return func(c *Composer) {
		c.cfg.locale = locale
		c.cfg.symbol = symbol
	}
}

// WithDateFormat sets how dates print, e.g. "D MMMM YYYY" or "long".
func WithDateFormat(format string) Option {
	return func(c *Composer) {
		c.cfg.dateFormat = format
	}
}

// WithDefaultSender sets the header name used when a document has no branch.
func WithDefaultSender(name string) Option {
	return func(c *Composer) {
		c.cfg.sender = name
	}
}

// WithPayment sets the bank details of the default payment advice.
func WithPayment(payee, account string) Option {
	return func(c *Composer) {
		c.cfg.payee = payee
		c.cfg.account = account
	}
}

// WithDefaultBackground sets the page background used when a document has no
// theme.
func WithDefaultBackground(url string) Option {
	return func(c *Composer) {
		c.cfg.background = url
	}
}

// WithConfig applies a loaded configuration file. Zero page dimensions keep
// their defaults. Options given after it override its values.
func WithConfig(cfg *config.Config) Option {
	return func(c *Composer) {
		if cfg == nil {
			return
		}
		if cfg.Layout.Engine != "" {
			c.cfg.engine = cfg.Layout.Engine
		}
		if cfg.Layout.MaxPages > 0 {
			c.cfg.maxPages = cfg.Layout.MaxPages
		}
		if cfg.Layout.DebounceMS > 0 {
			c.cfg.debounce = time.Duration(cfg.Layout.DebounceMS) * time.Millisecond
		}
		if cfg.Layout.TimeoutSec > 0 {
			c.cfg.timeout = time.Duration(cfg.Layout.TimeoutSec) * time.Second
		}
		c.cfg.geometry = mergeGeometry(c.cfg.geometry, cfg.Page)

		if cfg.Format.Locale != "" {
			c.cfg.locale = cfg.Format.Locale
		}
		if cfg.Format.CurrencySymbol != "" {
			c.cfg.symbol = cfg.Format.CurrencySymbol
		}
		if cfg.Format.DateFormat != "" {
			c.cfg.dateFormat = cfg.Format.DateFormat
		}
		if name := cfg.Branch(0).Name; name != "" {
			c.cfg.sender = name
		}
		c.cfg.payee = cfg.Payment.Payee
		c.cfg.account = cfg.Payment.Account
		c.cfg.background = cfg.Theme.Default

		c.cfg.assetPath = cfg.Assets.BasePath
		c.cfg.styleInput = cfg.Assets.Style
		c.cfg.templateSet = cfg.Assets.TemplateSet
	}
}

func mergeGeometry(g Geometry, p config.PageConfig) Geometry {
	set := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	set(&g.PageHeight, p.Height)
	set(&g.PagePadding, p.Padding)
	set(&g.PageGap, p.Gap)
	set(&g.FooterHeight, p.FooterHeight)
	set(&g.LineHeight, p.LineHeight)
	set(&g.RowHeight, p.RowHeight)
	if p.CharsPerLine > 0 {
		g.CharsPerLine = p.CharsPerLine
	}
	return g
}
