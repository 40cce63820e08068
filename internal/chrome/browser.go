// Package chrome lays documents out in headless Chrome through go-rod: a
// geometry provider measuring the real CSS layout, and PDF printing of the
// composed pages. Rod downloads Chromium on first run if none is found.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/alnah/go-docpager/internal/fileutil"
	"github.com/alnah/go-docpager/internal/hints"
	"github.com/alnah/go-docpager/internal/process"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Sentinel errors for browser operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrMeasure        = errors.New("failed to measure layout")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserClosed  = errors.New("browser is closed")
)

// DefaultTimeout bounds page loads and script evaluation.
const DefaultTimeout = 30 * time.Second

// A4 paper in inches. Page padding comes from the stylesheet, so the printer
// adds no margins.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
)

// Browser owns one headless Chrome process. It connects lazily on first use
// and is safe for concurrent use.
type Browser struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	closed   bool
}

// NewBrowser creates a Browser. A non-positive timeout means DefaultTimeout.
func NewBrowser(timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Browser{timeout: timeout}
}

// Timeout returns the per-operation timeout.
func (b *Browser) Timeout() time.Duration {
	return b.timeout
}

// ensure lazily launches and connects to the browser. Callers hold mu.
func (b *Browser) ensure() error {
	if b.closed {
		return ErrBrowserClosed
	}
	if b.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		b.kill(l)
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}
	b.browser, b.launcher = browser, l
	return nil
}

// NewPage opens a blank tab.
func (b *Browser) NewPage(ctx context.Context) (*rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensure(); err != nil {
		return nil, err
	}
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return page, nil
}

// PrintPDF loads a standalone HTML document and prints it on A4 paper with
// backgrounds.
func (b *Browser) PrintPDF(ctx context.Context, document string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(document, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	b.mu.Lock()
	if err := b.ensure(); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "file://" + tmpPath})
	b.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthInches),
		PaperHeight:       floatPtr(paperHeightInches),
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// Close shuts the browser down and kills its process tree. Further calls
// fail with ErrBrowserClosed.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.kill(b.launcher)
	b.browser, b.launcher = nil, nil
	return err
}

// kill terminates the launched process group, then lets the launcher clean
// up its user data directory.
func (b *Browser) kill(l *launcher.Launcher) {
	if l == nil {
		return
	}
	if pid := l.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	l.Kill()
	l.Cleanup()
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
