package docpager

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-docpager/internal/dateutil"
	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/markdown"
	"github.com/alnah/go-docpager/internal/yamlutil"
	"github.com/google/uuid"
)

// Snapshot is the saved form of a Document. Rich-text blocks may be written
// as HTML or as Markdown, never both. Dates are YYYY-MM-DD or "today".
type Snapshot struct {
	ID      string `yaml:"id,omitempty"`
	Kind    string `yaml:"kind"`
	Number  string `yaml:"number,omitempty"`
	Date    string `yaml:"date,omitempty"`
	DueDate string `yaml:"dueDate,omitempty"`

	Client    PartySnapshot      `yaml:"client,omitempty"`
	Branch    BranchSnapshot     `yaml:"branch,omitempty"`
	LineItems []LineItemSnapshot `yaml:"lineItems,omitempty"`
	Totals    TotalsSnapshot     `yaml:"totals,omitempty"`

	Notes                 string `yaml:"notes,omitempty"`
	NotesMarkdown         string `yaml:"notesMarkdown,omitempty"`
	Letterhead            string `yaml:"letterhead,omitempty"`
	LetterheadMarkdown    string `yaml:"letterheadMarkdown,omitempty"`
	PaymentAdvice         string `yaml:"paymentAdvice,omitempty"`
	PaymentAdviceMarkdown string `yaml:"paymentAdviceMarkdown,omitempty"`

	Acceptance AcceptanceSnapshot `yaml:"acceptance,omitempty"`
	Theme      ThemeSnapshot      `yaml:"theme,omitempty"`
}

// PartySnapshot is the saved client.
type PartySnapshot struct {
	Name    string `yaml:"name,omitempty"`
	Address string `yaml:"address,omitempty"`
	Email   string `yaml:"email,omitempty"`
	Phone   string `yaml:"phone,omitempty"`
}

// BranchSnapshot is the saved sender.
type BranchSnapshot struct {
	Name    string `yaml:"name,omitempty"`
	Address string `yaml:"address,omitempty"`
	Email   string `yaml:"email,omitempty"`
	Phone   string `yaml:"phone,omitempty"`
	Website string `yaml:"website,omitempty"`
	GST     string `yaml:"gst,omitempty"`
	Logo    string `yaml:"logo,omitempty"`
}

// IsZero reports whether no branch field is set.
func (b BranchSnapshot) IsZero() bool {
	return b == BranchSnapshot{}
}

// LineItemSnapshot is one saved line item.
type LineItemSnapshot struct {
	Description string  `yaml:"description"`
	Quantity    float64 `yaml:"quantity"`
	UnitPrice   float64 `yaml:"unitPrice"`
}

// TotalsSnapshot holds the saved totals inputs. A missing GST rate means the
// loader's default.
type TotalsSnapshot struct {
	Discount float64  `yaml:"discount,omitempty"`
	GSTRate  *float64 `yaml:"gstRate,omitempty"`
}

// AcceptanceSnapshot is the saved signature block.
type AcceptanceSnapshot struct {
	Name           string `yaml:"name,omitempty"`
	SignatureImage string `yaml:"signatureImage,omitempty"`
	Date           string `yaml:"date,omitempty"`
}

// ThemeSnapshot is the saved theme.
type ThemeSnapshot struct {
	Background string `yaml:"background,omitempty"`
}

// Loader turns snapshots into documents.
type Loader struct {
	now     func() time.Time
	md      *markdown.Converter
	gstRate float64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithClock sets the clock "today" resolves against.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// WithDefaultGSTRate sets the GST rate of snapshots that give none.
func WithDefaultGSTRate(rate float64) LoaderOption {
	return func(l *Loader) {
		l.gstRate = rate
	}
}

// NewLoader creates a Loader resolving "today" against the wall clock.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{now: time.Now, md: markdown.New(), gstRate: DefaultGSTRate}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads the snapshot at path. Relative image and link paths are
// resolved against the snapshot's directory.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := l.Load(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := d.rebaseAssets(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotParse, err)
	}
	return d, nil
}

// rebaseAssets turns relative asset paths into file:// URLs under dir.
func (d *Document) rebaseAssets(dir string) error {
	d.branch.Logo = dom.RebasePath(d.branch.Logo, dir)
	d.accept.SignatureImage = dom.RebasePath(d.accept.SignatureImage, dir)
	d.theme.Background = dom.RebasePath(d.theme.Background, dir)

	for _, block := range []*string{&d.notes, &d.letter, &d.advice} {
		out, err := dom.RebasePaths(*block, dir)
		if err != nil {
			return err
		}
		*block = out
	}
	return nil
}

// Load decodes one snapshot from r. Unknown fields, bad dates, an unknown
// kind and a block given both as HTML and Markdown are rejected with an error
// wrapping ErrSnapshotParse.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Document, error) {
	var snap Snapshot
	if err := yamlutil.Read(r, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotParse, err)
	}
	return l.Document(ctx, &snap)
}

// Document builds a document from snap.
func (l *Loader) Document(ctx context.Context, snap *Snapshot) (*Document, error) {
	kind, err := ParseKind(snap.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotParse, err)
	}
	d := NewDocument(kind)
	if snap.ID != "" {
		id, err := uuid.Parse(snap.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q: %v", ErrSnapshotParse, snap.ID, err)
		}
		d.id = id.String()
	}
	d.SetNumber(snap.Number)

	now := l.now()
	date, err := dateutil.ResolveDate(snap.Date, now)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", ErrSnapshotParse, err)
	}
	due, err := dateutil.ResolveDate(snap.DueDate, now)
	if err != nil {
		return nil, fmt.Errorf("%w: dueDate: %v", ErrSnapshotParse, err)
	}
	if err := d.SetDates(date, due); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotParse, err)
	}

	d.SetClient(Party(snap.Client))
	d.SetBranch(Branch(snap.Branch))

	items := make([]LineItem, len(snap.LineItems))
	for i, li := range snap.LineItems {
		items[i] = LineItem(li)
	}
	d.SetLineItems(items)

	totals := Totals{Discount: snap.Totals.Discount, GSTRate: l.gstRate}
	if snap.Totals.GSTRate != nil {
		totals.GSTRate = *snap.Totals.GSTRate
	}
	d.SetTotals(totals)

	blocks := []struct {
		name     string
		html, md string
		set      func(string)
	}{
		{"notes", snap.Notes, snap.NotesMarkdown, d.SetNotesHTML},
		{"letterhead", snap.Letterhead, snap.LetterheadMarkdown, d.SetLetterheadHTML},
		{"paymentAdvice", snap.PaymentAdvice, snap.PaymentAdviceMarkdown, d.SetPaymentAdviceHTML},
	}
	for _, b := range blocks {
		content, err := l.block(ctx, b.name, b.html, b.md)
		if err != nil {
			return nil, err
		}
		b.set(content)
	}

	accDate, err := dateutil.ResolveDate(snap.Acceptance.Date, now)
	if err != nil {
		return nil, fmt.Errorf("%w: acceptance date: %v", ErrSnapshotParse, err)
	}
	if err := d.SetAcceptance(Acceptance{
		Name:           snap.Acceptance.Name,
		SignatureImage: snap.Acceptance.SignatureImage,
		Date:           accDate,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotParse, err)
	}
	d.SetTheme(Theme(snap.Theme))
	return d, nil
}

func (l *Loader) block(ctx context.Context, name, htmlContent, md string) (string, error) {
	if md == "" {
		return htmlContent, nil
	}
	if htmlContent != "" {
		return "", fmt.Errorf("%w: %s and %sMarkdown are both set", ErrSnapshotParse, name, name)
	}
	out, err := l.md.ToHTML(ctx, md)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSnapshotParse, name, err)
	}
	return out, nil
}

// LoadDocument reads a snapshot with a default Loader.
func LoadDocument(ctx context.Context, r io.Reader) (*Document, error) {
	return NewLoader().Load(ctx, r)
}

// Snapshot returns the saved form of d. Rich-text blocks are saved as HTML.
func (d *Document) Snapshot() *Snapshot {
	rate := d.totals.GSTRate
	snap := &Snapshot{
		ID:            d.id,
		Kind:          string(d.kind),
		Number:        d.number,
		Date:          d.date,
		DueDate:       d.dueDate,
		Client:        PartySnapshot(d.client),
		Branch:        BranchSnapshot(d.branch),
		Totals:        TotalsSnapshot{Discount: d.totals.Discount, GSTRate: &rate},
		Notes:         d.notes,
		Letterhead:    d.letter,
		PaymentAdvice: d.advice,
		Acceptance:    AcceptanceSnapshot(d.accept),
		Theme:         ThemeSnapshot(d.theme),
	}
	for _, li := range d.items {
		snap.LineItems = append(snap.LineItems, LineItemSnapshot(li))
	}
	return snap
}

// SaveDocument writes the snapshot of d to w as YAML.
func SaveDocument(w io.Writer, d *Document) error {
	if d == nil {
		return ErrNilDocument
	}
	data, err := yamlutil.Marshal(d.Snapshot())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
