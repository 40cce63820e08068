package pages

import (
	"strconv"

	"github.com/alnah/go-docpager/internal/dom"
)

// DefaultHeaderHeight is the fixed height of a continuation page header.
const DefaultHeaderHeight = 32

// Factory builds blank continuation pages. It never inserts them anywhere.
type Factory struct {
	// HeaderHeight is stamped on headers so layout does not shift once the
	// numbering pass fills the header text.
	HeaderHeight float64

	// ExtraClass is appended to the section class list.
	ExtraClass string
}

// NewFactory returns a Factory with the default header height.
func NewFactory() *Factory {
	return &Factory{HeaderHeight: DefaultHeaderHeight}
}

// NewContinuation creates a page of kind with one empty content slot tagged
// role. Header cells and footer placeholders stay empty until the numbering
// pass runs.
func (f *Factory) NewContinuation(kind Kind, role string) Page {
	class := PageClass + " continuation-page"
	if f.ExtraClass != "" {
		class += " " + f.ExtraClass
	}
	section := dom.Element("section", "class", class, AttrGenerated, kind.Tag())

	header := dom.Element("div", "class", HeaderClass)
	if f.HeaderHeight > 0 {
		dom.SetAttr(header, "data-height", strconv.FormatFloat(f.HeaderHeight, 'f', -1, 64))
	}
	header.AppendChild(dom.Element("div"))
	header.AppendChild(dom.Element("div"))
	section.AppendChild(header)

	section.AppendChild(dom.Element("div", "class", "text-sm", AttrRole, role))

	footer := dom.Element("div", "class", FooterClass)
	footer.AppendChild(dom.Element("span", "class", NumberClass))
	footer.AppendChild(dom.Text(" / "))
	footer.AppendChild(dom.Element("span", "class", CountClass))
	section.AppendChild(footer)

	return Wrap(section)
}
