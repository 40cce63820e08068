package pages

import (
	"github.com/alnah/go-docpager/internal/dom"
	"golang.org/x/net/html"
)

// Stream is the ordered sequence of pages under the preview root. It owns
// the page cap: no insertion succeeds once Count reaches Max.
type Stream struct {
	root *html.Node
	max  int
}

// NewStream creates a Stream over root. A non-positive maxPages means
// DefaultMaxPages.
func NewStream(root *html.Node, maxPages int) *Stream {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Stream{root: root, max: maxPages}
}

// Root returns the preview container.
func (s *Stream) Root() *html.Node {
	return s.root
}

// Max returns the page cap.
func (s *Stream) Max() int {
	return s.max
}

// All returns every page, hidden ones included, in document order.
func (s *Stream) All() []Page {
	var out []Page
	for _, c := range dom.ElementChildren(s.root) {
		if dom.HasClass(c, PageClass) {
			out = append(out, Wrap(c))
		}
	}
	return out
}

// Visible returns the pages that are displayed, in document order.
func (s *Stream) Visible() []Page {
	var out []Page
	for _, p := range s.All() {
		if !p.Hidden() {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of visible pages.
func (s *Stream) Count() int {
	return len(s.Visible())
}

// HasRoom reports whether one more page may be created.
func (s *Stream) HasRoom() bool {
	return s.Count() < s.max
}

// Base returns the first page not created by a paginator.
func (s *Stream) Base() Page {
	for _, p := range s.All() {
		if !p.Generated() {
			return p
		}
	}
	return Page{}
}

// OfKind returns every page of kind in document order.
func (s *Stream) OfKind(kind Kind) []Page {
	var out []Page
	for _, p := range s.All() {
		if p.Kind() == kind {
			out = append(out, p)
		}
	}
	return out
}

// LastOfKind returns the last page of kind, or the zero Page.
func (s *Stream) LastOfKind(kind Kind) Page {
	pages := s.OfKind(kind)
	if len(pages) == 0 {
		return Page{}
	}
	return pages[len(pages)-1]
}

// LastVisible returns the last displayed page, or the zero Page.
func (s *Stream) LastVisible() Page {
	visible := s.Visible()
	if len(visible) == 0 {
		return Page{}
	}
	return visible[len(visible)-1]
}

// PageOf returns the page hosting n, or the zero Page.
func (s *Stream) PageOf(n *html.Node) Page {
	section := dom.Closest(n, func(c *html.Node) bool {
		return dom.HasClass(c, PageClass)
	})
	if section == nil || section.Parent != s.root {
		return Page{}
	}
	return Wrap(section)
}

// InsertAfter places p right after anchor, or at the end of the stream when
// anchor is zero or foreign. It reports false, leaving the tree unchanged,
// when the stream is full.
func (s *Stream) InsertAfter(anchor, p Page) bool {
	if p.IsZero() || !s.HasRoom() {
		return false
	}
	if anchor.IsZero() || anchor.node.Parent != s.root {
		dom.Append(s.root, p.node)
		return true
	}
	dom.InsertAfter(anchor.node, p.node)
	return true
}

// Append places p at the end of the stream, subject to the cap.
func (s *Stream) Append(p Page) bool {
	return s.InsertAfter(Page{}, p)
}

// Remove detaches p.
func (s *Stream) Remove(p Page) {
	if !p.IsZero() && p.node.Parent == s.root {
		dom.Detach(p.node)
	}
}

// RemoveAllOfKind detaches every page of kind and returns how many went.
func (s *Stream) RemoveAllOfKind(kind Kind) int {
	pages := s.OfKind(kind)
	for _, p := range pages {
		s.Remove(p)
	}
	return len(pages)
}
