package pages

import (
	"fmt"
	"strconv"

	"github.com/alnah/go-docpager/internal/dom"
	"golang.org/x/net/html"
)

// Renumber writes "n" and the visible page count into every visible page
// footer. Hidden pages are skipped and their placeholders cleared.
func (s *Stream) Renumber() {
	visible := s.Visible()
	total := strconv.Itoa(len(visible))
	n := 0
	for _, p := range s.All() {
		number, count := "", ""
		if !p.Hidden() {
			n++
			number, count = strconv.Itoa(n), total
		}
		for _, el := range dom.FindAll(p.node, byClass(NumberClass)) {
			dom.SetText(el, number)
		}
		for _, el := range dom.FindAll(p.node, byClass(CountClass)) {
			dom.SetText(el, count)
		}
	}
}

// ApplyHeaders fills the two header cells of every page.
func (s *Stream) ApplyHeaders(left, right string) {
	for _, p := range s.All() {
		header := p.Header()
		if header == nil {
			continue
		}
		cells := dom.ElementChildren(header)
		if len(cells) == 0 {
			continue
		}
		dom.SetText(cells[0], left)
		if len(cells) > 1 {
			dom.SetText(cells[len(cells)-1], right)
		}
	}
}

// ApplyBackground sets the background image of every page. An empty url
// removes it.
func (s *Stream) ApplyBackground(url string) {
	value := ""
	if url != "" {
		value = fmt.Sprintf("url(%q)", url)
	}
	for _, p := range s.All() {
		dom.SetStyle(p.node, "background-image", value)
	}
}

func byClass(class string) func(n *html.Node) bool {
	return func(n *html.Node) bool { return dom.HasClass(n, class) }
}
