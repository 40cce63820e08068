package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// declaration is one property: value pair of an inline style attribute.
type declaration struct {
	prop  string
	value string
}

func parseStyle(s string) []declaration {
	var out []declaration
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		out = append(out, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// Style returns the inline value of prop, or "".
func Style(n *html.Node, prop string) string {
	prop = strings.ToLower(prop)
	for _, d := range parseStyle(Attr(n, "style")) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// SetStyle sets an inline property. An empty value removes it, and the
// style attribute itself goes away once empty.
func SetStyle(n *html.Node, prop, value string) {
	prop = strings.ToLower(prop)
	decls := parseStyle(Attr(n, "style"))
	out := decls[:0]
	replaced := false
	for _, d := range decls {
		if d.prop != prop {
			out = append(out, d)
			continue
		}
		if value != "" && !replaced {
			out = append(out, declaration{prop: prop, value: value})
			replaced = true
		}
	}
	if value != "" && !replaced {
		out = append(out, declaration{prop: prop, value: value})
	}
	if len(out) == 0 {
		RemoveAttr(n, "style")
		return
	}
	SetAttr(n, "style", formatStyle(out))
}

// IsHidden reports whether n is taken out of layout, either by an inline
// display:none or by the "hidden" utility class.
func IsHidden(n *html.Node) bool {
	return strings.EqualFold(Style(n, "display"), "none") || HasClass(n, "hidden")
}

// SetHidden toggles an inline display:none on n. Showing n also drops the
// hidden class.
func SetHidden(n *html.Node, hidden bool) {
	if hidden {
		SetStyle(n, "display", "none")
		return
	}
	SetStyle(n, "display", "")
	RemoveClass(n, "hidden")
}
