package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, content string) *html.Node {
	t.Helper()
	root := Element("div", "id", "root")
	if err := SetInnerHTML(root, content); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}
	return root
}

func TestClasses(t *testing.T) {
	t.Parallel()

	n := Element("div", "class", "a b")
	AddClass(n, "c")
	AddClass(n, "a")
	if got := Attr(n, "class"); got != "a b c" {
		t.Errorf("class = %q, want %q", got, "a b c")
	}
	RemoveClass(n, "b")
	if HasClass(n, "b") {
		t.Error("HasClass(b) = true after RemoveClass")
	}
	ToggleClass(n, "hidden", true)
	if !IsHidden(n) {
		t.Error("IsHidden() = false with hidden class")
	}
	ToggleClass(n, "hidden", false)
	if IsHidden(n) {
		t.Error("IsHidden() = true after removing hidden class")
	}
}

func TestSetStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		initial  string
		prop     string
		value    string
		expected string
	}{
		{name: "adds to empty", initial: "", prop: "margin-top", value: "96px", expected: "margin-top: 96px"},
		{name: "replaces existing", initial: "margin-top: 24px", prop: "margin-top", value: "96px", expected: "margin-top: 96px"},
		{name: "keeps others", initial: "color: red;display:none", prop: "display", value: "", expected: "color: red"},
		{name: "case-insensitive property", initial: "DISPLAY: none", prop: "display", value: "block", expected: "display: block"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := Element("div")
			if tt.initial != "" {
				SetAttr(n, "style", tt.initial)
			}
			SetStyle(n, tt.prop, tt.value)
			if got := Attr(n, "style"); got != tt.expected {
				t.Errorf("style = %q, want %q", got, tt.expected)
			}
		})
	}

	t.Run("removing last property drops attribute", func(t *testing.T) {
		t.Parallel()

		n := Element("div", "style", "display: none")
		SetHidden(n, false)
		if HasAttr(n, "style") {
			t.Errorf("style attribute still present: %q", Attr(n, "style"))
		}
	})
}

func TestCloneDeep(t *testing.T) {
	t.Parallel()

	root := mustParse(t, `<p class="x">Hello <strong>world</strong></p>`)
	p := ElementChildren(root)[0]

	clone := CloneDeep(p)
	if clone.Parent != nil {
		t.Fatal("clone should be detached")
	}
	SetAttr(clone, "class", "y")
	if Attr(p, "class") != "x" {
		t.Error("mutating the clone changed the original")
	}
	if TextContent(clone) != "Hello world" {
		t.Errorf("TextContent(clone) = %q", TextContent(clone))
	}
}

func TestMoves(t *testing.T) {
	t.Parallel()

	root := mustParse(t, `<div id="a"></div><div id="b"></div><div id="c"></div>`)
	a, b, c := ByID(root, "a"), ByID(root, "b"), ByID(root, "c")

	InsertAfter(c, a)
	got := []string{}
	for _, n := range ElementChildren(root) {
		got = append(got, Attr(n, "id"))
	}
	if strings.Join(got, ",") != "b,c,a" {
		t.Errorf("order after InsertAfter = %v", got)
	}

	InsertBefore(root, a, b)
	if ElementChildren(root)[0] != a {
		t.Error("InsertBefore did not move a to the front")
	}

	Append(b, c)
	if c.Parent != b || !Contains(root, c) {
		t.Error("Append did not reparent c under b")
	}
	if Closest(c, func(n *html.Node) bool { return Attr(n, "id") == "root" }) != root {
		t.Error("Closest did not find root")
	}
}

func TestHasVisibleText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"<p></p>", false},
		{"<p>&nbsp;</p><br>", false},
		{"<p> x </p>", true},
		{"plain", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := HasVisibleText(tt.input); got != tt.expected {
				t.Errorf("HasVisibleText(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInnerHTMLRoundTrip(t *testing.T) {
	t.Parallel()

	const content = `<p>One</p><ul><li>Two</li></ul>`
	root := mustParse(t, content)
	got, err := InnerHTML(root)
	if err != nil {
		t.Fatalf("InnerHTML() error = %v", err)
	}
	if got != content {
		t.Errorf("InnerHTML() = %q, want %q", got, content)
	}
}
