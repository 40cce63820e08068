package dom

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// RebasePaths rewrites relative img[src] and a[href] paths in an HTML
// fragment to absolute file:// URLs under dir, so the fragment renders the
// same wherever the composed document is written. Content without markup and
// an empty dir are returned unchanged.
//
// URLs, anchors, absolute paths and paths escaping dir are left alone.
func RebasePaths(content, dir string) (string, error) {
	if dir == "" || !strings.Contains(content, "<") {
		return content, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	nodes, err := ParseFragment(content)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	for _, n := range nodes {
		rebaseNode(n, abs)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// RebasePath returns p as a file:// URL under dir when p is a relative path
// that stays inside dir, and p unchanged otherwise.
func RebasePath(p, dir string) string {
	if dir == "" || !isRelativePath(p) {
		return p
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return p
	}
	full := filepath.Join(abs, p)
	if !isPathUnderDir(full, abs) {
		return p
	}
	return pathToFileURL(full)
}

func rebaseNode(n *html.Node, dir string) {
	switch {
	case IsElement(n, "img"):
		rebaseAttr(n, "src", dir)
	case IsElement(n, "a"):
		rebaseAttr(n, "href", dir)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rebaseNode(c, dir)
	}
}

func rebaseAttr(n *html.Node, key, dir string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = RebasePath(a.Val, dir)
		}
	}
}

// isRelativePath reports whether p is a relative file path: not a URL, an
// anchor or an absolute path.
func isRelativePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "#") || strings.HasPrefix(p, "//") || filepath.IsAbs(p) {
		return false
	}
	for _, scheme := range []string{"http://", "https://", "file://", "data:", "mailto:", "tel:"} {
		if strings.HasPrefix(p, scheme) {
			return false
		}
	}
	return true
}

// isPathUnderDir checks that full stays under dir after cleaning.
func isPathUnderDir(full, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(full)+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL, Windows paths
// included.
func pathToFileURL(abs string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}
