// Package markdown converts Markdown-authored notes, letterhead bodies and
// payment advice into the HTML fragments the paginators lay out.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrConversion is returned when goldmark fails to render content.
var ErrConversion = errors.New("markdown conversion failed")

// Converter renders Markdown to HTML fragments using goldmark (pure Go).
type Converter struct {
	md goldmark.Markdown
}

// New creates a Converter with GFM extensions. Single newlines become <br>,
// matching how plain-text notes are shown.
func New() *Converter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Tables, strikethrough, autolinks, task lists
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &Converter{md: md}
}

// ToHTML converts content to an HTML fragment, one top-level element per
// block so continuation pages can split between them. Raw HTML in content is
// escaped.
//
// Goldmark has no context support, so conversion runs in a goroutine and
// ctx only bounds the wait.
func (c *Converter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
