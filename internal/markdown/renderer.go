// Package markdown renders backend reply text for the terminal. The web
// frontends this client replaces injected server markdown straight into the
// DOM; here replies go through glamour, which parses and styles them without
// ever interpreting raw markup.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer converts markdown reply text into styled terminal output.
type Renderer struct {
	tr    *glamour.TermRenderer
	width int
}

// NewRenderer creates a renderer wrapping at the given width.
func NewRenderer(width int) *Renderer {
	if width < 20 {
		width = 20
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		tr = nil
	}
	return &Renderer{tr: tr, width: width}
}

// Width returns the wrap width the renderer was built with.
func (r *Renderer) Width() int { return r.width }

// Render returns the styled form of content. When rendering fails the raw
// text comes back unchanged — a reply must never be lost to a styling error.
func (r *Renderer) Render(content string) string {
	if r.tr == nil {
		return content
	}
	out, err := r.tr.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
