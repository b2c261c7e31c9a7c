package components

import (
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/anzway/learnterm/internal/markdown"
	"github.com/anzway/learnterm/internal/session"
	"github.com/anzway/learnterm/internal/ui/theme"
)

// ChatLog renders an interaction transcript inside a scrollable viewport.
// Tutor replies pass through the markdown renderer; student lines stay raw.
type ChatLog struct {
	vp       viewport.Model
	renderer *markdown.Renderer
	width    int
}

// NewChatLog creates a chat log sized to the given viewport.
func NewChatLog(width, height int) ChatLog {
	vp := viewport.New(viewport.WithWidth(width), viewport.WithHeight(height))
	return ChatLog{
		vp:       vp,
		renderer: markdown.NewRenderer(width - 4),
		width:    width,
	}
}

// SetSize resizes the viewport and rebuilds the renderer for the new wrap
// width.
func (c *ChatLog) SetSize(width, height int) {
	if width != c.width {
		c.renderer = markdown.NewRenderer(width - 4)
		c.width = width
	}
	c.vp.SetWidth(width)
	c.vp.SetHeight(height)
}

// SetEntries replaces the transcript content and scrolls to the bottom.
func (c *ChatLog) SetEntries(entries []session.Entry) {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.Sender {
		case session.SenderUser:
			b.WriteString(theme.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(theme.Body.Render(e.Content))
		default:
			b.WriteString(theme.TutorLabel.Render("Tutor"))
			b.WriteString("\n")
			b.WriteString(c.renderer.Render(e.Content))
		}
	}
	c.vp.SetContent(b.String())
	c.vp.GotoBottom()
}

// Update forwards scroll keys to the viewport.
func (c ChatLog) Update(msg tea.Msg) (ChatLog, tea.Cmd) {
	var cmd tea.Cmd
	c.vp, cmd = c.vp.Update(msg)
	return c, cmd
}

// View renders the viewport.
func (c ChatLog) View() string {
	return c.vp.View()
}
