package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anzway/learnterm/internal/markdown"
	"github.com/anzway/learnterm/internal/router"
	"github.com/anzway/learnterm/internal/screen"
	"github.com/anzway/learnterm/internal/store"
	"github.com/anzway/learnterm/internal/ui/layout"
	"github.com/anzway/learnterm/internal/ui/theme"
)

const listLimit = 50

// sessionsMsg carries the loaded session list.
type sessionsMsg struct {
	Sessions []store.SessionRecord
	Err      error
}

// entriesMsg carries one session's transcript.
type entriesMsg struct {
	RowID   int64
	Entries []store.EntryRecord
	Err     error
}

// HistoryScreen browses locally saved sessions and their transcripts.
type HistoryScreen struct {
	repo store.HistoryRepo

	sessions []store.SessionRecord
	cursor   int
	entries  []store.EntryRecord
	viewing  bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates the history screen. st may be nil when no database is open.
func New(st *store.Store) *HistoryScreen {
	h := &HistoryScreen{}
	if st != nil {
		h.repo = st.History()
	}
	return h
}

func (h *HistoryScreen) Init() tea.Cmd {
	if h.repo == nil {
		return nil
	}
	repo := h.repo
	return func() tea.Msg {
		sessions, err := repo.ListSessions(context.Background(), listLimit)
		return sessionsMsg{Sessions: sessions, Err: err}
	}
}

func (h *HistoryScreen) Title() string {
	return "History"
}

func (h *HistoryScreen) KeyHints() []layout.KeyHint {
	if h.viewing {
		return []layout.KeyHint{{Key: "Esc", Description: "Back to list"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "Esc", Description: "Back"},
	}
}

func (h *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsMsg:
		h.loaded = true
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.sessions = msg.Sessions
		return h, nil

	case entriesMsg:
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.entries = msg.Entries
		h.viewing = true
		return h, nil

	case tea.KeyMsg:
		return h.handleKey(msg)
	}
	return h, nil
}

func (h *HistoryScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if h.viewing {
		if msg.String() == "esc" {
			h.viewing = false
			h.entries = nil
		}
		return h, nil
	}

	switch msg.String() {
	case "up", "k":
		if h.cursor > 0 {
			h.cursor--
		}
	case "down", "j":
		if h.cursor < len(h.sessions)-1 {
			h.cursor++
		}
	case "enter":
		if h.cursor < len(h.sessions) && h.repo != nil {
			repo := h.repo
			rowID := h.sessions[h.cursor].ID
			return h, func() tea.Msg {
				entries, err := repo.SessionEntries(context.Background(), rowID)
				return entriesMsg{RowID: rowID, Entries: entries, Err: err}
			}
		}
	case "esc":
		return h, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return h, nil
}

func (h *HistoryScreen) View(width, height int) string {
	if h.viewing {
		return h.viewTranscript(width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render("Past sessions"))
	b.WriteString("\n\n")

	switch {
	case h.repo == nil:
		b.WriteString(theme.Hint.Render("No history database is open."))
	case h.loaded && len(h.sessions) == 0:
		b.WriteString(theme.Hint.Render("No finished sessions yet."))
	default:
		for i, rec := range h.sessions {
			line := fmt.Sprintf("%s  %-9s %-32s %d turns",
				rec.FinishedAt.Format("2006-01-02 15:04"),
				rec.Mode, rec.Selection, rec.Turns)
			if i == h.cursor {
				b.WriteString(theme.Selected.Render("  ▸ "+line) + "\n")
			} else {
				b.WriteString(theme.Unselected.Render("    "+line) + "\n")
			}
		}
	}

	if h.errMsg != "" {
		b.WriteString("\n" + theme.Incorrect.Render(h.errMsg))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(b.String())
}

func (h *HistoryScreen) viewTranscript(width, height int) string {
	renderer := markdown.NewRenderer(width - 8)

	var b strings.Builder
	rec := h.sessions[h.cursor]
	b.WriteString(theme.Title.Width(width).Render(rec.Selection))
	b.WriteString("\n\n")
	for _, e := range h.entries {
		if e.Sender == "user" {
			b.WriteString(theme.UserLabel.Render("You") + "\n")
			b.WriteString(e.Content + "\n\n")
		} else {
			b.WriteString(theme.TutorLabel.Render("Tutor") + "\n")
			b.WriteString(renderer.Render(e.Content) + "\n\n")
		}
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(b.String())
}
