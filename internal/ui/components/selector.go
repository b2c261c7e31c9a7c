package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anzway/learnterm/internal/catalog"
	"github.com/anzway/learnterm/internal/ui/theme"
)

// Selector renders a catalog.Hierarchy as a column of dependent dropdowns.
// Choosing a value at one level clears everything below it; the armed fetch
// the hierarchy hands back is returned to the owning screen, which turns it
// into a backend call.
type Selector struct {
	Hierarchy *catalog.Hierarchy

	focus   int  // level the cursor is on
	open    bool // dropdown expanded on the focused level
	cursor  int  // option index inside the open dropdown
	loading int  // level currently fetching, -1 when none
}

// NewSelector creates a selector over the given hierarchy.
func NewSelector(h *catalog.Hierarchy) Selector {
	return Selector{Hierarchy: h, loading: -1}
}

// SetLoading marks a level as waiting on options. Pass -1 to clear.
func (s *Selector) SetLoading(level int) {
	s.loading = level
}

// Focused returns the level the cursor is on.
func (s Selector) Focused() int { return s.focus }

// Open reports whether a dropdown is expanded.
func (s Selector) Open() bool { return s.open }

// Update handles navigation. When the user picks a value it returns the
// fetch the hierarchy armed for the next level (nil otherwise).
func (s Selector) Update(msg tea.Msg) (Selector, *catalog.Fetch) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.open {
		return s.updateOpen(kmsg)
	}

	switch kmsg.String() {
	case "up", "k":
		for i := s.focus - 1; i >= 0; i-- {
			if s.Hierarchy.Enabled(i) {
				s.focus = i
				break
			}
		}
	case "down", "j":
		for i := s.focus + 1; i < s.Hierarchy.Len(); i++ {
			if s.Hierarchy.Enabled(i) {
				s.focus = i
				break
			}
		}
	case "enter", "space":
		if s.Hierarchy.Enabled(s.focus) && len(s.Hierarchy.Options(s.focus)) > 0 {
			s.open = true
			s.cursor = s.currentOptionIndex()
		}
	}
	return s, nil
}

func (s Selector) updateOpen(kmsg tea.KeyMsg) (Selector, *catalog.Fetch) {
	opts := s.Hierarchy.Options(s.focus)
	switch kmsg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(opts)-1 {
			s.cursor++
		}
	case "esc":
		s.open = false
	case "enter":
		s.open = false
		if s.cursor >= 0 && s.cursor < len(opts) {
			fetch := s.Hierarchy.SetValue(s.focus, opts[s.cursor].Value)
			if fetch != nil && s.focus+1 < s.Hierarchy.Len() {
				s.focus++
			}
			return s, fetch
		}
	}
	return s, nil
}

func (s Selector) currentOptionIndex() int {
	value := s.Hierarchy.Value(s.focus)
	for i, opt := range s.Hierarchy.Options(s.focus) {
		if opt.Value == value {
			return i
		}
	}
	return 0
}

// View renders the dropdown column.
func (s Selector) View() string {
	var out string
	for i := 0; i < s.Hierarchy.Len(); i++ {
		out += s.viewLevel(i)
	}
	return out
}

func (s Selector) viewLevel(i int) string {
	name := lipgloss.NewStyle().Foreground(theme.TextDim).Render(s.Hierarchy.Name(i))

	var value string
	switch {
	case s.loading == i:
		value = theme.Hint.Render("loading…")
	case !s.Hierarchy.Enabled(i):
		value = lipgloss.NewStyle().Foreground(theme.Border).Render("—")
	case s.Hierarchy.Value(i) == "":
		value = theme.Hint.Render("choose…")
	default:
		value = lipgloss.NewStyle().Foreground(theme.Text).
			Render(catalog.DisplayLabel(s.Hierarchy.Value(i)))
	}

	marker := "  "
	if i == s.focus {
		marker = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("▸ ")
	}

	line := fmt.Sprintf("%s%s  %s\n", marker, name, value)

	if s.open && i == s.focus {
		for j, opt := range s.Hierarchy.Options(i) {
			if j == s.cursor {
				line += lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).
					Render("      ▸ "+opt.Label) + "\n"
			} else {
				line += lipgloss.NewStyle().Foreground(theme.Text).
					Render("        "+opt.Label) + "\n"
			}
		}
	}
	return line
}
