package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/config"
	"github.com/anzway/learnterm/internal/router"
	"github.com/anzway/learnterm/internal/screen"
	"github.com/anzway/learnterm/internal/screens/evaluate"
	"github.com/anzway/learnterm/internal/screens/history"
	"github.com/anzway/learnterm/internal/screens/learn"
	"github.com/anzway/learnterm/internal/screens/report"
	"github.com/anzway/learnterm/internal/screens/syllabus"
	"github.com/anzway/learnterm/internal/screens/voice"
	"github.com/anzway/learnterm/internal/store"
	"github.com/anzway/learnterm/internal/ui/components"
	"github.com/anzway/learnterm/internal/ui/theme"
)

// AccessChecker asks the backend whether the student may start sessions.
type AccessChecker interface {
	CheckAccess(ctx context.Context) (bool, error)
}

// Deps bundles what the home screen hands to the mode screens.
type Deps struct {
	Client *api.Client
	Config config.Config
	Store  *store.Store
}

// accessMsg reports the usage-limit check result.
type accessMsg struct {
	allowed bool
	err     error
}

// HomeScreen is the mode-selection menu.
type HomeScreen struct {
	deps    Deps
	checker AccessChecker
	menu    components.Menu
	checked bool
	allowed bool
	errMsg  string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps, allowed: true}
	if deps.Client != nil {
		h.checker = deps.Client
	}
	h.menu = components.NewMenu(h.menuItems())
	return h
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	gated := h.checked && !h.allowed
	push := func(s screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
		}
	}

	return []components.MenuItem{
		{Label: "LEARN A CHAPTER", Disabled: gated,
			Action: push(learn.New(h.deps.Client))},
		{Label: "VOICE TUTOR", Disabled: gated,
			Action: push(voice.New(h.deps.Client, h.deps.Config))},
		{Label: "PRACTICE QUESTIONS", Disabled: gated,
			Action: push(evaluate.New(h.deps.Client, h.deps.Config, h.deps.Store))},
		{Label: "SYLLABUS",
			Action: push(syllabus.New(h.deps.Client))},
		{Label: "PREPARATION REPORT",
			Action: push(report.New(h.deps.Client))},
		{Label: "PAST SESSIONS",
			Action: push(history.New(h.deps.Store))},
		{Label: "EXIT", Action: func() tea.Cmd { return tea.Quit }},
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	if h.checker == nil {
		return nil
	}
	checker := h.checker
	return func() tea.Msg {
		allowed, err := checker.CheckAccess(context.Background())
		return accessMsg{allowed: allowed, err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case accessMsg:
		h.checked = true
		if msg.err != nil {
			// The gate stays open when the check itself fails; the
			// backend still enforces limits on session start.
			h.allowed = true
			h.errMsg = msg.err.Error()
		} else {
			h.allowed = msg.allowed
		}
		h.menu = components.NewMenu(h.menuItems())
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var sections []string

	sections = append(sections,
		theme.Title.Width(width).Render("A N Z W A Y"),
		theme.Subtitle.Width(width).Render("your tutor in the terminal"),
		"")

	if h.checked && !h.allowed {
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.Error).Width(width).Align(lipgloss.Center).
				Render("Daily usage limit reached — tutoring modes are locked for today."),
			"")
	}
	if h.errMsg != "" {
		sections = append(sections,
			theme.Hint.Width(width).Align(lipgloss.Center).Render("offline: "+h.errMsg),
			"")
	}

	menu := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(h.menu.View())
	sections = append(sections, menu)

	content := strings.Join(sections, "\n")
	return lipgloss.NewStyle().Width(width).Height(height).
		AlignVertical(lipgloss.Center).Render(content)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
