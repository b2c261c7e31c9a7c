package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/config"
	"github.com/anzway/learnterm/internal/router"
	"github.com/anzway/learnterm/internal/screen"
	"github.com/anzway/learnterm/internal/screens/evaluate"
	"github.com/anzway/learnterm/internal/screens/history"
	"github.com/anzway/learnterm/internal/screens/home"
	"github.com/anzway/learnterm/internal/screens/learn"
	"github.com/anzway/learnterm/internal/screens/report"
	"github.com/anzway/learnterm/internal/screens/syllabus"
	"github.com/anzway/learnterm/internal/screens/voice"
	"github.com/anzway/learnterm/internal/store"
	"github.com/anzway/learnterm/internal/ui/layout"
)

// Options carries the wired dependencies into the TUI.
type Options struct {
	Config config.Config
	Client *api.Client
	Store  *store.Store

	// Start names a screen to open on top of home ("learn", "voice",
	// "evaluate", "syllabus", "report", "history"). Empty starts at home.
	Start string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router   *router.Router
	username string
	width    int
	height   int
}

// newAppModel creates the root model with the home screen at the bottom of
// the stack, optionally jumping straight to a mode screen.
func newAppModel(opts Options) AppModel {
	deps := home.Deps{
		Client: opts.Client,
		Config: opts.Config,
		Store:  opts.Store,
	}

	r := router.New(home.New(deps))
	if s := startScreen(opts); s != nil {
		r.Push(s)
	}

	return AppModel{
		router:   r,
		username: opts.Config.Username,
	}
}

func startScreen(opts Options) screen.Screen {
	switch opts.Start {
	case "learn":
		return learn.New(opts.Client)
	case "voice":
		return voice.New(opts.Client, opts.Config)
	case "evaluate":
		return evaluate.New(opts.Client, opts.Config, opts.Store)
	case "syllabus":
		return syllabus.New(opts.Client)
	case "report":
		return report.New(opts.Client)
	case "history":
		return history.New(opts.Store)
	}
	return nil
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Screens also see resizes, for viewport bookkeeping.

	case tea.KeyMsg:
		// Esc belongs to the screens: some use it to step back inside
		// themselves before popping.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.username, m.width)

	footerHints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if hp, ok := active.(screen.KeyHintProvider); ok {
		if hints := hp.KeyHints(); len(hints) > 0 {
			footerHints = hints
		}
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
