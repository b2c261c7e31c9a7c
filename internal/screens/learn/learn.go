package learn

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anzway/learnterm/internal/catalog"
	"github.com/anzway/learnterm/internal/router"
	"github.com/anzway/learnterm/internal/screen"
	"github.com/anzway/learnterm/internal/session"
	"github.com/anzway/learnterm/internal/ui/components"
	"github.com/anzway/learnterm/internal/ui/layout"
	"github.com/anzway/learnterm/internal/ui/theme"
)

// Backend is the slice of the API client the learn screen needs.
type Backend interface {
	session.Backend
	CatalogOptions(ctx context.Context, resource string, parents []catalog.Param) ([]catalog.Option, error)
}

type phase int

const (
	phaseSelect phase = iota
	phaseChat
)

// catalog endpoints per hierarchy level
var resources = []string{"classes", "subjects", "chapters"}

// LearnScreen drives a chapter tutoring session: pick class, subject and
// chapter, then chat with the tutor about it.
type LearnScreen struct {
	backend    Backend
	controller *session.Controller
	hierarchy  *catalog.Hierarchy
	selector   components.Selector
	chat       components.ChatLog
	input      components.TextInput

	phase  phase
	busy   bool
	errMsg string
	width  int
	height int
}

var _ screen.Screen = (*LearnScreen)(nil)
var _ screen.KeyHintProvider = (*LearnScreen)(nil)

// New creates the learn screen.
func New(backend Backend) *LearnScreen {
	h := catalog.NewHierarchy("class", "subject", "chapter")
	return &LearnScreen{
		backend:    backend,
		controller: session.NewController(backend),
		hierarchy:  h,
		selector:   components.NewSelector(h),
		chat:       components.NewChatLog(80, 20),
		input:      components.NewTextInput("Ask the tutor…", 500),
	}
}

func (s *LearnScreen) Init() tea.Cmd {
	return s.fetchOptions(s.hierarchy.RootFetch())
}

func (s *LearnScreen) Title() string {
	return "Learn"
}

func (s *LearnScreen) KeyHints() []layout.KeyHint {
	if s.phase == phaseChat {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Send"},
			{Key: "Ctrl+D", Description: "Finish"},
			{Key: "Esc", Description: "Back"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Field"},
		{Key: "Enter", Description: "Open"},
	}
	if s.hierarchy.FullyResolved() {
		hints = append(hints, layout.KeyHint{Key: "S", Description: "Start session"})
	}
	hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	return hints
}

func (s *LearnScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.chat.SetSize(msg.Width-4, chatHeight(msg.Height))
		return s, nil

	case optionsMsg:
		return s.handleOptions(msg)

	case startedMsg:
		return s.handleStarted(msg)

	case turnMsg:
		return s.handleTurn(msg)

	case finishedMsg:
		return s.handleFinished(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseChat {
		var cmd tea.Cmd
		s.chat, cmd = s.chat.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *LearnScreen) handleOptions(msg optionsMsg) (screen.Screen, tea.Cmd) {
	s.selector.SetLoading(-1)
	if msg.Err != nil {
		s.hierarchy.ClearOptions(msg.Level, msg.Generation)
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	if s.hierarchy.SetOptions(msg.Level, msg.Generation, msg.Options) {
		s.errMsg = ""
	}
	return s, nil
}

func (s *LearnScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.phase = phaseChat
	s.errMsg = ""
	s.chat.SetEntries(s.controller.Entries())
	return s, s.input.Init()
}

func (s *LearnScreen) handleTurn(msg turnMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
	} else {
		s.errMsg = ""
	}
	s.chat.SetEntries(s.controller.Entries())
	return s, nil
}

func (s *LearnScreen) handleFinished(msg finishedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	// Back to selection for the next chapter.
	s.phase = phaseSelect
	s.errMsg = ""
	if msg.Res != nil && msg.Res.Message != "" {
		s.errMsg = msg.Res.Message
	}
	return s, nil
}

func (s *LearnScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.phase == phaseChat {
		switch msg.String() {
		case "enter":
			return s.sendTurn()
		case "ctrl+d":
			return s.finish()
		case "esc":
			// Leaving the chat abandons the session client-side.
			s.controller.Reset()
			s.phase = phaseSelect
			return s, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	switch msg.String() {
	case "s":
		if !s.selector.Open() && s.hierarchy.FullyResolved() {
			return s.start()
		}
	case "esc":
		if !s.selector.Open() {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}

	var fetch *catalog.Fetch
	s.selector, fetch = s.selector.Update(msg)
	if fetch != nil {
		s.selector.SetLoading(fetch.Level)
		return s, s.fetchOptions(fetch)
	}
	return s, nil
}

func (s *LearnScreen) start() (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	s.busy = true
	controller, h := s.controller, s.hierarchy
	return s, func() tea.Msg {
		res, err := controller.Start(context.Background(), h)
		return startedMsg{Res: res, Err: err}
	}
}

func (s *LearnScreen) sendTurn() (screen.Screen, tea.Cmd) {
	text := s.input.Value()
	if text == "" || s.busy {
		return s, nil
	}
	s.input.Reset()
	s.busy = true
	controller := s.controller
	cmd := func() tea.Msg {
		res, err := controller.SendTurn(context.Background(), text)
		return turnMsg{Res: res, Err: err}
	}
	// Show the optimistic user entry immediately.
	s.chat.SetEntries(append(s.controller.Entries(),
		session.Entry{Sender: session.SenderUser, Content: text}))
	return s, cmd
}

func (s *LearnScreen) finish() (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	s.busy = true
	controller := s.controller
	return s, func() tea.Msg {
		res, err := controller.Finish(context.Background(), nil)
		return finishedMsg{Res: res, Err: err}
	}
}

func (s *LearnScreen) fetchOptions(fetch *catalog.Fetch) tea.Cmd {
	backend := s.backend
	f := *fetch
	return func() tea.Msg {
		opts, err := backend.CatalogOptions(context.Background(), resources[f.Level], f.Parents)
		return optionsMsg{Level: f.Level, Generation: f.Generation, Options: opts, Err: err}
	}
}

func (s *LearnScreen) View(width, height int) string {
	if s.phase == phaseChat {
		return s.viewChat(width, height)
	}
	return s.viewSelect(width, height)
}

func (s *LearnScreen) viewSelect(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render("Pick a chapter to study"))
	b.WriteString("\n\n")
	b.WriteString(s.selector.View())
	b.WriteString("\n")

	if s.hierarchy.FullyResolved() {
		label := "Start session"
		if s.busy {
			label = "Starting…"
		}
		b.WriteString("\n" + theme.ButtonActive.Render("  "+label+"  (s)"))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n" + theme.Incorrect.Render(s.errMsg))
	}

	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(b.String())
}

func (s *LearnScreen) viewChat(width, height int) string {
	s.chat.SetSize(width-4, chatHeight(height))

	var b strings.Builder
	b.WriteString(s.chat.View())
	b.WriteString("\n\n")
	if s.busy {
		b.WriteString(theme.Hint.Render("tutor is thinking…"))
	} else {
		b.WriteString(s.input.View())
	}
	if s.errMsg != "" {
		b.WriteString("\n" + theme.Incorrect.Render(s.errMsg))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(0, 2).Render(b.String())
}

func chatHeight(total int) int {
	h := total - 5
	if h < 3 {
		h = 3
	}
	return h
}
