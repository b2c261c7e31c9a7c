package evaluate

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anzway/learnterm/internal/catalog"
	"github.com/anzway/learnterm/internal/config"
	"github.com/anzway/learnterm/internal/router"
	"github.com/anzway/learnterm/internal/screen"
	"github.com/anzway/learnterm/internal/session"
	"github.com/anzway/learnterm/internal/store"
	"github.com/anzway/learnterm/internal/ui/components"
	"github.com/anzway/learnterm/internal/ui/layout"
	"github.com/anzway/learnterm/internal/ui/theme"
)

// Backend is the slice of the API client the practice screen needs.
type Backend interface {
	session.Backend
	CatalogOptions(ctx context.Context, resource string, parents []catalog.Param) ([]catalog.Option, error)
}

type phase int

const (
	phaseSelect phase = iota
	phaseAnswer
	phaseDone
)

// catalog endpoints per hierarchy level; the marks level is served from
// configuration instead.
var resources = []string{"subjects", "", "questions"}

// EvaluateScreen runs a question-bank practice session: pick subject, mark
// weight and question, answer every question the backend hands out, then
// finish.
type EvaluateScreen struct {
	backend    Backend
	controller *session.Controller
	history    store.HistoryRepo
	hierarchy  *catalog.Hierarchy
	selector   components.Selector
	chat       components.ChatLog
	input      components.TextInput
	marks      []catalog.Option

	phase     phase
	total     int
	startedAt time.Time
	doneMsg   string
	busy      bool
	errMsg    string
}

var _ screen.Screen = (*EvaluateScreen)(nil)
var _ screen.KeyHintProvider = (*EvaluateScreen)(nil)

// New creates the practice screen. st may be nil; history saving is then
// skipped.
func New(backend Backend, cfg config.Config, st *store.Store) *EvaluateScreen {
	h := catalog.NewHierarchy("subject", "marks", "question")
	s := &EvaluateScreen{
		backend:    backend,
		controller: session.NewController(backend),
		hierarchy:  h,
		selector:   components.NewSelector(h),
		chat:       components.NewChatLog(80, 16),
		input:      components.NewTextInput("Type your answer…", 1000),
		marks:      catalog.MarkOptions(cfg.Marks),
	}
	if st != nil {
		s.history = st.History()
	}
	return s
}

func (s *EvaluateScreen) Init() tea.Cmd {
	return s.fetchOptions(s.hierarchy.RootFetch())
}

func (s *EvaluateScreen) Title() string {
	return "Practice"
}

func (s *EvaluateScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseAnswer:
		hints := []layout.KeyHint{{Key: "Enter", Description: "Submit answer"}}
		if s.controller.CanFinish() {
			hints = append(hints, layout.KeyHint{Key: "Ctrl+D", Description: "Finish"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Abandon"})
	case phaseDone:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Field"},
		{Key: "Enter", Description: "Open"},
		{Key: "S", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *EvaluateScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
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
	return s, nil
}

func (s *EvaluateScreen) handleOptions(msg optionsMsg) (screen.Screen, tea.Cmd) {
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

func (s *EvaluateScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.phase = phaseAnswer
	s.errMsg = ""
	s.total = len(msg.Res.Questions)
	s.startedAt = time.Now()
	s.chat.SetEntries(s.controller.Entries())
	return s, s.input.Init()
}

func (s *EvaluateScreen) handleTurn(msg turnMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
	} else {
		s.errMsg = ""
	}
	s.chat.SetEntries(s.controller.Entries())
	return s, nil
}

func (s *EvaluateScreen) handleFinished(msg finishedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.phase = phaseDone
	s.errMsg = ""
	if msg.SaveErr != nil {
		s.errMsg = "history not saved: " + msg.SaveErr.Error()
	}
	s.doneMsg = "Session complete."
	if msg.Res != nil && msg.Res.Message != "" {
		s.doneMsg = msg.Res.Message
	}
	return s, nil
}

func (s *EvaluateScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch s.phase {
	case phaseAnswer:
		switch msg.String() {
		case "enter":
			return s.sendAnswer()
		case "ctrl+d":
			return s.finish()
		case "esc":
			s.controller.Reset()
			s.phase = phaseSelect
			return s, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case phaseDone:
		if msg.String() == "esc" || msg.String() == "enter" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
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

func (s *EvaluateScreen) start() (screen.Screen, tea.Cmd) {
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

func (s *EvaluateScreen) sendAnswer() (screen.Screen, tea.Cmd) {
	text := s.input.Value()
	if text == "" || s.busy {
		return s, nil
	}
	s.input.Reset()
	s.busy = true
	controller := s.controller
	s.chat.SetEntries(append(s.controller.Entries(),
		session.Entry{Sender: session.SenderUser, Content: text}))
	return s, func() tea.Msg {
		res, err := controller.SendTurn(context.Background(), text)
		return turnMsg{Res: res, Err: err}
	}
}

// finish closes the session and writes the transcript to local history. The
// controller refuses while questions remain.
func (s *EvaluateScreen) finish() (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	s.busy = true
	controller := s.controller
	history := s.history
	selection := selectionLabel(s.hierarchy)
	entries := controller.Entries()
	sid := controller.SessionID()
	turns := countUserTurns(entries)
	startedAt := s.startedAt

	return s, func() tea.Msg {
		res, err := controller.Finish(context.Background(), map[string]any{
			"questions_total": len(entries),
		})
		if err != nil {
			return finishedMsg{Err: err}
		}
		var saveErr error
		if history != nil {
			recs := make([]store.EntryRecord, len(entries))
			for i, e := range entries {
				recs[i] = store.EntryRecord{Seq: i, Sender: string(e.Sender), Content: e.Content}
			}
			_, saveErr = history.SaveSession(context.Background(), store.SessionRecord{
				SessionID:  sid,
				Mode:       "evaluate",
				Selection:  selection,
				Turns:      turns,
				StartedAt:  startedAt,
				FinishedAt: time.Now(),
			}, recs)
		}
		return finishedMsg{Res: res, SaveErr: saveErr}
	}
}

func (s *EvaluateScreen) fetchOptions(fetch *catalog.Fetch) tea.Cmd {
	f := *fetch
	if f.Level == 1 {
		// Mark weights come from configuration, not a backend catalog.
		marks := s.marks
		return func() tea.Msg {
			return optionsMsg{Level: f.Level, Generation: f.Generation, Options: marks}
		}
	}
	backend := s.backend
	return func() tea.Msg {
		opts, err := backend.CatalogOptions(context.Background(), resources[f.Level], f.Parents)
		return optionsMsg{Level: f.Level, Generation: f.Generation, Options: opts, Err: err}
	}
}

func (s *EvaluateScreen) View(width, height int) string {
	switch s.phase {
	case phaseAnswer:
		return s.viewAnswer(width, height)
	case phaseDone:
		content := theme.Correct.Render(s.doneMsg) + "\n\n" +
			theme.Hint.Render("Press Esc to go back.")
		return lipgloss.NewStyle().Width(width).Height(height).
			Align(lipgloss.Center).AlignVertical(lipgloss.Center).Render(content)
	}
	return s.viewSelect(width, height)
}

func (s *EvaluateScreen) viewSelect(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render("Practice questions"))
	b.WriteString("\n\n")
	b.WriteString(s.selector.View())
	if s.hierarchy.FullyResolved() {
		label := "Start practice"
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

func (s *EvaluateScreen) viewAnswer(width, height int) string {
	s.chat.SetSize(width-4, chatHeight(height))

	remaining := s.controller.Remaining()
	done := s.total - len(remaining)

	var b strings.Builder
	b.WriteString(components.NewProgressBar("Progress", done, s.total, width-8).View())
	b.WriteString("\n\n")
	b.WriteString(s.chat.View())
	b.WriteString("\n\n")
	if s.busy {
		b.WriteString(theme.Hint.Render("evaluating…"))
	} else if s.controller.CanFinish() {
		b.WriteString(theme.Correct.Render("All questions done — Ctrl+D to finish."))
		b.WriteString("\n")
		b.WriteString(s.input.View())
	} else {
		b.WriteString(s.input.View())
	}
	if s.errMsg != "" {
		b.WriteString("\n" + theme.Incorrect.Render(s.errMsg))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(0, 2).Render(b.String())
}

func selectionLabel(h *catalog.Hierarchy) string {
	parts := make([]string, 0, h.Len())
	for _, p := range h.Params() {
		parts = append(parts, catalog.DisplayLabel(p.Value))
	}
	return strings.Join(parts, " / ")
}

func countUserTurns(entries []session.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Sender == session.SenderUser {
			n++
		}
	}
	return n
}

func chatHeight(total int) int {
	h := total - 8
	if h < 3 {
		h = 3
	}
	return h
}
