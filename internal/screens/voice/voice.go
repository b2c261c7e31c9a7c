package voice

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/catalog"
	"github.com/anzway/learnterm/internal/config"
	"github.com/anzway/learnterm/internal/media"
	"github.com/anzway/learnterm/internal/router"
	"github.com/anzway/learnterm/internal/screen"
	"github.com/anzway/learnterm/internal/session"
	"github.com/anzway/learnterm/internal/ui/components"
	"github.com/anzway/learnterm/internal/ui/layout"
	"github.com/anzway/learnterm/internal/ui/theme"
)

// Backend is the slice of the API client the voice screen needs.
type Backend interface {
	session.Backend
	CatalogOptions(ctx context.Context, resource string, parents []catalog.Param) ([]catalog.Option, error)
	SendAudioTurn(ctx context.Context, sessionID string, audio []byte) (*api.AudioTurnResult, error)
	GetAudioStatus(ctx context.Context, sessionID string) (*api.AudioStatus, error)
}

type phase int

const (
	phaseSelect phase = iota
	phaseLive
)

type liveState int

const (
	stateIdle liveState = iota
	stateRecording
	stateUploading
	stateWaiting
	statePlaying
)

// catalog endpoints per hierarchy level; the marks level is served from
// configuration instead.
var resources = []string{"subjects", "", "questions"}

// VoiceScreen drives a spoken tutoring session: the tutor's replies arrive
// as generated audio, the student answers through the microphone.
type VoiceScreen struct {
	backend    Backend
	controller *session.Controller
	bridge     *media.Bridge
	hierarchy  *catalog.Hierarchy
	selector   components.Selector
	chat       components.ChatLog
	pollCfg    media.PollConfig
	marks      []catalog.Option

	phase  phase
	state  liveState
	cancel context.CancelFunc
	busy   bool
	errMsg string
	notice string
}

var _ screen.Screen = (*VoiceScreen)(nil)
var _ screen.KeyHintProvider = (*VoiceScreen)(nil)

// New creates the voice screen. The microphone is probed lazily on the first
// record keypress, so the screen opens fine on machines without capture.
func New(backend Backend, cfg config.Config) *VoiceScreen {
	h := catalog.NewHierarchy("subject", "marks", "question")
	return &VoiceScreen{
		backend:    backend,
		controller: session.NewController(backend),
		hierarchy:  h,
		selector:   components.NewSelector(h),
		chat:       components.NewChatLog(80, 16),
		pollCfg:    media.PollConfig{Interval: cfg.PollInterval, MaxAttempts: cfg.PollBudget},
		marks:      catalog.MarkOptions(cfg.Marks),
	}
}

func (s *VoiceScreen) Init() tea.Cmd {
	return s.fetchOptions(s.hierarchy.RootFetch())
}

func (s *VoiceScreen) Title() string {
	return "Voice"
}

func (s *VoiceScreen) KeyHints() []layout.KeyHint {
	if s.phase == phaseLive {
		switch s.state {
		case stateRecording:
			return []layout.KeyHint{
				{Key: "Enter", Description: "Stop & send"},
				{Key: "C", Description: "Cancel take"},
			}
		case stateIdle:
			return []layout.KeyHint{
				{Key: "R", Description: "Record"},
				{Key: "Esc", Description: "End session"},
			}
		}
		return []layout.KeyHint{{Key: "Esc", Description: "End session"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Field"},
		{Key: "Enter", Description: "Open"},
		{Key: "S", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *VoiceScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.chat.SetSize(msg.Width-4, msg.Height-8)
		return s, nil
	case optionsMsg:
		return s.handleOptions(msg)
	case startedMsg:
		return s.handleStarted(msg)
	case audioReadyMsg:
		return s.handleAudioReady(msg)
	case playedMsg:
		return s.handlePlayed(msg)
	case recordingMsg:
		return s.handleRecording(msg)
	case uploadedMsg:
		return s.handleUploaded(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *VoiceScreen) handleOptions(msg optionsMsg) (screen.Screen, tea.Cmd) {
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

func (s *VoiceScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.phase = phaseLive
	s.errMsg = ""
	s.chat.SetEntries(s.controller.Entries())

	// The opening reply's audio is generated server-side; wait for it.
	s.state = stateWaiting
	s.notice = "tutor is preparing audio…"
	return s, s.waitForAudio()
}

func (s *VoiceScreen) handleAudioReady(msg audioReadyMsg) (screen.Screen, tea.Cmd) {
	s.cancel = nil
	if msg.Err != nil {
		s.state = stateIdle
		if errors.Is(msg.Err, media.ErrPollTimeout) {
			s.notice = "audio took too long — continuing without it"
			return s, nil
		}
		if errors.Is(msg.Err, context.Canceled) {
			return s, nil
		}
		s.errMsg = msg.Err.Error()
		return s, nil
	}

	s.state = statePlaying
	s.notice = "playing…"
	encoded := msg.Status.AudioBase64
	return s, func() tea.Msg {
		return playedMsg{Err: media.PlayBase64(context.Background(), encoded)}
	}
}

func (s *VoiceScreen) handlePlayed(msg playedMsg) (screen.Screen, tea.Cmd) {
	s.state = stateIdle
	if msg.Err != nil && !errors.Is(msg.Err, media.ErrMediaUnavailable) {
		s.errMsg = msg.Err.Error()
		s.notice = ""
		return s, nil
	}
	if errors.Is(msg.Err, media.ErrMediaUnavailable) {
		s.notice = "no audio player found — read the transcript instead"
	} else {
		s.notice = "your turn: press R to answer"
	}
	return s, nil
}

func (s *VoiceScreen) handleRecording(msg recordingMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.state = stateIdle
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.state = stateRecording
	s.notice = "recording — Enter to send"
	return s, nil
}

func (s *VoiceScreen) handleUploaded(msg uploadedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.state = stateIdle
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.errMsg = ""
	if msg.Res.Reply != "" {
		s.controller.AppendSystem(msg.Res.Reply)
		s.chat.SetEntries(s.controller.Entries())
	}
	s.state = stateWaiting
	s.notice = "tutor is preparing audio…"
	return s, s.waitForAudio()
}

func (s *VoiceScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.phase == phaseLive {
		return s.handleLiveKey(msg)
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

func (s *VoiceScreen) handleLiveKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.leave()
		return s, nil
	case "r":
		if s.state == stateIdle {
			return s.record()
		}
	case "enter", "space":
		if s.state == stateRecording {
			return s.stopAndSend()
		}
	case "c":
		if s.state == stateRecording {
			s.bridge.CancelRecording()
			s.state = stateIdle
			s.notice = "take discarded"
		}
	}
	return s, nil
}

// leave abandons the session and any in-flight wait, and returns to the
// selection phase.
func (s *VoiceScreen) leave() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.bridge != nil && s.bridge.State() == media.StateRecording {
		s.bridge.CancelRecording()
	}
	s.controller.Reset()
	s.phase = phaseSelect
	s.state = stateIdle
	s.notice = ""
}

func (s *VoiceScreen) start() (screen.Screen, tea.Cmd) {
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

func (s *VoiceScreen) record() (screen.Screen, tea.Cmd) {
	if s.bridge == nil {
		rec, err := media.NewExecRecorder()
		if err != nil {
			s.errMsg = err.Error()
			return s, nil
		}
		s.bridge = media.NewBridge(rec, s.backend)
	}
	bridge := s.bridge
	return s, func() tea.Msg {
		return recordingMsg{Err: bridge.StartRecording(context.Background())}
	}
}

func (s *VoiceScreen) stopAndSend() (screen.Screen, tea.Cmd) {
	s.state = stateUploading
	s.notice = "sending…"
	bridge := s.bridge
	sid := s.controller.SessionID()
	return s, func() tea.Msg {
		res, err := bridge.StopAndUpload(context.Background(), sid)
		return uploadedMsg{Res: res, Err: err}
	}
}

// waitForAudio polls readiness off the UI loop. Leaving the session cancels
// the context, which ends the poll.
func (s *VoiceScreen) waitForAudio() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	backend := s.backend
	sid := s.controller.SessionID()
	cfg := s.pollCfg
	return func() tea.Msg {
		status, err := media.WaitForAudio(ctx, backend, sid, cfg)
		return audioReadyMsg{Status: status, Err: err}
	}
}

func (s *VoiceScreen) fetchOptions(fetch *catalog.Fetch) tea.Cmd {
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

func (s *VoiceScreen) View(width, height int) string {
	if s.phase == phaseLive {
		return s.viewLive(width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render("Voice tutoring"))
	b.WriteString("\n\n")
	b.WriteString(s.selector.View())
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

func (s *VoiceScreen) viewLive(width, height int) string {
	s.chat.SetSize(width-4, height-6)

	var status string
	switch s.state {
	case stateRecording:
		status = theme.Incorrect.Render("● REC")
	case stateUploading, stateWaiting:
		status = theme.Hint.Render(s.notice)
	case statePlaying:
		status = theme.Correct.Render("▶ " + s.notice)
	default:
		status = theme.Hint.Render(s.notice)
	}

	var b strings.Builder
	b.WriteString(s.chat.View())
	b.WriteString("\n\n")
	b.WriteString(status)
	if s.errMsg != "" {
		b.WriteString("\n" + theme.Incorrect.Render(s.errMsg))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(0, 2).Render(b.String())
}
