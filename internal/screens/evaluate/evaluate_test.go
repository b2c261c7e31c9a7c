package evaluate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/catalog"
	"github.com/anzway/learnterm/internal/config"
	"github.com/anzway/learnterm/internal/session"
	"github.com/anzway/learnterm/internal/store"
)

type stubBackend struct {
	startRes  *api.StartResult
	turnRes   *api.TurnResult
	turnErr   error
	finErr    error
	resources []string
}

func (s *stubBackend) CatalogOptions(_ context.Context, resource string, _ []catalog.Param) ([]catalog.Option, error) {
	s.resources = append(s.resources, resource)
	return []catalog.Option{{Label: "Science", Value: "science"}}, nil
}

func (s *stubBackend) StartSession(context.Context, []catalog.Param) (*api.StartResult, error) {
	return s.startRes, nil
}

func (s *stubBackend) SendTurn(context.Context, string, string, bool) (*api.TurnResult, error) {
	return s.turnRes, s.turnErr
}

func (s *stubBackend) FinishSession(context.Context, string, []catalog.Param, map[string]any) (*api.FinishResult, error) {
	if s.finErr != nil {
		return nil, s.finErr
	}
	return &api.FinishResult{Message: "Great work!"}, nil
}

func startedScreen(t *testing.T, b *stubBackend, st *store.Store) *EvaluateScreen {
	t.Helper()
	s := New(b, config.DefaultConfig(), st)
	s.hierarchy.SetValue(0, "science")
	s.hierarchy.SetValue(1, "3")
	s.hierarchy.SetValue(2, "Explain photosynthesis.")
	_, cmd := s.start()
	s.Update(cmd())
	return s
}

func TestMarksComeFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Marks = []string{"2", "10"}
	s := New(&stubBackend{}, cfg, nil)

	fetch := s.hierarchy.SetValue(0, "science")
	if fetch == nil || fetch.Level != 1 {
		t.Fatalf("fetch = %+v, want marks level", fetch)
	}
	msg, ok := s.fetchOptions(fetch)().(optionsMsg)
	if !ok {
		t.Fatal("expected optionsMsg")
	}
	if len(msg.Options) != 2 || msg.Options[0].Value != "2" || msg.Options[1].Value != "10" {
		t.Errorf("options = %+v, want the configured weights", msg.Options)
	}
}

func TestQuestionOptionsComeFromBank(t *testing.T) {
	b := &stubBackend{}
	s := New(b, config.DefaultConfig(), nil)
	s.hierarchy.SetValue(0, "sociology")

	fetch := s.hierarchy.SetValue(1, "5")
	if fetch == nil || fetch.Level != 2 {
		t.Fatalf("fetch = %+v, want question level", fetch)
	}
	msg := s.fetchOptions(fetch)().(optionsMsg)
	if msg.Err != nil {
		t.Fatal(msg.Err)
	}
	if len(b.resources) != 1 || b.resources[0] != "questions" {
		t.Errorf("resources = %v, want [questions]", b.resources)
	}
	if msg.Level != 2 || len(msg.Options) != 1 {
		t.Errorf("msg = %+v", msg)
	}
}

func TestMarksChangeResetsQuestion(t *testing.T) {
	s := New(&stubBackend{}, config.DefaultConfig(), nil)
	s.hierarchy.SetValue(0, "sociology")
	s.hierarchy.SetValue(1, "3")
	s.hierarchy.SetValue(2, "Define social norms.")
	if !s.hierarchy.FullyResolved() {
		t.Fatal("hierarchy must be fully resolved")
	}

	fetch := s.hierarchy.SetValue(1, "5")

	if got := s.hierarchy.Value(2); got != "" {
		t.Errorf("question = %q, want reset to empty on marks change", got)
	}
	if fetch == nil || fetch.Level != 2 {
		t.Errorf("fetch = %+v, want a question-bank re-fetch", fetch)
	}
	if s.hierarchy.FullyResolved() {
		t.Error("selection must not stay resolved with the question cleared")
	}
}

func TestStartSeedsQuestionSet(t *testing.T) {
	b := &stubBackend{startRes: &api.StartResult{
		SessionID: "abc",
		Reply:     "Here are your questions.",
		Questions: []string{"Q1", "Q2", "Q3"},
	}}
	s := startedScreen(t, b, nil)

	if s.phase != phaseAnswer {
		t.Fatalf("phase = %v, want answer", s.phase)
	}
	if s.total != 3 {
		t.Errorf("total = %d, want 3", s.total)
	}
	if len(s.controller.Remaining()) != 3 {
		t.Errorf("remaining = %v", s.controller.Remaining())
	}
	if s.controller.CanFinish() {
		t.Error("finish must be gated while questions remain")
	}
}

func TestPassedVerdictShrinksRemaining(t *testing.T) {
	b := &stubBackend{
		startRes: &api.StartResult{SessionID: "abc", Questions: []string{"Q1", "Q2"}},
		turnRes:  &api.TurnResult{Reply: "Correct!", Passed: true, PassedItem: "Q1"},
	}
	s := startedScreen(t, b, nil)

	s.input.Model.SetValue("my answer")
	_, cmd := s.sendAnswer()
	s.Update(cmd())

	if got := s.controller.Remaining(); len(got) != 1 || got[0] != "Q2" {
		t.Errorf("remaining = %v, want [Q2]", got)
	}
}

func TestFinishBlockedWithRemaining(t *testing.T) {
	b := &stubBackend{startRes: &api.StartResult{SessionID: "abc", Questions: []string{"Q1"}}}
	s := startedScreen(t, b, nil)

	_, cmd := s.finish()
	s.Update(cmd())

	if s.phase != phaseAnswer {
		t.Errorf("phase = %v, want still answering", s.phase)
	}
	if s.errMsg != session.ErrItemsRemaining.Error() {
		t.Errorf("errMsg = %q, want items-remaining error", s.errMsg)
	}
	if !s.controller.Active() {
		t.Error("session must survive a blocked finish")
	}
}

func TestFinishSavesHistory(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	b := &stubBackend{
		startRes: &api.StartResult{SessionID: "abc", Reply: "Start!", Questions: []string{"Q1"}},
		turnRes:  &api.TurnResult{Reply: "Correct!", Passed: true, PassedItem: "Q1"},
	}
	s := startedScreen(t, b, st)

	s.input.Model.SetValue("answer one")
	_, cmd := s.sendAnswer()
	s.Update(cmd())

	_, cmd = s.finish()
	s.Update(cmd())

	if s.phase != phaseDone {
		t.Fatalf("phase = %v, want done (errMsg=%q)", s.phase, s.errMsg)
	}
	if s.doneMsg != "Great work!" {
		t.Errorf("doneMsg = %q", s.doneMsg)
	}

	sessions, err := st.History().ListSessions(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Mode != "evaluate" {
		t.Fatalf("sessions = %+v", sessions)
	}
	entries, err := st.History().SessionEntries(context.Background(), sessions[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 { // start reply, answer, verdict
		t.Errorf("entries = %v", entries)
	}
}
