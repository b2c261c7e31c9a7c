package session

import (
	"context"
	"errors"
	"testing"

	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/catalog"
)

// stubBackend records calls and plays back canned results.
type stubBackend struct {
	startCalls  int
	turnCalls   int
	finishCalls int

	startRes  *api.StartResult
	startErr  error
	turnRes   *api.TurnResult
	turnErr   error
	finishRes *api.FinishResult
	finishErr error

	lastTurnSession string
	lastTurnMessage string
	lastTurnFirst   bool
}

func (s *stubBackend) StartSession(_ context.Context, _ []catalog.Param) (*api.StartResult, error) {
	s.startCalls++
	return s.startRes, s.startErr
}

func (s *stubBackend) SendTurn(_ context.Context, sessionID, message string, first bool) (*api.TurnResult, error) {
	s.turnCalls++
	s.lastTurnSession = sessionID
	s.lastTurnMessage = message
	s.lastTurnFirst = first
	return s.turnRes, s.turnErr
}

func (s *stubBackend) FinishSession(_ context.Context, _ string, _ []catalog.Param, _ map[string]any) (*api.FinishResult, error) {
	s.finishCalls++
	return s.finishRes, s.finishErr
}

func resolvedHierarchy() *catalog.Hierarchy {
	h := catalog.NewHierarchy("subject", "pdf", "question")
	h.SetValue(0, "history")
	h.SetValue(1, "ch1.pdf")
	h.SetValue(2, "Q1")
	return h
}

func TestStart_UnresolvedHierarchyMakesNoCall(t *testing.T) {
	backend := &stubBackend{}
	c := NewController(backend)

	h := catalog.NewHierarchy("subject", "pdf", "question")
	h.SetValue(0, "history")

	_, err := c.Start(context.Background(), h)
	if !errors.Is(err, ErrNotResolved) {
		t.Fatalf("err = %v, want ErrNotResolved", err)
	}
	if backend.startCalls != 0 {
		t.Errorf("startCalls = %d, want 0 (fail fast, no network)", backend.startCalls)
	}
}

func TestStart_AppendsExactlyOneSystemEntry(t *testing.T) {
	backend := &stubBackend{
		startRes: &api.StartResult{SessionID: "abc123", Reply: "Welcome! Let's discuss Q1."},
	}
	c := NewController(backend)

	res, err := c.Start(context.Background(), resolvedHierarchy())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.SessionID != "abc123" {
		t.Errorf("SessionID = %q", res.SessionID)
	}

	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("log has %d entries, want 1", len(entries))
	}
	if entries[0].Sender != SenderSystem {
		t.Errorf("first entry sender = %q, want system", entries[0].Sender)
	}
	if !c.Active() {
		t.Error("controller should report an active session")
	}
}

func TestStart_BackendFailureLeavesStateUntouched(t *testing.T) {
	backend := &stubBackend{
		startErr: &api.BackendError{Status: 500, Detail: "model overloaded"},
	}
	c := NewController(backend)

	_, err := c.Start(context.Background(), resolvedHierarchy())
	var be *api.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if c.Active() {
		t.Error("no session should exist after a failed start")
	}
	if len(c.Entries()) != 0 {
		t.Error("no log entry should be appended on failure")
	}
}

func TestSendTurn_NoSessionFailsFast(t *testing.T) {
	backend := &stubBackend{}
	c := NewController(backend)

	_, err := c.SendTurn(context.Background(), "hello")
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
	if backend.turnCalls != 0 {
		t.Errorf("turnCalls = %d, want 0", backend.turnCalls)
	}
	if len(c.Entries()) != 0 {
		t.Error("log must be unchanged")
	}
}

func TestSendTurn_OptimisticUserEntrySurvivesFailure(t *testing.T) {
	backend := &stubBackend{
		startRes: &api.StartResult{SessionID: "abc123", Reply: "hi"},
		turnErr:  &api.NetworkError{Err: errors.New("connection reset")},
	}
	c := NewController(backend)
	if _, err := c.Start(context.Background(), resolvedHierarchy()); err != nil {
		t.Fatal(err)
	}

	_, err := c.SendTurn(context.Background(), "my answer")
	if err == nil {
		t.Fatal("expected the turn to fail")
	}

	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("log has %d entries, want 2 (system + optimistic user)", len(entries))
	}
	if entries[1].Sender != SenderUser || entries[1].Content != "my answer" {
		t.Errorf("optimistic user entry missing: %+v", entries[1])
	}
}

func TestSendTurn_ReplyAppendedAndFirstFlag(t *testing.T) {
	backend := &stubBackend{
		startRes: &api.StartResult{SessionID: "abc123", Reply: "hi"},
		turnRes:  &api.TurnResult{Reply: "Good point."},
	}
	c := NewController(backend)
	if _, err := c.Start(context.Background(), resolvedHierarchy()); err != nil {
		t.Fatal(err)
	}

	if _, err := c.SendTurn(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	if !backend.lastTurnFirst {
		t.Error("first turn should carry first_message")
	}
	if _, err := c.SendTurn(context.Background(), "two"); err != nil {
		t.Fatal(err)
	}
	if backend.lastTurnFirst {
		t.Error("second turn should not carry first_message")
	}
	if backend.lastTurnSession != "abc123" {
		t.Errorf("turn session = %q", backend.lastTurnSession)
	}

	entries := c.Entries()
	// system, user, system, user, system
	if len(entries) != 5 {
		t.Fatalf("log has %d entries, want 5", len(entries))
	}
	if entries[2].Sender != SenderSystem || entries[2].Content != "Good point." {
		t.Errorf("reply entry wrong: %+v", entries[2])
	}
}

func TestSendTurn_PassedVerdictRemovesItem(t *testing.T) {
	backend := &stubBackend{
		startRes: &api.StartResult{SessionID: "abc123", Reply: "hi", Questions: []string{"Q7", "Q8"}},
		turnRes:  &api.TurnResult{Reply: "Correct!", Passed: true, PassedItem: " Q7 "},
	}
	c := NewController(backend)
	if _, err := c.Start(context.Background(), resolvedHierarchy()); err != nil {
		t.Fatal(err)
	}

	if _, err := c.SendTurn(context.Background(), "answer to Q7"); err != nil {
		t.Fatal(err)
	}

	remaining := c.Remaining()
	if len(remaining) != 1 || remaining[0] != "Q8" {
		t.Errorf("remaining = %v, want [Q8]", remaining)
	}
}

func TestSendTurn_StaleReplyDiscardedAfterReset(t *testing.T) {
	backend := &stubBackend{
		startRes: &api.StartResult{SessionID: "abc123", Reply: "hi"},
	}
	c := NewController(backend)
	if _, err := c.Start(context.Background(), resolvedHierarchy()); err != nil {
		t.Fatal(err)
	}

	// Simulate the session being torn down while a turn is in flight: the
	// backend call observes the old session, the reset lands first.
	backend.turnRes = &api.TurnResult{Reply: "late reply"}
	c.mu.Lock()
	c.log.Append(Entry{Sender: SenderUser, Content: "pending"})
	sid := c.sessionID
	c.mu.Unlock()

	c.Reset()

	res, err := backend.SendTurn(context.Background(), sid, "pending", false)
	if err != nil {
		t.Fatal(err)
	}
	c.mu.Lock()
	stale := c.sessionID != sid
	c.mu.Unlock()
	if !stale {
		t.Fatal("reset should have superseded the session")
	}
	_ = res // a real caller drops res when the session no longer matches

	if len(c.Entries()) != 0 {
		t.Error("reset log must stay empty; late replies are discarded")
	}
}

func TestRemaining_RemoveAbsentIsNoop(t *testing.T) {
	var r RemainingItems
	r.Seed([]string{"Q1", "Q2"})

	r.Remove("Q9")

	if r.Len() != 2 {
		t.Errorf("len = %d, want 2 (absent removal is a no-op)", r.Len())
	}
	// Removing twice is idempotent.
	r.Remove("Q1")
	r.Remove("Q1")
	if items := r.Items(); len(items) != 1 || items[0] != "Q2" {
		t.Errorf("items = %v, want [Q2]", items)
	}
}

func TestFinish_BlockedWhileItemsRemain(t *testing.T) {
	backend := &stubBackend{
		startRes: &api.StartResult{SessionID: "abc123", Reply: "hi", Questions: []string{"Q7"}},
	}
	c := NewController(backend)
	if _, err := c.Start(context.Background(), resolvedHierarchy()); err != nil {
		t.Fatal(err)
	}

	_, err := c.Finish(context.Background(), nil)
	if !errors.Is(err, ErrItemsRemaining) {
		t.Fatalf("err = %v, want ErrItemsRemaining", err)
	}
	if backend.finishCalls != 0 {
		t.Errorf("finishCalls = %d, want 0", backend.finishCalls)
	}
	if c.CanFinish() {
		t.Error("CanFinish must be false while items remain")
	}
}

func TestFinish_FailureLeavesSessionIntact(t *testing.T) {
	backend := &stubBackend{
		startRes:  &api.StartResult{SessionID: "abc123", Reply: "hi"},
		finishErr: &api.BackendError{Status: 400, Detail: "no session"},
	}
	c := NewController(backend)
	if _, err := c.Start(context.Background(), resolvedHierarchy()); err != nil {
		t.Fatal(err)
	}

	_, err := c.Finish(context.Background(), nil)
	if err == nil || err.Error() != "no session" {
		t.Fatalf("err = %v, want the server detail verbatim", err)
	}
	if !c.Active() {
		t.Error("session must survive a failed finish")
	}
	if len(c.Entries()) != 1 {
		t.Error("log must survive a failed finish")
	}
}

func TestFinish_SuccessTearsDownEverything(t *testing.T) {
	backend := &stubBackend{
		startRes:  &api.StartResult{SessionID: "abc123", Reply: "hi"},
		finishRes: &api.FinishResult{Message: "saved"},
	}
	c := NewController(backend)
	if _, err := c.Start(context.Background(), resolvedHierarchy()); err != nil {
		t.Fatal(err)
	}

	res, err := c.Finish(context.Background(), map[string]any{"turns": 0})
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "saved" {
		t.Errorf("message = %q", res.Message)
	}
	if c.Active() || len(c.Entries()) != 0 || len(c.Remaining()) != 0 {
		t.Error("finish must clear session, log and remaining items")
	}
}
