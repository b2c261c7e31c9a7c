package session

import (
	"context"
	"errors"
	"sync"

	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/catalog"
)

var (
	// ErrNotResolved means the selection hierarchy has unselected levels;
	// no network call is made.
	ErrNotResolved = errors.New("select a value for every field first")

	// ErrNoActiveSession means the action needs a session that doesn't exist.
	ErrNoActiveSession = errors.New("no active session: start one first")

	// ErrBusy means another session call is already in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrItemsRemaining means finish was attempted with pending items left.
	ErrItemsRemaining = errors.New("answer the remaining questions before finishing")
)

// Backend is the slice of the API client the controller needs. The tests
// substitute a recording stub.
type Backend interface {
	StartSession(ctx context.Context, params []catalog.Param) (*api.StartResult, error)
	SendTurn(ctx context.Context, sessionID, message string, first bool) (*api.TurnResult, error)
	FinishSession(ctx context.Context, sessionID string, params []catalog.Param, summary map[string]any) (*api.FinishResult, error)
}

// Controller owns one session's lifecycle: it gates start/turn/finish on the
// session state, keeps the interaction log and remaining-items list
// consistent with backend verdicts, and discards results that arrive after
// the session they belong to was torn down.
//
// At most one start, turn or finish call is in flight at a time; concurrent
// attempts fail fast with ErrBusy so the UI can keep its triggering control
// disabled.
type Controller struct {
	mu        sync.Mutex
	backend   Backend
	log       Log
	remaining RemainingItems
	sessionID string
	params    []catalog.Param
	turns     int
	busy      bool
}

// NewController creates a Controller using the given backend.
func NewController(backend Backend) *Controller {
	return &Controller{backend: backend}
}

// Active reports whether a session is open.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID != ""
}

// SessionID returns the current opaque session token, or "".
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Entries returns the interaction log so far.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Entries()
}

// Remaining returns the pending items.
func (c *Controller) Remaining() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining.Items()
}

// CanFinish reports whether finish is enabled: an active session with no
// pending items.
func (c *Controller) CanFinish() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID != "" && c.remaining.IsEmpty()
}

// Start opens a session for the fully-resolved hierarchy. It fails fast,
// without touching the network, when a level is unselected. On success the
// backend's opening message becomes the log's first (and only) entry and the
// remaining-items list is seeded from the returned question set. On failure
// the controller is left exactly as it was.
func (c *Controller) Start(ctx context.Context, h *catalog.Hierarchy) (*api.StartResult, error) {
	if !h.FullyResolved() {
		return nil, ErrNotResolved
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	params := h.Params()
	c.mu.Unlock()

	res, err := c.backend.StartSession(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		return nil, err
	}

	c.sessionID = res.SessionID
	c.params = params
	c.turns = 0
	c.log.Clear()
	c.remaining.Seed(res.Questions)
	if res.Reply != "" {
		c.log.Append(Entry{Sender: SenderSystem, Content: res.Reply})
	}
	return res, nil
}

// SendTurn submits one student message. The user entry is appended before
// the network call (it stays even when the call fails; resending is a manual
// action). A reply appends a system entry; a passed verdict removes the
// satisfied item from the remaining list. A reply arriving after the session
// was reset or superseded is discarded without touching any state.
func (c *Controller) SendTurn(ctx context.Context, text string) (*api.TurnResult, error) {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	sid := c.sessionID
	first := c.turns == 0
	c.log.Append(Entry{Sender: SenderUser, Content: text})
	c.mu.Unlock()

	res, err := c.backend.SendTurn(ctx, sid, text, first)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.sessionID != sid {
		// Session torn down while the turn was in flight.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.turns++
	if res.Reply != "" {
		c.log.Append(Entry{Sender: SenderSystem, Content: res.Reply})
	}
	if res.Passed {
		item := res.PassedItem
		if item == "" {
			// Backend omitted the question text; fall back to the
			// student's submitted answer target, if any.
			item = res.StudentAnswer
		}
		c.remaining.Remove(item)
	}
	return res, nil
}

// Finish closes the session. It is a client-side no-op unless every
// remaining item is done (the server may still independently reject). On
// success the session, log and remaining list are all cleared; on failure
// they are left untouched.
func (c *Controller) Finish(ctx context.Context, summary map[string]any) (*api.FinishResult, error) {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if !c.remaining.IsEmpty() {
		c.mu.Unlock()
		return nil, ErrItemsRemaining
	}
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	sid := c.sessionID
	params := c.params
	c.mu.Unlock()

	res, err := c.backend.FinishSession(ctx, sid, params, summary)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if c.sessionID != sid {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.teardown()
	return res, nil
}

// Reset discards the session and all of its client-side state. In-flight
// call results for the old session are dropped when they land.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown()
}

// RemovePassedItem removes an item reported satisfied out of band (audio
// turns, for example, report verdicts on a separate timeline).
func (c *Controller) RemovePassedItem(item string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining.Remove(item)
}

// AppendSystem records a system entry produced outside SendTurn, such as
// the transcribed reply to an audio upload.
func (c *Controller) AppendSystem(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if content != "" {
		c.log.Append(Entry{Sender: SenderSystem, Content: content})
	}
}

func (c *Controller) teardown() {
	c.sessionID = ""
	c.params = nil
	c.turns = 0
	c.log.Clear()
	c.remaining.Clear()
}
