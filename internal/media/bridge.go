package media

import (
	"context"
	"errors"
	"sync"

	"github.com/anzway/learnterm/internal/api"
)

// State is the recorder side of the bridge's state machine.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateUploading
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateUploading:
		return "uploading"
	default:
		return "idle"
	}
}

// ErrNoActiveSession mirrors the session package's gate: audio can only be
// uploaded into an open session.
var ErrNoActiveSession = errors.New("no active session: start one first")

// Uploader sends one recorded utterance to the backend.
type Uploader interface {
	SendAudioTurn(ctx context.Context, sessionID string, audio []byte) (*api.AudioTurnResult, error)
}

// Bridge layers voice input onto a session: record, then upload on stop.
// Recording and uploading are separate timelines — stopping a capture never
// cancels an upload already in flight, and a new recording may begin while
// the previous upload is still traveling.
//
// StopAndUpload runs inside async commands while the UI goroutine reads
// State and cancels takes, so every state transition holds the mutex. The
// upload itself happens unlocked.
type Bridge struct {
	mu       sync.Mutex
	recorder Recorder
	uploader Uploader
	state    State
}

// NewBridge wires a Bridge from a recorder and an uploader.
func NewBridge(recorder Recorder, uploader Uploader) *Bridge {
	return &Bridge{recorder: recorder, uploader: uploader}
}

// State returns the current recorder state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StartRecording moves Idle → Recording. A missing capture device leaves the
// bridge Idle and returns ErrMediaUnavailable.
func (b *Bridge) StartRecording(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateRecording {
		return errors.New("already recording")
	}
	if b.recorder == nil {
		return ErrMediaUnavailable
	}
	if err := b.recorder.Start(ctx); err != nil {
		b.state = StateIdle
		return err
	}
	b.state = StateRecording
	return nil
}

// StopAndUpload ends the capture and sends the audio into the session. The
// bridge returns to Idle as soon as the upload is dispatched; callers run it
// inside their own async command. An empty sessionID fails fast with
// ErrNoActiveSession before the capture is consumed.
func (b *Bridge) StopAndUpload(ctx context.Context, sessionID string) (*api.AudioTurnResult, error) {
	b.mu.Lock()
	if b.state != StateRecording {
		b.mu.Unlock()
		return nil, errors.New("not recording")
	}
	if sessionID == "" {
		b.abandonCaptureLocked()
		b.mu.Unlock()
		return nil, ErrNoActiveSession
	}

	b.state = StateUploading
	audio, err := b.recorder.Stop()
	if err != nil {
		b.state = StateIdle
		b.mu.Unlock()
		return nil, err
	}
	b.mu.Unlock()

	res, uploadErr := b.uploader.SendAudioTurn(ctx, sessionID, audio)

	b.mu.Lock()
	b.state = StateIdle
	b.mu.Unlock()
	if uploadErr != nil {
		return nil, uploadErr
	}
	return res, nil
}

// CancelRecording discards an in-progress capture without uploading. Used by
// refresh/reset; any in-flight upload is unaffected.
func (b *Bridge) CancelRecording() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateRecording {
		b.abandonCaptureLocked()
	}
}

func (b *Bridge) abandonCaptureLocked() {
	_, _ = b.recorder.Stop()
	b.state = StateIdle
}
