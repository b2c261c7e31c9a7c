package voice

import (
	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/catalog"
)

// optionsMsg carries fetched options for one selector level.
type optionsMsg struct {
	Level      int
	Generation uint64
	Options    []catalog.Option
	Err        error
}

// startedMsg is sent when the voice session opens.
type startedMsg struct {
	Res *api.StartResult
	Err error
}

// audioReadyMsg ends the readiness poll: either the generated audio arrived
// or the wait failed.
type audioReadyMsg struct {
	Status *api.AudioStatus
	Err    error
}

// playedMsg is sent when local playback of the tutor's audio ends.
type playedMsg struct {
	Err error
}

// recordingMsg reports the capture-start outcome.
type recordingMsg struct {
	Err error
}

// uploadedMsg is sent when a recorded utterance's round trip finishes.
type uploadedMsg struct {
	Res *api.AudioTurnResult
	Err error
}
