package evaluate

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

// startedMsg is sent when the practice session opens.
type startedMsg struct {
	Res *api.StartResult
	Err error
}

// turnMsg is sent when an answer's evaluation returns.
type turnMsg struct {
	Res *api.TurnResult
	Err error
}

// finishedMsg is sent when the finish call returns. SaveErr reports a failed
// local-history write; the session itself still closed.
type finishedMsg struct {
	Res     *api.FinishResult
	Err     error
	SaveErr error
}
