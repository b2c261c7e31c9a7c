package learn

import (
	"github.com/anzway/learnterm/internal/api"
	"github.com/anzway/learnterm/internal/catalog"
)

// optionsMsg carries fetched catalog options for one hierarchy level.
// Generation is the hierarchy generation at dispatch time; stale results
// are dropped.
type optionsMsg struct {
	Level      int
	Generation uint64
	Options    []catalog.Option
	Err        error
}

// startedMsg is sent when the session-start call returns.
type startedMsg struct {
	Res *api.StartResult
	Err error
}

// turnMsg is sent when a text turn returns.
type turnMsg struct {
	Res *api.TurnResult
	Err error
}

// finishedMsg is sent when the finish call returns.
type finishedMsg struct {
	Res *api.FinishResult
	Err error
}
