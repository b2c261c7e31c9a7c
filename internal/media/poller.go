package media

import (
	"context"
	"errors"
	"time"

	"github.com/anzway/learnterm/internal/api"
)

// ErrPollTimeout means the readiness budget ran out before the backend
// finished generating audio. Distinct from a poll request failing.
var ErrPollTimeout = errors.New("timed out waiting for audio")

// StatusFetcher asks the backend whether a session's audio is ready.
type StatusFetcher interface {
	GetAudioStatus(ctx context.Context, sessionID string) (*api.AudioStatus, error)
}

// PollConfig bounds the readiness wait. The original client polled every two
// seconds forever; the budget makes the loop terminate.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollConfig matches the observed 2-second cadence with a two-minute
// budget.
func DefaultPollConfig() PollConfig {
	return PollConfig{Interval: 2 * time.Second, MaxAttempts: 60}
}

// WaitForAudio polls until the session's audio is ready, a poll fails, the
// budget is exhausted, or ctx is cancelled. The first failure stops the loop
// — there is no automatic retry of a failed poll. Cancelling ctx is how a
// reset abandons the wait.
func WaitForAudio(ctx context.Context, fetcher StatusFetcher, sessionID string, cfg PollConfig) (*api.AudioStatus, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 60
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := fetcher.GetAudioStatus(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if status.Ready {
			return status, nil
		}
	}
	return nil, ErrPollTimeout
}
