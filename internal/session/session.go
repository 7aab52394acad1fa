// Package session turns raw timer events into workout screen state: the
// circuit runner with its work and rest phases, and per-series rest timers
// of a single exercise.
package session

import (
	"context"
	"errors"

	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"
)

// ErrReplaceRequired means the start collided with another run. The caller
// should ask the user and then call ConfirmReplace or CancelReplace.
var ErrReplaceRequired = errors.New("another timer is running")

// Timer is the facade surface the runners drive.
type Timer interface {
	Start(ctx context.Context, label string, seconds int, forceReplace bool) (timerclient.Started, error)
	Stop(ctx context.Context, reason timer.StopReason) timer.StopResult
	State(ctx context.Context) timer.State
	Subscribe(handler timer.Handler) timerclient.Subscription
}

type startRequest struct {
	label   string
	seconds int
	series  int
}

func conflict(err error) bool {
	return errors.Is(err, timerclient.ErrAlreadyRunning)
}
