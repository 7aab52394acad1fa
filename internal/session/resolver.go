package session

import "gym_timer/internal/timer"

// Resolution is the UI state after a stop.
type Resolution struct {
	IsPaused         bool
	RemainingSeconds int
}

// Resolve maps the reason a run was stopped to what the UI shows. Both
// outcomes are paused; a zero remaining time marks a dead timer, while a
// resumable stop always keeps at least one second.
func Resolve(reason timer.StopReason, lastKnownRemainingSeconds int) Resolution {
	if reason.Resumable() {
		remaining := lastKnownRemainingSeconds
		if remaining <= 0 {
			remaining = 1
		}
		return Resolution{IsPaused: true, RemainingSeconds: remaining}
	}
	return Resolution{IsPaused: true, RemainingSeconds: 0}
}
