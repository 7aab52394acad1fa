package timer

import "errors"

// DefaultLabel is reported whenever no run is active.
const DefaultLabel = "Timer"

var (
	// ErrInvalidDuration rejects starts of zero or negative length.
	ErrInvalidDuration = errors.New("timer duration must be greater than zero")
	// ErrAlreadyRunning rejects a start while another run is active.
	ErrAlreadyRunning = errors.New("timer already running")
)

// TimerState is the authoritative engine state.
type TimerState struct {
	Running          bool
	Label            string
	DurationSeconds  int
	EndAtEpochMillis int64
}

func idleState() TimerState {
	return TimerState{Label: DefaultLabel}
}

// State is the projection handed to callers.
type State struct {
	Running          bool   `json:"running"`
	Label            string `json:"label"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// IdleState is the projection of an engine with no active run.
func IdleState() State {
	return State{Label: DefaultLabel}
}

// StopReason records why a caller stopped the timer.
type StopReason string

const (
	ReasonNone       StopReason = ""
	ReasonPause      StopReason = "pause"
	ReasonNavigation StopReason = "navigation"
)

// Resumable reports whether the reason describes a stop the user can resume from.
func (r StopReason) Resumable() bool {
	return r == ReasonPause || r == ReasonNavigation
}

// StopResult describes the run torn down by Stop.
type StopResult struct {
	RunID            string
	Label            string
	RemainingSeconds int
	Reason           StopReason
	WasRunning       bool
}

// remainingSeconds rounds the time left up to whole seconds.
func remainingSeconds(endAtMillis, nowMillis int64) int {
	left := endAtMillis - nowMillis
	if left <= 0 {
		return 0
	}
	return int((left + 999) / 1000)
}
