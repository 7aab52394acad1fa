package timelog

import (
	"time"

	"gym_timer/internal/timer"
)

// TimeLog is one completed or abandoned timer run.
type TimeLog struct {
	ID               int64
	RunID            string
	Label            string
	Outcome          timer.Status
	Reason           timer.StopReason
	RequestedSeconds int
	StartedAt        time.Time
	StoppedAt        time.Time
	Duration         time.Duration
}
