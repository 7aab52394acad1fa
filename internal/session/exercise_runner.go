package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gym_timer/internal/schedule"
	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"
)

// ErrNoRecovery rejects a rest timer for a series without a recovery time.
var ErrNoRecovery = errors.New("series has no recovery time")

// SeriesTimer is the display state of one series' rest timer.
type SeriesTimer struct {
	RemainingSeconds int
	Running          bool
	Completed        bool
}

// ExerciseState is a snapshot for rendering.
type ExerciseState struct {
	Exercise       schedule.Exercise
	Timers         []SeriesTimer
	Active         int
	PendingReplace bool
}

// ExerciseOptions configures an ExerciseRunner.
type ExerciseOptions struct {
	Logger   *slog.Logger
	OnChange func(ExerciseState)
	// OnSeriesDone receives the exercise after a series' rest finished.
	OnSeriesDone func(schedule.Exercise)
}

// ExerciseRunner tracks the rest timers between the series of one exercise.
// Only one series timer is active at a time.
type ExerciseRunner struct {
	mu       sync.Mutex
	timer    Timer
	options  ExerciseOptions
	exercise schedule.Exercise
	timers   []SeriesTimer
	active   int
	runID    string
	pending  *startRequest
	sub      timerclient.Subscription
}

// SeriesLabel is the timer label for series index.
func SeriesLabel(index int) string {
	return fmt.Sprintf("Serie #%d", index+1)
}

// NewExerciseRunner creates a runner; series already done start completed.
func NewExerciseRunner(t Timer, exercise schedule.Exercise, options ExerciseOptions) *ExerciseRunner {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	timers := make([]SeriesTimer, len(exercise.Series))
	for i, series := range exercise.Series {
		timers[i].Completed = series.Done
	}
	return &ExerciseRunner{
		timer:    t,
		options:  options,
		exercise: exercise,
		timers:   timers,
		active:   -1,
	}
}

// Attach subscribes to timer events and adopts a run already counting down
// for one of this exercise's series.
func (r *ExerciseRunner) Attach(ctx context.Context) {
	r.mu.Lock()
	if r.sub != nil {
		r.mu.Unlock()
		return
	}
	r.sub = r.timer.Subscribe(r.handle)

	current := r.timer.State(ctx)
	if current.Running {
		for i := range r.timers {
			if current.Label == SeriesLabel(i) && !r.timers[i].Completed {
				r.active = i
				r.timers[i] = SeriesTimer{RemainingSeconds: current.RemainingSeconds, Running: true}
				break
			}
		}
	}
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
}

// Close detaches from timer events. A running rest timer keeps going.
func (r *ExerciseRunner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		r.sub.Remove()
		r.sub = nil
	}
}

// StartSeries starts the rest timer of series index.
func (r *ExerciseRunner) StartSeries(ctx context.Context, index int) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.exercise.Series) {
		r.mu.Unlock()
		return fmt.Errorf("series %d out of range", index)
	}
	seconds := r.exercise.Series[index].RecoverySeconds()
	if seconds <= 0 {
		r.mu.Unlock()
		return ErrNoRecovery
	}

	err := r.startLocked(ctx, SeriesLabel(index), seconds, index, false)
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	return err
}

// PendingReplace reports whether a start is waiting on the user's decision.
func (r *ExerciseRunner) PendingReplace() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// ConfirmReplace retries the blocked start with force.
func (r *ExerciseRunner) ConfirmReplace(ctx context.Context) error {
	r.mu.Lock()
	if r.pending == nil {
		r.mu.Unlock()
		return nil
	}
	req := r.pending
	r.pending = nil
	err := r.startLocked(ctx, req.label, req.seconds, req.series, true)
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	return err
}

// CancelReplace drops the blocked start. A series already counting down
// stays active.
func (r *ExerciseRunner) CancelReplace() {
	r.mu.Lock()
	r.pending = nil
	state := r.stateLocked()
	r.mu.Unlock()
	r.notify(state)
}

// State returns the current snapshot.
func (r *ExerciseRunner) State() ExerciseState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *ExerciseRunner) handle(event timer.Event) {
	r.mu.Lock()
	if r.active < 0 || !r.ownsLocked(event) {
		r.mu.Unlock()
		return
	}

	var done *schedule.Exercise
	switch event.Status {
	case timer.StatusRunning:
		r.runID = event.RunID
		r.timers[r.active] = SeriesTimer{RemainingSeconds: event.RemainingSeconds, Running: true}
	case timer.StatusFinished:
		r.timers[r.active] = SeriesTimer{Completed: true}
		r.exercise = r.exercise.WithSeriesDone(r.active)
		updated := r.exercise
		done = &updated
		r.active = -1
		r.runID = ""
	case timer.StatusStopped:
		r.timers[r.active] = SeriesTimer{}
		r.active = -1
		r.runID = ""
	}
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	if done != nil && r.options.OnSeriesDone != nil {
		r.options.OnSeriesDone(*done)
	}
}

// ownsLocked matches events to the active series. A run adopted on Attach
// has no id yet and is bound by its first running event.
func (r *ExerciseRunner) ownsLocked(event timer.Event) bool {
	if event.RunID == "" {
		return false
	}
	if r.runID != "" {
		return event.RunID == r.runID
	}
	return event.Status == timer.StatusRunning && event.Label == SeriesLabel(r.active)
}

// startLocked leaves the active series untouched unless the start succeeds.
func (r *ExerciseRunner) startLocked(ctx context.Context, label string, seconds, index int, forceReplace bool) error {
	started, err := r.timer.Start(ctx, label, seconds, forceReplace)
	if err != nil {
		if conflict(err) {
			r.pending = &startRequest{label: label, seconds: seconds, series: index}
			r.options.Logger.Warn("series timer conflict", "label", label)
			return ErrReplaceRequired
		}
		return err
	}

	// The previous series, if any, was replaced without a stopped event.
	r.clearActiveLocked()
	r.pending = nil
	r.active = index
	r.runID = started.RunID
	remaining := started.State.RemainingSeconds
	if remaining <= 0 {
		remaining = seconds
	}
	r.timers[index] = SeriesTimer{RemainingSeconds: remaining, Running: true}
	return nil
}

func (r *ExerciseRunner) clearActiveLocked() {
	if r.active >= 0 && !r.timers[r.active].Completed {
		r.timers[r.active] = SeriesTimer{}
	}
	r.active = -1
	r.runID = ""
}

func (r *ExerciseRunner) stateLocked() ExerciseState {
	return ExerciseState{
		Exercise:       r.exercise,
		Timers:         append([]SeriesTimer(nil), r.timers...),
		Active:         r.active,
		PendingReplace: r.pending != nil,
	}
}

func (r *ExerciseRunner) notify(state ExerciseState) {
	if r.options.OnChange != nil {
		r.options.OnChange(state)
	}
}
