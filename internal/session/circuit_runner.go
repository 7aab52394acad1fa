package session

import (
	"context"
	"log/slog"
	"sync"

	"gym_timer/internal/alert"
	"gym_timer/internal/schedule"
	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"
)

// Status is the display state of a runner's timer.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusArmed    Status = "armed"
	StatusStopped  Status = "stopped"
	StatusComplete Status = "complete"
	StatusExited   Status = "exited"
)

// Terminal reports whether the session is over.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusExited
}

const (
	workLabel = "Circuit · Work"
	restLabel = "Circuit · Rest"
)

// Defaults fill in circuit durations the schedule leaves out.
type Defaults struct {
	WorkSeconds int
	RestSeconds int
}

// DefaultDurations are used when nothing is configured.
var DefaultDurations = Defaults{WorkSeconds: 30, RestSeconds: 20}

// PlanFromCircuit builds a Plan, falling back to defaults for missing or
// invalid durations and to a single round.
func PlanFromCircuit(c schedule.Circuit, defaults Defaults) Plan {
	if defaults.WorkSeconds <= 0 {
		defaults.WorkSeconds = DefaultDurations.WorkSeconds
	}
	if defaults.RestSeconds <= 0 {
		defaults.RestSeconds = DefaultDurations.RestSeconds
	}
	names := make([]string, 0, len(c.Exercises))
	for _, exercise := range c.Exercises {
		names = append(names, exercise.Name)
	}
	rounds := c.Rounds
	if rounds <= 0 {
		rounds = 1
	}
	return Plan{
		Exercises:   names,
		TotalRounds: rounds,
		WorkSeconds: schedule.ParseSeconds(c.WorkDuration, defaults.WorkSeconds),
		RestSeconds: schedule.ParseSeconds(c.Rest, defaults.RestSeconds),
	}
}

// CircuitState is a snapshot for rendering.
type CircuitState struct {
	Position
	TotalRounds      int
	RemainingSeconds int
	IsPaused         bool
	Status           Status
	PendingReplace   bool
	Exercise         string
	Next             string
}

// CircuitOptions configures a CircuitRunner.
type CircuitOptions struct {
	Alerter    alert.Alerter
	Logger     *slog.Logger
	OnChange   func(CircuitState)
	OnComplete func()
}

// CircuitRunner drives the timer through the phases of a circuit. Events
// from runs it did not start, or no longer owns, are ignored.
type CircuitRunner struct {
	mu        sync.Mutex
	timer     Timer
	plan      Plan
	options   CircuitOptions
	pos       Position
	remaining int
	paused    bool
	status    Status
	runID     string
	pending   *startRequest
	sub       timerclient.Subscription
}

// NewCircuitRunner creates an idle runner for plan.
func NewCircuitRunner(t Timer, plan Plan, options CircuitOptions) *CircuitRunner {
	if options.Alerter == nil {
		options.Alerter = alert.Nop{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if plan.TotalRounds <= 0 {
		plan.TotalRounds = 1
	}
	return &CircuitRunner{
		timer:   t,
		plan:    plan,
		options: options,
		pos:     Position{Round: 1, Phase: PhaseWork},
		status:  StatusIdle,
	}
}

// Start begins the first work phase. A circuit without exercises completes
// immediately.
func (r *CircuitRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.status != StatusIdle {
		r.mu.Unlock()
		return nil
	}

	if len(r.plan.Exercises) == 0 {
		r.status = StatusComplete
		state := r.stateLocked()
		r.mu.Unlock()
		r.notify(state)
		r.complete()
		return nil
	}

	r.sub = r.timer.Subscribe(r.handle)
	r.pos = Position{Round: 1, ExerciseIndex: 0, Phase: PhaseWork}
	err := r.enterPhaseLocked(ctx, PhaseWork, false)
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	return err
}

// Pause stops the engine and keeps the remaining time for a resume.
func (r *CircuitRunner) Pause(ctx context.Context) error {
	r.mu.Lock()
	if r.status.Terminal() || r.remaining <= 0 || r.paused {
		r.mu.Unlock()
		return nil
	}

	last := r.remaining
	result := r.timer.Stop(ctx, timer.ReasonPause)
	if result.WasRunning && result.RunID == r.runID {
		last = result.RemainingSeconds
	}
	r.runID = ""
	resolution := Resolve(timer.ReasonPause, last)
	r.paused = resolution.IsPaused
	r.remaining = resolution.RemainingSeconds
	r.status = StatusArmed
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	return nil
}

// Resume restarts the engine with the displayed remaining time.
func (r *CircuitRunner) Resume(ctx context.Context) error {
	r.mu.Lock()
	if r.status.Terminal() || r.remaining <= 0 || !r.paused {
		r.mu.Unlock()
		return nil
	}
	err := r.startLocked(ctx, r.remaining, false)
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	return err
}

// PendingReplace reports whether a start is waiting on the user's decision.
func (r *CircuitRunner) PendingReplace() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// ConfirmReplace retries the blocked start, tearing down the other run.
func (r *CircuitRunner) ConfirmReplace(ctx context.Context) error {
	r.mu.Lock()
	if r.pending == nil || r.status.Terminal() {
		r.mu.Unlock()
		return nil
	}
	req := r.pending
	r.pending = nil
	err := r.startLocked(ctx, req.seconds, true)
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	return err
}

// CancelReplace drops the blocked start. The session stays paused.
func (r *CircuitRunner) CancelReplace() {
	r.mu.Lock()
	r.pending = nil
	state := r.stateLocked()
	r.mu.Unlock()
	r.notify(state)
}

// PreviousExercise moves back one exercise, armed.
func (r *CircuitRunner) PreviousExercise(ctx context.Context) error {
	return r.jump(ctx, -1)
}

// NextExercise moves forward one exercise, armed.
func (r *CircuitRunner) NextExercise(ctx context.Context) error {
	return r.jump(ctx, 1)
}

func (r *CircuitRunner) jump(ctx context.Context, delta int) error {
	r.mu.Lock()
	target := r.pos.ExerciseIndex + delta
	if r.status.Terminal() || r.status == StatusIdle || target < 0 || target >= len(r.plan.Exercises) {
		r.mu.Unlock()
		return nil
	}
	r.pos.ExerciseIndex = target
	err := r.enterPhaseLocked(ctx, PhaseWork, true)
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	return err
}

// Exit stops the engine and tears the session down.
func (r *CircuitRunner) Exit(ctx context.Context) {
	r.mu.Lock()
	if r.status.Terminal() {
		r.mu.Unlock()
		return
	}
	r.timer.Stop(ctx, timer.ReasonNavigation)
	r.runID = ""
	r.status = StatusExited
	r.paused = true
	r.teardownLocked()
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
}

// State returns the current snapshot.
func (r *CircuitRunner) State() CircuitState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *CircuitRunner) handle(event timer.Event) {
	r.mu.Lock()
	if r.runID == "" || event.RunID != r.runID {
		r.mu.Unlock()
		return
	}

	completed := false
	switch event.Status {
	case timer.StatusRunning:
		r.remaining = event.RemainingSeconds
		r.paused = false
		r.status = StatusRunning
	case timer.StatusStopped:
		resolution := Resolve(event.Reason, r.remaining)
		r.runID = ""
		r.paused = resolution.IsPaused
		r.remaining = resolution.RemainingSeconds
		r.status = StatusArmed
		if r.remaining == 0 {
			r.status = StatusStopped
		}
	case timer.StatusFinished:
		r.runID = ""
		r.remaining = 0
		r.paused = false
		r.options.Alerter.Alert(alert.KindStep)
		completed = r.advanceLocked(context.Background())
	}
	state := r.stateLocked()
	r.mu.Unlock()

	r.notify(state)
	if completed {
		r.complete()
	}
}

func (r *CircuitRunner) advanceLocked(ctx context.Context) bool {
	transition := Advance(r.pos, r.plan)
	if transition.Complete {
		r.status = StatusComplete
		r.teardownLocked()
		r.options.Logger.Info("circuit complete", "rounds", r.plan.TotalRounds)
		return true
	}

	r.pos = transition.Next
	if err := r.enterPhaseLocked(ctx, transition.Next.Phase, transition.Armed); err != nil {
		r.options.Logger.Warn("circuit phase start failed", "phase", string(r.pos.Phase), "round", r.pos.Round, "error", err)
	}
	return false
}

// enterPhaseLocked discards any in-flight run and sets up phase. Armed
// phases show their full length without starting the engine.
func (r *CircuitRunner) enterPhaseLocked(ctx context.Context, phase Phase, armed bool) error {
	seconds := r.plan.Seconds(phase)
	r.timer.Stop(ctx, timer.ReasonNavigation)
	r.runID = ""
	r.pending = nil
	r.pos.Phase = phase
	r.remaining = seconds

	if armed {
		r.paused = true
		r.status = StatusArmed
		return nil
	}
	r.paused = false
	return r.startLocked(ctx, seconds, false)
}

func (r *CircuitRunner) startLocked(ctx context.Context, seconds int, forceReplace bool) error {
	label := r.labelLocked()
	started, err := r.timer.Start(ctx, label, seconds, forceReplace)
	if err != nil {
		r.paused = true
		r.status = StatusArmed
		if conflict(err) {
			r.pending = &startRequest{label: label, seconds: seconds, series: -1}
			r.options.Logger.Warn("circuit timer conflict", "label", label)
			return ErrReplaceRequired
		}
		return err
	}

	r.runID = started.RunID
	r.pending = nil
	r.paused = false
	r.status = StatusRunning
	if started.State.RemainingSeconds > 0 {
		r.remaining = started.State.RemainingSeconds
	} else {
		r.remaining = seconds
	}
	return nil
}

func (r *CircuitRunner) teardownLocked() {
	r.pending = nil
	if r.sub != nil {
		r.sub.Remove()
		r.sub = nil
	}
}

func (r *CircuitRunner) labelLocked() string {
	if r.pos.Phase == PhaseRest {
		return restLabel
	}
	return workLabel
}

func (r *CircuitRunner) stateLocked() CircuitState {
	state := CircuitState{
		Position:         r.pos,
		TotalRounds:      r.plan.TotalRounds,
		RemainingSeconds: r.remaining,
		IsPaused:         r.paused,
		Status:           r.status,
		PendingReplace:   r.pending != nil,
	}
	if r.pos.ExerciseIndex < len(r.plan.Exercises) {
		state.Exercise = r.plan.Exercises[r.pos.ExerciseIndex]
	}
	switch {
	case r.pos.Phase == PhaseRest && len(r.plan.Exercises) > 0:
		state.Next = r.plan.Exercises[0]
	case r.pos.ExerciseIndex+1 < len(r.plan.Exercises):
		state.Next = r.plan.Exercises[r.pos.ExerciseIndex+1]
	}
	return state
}

func (r *CircuitRunner) notify(state CircuitState) {
	if r.options.OnChange != nil {
		r.options.OnChange(state)
	}
}

func (r *CircuitRunner) complete() {
	if r.options.OnComplete != nil {
		r.options.OnComplete()
	}
}
