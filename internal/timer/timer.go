// Package timer owns the single process-wide countdown. Every read and
// write of the timer state goes through the Engine's mutex; ticks run on one
// goroutine per run, and events are fanned out through a Channel.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gym_timer/internal/alert"

	"github.com/oklog/ulid/v2"
)

// Config contains runtime options for the Engine.
type Config struct {
	TickInterval time.Duration
	Now          func() time.Time
	Alerter      alert.Alerter
	Logger       *slog.Logger
}

// Engine is the authoritative countdown. At most one run is active.
type Engine struct {
	mu      sync.Mutex
	options Config
	state   TimerState
	active  *run
	channel *Channel
}

type run struct {
	id       string
	stopChan chan struct{}
	attached chan struct{}
	stopped  bool
}

// New creates an idle Engine.
func New(options Config) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Alerter == nil {
		options.Alerter = alert.Nop{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Engine{
		options: options,
		state:   idleState(),
		channel: NewChannel(),
	}
}

// Subscribe registers a handler for engine events.
func (e *Engine) Subscribe(handler Handler) *Subscription {
	return e.channel.Subscribe(handler)
}

// Start begins a run of the given length. With forceReplace an active run is
// torn down first, without a stopped event.
func (e *Engine) Start(label string, seconds int, forceReplace bool) (State, string, error) {
	if seconds <= 0 {
		return e.State(), "", ErrInvalidDuration
	}
	if label == "" {
		label = DefaultLabel
	}

	e.mu.Lock()
	now := e.options.Now()
	if e.active != nil && !forceReplace {
		activeLabel := e.state.Label
		projection := e.projectionLocked(now)
		e.channel.Publish(Event{
			Status:           StatusAlreadyRunning,
			RemainingSeconds: remainingSeconds(e.state.EndAtEpochMillis, now.UnixMilli()),
			Label:            e.state.Label,
			At:               now,
		})
		e.mu.Unlock()
		e.options.Logger.Warn("timer start rejected", "label", label, "active", activeLabel)
		return projection, "", ErrAlreadyRunning
	}

	if e.active != nil {
		e.options.Logger.Info("timer replaced", "previous", e.state.Label, "previous_run", e.active.id, "label", label)
		e.teardownLocked()
	}

	r := &run{
		id:       ulid.Make().String(),
		stopChan: make(chan struct{}),
		attached: make(chan struct{}),
	}
	e.active = r
	e.state = TimerState{
		Running:          true,
		Label:            label,
		DurationSeconds:  seconds,
		EndAtEpochMillis: now.UnixMilli() + int64(seconds)*1000,
	}
	e.channel.Publish(e.runningEventLocked(now))
	projection := e.projectionLocked(now)
	e.mu.Unlock()

	go e.loop(r)

	e.options.Logger.Debug("timer started", "label", label, "seconds", seconds, "run", r.id)
	return projection, r.id, nil
}

// Stop halts the active run. Stopping an idle engine changes nothing and
// publishes nothing.
func (e *Engine) Stop(reason StopReason) StopResult {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return StopResult{Label: DefaultLabel, Reason: reason}
	}

	now := e.options.Now()
	result := StopResult{
		RunID:            e.active.id,
		Label:            e.state.Label,
		RemainingSeconds: remainingSeconds(e.state.EndAtEpochMillis, now.UnixMilli()),
		Reason:           reason,
		WasRunning:       true,
	}
	duration := e.state.DurationSeconds
	e.teardownLocked()
	e.channel.Publish(Event{
		Status:           StatusStopped,
		RemainingSeconds: 0,
		Label:            DefaultLabel,
		RunID:            result.RunID,
		Reason:           reason,
		DurationSeconds:  duration,
		At:               now,
	})
	e.mu.Unlock()

	e.options.Logger.Debug("timer stopped", "label", result.Label, "run", result.RunID, "reason", string(reason), "remaining", result.RemainingSeconds)
	return result
}

// State returns the current projection.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projectionLocked(e.options.Now())
}

// Snapshot returns the raw engine state.
func (e *Engine) Snapshot() TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Ensure waits until the active run's tick goroutine is attached or the
// run has been torn down, whichever comes first.
func (e *Engine) Ensure(ctx context.Context) (State, error) {
	e.mu.Lock()
	r := e.active
	e.mu.Unlock()

	if r != nil {
		select {
		case <-r.attached:
		case <-r.stopChan:
		case <-ctx.Done():
			return e.State(), ctx.Err()
		}
	}
	return e.State(), nil
}

// Close tears down any run silently and detaches all subscribers.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.active != nil {
		e.teardownLocked()
	}
	e.mu.Unlock()
	e.channel.Close()
}

func (e *Engine) loop(r *run) {
	ticker := time.NewTicker(e.options.TickInterval)
	defer ticker.Stop()
	close(r.attached)

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			if !e.tick(r) {
				return
			}
		}
	}
}

// tick advances r once. It returns false when r is no longer active.
func (e *Engine) tick(r *run) bool {
	e.mu.Lock()
	if e.active != r {
		e.mu.Unlock()
		return false
	}

	now := e.options.Now()
	if remainingSeconds(e.state.EndAtEpochMillis, now.UnixMilli()) > 0 {
		e.channel.Publish(e.runningEventLocked(now))
		e.mu.Unlock()
		return true
	}

	label := e.state.Label
	duration := e.state.DurationSeconds
	e.channel.Publish(Event{
		Status:           StatusFinished,
		RemainingSeconds: 0,
		Label:            label,
		RunID:            r.id,
		DurationSeconds:  duration,
		At:               now,
	})
	e.teardownLocked()
	e.mu.Unlock()

	e.options.Alerter.Alert(alert.KindFinished)
	e.options.Logger.Info("timer finished", "label", label, "seconds", duration, "run", r.id)
	return false
}

func (e *Engine) teardownLocked() {
	if e.active != nil && !e.active.stopped {
		e.active.stopped = true
		close(e.active.stopChan)
	}
	e.active = nil
	e.state = idleState()
}

func (e *Engine) runningEventLocked(now time.Time) Event {
	return Event{
		Status:           StatusRunning,
		RemainingSeconds: remainingSeconds(e.state.EndAtEpochMillis, now.UnixMilli()),
		Label:            e.state.Label,
		RunID:            e.active.id,
		DurationSeconds:  e.state.DurationSeconds,
		At:               now,
	}
}

func (e *Engine) projectionLocked(now time.Time) State {
	if !e.state.Running {
		return IdleState()
	}
	return State{
		Running:          true,
		Label:            e.state.Label,
		RemainingSeconds: remainingSeconds(e.state.EndAtEpochMillis, now.UnixMilli()),
	}
}
