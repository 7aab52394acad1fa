package timelog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"
)

// Writer persists run logs.
type Writer interface {
	CreateLog(ctx context.Context, log *TimeLog) error
}

// Source delivers timer events.
type Source interface {
	Subscribe(handler timer.Handler) timerclient.Subscription
}

type openRun struct {
	label     string
	startedAt time.Time
}

// Recorder writes a TimeLog for every run that reaches a terminal event.
// Runs already in progress when it attaches are logged from the first
// event it sees.
type Recorder struct {
	mu     sync.Mutex
	writer Writer
	logger *slog.Logger
	open   map[string]openRun
	sub    timerclient.Subscription
}

// NewRecorder creates a detached Recorder.
func NewRecorder(writer Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{writer: writer, logger: logger, open: make(map[string]openRun)}
}

// Attach subscribes the recorder to source.
func (r *Recorder) Attach(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub == nil {
		r.sub = source.Subscribe(r.Handle)
	}
}

// Close detaches the recorder.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		r.sub.Remove()
		r.sub = nil
	}
}

// Handle consumes one event.
func (r *Recorder) Handle(event timer.Event) {
	if event.RunID == "" {
		return
	}

	r.mu.Lock()
	run, seen := r.open[event.RunID]
	if !seen {
		run = openRun{label: event.Label, startedAt: event.At}
		r.pruneLocked(event.RunID)
	}
	if !event.Status.Terminal() {
		r.open[event.RunID] = run
		r.mu.Unlock()
		return
	}
	delete(r.open, event.RunID)
	r.mu.Unlock()

	entry := &TimeLog{
		RunID:            event.RunID,
		Label:            run.label,
		Outcome:          event.Status,
		Reason:           event.Reason,
		RequestedSeconds: event.DurationSeconds,
		StartedAt:        run.startedAt,
		StoppedAt:        event.At,
		Duration:         event.At.Sub(run.startedAt),
	}
	if err := r.writer.CreateLog(context.Background(), entry); err != nil {
		r.logger.Error("record timer run", "run", event.RunID, "error", err)
	}
}

// pruneLocked forgets runs other than current. Only one run is active at a
// time, so an unseen id means earlier runs were replaced without a terminal
// event.
func (r *Recorder) pruneLocked(current string) {
	for id := range r.open {
		if id != current {
			r.logger.Debug("drop replaced timer run", "run", id)
			delete(r.open, id)
		}
	}
}
