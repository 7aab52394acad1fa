package timelog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	mu   sync.Mutex
	logs []TimeLog
	err  error
}

func (w *memoryWriter) CreateLog(_ context.Context, log *TimeLog) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.logs = append(w.logs, *log)
	return nil
}

func TestRecorderLogsTerminalEvents(t *testing.T) {
	writer := &memoryWriter{}
	recorder := NewRecorder(writer, nil)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	recorder.Handle(timer.Event{Status: timer.StatusRunning, RunID: "a", Label: "Serie #1", RemainingSeconds: 90, DurationSeconds: 90, At: start})
	recorder.Handle(timer.Event{Status: timer.StatusRunning, RunID: "a", Label: "Serie #1", RemainingSeconds: 89, DurationSeconds: 90, At: start.Add(time.Second)})
	recorder.Handle(timer.Event{Status: timer.StatusFinished, RunID: "a", Label: "Serie #1", DurationSeconds: 90, At: start.Add(90 * time.Second)})

	recorder.Handle(timer.Event{Status: timer.StatusRunning, RunID: "b", Label: "Circuit · Work", DurationSeconds: 30, At: start})
	recorder.Handle(timer.Event{Status: timer.StatusStopped, RunID: "b", Label: timer.DefaultLabel, Reason: timer.ReasonPause, DurationSeconds: 30, At: start.Add(10 * time.Second)})

	recorder.Handle(timer.Event{Status: timer.StatusAlreadyRunning, Label: "x"})

	require.Len(t, writer.logs, 2)
	assert.Equal(t, TimeLog{
		RunID:            "a",
		Label:            "Serie #1",
		Outcome:          timer.StatusFinished,
		RequestedSeconds: 90,
		StartedAt:        start,
		StoppedAt:        start.Add(90 * time.Second),
		Duration:         90 * time.Second,
	}, writer.logs[0])
	assert.Equal(t, "Circuit · Work", writer.logs[1].Label)
	assert.Equal(t, timer.ReasonPause, writer.logs[1].Reason)
	assert.Equal(t, 10*time.Second, writer.logs[1].Duration)
	assert.Empty(t, recorder.open)
}

func TestRecorderSurvivesWriteErrors(t *testing.T) {
	writer := &memoryWriter{err: errors.New("disk full")}
	recorder := NewRecorder(writer, nil)

	recorder.Handle(timer.Event{Status: timer.StatusFinished, RunID: "a", At: time.Now()})
	assert.Empty(t, writer.logs)
}

func (w *memoryWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.logs)
}

func TestRecorderAttachToEngine(t *testing.T) {
	engine := timer.New(timer.Config{TickInterval: time.Hour})
	defer engine.Close()
	writer := &memoryWriter{}
	recorder := NewRecorder(writer, nil)
	recorder.Attach(timerclient.New(engine, nil))
	defer recorder.Close()

	_, _, err := engine.Start("Rest", 30, false)
	require.NoError(t, err)
	engine.Stop(timer.ReasonNavigation)

	require.Eventually(t, func() bool { return writer.count() == 1 }, time.Second, time.Millisecond)
	writer.mu.Lock()
	defer writer.mu.Unlock()
	assert.Equal(t, "Rest", writer.logs[0].Label)
	assert.Equal(t, timer.StatusStopped, writer.logs[0].Outcome)
	assert.Equal(t, timer.ReasonNavigation, writer.logs[0].Reason)
	assert.Equal(t, 30, writer.logs[0].RequestedSeconds)
}

func TestRecorderForgetsReplacedRuns(t *testing.T) {
	writer := &memoryWriter{}
	recorder := NewRecorder(writer, nil)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		recorder.Handle(timer.Event{Status: timer.StatusRunning, RunID: id, Label: "Serie #1", DurationSeconds: 60, At: start.Add(time.Duration(i) * time.Second)})
	}
	assert.Len(t, recorder.open, 1)
	assert.Contains(t, recorder.open, "c")

	recorder.Handle(timer.Event{Status: timer.StatusFinished, RunID: "c", DurationSeconds: 60, At: start.Add(62 * time.Second)})
	require.Len(t, writer.logs, 1)
	assert.Equal(t, "c", writer.logs[0].RunID)
	assert.Empty(t, recorder.open)
}

func TestRecorderForgetsRunsReplacedOnEngine(t *testing.T) {
	engine := timer.New(timer.Config{TickInterval: time.Hour})
	defer engine.Close()
	writer := &memoryWriter{}
	recorder := NewRecorder(writer, nil)
	recorder.Attach(timerclient.New(engine, nil))
	defer recorder.Close()

	_, _, err := engine.Start("Serie #1", 60, false)
	require.NoError(t, err)
	_, _, err = engine.Start("Serie #2", 60, true)
	require.NoError(t, err)
	engine.Stop(timer.ReasonNavigation)

	require.Eventually(t, func() bool { return writer.count() == 1 }, time.Second, time.Millisecond)
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Empty(t, recorder.open)
	assert.Equal(t, "Serie #2", writer.logs[0].Label)
}
