package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"gym_timer/internal/alert"
	"gym_timer/internal/schedule"
	"gym_timer/internal/session"
	"gym_timer/internal/timelog"
	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const storeTimeout = 5 * time.Second

type screen int

const (
	screenDays screen = iota
	screenDay
	screenExercise
	screenCircuit
	screenLogs
)

// MsgTick asks the model to resynchronize with the engine.
type MsgTick struct{}

// MsgTimerEvent carries an engine event into the program.
type MsgTimerEvent struct {
	Event timer.Event
}

type msgRefresh struct{}

type msgCircuitComplete struct {
	dayKey string
}

type msgSeriesDone struct {
	dayKey   string
	index    int
	exercise schedule.Exercise
}

// History lists past timer runs.
type History interface {
	GetAllLogs(ctx context.Context) ([]timelog.TimeLog, error)
}

// Options wires the model to its collaborators.
type Options struct {
	Timer    *timerclient.Client
	Store    schedule.Store
	History  History
	Defaults session.Defaults
	Alerter  alert.Alerter
	Logger   *slog.Logger
}

type Model struct {
	Schedule      *schedule.Schedule
	DayKeys       []string
	SelectedIndex int
	ExerciseIndex int
	SeriesIndex   int
	Err           error
	Notice        string

	TimerState timer.State
	Circuit    session.CircuitState
	Exercise   session.ExerciseState

	// All-logs viewer state
	LogViewScroll int
	AllLogs       []timelog.TimeLog

	screen   screen
	dayKey   string
	options  Options
	circuit  *session.CircuitRunner
	exercise *session.ExerciseRunner
	sub      timerclient.Subscription
	send     func(tea.Msg)
}

// NewModel loads the current schedule.
func NewModel(ctx context.Context, options Options) (*Model, error) {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Alerter == nil {
		options.Alerter = alert.Nop{}
	}
	if options.Defaults.WorkSeconds <= 0 || options.Defaults.RestSeconds <= 0 {
		options.Defaults = session.DefaultDurations
	}

	s, err := options.Store.FetchSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	m := &Model{
		Schedule:   s,
		DayKeys:    dayKeys(s),
		options:    options,
		TimerState: options.Timer.State(ctx),
	}
	if !options.Timer.Available() {
		m.Err = timerclient.ErrUnavailable
	}
	return m, nil
}

func dayKeys(s *schedule.Schedule) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, k := range schedule.DayKeys {
		if _, ok := s.Days[k]; ok {
			out = append(out, k)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(s.Days)) {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// Attach forwards engine events into the program through send. Call it
// before running the program.
func (m *Model) Attach(send func(tea.Msg)) {
	m.send = send
	m.sub = m.options.Timer.Subscribe(func(event timer.Event) {
		send(MsgTimerEvent{Event: event})
	})
}

// post delivers msg from callbacks that may run inside Update.
func (m *Model) post(msg tea.Msg) {
	if m.send == nil {
		return
	}
	go m.send(msg)
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		m.TimerState = m.options.Timer.State(context.Background())
		m.refresh()
		return m, nil
	case MsgTimerEvent:
		m.applyEvent(msg.Event)
		return m, nil
	case msgRefresh:
		m.refresh()
		return m, nil
	case msgCircuitComplete:
		m.completeCircuit(msg.dayKey)
		return m, nil
	case msgSeriesDone:
		m.saveSeries(msg.dayKey, msg.index, msg.exercise)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	if m.pendingReplace() {
		return m.replacePromptView()
	}

	switch m.screen {
	case screenLogs:
		return m.allLogsView()
	case screenCircuit:
		return m.circuitView()
	case screenExercise:
		return m.exerciseView()
	case screenDay:
		return m.dayView()
	}

	if len(m.DayKeys) == 0 {
		return m.emptyStateView()
	}
	return m.mainView()
}

// SelectedDay returns the day under the cursor on the day list, or the open
// day elsewhere.
func (m *Model) SelectedDay() (string, *schedule.Day) {
	key := m.dayKey
	if m.screen == screenDays || m.screen == screenLogs {
		if m.SelectedIndex < 0 || m.SelectedIndex >= len(m.DayKeys) {
			return "", nil
		}
		key = m.DayKeys[m.SelectedIndex]
	}
	if m.Schedule == nil {
		return "", nil
	}
	day, ok := m.Schedule.Days[key]
	if !ok {
		return "", nil
	}
	return key, &day
}

func (m *Model) applyEvent(event timer.Event) {
	switch event.Status {
	case timer.StatusRunning:
		m.TimerState = timer.State{Running: true, Label: event.Label, RemainingSeconds: event.RemainingSeconds}
	case timer.StatusFinished, timer.StatusStopped:
		m.TimerState = timer.IdleState()
	}
}

func (m *Model) refresh() {
	if m.circuit != nil {
		m.Circuit = m.circuit.State()
	}
	if m.exercise != nil {
		m.Exercise = m.exercise.State()
	}
}

func (m *Model) pendingReplace() bool {
	switch m.screen {
	case screenCircuit:
		return m.circuit != nil && m.circuit.PendingReplace()
	case screenExercise:
		return m.exercise != nil && m.exercise.PendingReplace()
	}
	return false
}

// handleErr surfaces err unless it is a conflict, which shows the replace
// prompt instead.
func (m *Model) handleErr(err error) {
	switch {
	case err == nil:
		m.Err = nil
	case errors.Is(err, session.ErrReplaceRequired):
		m.Err = nil
	case errors.Is(err, session.ErrNoRecovery):
		m.Notice = "This series has no rest time."
	default:
		m.options.Logger.Warn("timer action failed", "code", string(timerclient.CodeOf(err)), "error", err)
		m.Err = err
	}
}

func (m *Model) openDay() {
	key, day := m.SelectedDay()
	if day == nil {
		return
	}
	m.dayKey = key
	m.ExerciseIndex = 0
	m.Notice = ""
	m.screen = screenDay
}

func (m *Model) openExercise() {
	key, day := m.SelectedDay()
	if day == nil || m.ExerciseIndex >= len(day.Exercises) {
		return
	}
	index := m.ExerciseIndex
	runner := session.NewExerciseRunner(m.options.Timer, day.Exercises[index], session.ExerciseOptions{
		Logger:   m.options.Logger,
		OnChange: func(session.ExerciseState) { m.post(msgRefresh{}) },
		OnSeriesDone: func(exercise schedule.Exercise) {
			m.post(msgSeriesDone{dayKey: key, index: index, exercise: exercise})
		},
	})
	runner.Attach(context.Background())

	m.exercise = runner
	m.SeriesIndex = 0
	m.Notice = ""
	m.screen = screenExercise
	m.refresh()
}

func (m *Model) closeExercise() {
	if m.exercise != nil {
		m.exercise.Close()
		m.exercise = nil
	}
	m.Exercise = session.ExerciseState{}
	m.screen = screenDay
}

func (m *Model) startCircuit() {
	key, day := m.SelectedDay()
	if day == nil || day.Circuit == nil {
		return
	}
	plan := session.PlanFromCircuit(*day.Circuit, m.options.Defaults)
	runner := session.NewCircuitRunner(m.options.Timer, plan, session.CircuitOptions{
		Alerter:    m.options.Alerter,
		Logger:     m.options.Logger,
		OnChange:   func(session.CircuitState) { m.post(msgRefresh{}) },
		OnComplete: func() { m.post(msgCircuitComplete{dayKey: key}) },
	})

	m.circuit = runner
	m.Notice = ""
	m.screen = screenCircuit
	m.handleErr(runner.Start(context.Background()))
	m.refresh()
}

func (m *Model) exitCircuit() {
	if m.circuit != nil {
		m.circuit.Exit(context.Background())
		m.circuit = nil
	}
	m.Circuit = session.CircuitState{}
	m.screen = screenDay
}

func (m *Model) completeCircuit(dayKey string) {
	if m.Schedule == nil {
		return
	}
	day, ok := m.Schedule.Days[dayKey]
	if !ok || day.Circuit == nil {
		return
	}
	circuit := *day.Circuit
	circuit.Done = true
	day.Circuit = &circuit
	m.Notice = "Circuit complete!"
	m.writeDay(dayKey, day)
	m.refresh()
}

func (m *Model) saveSeries(dayKey string, index int, exercise schedule.Exercise) {
	if m.Schedule == nil {
		return
	}
	day, ok := m.Schedule.Days[dayKey]
	if !ok || index >= len(day.Exercises) {
		return
	}
	exercises := slices.Clone(day.Exercises)
	exercises[index] = exercise
	day.Exercises = exercises
	m.writeDay(dayKey, day)
}

// writeDay stores day locally and through the store.
func (m *Model) writeDay(dayKey string, day schedule.Day) {
	m.Schedule.Days[dayKey] = day

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.options.Store.WriteDayUpdate(ctx, m.Schedule.ID, dayKey, day); err != nil {
		m.options.Logger.Error("write day update", "day", dayKey, "error", err)
		m.Err = fmt.Errorf("failed to save %s: %w", schedule.DayLabel(dayKey), err)
	}
}

func (m *Model) openLogs() {
	m.AllLogs = nil
	m.LogViewScroll = 0
	if m.options.History != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		logs, err := m.options.History.GetAllLogs(ctx)
		if err == nil {
			m.AllLogs = logs
		}
	}
	m.screen = screenLogs
}

// Close detaches from the engine and stops any circuit in progress.
func (m *Model) Close() {
	if m.sub != nil {
		m.sub.Remove()
		m.sub = nil
	}
	if m.exercise != nil {
		m.exercise.Close()
	}
	if m.circuit != nil {
		m.circuit.Exit(context.Background())
	}
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.pendingReplace() {
		return m.handleReplaceInput(msg)
	}

	switch m.screen {
	case screenLogs:
		return m.handleLogViewInput(msg)
	case screenCircuit:
		return m.handleCircuitInput(msg)
	case screenExercise:
		return m.handleExerciseInput(msg)
	case screenDay:
		return m.handleDayInput(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.SelectedIndex > 0 {
			m.SelectedIndex--
		}
	case key.Matches(msg, keys.Down):
		if m.SelectedIndex < len(m.DayKeys)-1 {
			m.SelectedIndex++
		}
	case key.Matches(msg, keys.Enter):
		m.openDay()
	case key.Matches(msg, keys.Logs):
		m.openLogs()
	}
	return m, nil
}

func (m *Model) handleDayInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, day := m.SelectedDay()
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		m.screen = screenDays
		m.Notice = ""
	case key.Matches(msg, keys.Up):
		if m.ExerciseIndex > 0 {
			m.ExerciseIndex--
		}
	case key.Matches(msg, keys.Down):
		if day != nil && m.ExerciseIndex < len(day.Exercises)-1 {
			m.ExerciseIndex++
		}
	case key.Matches(msg, keys.Enter):
		m.openExercise()
	case key.Matches(msg, keys.Circuit):
		m.startCircuit()
	}
	return m, nil
}

func (m *Model) handleExerciseInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		m.closeExercise()
	case key.Matches(msg, keys.Up):
		if m.SeriesIndex > 0 {
			m.SeriesIndex--
		}
	case key.Matches(msg, keys.Down):
		if m.SeriesIndex < len(m.Exercise.Timers)-1 {
			m.SeriesIndex++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.Exercise.Timers) == 0 {
			break
		}
		m.Notice = ""
		m.handleErr(m.exercise.StartSeries(context.Background(), m.SeriesIndex))
		m.refresh()
	}
	return m, nil
}

func (m *Model) handleCircuitInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		m.exitCircuit()
		return m, nil
	case key.Matches(msg, keys.Pause):
		if m.circuit.State().IsPaused {
			m.handleErr(m.circuit.Resume(ctx))
		} else {
			m.handleErr(m.circuit.Pause(ctx))
		}
	case key.Matches(msg, keys.Prev):
		m.handleErr(m.circuit.PreviousExercise(ctx))
	case key.Matches(msg, keys.Next):
		m.handleErr(m.circuit.NextExercise(ctx))
	}
	m.refresh()
	return m, nil
}

func (m *Model) handleReplaceInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch {
	case key.Matches(msg, keys.Confirm):
		if m.screen == screenCircuit {
			m.handleErr(m.circuit.ConfirmReplace(ctx))
		} else {
			m.handleErr(m.exercise.ConfirmReplace(ctx))
		}
	case key.Matches(msg, keys.Cancel):
		if m.screen == screenCircuit {
			m.circuit.CancelReplace()
		} else {
			m.exercise.CancelReplace()
		}
	}
	m.refresh()
	return m, nil
}

func (m *Model) handleLogViewInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit), key.Matches(msg, keys.Back), key.Matches(msg, keys.Logs):
		m.screen = screenDays
		m.AllLogs = nil
	case key.Matches(msg, keys.Up):
		if m.LogViewScroll > 0 {
			m.LogViewScroll--
		}
	case key.Matches(msg, keys.Down):
		maxScroll := len(m.AllLogs) - 1
		if maxScroll < 0 {
			maxScroll = 0
		}
		if m.LogViewScroll < maxScroll {
			m.LogViewScroll++
		}
	}
	return m, nil
}
