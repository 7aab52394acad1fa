package session

import (
	"context"
	"testing"

	"gym_timer/internal/schedule"
	"gym_timer/internal/timer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squat() schedule.Exercise {
	return schedule.Exercise{
		Name: "Squat",
		Series: []schedule.Series{
			{Reps: "8", Recovery: "90", Done: true},
			{Reps: "8", Recovery: "90s"},
			{Reps: "8"},
		},
	}
}

func TestExerciseRunnerInitialState(t *testing.T) {
	runner := NewExerciseRunner(&fakeTimer{}, squat(), ExerciseOptions{})

	state := runner.State()
	assert.Equal(t, -1, state.Active)
	assert.True(t, state.Timers[0].Completed)
	assert.False(t, state.Timers[1].Completed)
}

func TestExerciseRunnerSeriesFinishes(t *testing.T) {
	fake := &fakeTimer{}
	var done []schedule.Exercise
	runner := NewExerciseRunner(fake, squat(), ExerciseOptions{
		OnSeriesDone: func(e schedule.Exercise) { done = append(done, e) },
	})
	runner.Attach(context.Background())
	defer runner.Close()

	require.NoError(t, runner.StartSeries(context.Background(), 1))
	assert.Equal(t, []startCall{{label: "Serie #2", seconds: 90}}, fake.startCalls())
	assert.Equal(t, SeriesTimer{RemainingSeconds: 90, Running: true}, runner.State().Timers[1])

	fake.tick(60)
	assert.Equal(t, 60, runner.State().Timers[1].RemainingSeconds)

	fake.finish()
	state := runner.State()
	assert.Equal(t, -1, state.Active)
	assert.True(t, state.Timers[1].Completed)
	require.Len(t, done, 1)
	assert.True(t, done[0].Series[1].Done)
	assert.False(t, done[0].Done)
}

func TestExerciseRunnerRejectsSeriesWithoutRecovery(t *testing.T) {
	runner := NewExerciseRunner(&fakeTimer{}, squat(), ExerciseOptions{})

	assert.ErrorIs(t, runner.StartSeries(context.Background(), 2), ErrNoRecovery)
	assert.Error(t, runner.StartSeries(context.Background(), 7))
}

func TestExerciseRunnerStoppedClearsSeries(t *testing.T) {
	fake := &fakeTimer{}
	runner := NewExerciseRunner(fake, squat(), ExerciseOptions{})
	runner.Attach(context.Background())
	defer runner.Close()

	require.NoError(t, runner.StartSeries(context.Background(), 1))
	fake.stopExternally(timer.ReasonNone)

	state := runner.State()
	assert.Equal(t, -1, state.Active)
	assert.Equal(t, SeriesTimer{}, state.Timers[1])
}

func TestExerciseRunnerConflictAndReplace(t *testing.T) {
	fake := &fakeTimer{}
	runner := NewExerciseRunner(fake, squat(), ExerciseOptions{})
	runner.Attach(context.Background())
	defer runner.Close()

	_, err := fake.Start(context.Background(), "Circuit · Work", 30, false)
	require.NoError(t, err)

	assert.ErrorIs(t, runner.StartSeries(context.Background(), 1), ErrReplaceRequired)
	assert.True(t, runner.PendingReplace())

	require.NoError(t, runner.ConfirmReplace(context.Background()))
	assert.False(t, runner.PendingReplace())
	assert.Equal(t, "Serie #2", fake.State(context.Background()).Label)
	assert.True(t, runner.State().Timers[1].Running)
}

func TestExerciseRunnerAdoptsRunningSeries(t *testing.T) {
	fake := &fakeTimer{}
	_, err := fake.Start(context.Background(), "Serie #2", 90, false)
	require.NoError(t, err)
	fake.tick(70)

	runner := NewExerciseRunner(fake, squat(), ExerciseOptions{})
	runner.Attach(context.Background())
	defer runner.Close()

	state := runner.State()
	assert.Equal(t, 1, state.Active)
	assert.Equal(t, 70, state.Timers[1].RemainingSeconds)

	fake.tick(69)
	assert.Equal(t, 69, runner.State().Timers[1].RemainingSeconds)
	fake.finish()
	assert.True(t, runner.State().Timers[1].Completed)
}

func TestExerciseRunnerIgnoresForeignRuns(t *testing.T) {
	fake := &fakeTimer{}
	runner := NewExerciseRunner(fake, squat(), ExerciseOptions{})
	runner.Attach(context.Background())
	defer runner.Close()

	_, err := fake.Start(context.Background(), "Circuit · Work", 30, false)
	require.NoError(t, err)
	fake.tick(20)
	fake.finish()

	state := runner.State()
	assert.Equal(t, -1, state.Active)
	assert.False(t, state.Timers[1].Completed)
}

func twoRests() schedule.Exercise {
	return schedule.Exercise{
		Name: "Bench",
		Series: []schedule.Series{
			{Reps: "10", Recovery: "60"},
			{Reps: "10", Recovery: "60"},
		},
	}
}

func TestExerciseRunnerCancelKeepsRunningSeries(t *testing.T) {
	fake := &fakeTimer{}
	var done []schedule.Exercise
	runner := NewExerciseRunner(fake, twoRests(), ExerciseOptions{
		OnSeriesDone: func(e schedule.Exercise) { done = append(done, e) },
	})
	runner.Attach(context.Background())
	defer runner.Close()

	require.NoError(t, runner.StartSeries(context.Background(), 0))
	assert.ErrorIs(t, runner.StartSeries(context.Background(), 1), ErrReplaceRequired)

	state := runner.State()
	assert.True(t, state.PendingReplace)
	assert.Equal(t, 0, state.Active)
	assert.True(t, state.Timers[0].Running)

	runner.CancelReplace()
	state = runner.State()
	assert.False(t, state.PendingReplace)
	assert.Equal(t, 0, state.Active)
	assert.Equal(t, SeriesTimer{RemainingSeconds: 60, Running: true}, state.Timers[0])
	assert.Equal(t, SeriesTimer{}, state.Timers[1])

	fake.tick(30)
	assert.Equal(t, 30, runner.State().Timers[0].RemainingSeconds)
	fake.finish()

	state = runner.State()
	assert.True(t, state.Timers[0].Completed)
	assert.False(t, state.Timers[1].Completed)
	assert.Equal(t, -1, state.Active)
	require.Len(t, done, 1)
	assert.True(t, done[0].Series[0].Done)
}

func TestExerciseRunnerReplaceSwitchesSeries(t *testing.T) {
	fake := &fakeTimer{}
	var done []schedule.Exercise
	runner := NewExerciseRunner(fake, twoRests(), ExerciseOptions{
		OnSeriesDone: func(e schedule.Exercise) { done = append(done, e) },
	})
	runner.Attach(context.Background())
	defer runner.Close()

	require.NoError(t, runner.StartSeries(context.Background(), 0))
	first := fake.currentRunID()
	assert.ErrorIs(t, runner.StartSeries(context.Background(), 1), ErrReplaceRequired)

	require.NoError(t, runner.ConfirmReplace(context.Background()))
	assert.NotEqual(t, first, fake.currentRunID())

	state := runner.State()
	assert.Equal(t, 1, state.Active)
	assert.Equal(t, SeriesTimer{}, state.Timers[0])
	assert.True(t, state.Timers[1].Running)

	fake.finish()
	state = runner.State()
	assert.False(t, state.Timers[0].Completed)
	assert.True(t, state.Timers[1].Completed)
	require.Len(t, done, 1)
	assert.True(t, done[0].Series[1].Done)
}
