package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gym_timer/internal/auth"
	"gym_timer/internal/config"
	"gym_timer/internal/store"
	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("os/signal.loop"),
	)
}

const configPath = "/etc/gym_timer/config.yaml"

type fixture struct {
	fs       afero.Fs
	database string
}

func newFixture(t *testing.T, edit func(*config.Config)) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "gym.db")
	cfg.Alert.Bell = false
	cfg.Timer.TickInterval = 20 * time.Millisecond
	if edit != nil {
		edit(&cfg)
	}
	require.NoError(t, config.Save(fs, configPath, cfg))
	return &fixture{fs: fs, database: cfg.Database}
}

func (f *fixture) run(args ...string) (string, error) {
	cmd := newRoot(f.fs)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const weekPlan = `id: plan-1
days:
  day1:
    number: 1
    exercises:
      - name: Squat
        series:
          - reps: "8"
            recovery: 90s
  giorno-2:
    number: 2
    exercises: []
    circuit:
      rounds: 3
      work_duration: 40s
      exercises:
        - name: Burpees
`

func TestImportStoresNormalizedSchedule(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, "/plans/week.yaml", []byte(weekPlan), 0o644))

	out, err := f.run("import", "/plans/week.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Imported schedule plan-1 (2 days)\n", out)

	repo, err := store.NewRepository(f.database)
	require.NoError(t, err)
	defer repo.Close()

	s, err := repo.FetchSchedule(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Squat", s.Days["day_1"].Exercises[0].Name)
	require.NotNil(t, s.Days["day_2"].Circuit)
	assert.Equal(t, 3, s.Days["day_2"].Circuit.Rounds)
}

func TestImportMissingFile(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.run("import", "/plans/missing.yaml")
	assert.Error(t, err)
}

func TestRestPrintsEventsAndRecordsHistory(t *testing.T) {
	f := newFixture(t, nil)

	out, err := f.run("rest", "1", "--label", "Plank")
	require.NoError(t, err)

	var events []timer.Event
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var event timer.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.GreaterOrEqual(t, len(events), 2)

	first, last := events[0], events[len(events)-1]
	assert.Equal(t, timer.StatusRunning, first.Status)
	assert.Equal(t, "Plank", first.Label)
	assert.Equal(t, 1, first.RemainingSeconds)
	assert.Equal(t, timer.StatusFinished, last.Status)
	assert.Equal(t, 0, last.RemainingSeconds)
	assert.Equal(t, first.RunID, last.RunID)

	out, err = f.run("history", "--json")
	require.NoError(t, err)

	var entry HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, first.RunID, entry.RunID)
	assert.Equal(t, "Plank", entry.Label)
	assert.Equal(t, "finished", entry.Outcome)
	assert.Equal(t, 1, entry.RequestedSeconds)
}

func TestRestRejectsInvalidDuration(t *testing.T) {
	f := newFixture(t, nil)

	for _, arg := range []string{"abc", "0", "-5"} {
		_, err := f.run("rest", "--", arg)
		assert.ErrorIs(t, err, timerclient.ErrInvalidDuration, arg)
	}
}

func TestRestWithTimerDisabled(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.Timer.Enabled = false })

	_, err := f.run("rest", "30")
	assert.ErrorIs(t, err, timerclient.ErrUnavailable)
	assert.Equal(t, timerclient.CodeUnavailable, timerclient.CodeOf(err))
}

func TestSignedOutIsRejected(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.Auth.SignedIn = false })

	_, err := f.run("history")
	assert.ErrorIs(t, err, auth.ErrSignedOut)
}

func TestHistoryEmpty(t *testing.T) {
	f := newFixture(t, nil)

	out, err := f.run("history")
	require.NoError(t, err)
	assert.Equal(t, "No timer runs yet.\n", out)
}

func TestNewRootCommands(t *testing.T) {
	cmd := NewRoot()

	for _, name := range []string{"tui", "rest", "import", "history"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
		assert.NotNil(t, sub.RunE)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}
