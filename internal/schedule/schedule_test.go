package schedule

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		value    string
		fallback int
		want     int
	}{
		{"45", 30, 45},
		{"45s", 30, 45},
		{" 1 min 20 ", 30, 120},
		{"", 30, 30},
		{"abc", 20, 20},
		{"0", 20, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeconds(tt.value, tt.fallback), tt.value)
	}
}

func TestNormalizeDayKey(t *testing.T) {
	for _, alias := range []string{"day_1", "day1", "day-1", "giorno_1", "Giorno1", "giorno-1"} {
		key, ok := NormalizeDayKey(alias)
		assert.True(t, ok, alias)
		assert.Equal(t, "day_1", key, alias)
	}
	_, ok := NormalizeDayKey("day_9")
	assert.False(t, ok)
}

func TestNormalizePrefersCanonicalKey(t *testing.T) {
	s := Normalize(&Schedule{ID: "s1", Days: map[string]Day{
		"day_2":   {Number: 2},
		"giorno2": {Number: 99},
		"extra":   {Number: 7},
	}})
	require.Len(t, s.Days, 1)
	assert.Equal(t, 2, s.Days["day_2"].Number)
}

func TestWithSeriesDone(t *testing.T) {
	exercise := Exercise{Name: "Squat", Series: []Series{{Recovery: "90"}, {Recovery: "90"}}}

	once := exercise.WithSeriesDone(0)
	assert.True(t, once.Series[0].Done)
	assert.False(t, once.Done)
	assert.False(t, exercise.Series[0].Done)

	twice := once.WithSeriesDone(1)
	assert.True(t, twice.Done)
	assert.Equal(t, 90, twice.Series[1].RecoverySeconds())
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `
id: plan-1
days:
  giorno1:
    number: 1
    exercises:
      - name: Push-up
        series:
          - reps: "12"
            recovery: 60s
    circuit:
      rounds: 2
      work_duration: "40"
      rest: 15s
      exercises:
        - name: Burpee
        - name: Squat jump
`
	require.NoError(t, afero.WriteFile(fs, "plan.yaml", []byte(doc), 0o644))

	s, err := LoadFile(fs, "plan.yaml")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", s.ID)
	day := s.Days["day_1"]
	require.NotNil(t, day.Circuit)
	assert.Equal(t, 2, day.Circuit.Rounds)
	assert.Len(t, day.Circuit.Exercises, 2)
	assert.Equal(t, 60, day.Exercises[0].Series[0].RecoverySeconds())

	raw, err := EncodeDay(day)
	require.NoError(t, err)
	decoded, err := DecodeDay(raw)
	require.NoError(t, err)
	assert.Equal(t, day, decoded)
}

func TestLoadFileRequiresID(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "plan.yaml", []byte("days: {}\n"), 0o644))

	_, err := LoadFile(fs, "plan.yaml")
	assert.ErrorIs(t, err, ErrNoID)

	_, err = LoadFile(fs, "missing.yaml")
	assert.Error(t, err)
}
