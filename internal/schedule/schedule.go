// Package schedule holds the workout plan documents and the store that
// serves them.
package schedule

import (
	"context"
	"strconv"
	"strings"
	"unicode"
)

// Series is one set of an exercise. Recovery is the rest after the set, in
// seconds, possibly written with a unit ("90s").
type Series struct {
	Reps     string   `yaml:"reps,omitempty"`
	Load     *float64 `yaml:"load,omitempty"`
	Recovery string   `yaml:"recovery,omitempty"`
	Done     bool     `yaml:"done"`
}

// RecoverySeconds parses Recovery; zero means no rest timer.
func (s Series) RecoverySeconds() int {
	return ParseSeconds(s.Recovery, 0)
}

// Exercise is a named movement with its sets.
type Exercise struct {
	Name   string   `yaml:"name"`
	Series []Series `yaml:"series,omitempty"`
	Image  string   `yaml:"image,omitempty"`
	Note   string   `yaml:"note,omitempty"`
	Done   bool     `yaml:"done"`
}

// WithSeriesDone returns a copy with series index marked done. The exercise
// is done once every series is.
func (e Exercise) WithSeriesDone(index int) Exercise {
	next := e
	next.Series = append([]Series(nil), e.Series...)
	if index >= 0 && index < len(next.Series) {
		next.Series[index].Done = true
	}
	next.Done = allDone(next.Series)
	return next
}

func allDone(series []Series) bool {
	if len(series) == 0 {
		return false
	}
	for _, s := range series {
		if !s.Done {
			return false
		}
	}
	return true
}

// Circuit is a timed block repeated for a number of rounds.
type Circuit struct {
	Rounds       int        `yaml:"rounds"`
	WorkDuration string     `yaml:"work_duration,omitempty"`
	Rest         string     `yaml:"rest,omitempty"`
	Exercises    []Exercise `yaml:"exercises"`
	Done         bool       `yaml:"done"`
}

// Day is one training day.
type Day struct {
	Number    int        `yaml:"number"`
	Exercises []Exercise `yaml:"exercises"`
	Circuit   *Circuit   `yaml:"circuit,omitempty"`
}

// Schedule is the current plan, keyed by canonical day key.
type Schedule struct {
	ID   string         `yaml:"id"`
	Days map[string]Day `yaml:"days"`
}

// Store is the remote document collaborator.
type Store interface {
	FetchSchedule(ctx context.Context) (*Schedule, error)
	WriteDayUpdate(ctx context.Context, scheduleID, dayKey string, day Day) error
}

// DayKeys lists the canonical day keys in display order.
var DayKeys = []string{"day_1", "day_2", "day_3"}

var dayKeyPrefixes = []string{"day_", "day", "day-", "giorno_", "giorno", "giorno-"}

// NormalizeDayKey maps aliases such as "day1" or "giorno-2" to "day_N".
func NormalizeDayKey(key string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(key))
	for _, canonical := range DayKeys {
		n := strings.TrimPrefix(canonical, "day_")
		for _, prefix := range dayKeyPrefixes {
			if lower == prefix+n {
				return canonical, true
			}
		}
	}
	return "", false
}

// Normalize rewrites aliased day keys and drops unknown ones. When two keys
// alias the same day the canonical one wins.
func Normalize(s *Schedule) *Schedule {
	if s == nil {
		return nil
	}
	days := make(map[string]Day, len(s.Days))
	for key, day := range s.Days {
		canonical, ok := NormalizeDayKey(key)
		if !ok {
			continue
		}
		if _, taken := days[canonical]; taken && key != canonical {
			continue
		}
		for i, exercise := range day.Exercises {
			if !exercise.Done {
				day.Exercises[i].Done = allDone(exercise.Series)
			}
		}
		days[canonical] = day
	}
	return &Schedule{ID: s.ID, Days: days}
}

// DayLabel renders "day_2" as "Day 2".
func DayLabel(key string) string {
	return strings.Replace(key, "day_", "Day ", 1)
}

// ParseSeconds keeps only the digits of value. Missing, unparsable, or
// non-positive values yield fallback.
func ParseSeconds(value string, fallback int) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, value)
	if digits == "" {
		return fallback
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
