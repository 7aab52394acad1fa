package internal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gym_timer/internal/schedule"
	"gym_timer/internal/session"
	"gym_timer/internal/timelog"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	itemSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	timerDisplayStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("69")).
				Bold(true)

	timerRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 0)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	logLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
)

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func formatSeconds(seconds int) string {
	return formatDuration(time.Duration(seconds) * time.Second)
}

func (m *Model) emptyStateView() string {
	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		titleStyle.Render("Gym Timer")+"\n\n"+
			inactiveStyle.Render("No schedule yet. Run 'gym_timer import <file>' to load one."),
	)
}

// footer renders the engine status, messages and the help line.
func (m *Model) footer(help string) string {
	var sb strings.Builder
	sb.WriteString(m.statusLine())
	if m.Notice != "" {
		sb.WriteString("\n")
		sb.WriteString(runningStyle.Render(m.Notice))
	}
	if m.Err != nil {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(m.Err.Error()))
	}
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render(help))
	return sb.String()
}

func (m *Model) statusLine() string {
	if !m.options.Timer.Available() {
		return inactiveStyle.Render("Timer unavailable")
	}
	if !m.TimerState.Running {
		return inactiveStyle.Render("No timer running")
	}
	return runningStyle.Render(fmt.Sprintf("● %s %s", m.TimerState.Label, formatSeconds(m.TimerState.RemainingSeconds)))
}

func (m *Model) mainView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Width(80).Render("Gym Timer"))
	sb.WriteString("\n\n")

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.dayListView(),
		"  ",
		m.daySummaryView(),
	)
	sb.WriteString(boxes)
	sb.WriteString("\n\n")
	sb.WriteString(m.footer(helpLine(keys.Up, keys.Down, keys.Enter, keys.Logs, keys.Quit)))

	return sb.String()
}

func (m *Model) dayListView() string {
	var sb strings.Builder

	sb.WriteString("Days\n\n")

	for i, k := range m.DayKeys {
		day := m.Schedule.Days[k]
		line := schedule.DayLabel(k)
		if dayDone(day) {
			line += " ✓"
		}

		if i == m.SelectedIndex {
			sb.WriteString(itemSelectedStyle.Render(line))
		} else {
			sb.WriteString(itemStyle.Render(inactiveStyle.Render(line)))
		}
		sb.WriteString("\n")
	}

	return boxStyle.Width(25).Height(15).Render(sb.String())
}

func (m *Model) daySummaryView() string {
	key, day := m.SelectedDay()
	if day == nil {
		return boxStyle.Width(45).Height(15).Render("Select a day")
	}

	var sb strings.Builder
	sb.WriteString(sectionStyle.Render(schedule.DayLabel(key)))
	sb.WriteString("\n\n")
	for _, e := range day.Exercises {
		sb.WriteString(exerciseLine(e))
		sb.WriteString("\n")
	}
	if day.Circuit != nil {
		sb.WriteString("\n")
		sb.WriteString(circuitSummary(*day.Circuit))
		sb.WriteString("\n")
	}

	return boxStyle.Width(45).Height(15).Render(sb.String())
}

func (m *Model) dayView() string {
	key, day := m.SelectedDay()
	if day == nil {
		return m.emptyStateView()
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render(schedule.DayLabel(key)))
	sb.WriteString("\n\n")

	var list strings.Builder
	list.WriteString("Exercises\n\n")
	for i, e := range day.Exercises {
		line := exerciseLine(e)
		if i == m.ExerciseIndex {
			list.WriteString(itemSelectedStyle.Render(line))
		} else {
			list.WriteString(itemStyle.Render(line))
		}
		list.WriteString("\n")
	}
	if len(day.Exercises) == 0 {
		list.WriteString(inactiveStyle.Render("No exercises"))
	}
	sb.WriteString(boxStyle.Width(50).Render(list.String()))

	help := helpLine(keys.Up, keys.Down, keys.Enter, keys.Back, keys.Quit)
	if day.Circuit != nil {
		sb.WriteString("\n")
		sb.WriteString(boxStyle.Width(50).Render(circuitSummary(*day.Circuit)))
		help = helpLine(keys.Up, keys.Down, keys.Enter, keys.Circuit, keys.Back, keys.Quit)
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.footer(help))
	return sb.String()
}

func (m *Model) exerciseView() string {
	e := m.Exercise.Exercise

	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render(e.Name))
	sb.WriteString("\n\n")
	if e.Note != "" {
		sb.WriteString(inactiveStyle.Render(e.Note))
		sb.WriteString("\n\n")
	}

	var list strings.Builder
	list.WriteString("Series\n\n")
	for i, s := range e.Series {
		var t session.SeriesTimer
		if i < len(m.Exercise.Timers) {
			t = m.Exercise.Timers[i]
		}
		line := fmt.Sprintf("%-10s %s", session.SeriesLabel(i), seriesDetail(s))
		if i == m.SeriesIndex {
			line = itemSelectedStyle.Render(line)
		} else {
			line = itemStyle.Render(line)
		}
		list.WriteString(line)
		list.WriteString("  ")
		list.WriteString(seriesTimerView(s, t))
		list.WriteString("\n")
	}
	if len(e.Series) == 0 {
		list.WriteString(inactiveStyle.Render("No series"))
	}
	sb.WriteString(boxStyle.Width(70).Render(list.String()))
	sb.WriteString("\n\n")
	sb.WriteString(m.footer(helpLine(keys.Up, keys.Down, keys.Enter, keys.Back, keys.Quit)))
	return sb.String()
}

func seriesTimerView(s schedule.Series, t session.SeriesTimer) string {
	switch {
	case t.Running:
		return timerRunningStyle.Render(formatSeconds(t.RemainingSeconds))
	case t.Completed:
		return runningStyle.Render("✓")
	case s.RecoverySeconds() > 0:
		return timerDisplayStyle.Render(formatSeconds(s.RecoverySeconds()))
	}
	return inactiveStyle.Render("--:--")
}

func seriesDetail(s schedule.Series) string {
	parts := []string{}
	if s.Reps != "" {
		parts = append(parts, s.Reps+" reps")
	}
	if s.Load != nil {
		parts = append(parts, "@ "+strconv.FormatFloat(*s.Load, 'f', -1, 64)+" kg")
	}
	return strings.Join(parts, " ")
}

func (m *Model) circuitView() string {
	c := m.Circuit

	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render("Circuit"))
	sb.WriteString("\n\n")

	var body strings.Builder
	if c.Status == session.StatusComplete {
		body.WriteString(runningStyle.Render("Circuit complete!"))
		body.WriteString("\n")
		sb.WriteString(boxStyle.Width(50).Render(body.String()))
		sb.WriteString("\n\n")
		sb.WriteString(m.footer(helpLine(keys.Back, keys.Quit)))
		return sb.String()
	}

	phase := "Work"
	if c.Phase == session.PhaseRest {
		phase = "Rest"
	}
	body.WriteString(fmt.Sprintf("Round %d/%d · %s\n\n", c.Round, c.TotalRounds, sectionStyle.Render(phase)))

	if c.Phase == session.PhaseWork {
		body.WriteString(fmt.Sprintf("%s\n", c.Exercise))
	}

	remaining := formatSeconds(c.RemainingSeconds)
	status := "Running"
	statusStyle := runningStyle
	if c.IsPaused {
		status = "Paused"
		statusStyle = inactiveStyle
		body.WriteString(timerDisplayStyle.Render(remaining))
	} else {
		body.WriteString(timerRunningStyle.Render(remaining))
	}
	body.WriteString(fmt.Sprintf("\n\n%s\n", statusStyle.Render(status)))
	if c.Next != "" {
		body.WriteString(inactiveStyle.Render("Next: " + c.Next))
		body.WriteString("\n")
	}

	sb.WriteString(boxStyle.Width(50).Render(body.String()))
	sb.WriteString("\n\n")
	sb.WriteString(m.footer(helpLine(keys.Pause, keys.Prev, keys.Next, keys.Back, keys.Quit)))
	return sb.String()
}

func (m *Model) replacePromptView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render("Timer Running"))
	sb.WriteString("\n\n")

	current := "Another timer"
	if m.TimerState.Running {
		current = fmt.Sprintf("%s (%s left)", m.TimerState.Label, formatSeconds(m.TimerState.RemainingSeconds))
	}

	form := fmt.Sprintf("%s is already running.\n\n%s\n\n%s",
		timerDisplayStyle.Render(current),
		promptStyle.Render("→ Replace it?"),
		helpStyle.Render(helpLine(keys.Confirm, keys.Cancel)),
	)

	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		boxStyle.Width(50).Render(form),
	)
}

func (m *Model) allLogsView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render("Timer History"))
	sb.WriteString("\n\n")

	var list strings.Builder
	if len(m.AllLogs) == 0 {
		list.WriteString(inactiveStyle.Render("No timer runs yet."))
	}
	const pageSize = 15
	end := min(m.LogViewScroll+pageSize, len(m.AllLogs))
	for _, l := range m.AllLogs[min(m.LogViewScroll, end):end] {
		list.WriteString(m.formatLogEntry(l))
		list.WriteString("\n")
	}
	sb.WriteString(boxStyle.Width(70).Render(list.String()))
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render(helpLine(keys.Up, keys.Down, keys.Back)))
	return sb.String()
}

func (m *Model) formatLogEntry(l timelog.TimeLog) string {
	timeStr := logTimeStyle.Render(l.StoppedAt.Local().Format("Jan 02 15:04"))
	dur := formatDuration(l.Duration)
	outcome := string(l.Outcome)
	if l.Reason != "" {
		outcome += " · " + string(l.Reason)
	}
	return fmt.Sprintf("  %s  %s  %s %s", timeStr, dur, logLabelStyle.Render(l.Label), inactiveStyle.Render(outcome))
}

func exerciseLine(e schedule.Exercise) string {
	line := e.Name
	if n := len(e.Series); n > 0 {
		line += fmt.Sprintf(" (%d×)", n)
	}
	if e.Done {
		line += " ✓"
	}
	return line
}

func circuitSummary(c schedule.Circuit) string {
	names := make([]string, 0, len(c.Exercises))
	for _, e := range c.Exercises {
		names = append(names, e.Name)
	}
	rounds := max(c.Rounds, 1)
	line := fmt.Sprintf("Circuit · %d rounds\n%s", rounds, inactiveStyle.Render(strings.Join(names, ", ")))
	if c.Done {
		line += " " + runningStyle.Render("✓")
	}
	return line
}

func dayDone(day schedule.Day) bool {
	if len(day.Exercises) == 0 && day.Circuit == nil {
		return false
	}
	for _, e := range day.Exercises {
		if !e.Done {
			return false
		}
	}
	return day.Circuit == nil || day.Circuit.Done
}
