package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"gym_timer/internal/store"
	"gym_timer/internal/timelog"

	"github.com/spf13/cobra"
)

// HistoryEntry is one line of `history --json`.
type HistoryEntry struct {
	RunID            string `json:"run_id"`
	Label            string `json:"label"`
	Outcome          string `json:"outcome"`
	Reason           string `json:"reason,omitempty"`
	RequestedSeconds int    `json:"requested_seconds"`
	StartedAt        string `json:"started_at"`
	StoppedAt        string `json:"stopped_at"`
	DurationSeconds  int    `json:"duration_seconds"`
}

func newHistoryCmd(a *app) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished and stopped timer runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := store.NewRepository(a.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer repo.Close()

			logs, err := repo.GetAllLogs(cmd.Context())
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if limit > 0 && len(logs) > limit {
				logs = logs[:limit]
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(out)
				for _, l := range logs {
					if err := encoder.Encode(historyEntry(l)); err != nil {
						return fmt.Errorf("marshal json: %w", err)
					}
				}
				return nil
			}

			if len(logs) == 0 {
				fmt.Fprintln(out, "No timer runs yet.")
				return nil
			}
			for _, l := range logs {
				fmt.Fprintln(out, formatLogLine(l))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output history as JSON lines")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many runs")
	return cmd
}

func historyEntry(l timelog.TimeLog) HistoryEntry {
	return HistoryEntry{
		RunID:            l.RunID,
		Label:            l.Label,
		Outcome:          string(l.Outcome),
		Reason:           string(l.Reason),
		RequestedSeconds: l.RequestedSeconds,
		StartedAt:        l.StartedAt.Format(time.RFC3339),
		StoppedAt:        l.StoppedAt.Format(time.RFC3339),
		DurationSeconds:  int(l.Duration.Seconds()),
	}
}

func formatLogLine(l timelog.TimeLog) string {
	outcome := string(l.Outcome)
	if l.Reason != "" {
		outcome += " (" + string(l.Reason) + ")"
	}
	return fmt.Sprintf("%s  %-16s %4ds of %4ds  %s",
		l.StoppedAt.Local().Format("Jan 02 15:04"),
		l.Label,
		int(l.Duration.Seconds()),
		l.RequestedSeconds,
		outcome,
	)
}
