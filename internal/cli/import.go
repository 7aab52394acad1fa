package cli

import (
	"fmt"

	"gym_timer/internal/schedule"
	"gym_timer/internal/store"

	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <schedule.yaml>",
		Short: "Load a workout schedule from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schedule.LoadFile(a.fs, args[0])
			if err != nil {
				return err
			}

			repo, err := store.NewRepository(a.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer repo.Close()

			if err := repo.SaveSchedule(cmd.Context(), s); err != nil {
				return fmt.Errorf("save schedule %s: %w", s.ID, err)
			}
			a.logger.Info("schedule imported", "id", s.ID, "days", len(s.Days))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported schedule %s (%d days)\n", s.ID, len(s.Days))
			return nil
		},
	}
}
