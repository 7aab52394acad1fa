// Package cli wires settings, storage, the timer engine and the TUI into a
// cobra command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"gym_timer/internal/auth"
	"gym_timer/internal/config"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type app struct {
	fs         afero.Fs
	configPath string
	logLevel   string
	cfg        config.Config
	logger     *slog.Logger
}

// NewRoot builds the command tree on the OS filesystem.
func NewRoot() *cobra.Command {
	return newRoot(afero.NewOsFs())
}

func newRoot(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs}

	cmd := &cobra.Command{
		Use:          "gym_timer",
		Short:        "Workout schedule with rest and circuit timers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (default $XDG_CONFIG_HOME/gym_timer/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(newTUICmd(a))
	cmd.AddCommand(newRestCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	cfg, err := config.Load(a.fs, path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg)

	if err := auth.Require(cmd.Context(), auth.Static(cfg.Auth.SignedIn)); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return nil
}

func newLogger(out io.Writer, cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level()}))
}
