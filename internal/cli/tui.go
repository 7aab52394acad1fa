package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gym_timer/internal"
	"gym_timer/internal/alert"
	"gym_timer/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the workout schedule (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd)
		},
	}
}

func (a *app) runTUI(cmd *cobra.Command) error {
	logger, closeLog, err := a.tuiLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	rt, err := openRuntime(a.cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.Close()
	rt.recorder.Attach(rt.client)

	var alerter alert.Alerter = alert.Nop{}
	if a.cfg.Alert.Bell {
		alerter = alert.NewBell(os.Stdout)
	}

	m, err := internal.NewModel(cmd.Context(), internal.Options{
		Timer:   rt.client,
		Store:   rt.repo,
		History: rt.repo,
		Defaults: session.Defaults{
			WorkSeconds: a.cfg.Circuit.WorkSeconds,
			RestSeconds: a.cfg.Circuit.RestSeconds,
		},
		Alerter: alerter,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	m.Attach(p.Send)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			select {
			case <-ticker.C:
				p.Send(internal.MsgTick{})
			case <-quit:
				return
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// tuiLogger keeps logs off the alt screen: they go to log_file, or nowhere.
func (a *app) tuiLogger() (*slog.Logger, func(), error) {
	if a.cfg.LogFile == "" {
		return newLogger(io.Discard, a.cfg), func() {}, nil
	}
	f, err := a.fs.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, a.cfg), func() { f.Close() }, nil
}
