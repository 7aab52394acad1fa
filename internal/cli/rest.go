package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"

	"github.com/spf13/cobra"
)

type restOptions struct {
	label string
	force bool
}

func newRestCmd(a *app) *cobra.Command {
	var opts restOptions

	cmd := &cobra.Command{
		Use:   "rest <seconds>",
		Short: "Run a single timer and print its events",
		Long: "Starts one countdown without the TUI and prints every timer event as a JSON line.\n" +
			"An interrupt stops the timer as a navigation away.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid seconds %q: %w", args[0], timerclient.ErrInvalidDuration)
			}
			return a.runRest(cmd, seconds, opts)
		},
	}

	cmd.Flags().StringVar(&opts.label, "label", timer.DefaultLabel, "timer label")
	cmd.Flags().BoolVar(&opts.force, "force", false, "replace a running timer")
	return cmd
}

func (a *app) runRest(cmd *cobra.Command, seconds int, opts restOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(a.cfg, a.logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	var mu sync.Mutex
	encoder := json.NewEncoder(cmd.OutOrStdout())
	done := make(chan timer.Event, 1)

	// The recorder runs inline so the terminal event is stored before the
	// command returns.
	sub := rt.client.Subscribe(func(event timer.Event) {
		mu.Lock()
		if err := encoder.Encode(event); err != nil {
			a.logger.Warn("write event", "error", err)
		}
		mu.Unlock()

		rt.recorder.Handle(event)
		if event.Status.Terminal() {
			select {
			case done <- event:
			default:
			}
		}
	})
	defer sub.Remove()

	started, err := rt.client.Start(ctx, opts.label, seconds, opts.force)
	if err != nil {
		a.logger.Error("rest timer not started", "label", opts.label, "code", string(timerclient.CodeOf(err)))
		return err
	}
	a.logger.Debug("rest timer started", "run", started.RunID, "remaining", started.State.RemainingSeconds)

	select {
	case event := <-done:
		a.logger.Info("rest timer ended", "run", event.RunID, "status", string(event.Status))
		return nil
	case <-ctx.Done():
	}

	result := rt.client.Stop(context.Background(), timer.ReasonNavigation)
	if result.WasRunning {
		<-done
	}
	a.logger.Info("rest timer interrupted", "run", result.RunID, "remaining", result.RemainingSeconds)
	return nil
}
