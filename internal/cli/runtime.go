package cli

import (
	"fmt"
	"io"
	"log/slog"

	"gym_timer/internal/alert"
	"gym_timer/internal/config"
	"gym_timer/internal/store"
	"gym_timer/internal/timelog"
	"gym_timer/internal/timer"
	"gym_timer/internal/timerclient"
)

// runtime is everything a command needs to drive timers.
type runtime struct {
	repo     *store.Repository
	engine   *timer.Engine
	client   *timerclient.Client
	recorder *timelog.Recorder
}

// openRuntime opens the store and, when enabled, the engine. Alerts ring on
// bell.
func openRuntime(cfg config.Config, logger *slog.Logger, bell io.Writer) (*runtime, error) {
	repo, err := store.NewRepository(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	rt := &runtime{repo: repo}

	var backend timerclient.Backend
	if cfg.Timer.Enabled {
		var alerter alert.Alerter = alert.Nop{}
		if cfg.Alert.Bell {
			alerter = alert.NewBell(bell)
		}
		rt.engine = timer.New(timer.Config{
			TickInterval: cfg.Timer.TickInterval,
			Alerter:      alerter,
			Logger:       logger,
		})
		backend = rt.engine
	} else {
		logger.Info("timer engine disabled")
	}

	rt.client = timerclient.New(backend, logger)
	rt.recorder = timelog.NewRecorder(repo, logger)
	return rt, nil
}

func (rt *runtime) Close() {
	rt.recorder.Close()
	if rt.engine != nil {
		rt.engine.Close()
	}
	rt.repo.Close()
}
