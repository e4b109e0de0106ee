package sync

import (
	"context"
	"time"

	"github.com/llmc/ragcore/internal/logging"
)

const defaultIdleBackoffBase = 1.5

// runPollLoop scans the repository on a fixed tick, backing off
// exponentially while idle and resetting to the base tick the moment a
// cycle reports any change, per the daemon's poll-mode contract.
func (c *Controller) runPollLoop(ctx context.Context) {
	log := logging.For(logging.CategorySync)

	cfg, err := c.loadConfig()
	tick := c.PollFallback
	backoffMax := 5 * time.Minute
	backoffBase := defaultIdleBackoffBase
	if err == nil {
		tick = cfg.TickInterval()
		backoffMax = cfg.IdleBackoffMax()
		if cfg.Daemon.IdleBackoffBase > 0 {
			backoffBase = cfg.Daemon.IdleBackoffBase
		}
	}
	if tick <= 0 {
		tick = 2 * time.Second
	}
	if backoffMax <= 0 {
		backoffMax = 5 * time.Minute
	}

	current := tick
	timer := time.NewTimer(current)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-timer.C:
			stats := c.runCycle(ctx)
			log.Debugw("poll cycle completed", "files_changed", stats.FilesChanged, "next_tick", current)

			if stats.FilesChanged > 0 || stats.FilesDeleted > 0 {
				current = tick
			} else {
				current = time.Duration(float64(current) * backoffBase)
				if current > backoffMax {
					current = backoffMax
				}
			}
			timer.Reset(current)
		}
	}
}
