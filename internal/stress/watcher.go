package stress

import (
	"context"
	"sync/atomic"

	"github.com/Borislavv/atomic-list/internal/stress/config"
	"github.com/Borislavv/atomic-list/pkg/metrics"
	"github.com/Borislavv/atomic-list/pkg/utils"
	"github.com/rs/zerolog/log"
)

// watcher is the liveness detector: it samples the shared counters every
// window and treats two consecutive windows with identical totals, while
// workers are still supposed to run, as a stall. Under a lock-free
// protocol a stall is not "slow", it is a correctness failure (helping
// broke down somewhere), so it is latched and fails the run.
type watcher struct {
	cfg     *config.Config
	cnt     *Counters
	meter   metrics.Meter
	stalled atomic.Bool
}

func newWatcher(cfg *config.Config, cnt *Counters, meter metrics.Meter) *watcher {
	return &watcher{cfg: cfg, cnt: cnt, meter: meter}
}

func (w *watcher) Stalled() bool {
	return w.stalled.Load()
}

func (w *watcher) run(ctx context.Context) {
	t := utils.NewTicker(ctx, w.cfg.StallWindow)
	last := w.cnt.Total()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t:
			cur := w.cnt.Total()
			if cur == last {
				w.stalled.Store(true)
				if w.meter != nil {
					w.meter.IncStall()
				}
				log.Error().
					Int64("total", cur).
					Dur("window", w.cfg.StallWindow).
					Msg("[watcher] no progress within the observation window, workers are stalled")
			} else if w.cfg.AppDebug {
				log.Info().
					Str("total", utils.FmtCount(cur)).
					Str("added", utils.FmtCount(w.cnt.Added())).
					Str("undone", utils.FmtCount(w.cnt.Undone())).
					Str("taken", utils.FmtCount(w.cnt.Taken())).
					Str("missed", utils.FmtCount(w.cnt.Missed())).
					Msg("[watcher] progress")
			}
			last = cur
		}
	}
}
