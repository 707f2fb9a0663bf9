package stress

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Borislavv/atomic-list/internal/stress/api"
	"github.com/Borislavv/atomic-list/internal/stress/config"
	"github.com/Borislavv/atomic-list/pkg/list"
	"github.com/Borislavv/atomic-list/pkg/metrics"
	"github.com/Borislavv/atomic-list/pkg/rate"
	"github.com/Borislavv/atomic-list/pkg/utils"
	"github.com/rs/zerolog/log"
)

// App is the stress workload driver: it spawns adder and remover workers
// over a set of independent lists, watches liveness, serves progress over
// HTTP and, once all mutation halts, validates every list and enforces the
// conservation law:
//
//	added == undone-by-adder + taken-by-remover + still-linked
//
// plus the xor-checksum variant of the same law over payload keys.
type App struct {
	cfg   *config.Config
	lists []*list.List[Payload]
	cnt   *Counters
	meter metrics.Meter
	watch *watcher
}

func NewApp(cfg *config.Config) (*App, error) {
	cfg.WithDefaults()

	a := &App{cfg: cfg, cnt: &Counters{}}
	for i := 0; i < cfg.Lists; i++ {
		a.lists = append(a.lists, list.New[Payload]())
	}

	if cfg.IsPrometheusMetricsEnabled {
		m, err := metrics.New()
		if err != nil {
			return nil, err
		}
		a.meter = m
	}
	a.watch = newWatcher(cfg, a.cnt, a.meter)

	return a, nil
}

// Status implements api.StatusReporter.
func (a *App) Status() (any, bool) {
	lengths := make([]int64, len(a.lists))
	for i, l := range a.lists {
		lengths[i] = l.Len()
	}
	stalled := a.watch.Stalled()
	return struct {
		Counters Snapshot `json:"counters"`
		Lengths  []int64  `json:"list_lengths"`
		Stalled  bool     `json:"stalled"`
	}{a.cnt.Snapshot(), lengths, stalled}, !stalled
}

// Run drives a full stress run and blocks until it finishes: either the
// configured duration elapses or ctx is cancelled from the outside. The
// returned error is nil only when every list validates and the
// conservation law holds exactly.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RunDuration)
	defer cancel()

	log.Info().
		Int("lists", len(a.lists)).
		Int("adders", a.cfg.AdderWorkers).
		Int("removers", a.cfg.RemoverWorkers).
		Dur("duration", a.cfg.RunDuration).
		Msg("[stress] starting workload")

	if a.cfg.ServerPort != "" {
		controllers := []httpController{api.NewStatusController(a)}
		if a.meter != nil {
			controllers = append(controllers, api.NewPrometheusMetrics())
		}
		go newHTTPServer(ctx, a.cfg, controllers).ListenAndServe()
	}

	go a.watch.run(ctx)
	if a.meter != nil {
		go a.reportLengths(ctx)
	}

	stats := a.spawnWorkers(ctx)

	log.Info().Msg("[stress] workload finished, validating")
	if err := a.finalCheck(stats); err != nil {
		log.Err(err).Msg("[stress] run failed")
		return err
	}
	if a.watch.Stalled() {
		err := fmt.Errorf("run stalled: counters stopped moving while workers were active")
		log.Err(err).Msg("[stress] run failed")
		return err
	}

	log.Info().
		Str("added", utils.FmtCount(a.cnt.Added())).
		Str("undone", utils.FmtCount(a.cnt.Undone())).
		Str("taken", utils.FmtCount(a.cnt.Taken())).
		Str("missed", utils.FmtCount(a.cnt.Missed())).
		Str("conflicts", utils.FmtCount(a.cnt.Conflicts())).
		Msg("[stress] run succeeded")
	return nil
}

// spawnWorkers starts all workers, waits them out and merges their local
// checksum stats.
func (a *App) spawnWorkers(ctx context.Context) workerStats {
	total := a.cfg.AdderWorkers + a.cfg.RemoverWorkers
	out := make(chan workerStats, total)
	wg := &sync.WaitGroup{}

	for i := 0; i < a.cfg.AdderWorkers; i++ {
		w := &adder{
			id:    i,
			lists: a.lists,
			cfg:   a.cfg,
			cnt:   a.cnt,
			meter: a.meter,
			lim:   a.newLimiter(ctx),
			gen:   newGenerator(time.Now().UnixNano() + int64(i)),
		}
		wg.Add(1)
		go w.run(ctx, wg, out)
	}
	for i := 0; i < a.cfg.RemoverWorkers; i++ {
		w := &remover{
			id:    i,
			lists: a.lists,
			cnt:   a.cnt,
			meter: a.meter,
			lim:   a.newLimiter(ctx),
			gen:   newGenerator(time.Now().UnixNano() - int64(i) - 1),
		}
		wg.Add(1)
		go w.run(ctx, wg, out)
	}

	wg.Wait()
	close(out)

	var merged workerStats
	for s := range out {
		merged.xorAdded ^= s.xorAdded
		merged.xorRemoved ^= s.xorRemoved
	}
	return merged
}

func (a *App) newLimiter(ctx context.Context) *rate.Limit {
	if a.cfg.OpsLimitPerWorker <= 0 {
		return nil
	}
	return rate.NewLimiter(ctx, a.cfg.OpsLimitPerWorker, a.cfg.OpsLimitPerWorker)
}

// finalCheck runs only after every worker has exited, so the structure is
// quiescent and the offline validator applies.
func (a *App) finalCheck(stats workerStats) error {
	var remaining int64
	var xorRemaining uint64
	for i, l := range a.lists {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("list %d: %w", i, err)
		}
		remaining += l.Len()
		l.Range(func(n *list.Node[Payload]) bool {
			xorRemaining ^= n.Value.Key
			return true
		})
	}

	added, undone, taken := a.cnt.Added(), a.cnt.Undone(), a.cnt.Taken()
	if added != undone+taken+remaining {
		return fmt.Errorf("conservation law violated: added %d != undone %d + taken %d + remaining %d",
			added, undone, taken, remaining)
	}
	if stats.xorAdded != stats.xorRemoved^xorRemaining {
		return fmt.Errorf("checksum conservation violated: xor(added) %x != xor(removed) %x ^ xor(remaining) %x",
			stats.xorAdded, stats.xorRemoved, xorRemaining)
	}
	return nil
}

// reportLengths keeps the per-list length gauges fresh while the run is
// active.
func (a *App) reportLengths(ctx context.Context) {
	t := utils.NewTicker(ctx, time.Second)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t:
			for i, l := range a.lists {
				a.meter.SetListLength(strconv.Itoa(i), float64(l.Len()))
			}
		}
	}
}
