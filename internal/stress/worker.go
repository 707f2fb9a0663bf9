package stress

import (
	"context"
	"errors"
	"sync"

	"github.com/Borislavv/atomic-list/internal/stress/config"
	"github.com/Borislavv/atomic-list/pkg/list"
	"github.com/Borislavv/atomic-list/pkg/metrics"
	"github.com/Borislavv/atomic-list/pkg/rate"
)

// workerStats is accumulated worker-locally and merged after the run; xor
// of keys is the cheap conservation checksum (order-independent, exact).
type workerStats struct {
	xorAdded   uint64
	xorRemoved uint64
}

// adder links nodes into randomly chosen lists (plain, conditional and
// transactional adds) and occasionally removes its own recent nodes back
// out, exercising the exactly-once removal claim from the adder side.
type adder struct {
	id    int
	lists []*list.List[Payload]
	cfg   *config.Config
	cnt   *Counters
	meter metrics.Meter
	lim   *rate.Limit
	gen   *generator
	stats workerStats

	own []*list.Node[Payload] // recent own nodes, candidates for undo
}

func (w *adder) run(ctx context.Context, wg *sync.WaitGroup, out chan<- workerStats) {
	defer wg.Done()
	defer func() { out <- w.stats }()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if w.lim != nil {
			if _, ok := w.lim.Take(ctx); !ok {
				return
			}
		}

		l := w.lists[w.gen.rnd.Intn(len(w.lists))]
		p := w.gen.next(w.id)
		n := list.NewNode(p)

		switch w.gen.rnd.Intn(10) {
		case 0, 1, 2, 3: // plain add
			l.AddLast(n)
			w.linked(n, p, "add_last")
		case 4, 5, 6: // conditional add
			if l.AddLastIf(n, func() bool { return l.Len() < w.cfg.MaxListLength }) {
				w.linked(n, p, "add_last_if")
			} else {
				w.cnt.IncMissed()
				w.incOp("add_last_if", "missed")
			}
		default: // single-descriptor transaction
			op := list.NewAtomicOperation(l.DescribeAddLastIf(n, func() bool {
				return l.Len() < w.cfg.MaxListLength
			}))
			if err := op.Perform(); err == nil {
				w.linked(n, p, "tx_add_last")
			} else {
				w.doomed(err, "tx_add_last")
			}
		}

		w.maybeUndo()
	}
}

func (w *adder) linked(n *list.Node[Payload], p Payload, op string) {
	w.cnt.IncAdded()
	w.stats.xorAdded ^= p.Key
	w.incOp(op, "ok")
	if len(w.own) < 64 {
		w.own = append(w.own, n)
	}
}

// maybeUndo removes one of the adder's own recent nodes. Remove is
// idempotent and exactly-once, so a node a remover transaction already
// claimed reports false here and is not double-counted.
func (w *adder) maybeUndo() {
	if len(w.own) == 0 || w.gen.rnd.Intn(3) != 0 {
		return
	}
	i := w.gen.rnd.Intn(len(w.own))
	n := w.own[i]
	w.own[i] = w.own[len(w.own)-1]
	w.own = w.own[:len(w.own)-1]
	if n.Remove() {
		w.cnt.IncUndone()
		w.stats.xorRemoved ^= n.Value.Key
		w.incOp("remove_own", "ok")
	} else {
		w.incOp("remove_own", "gone")
	}
}

func (w *adder) doomed(err error, op string) {
	if errors.Is(err, list.ErrConflict) {
		w.cnt.IncConflicts()
		w.incOp(op, "conflict")
		return
	}
	w.cnt.IncMissed()
	w.incOp(op, "missed")
}

func (w *adder) incOp(op, result string) {
	if w.meter != nil {
		w.meter.IncOp("adder", op, result)
	}
}

// remover drives multi-list atomic transactions: remove-first on one list
// composed with an add-last on another (or a dual remove-first).
// Descriptors are always ordered by ascending list index, the global
// order all workers share, which is the caller-side contract that keeps
// concurrent helping acyclic.
type remover struct {
	id    int
	lists []*list.List[Payload]
	cnt   *Counters
	meter metrics.Meter
	lim   *rate.Limit
	gen   *generator
	stats workerStats
}

func (w *remover) run(ctx context.Context, wg *sync.WaitGroup, out chan<- workerStats) {
	defer wg.Done()
	defer func() { out <- w.stats }()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if w.lim != nil {
			if _, ok := w.lim.Take(ctx); !ok {
				return
			}
		}

		i := w.gen.rnd.Intn(len(w.lists))
		j := w.gen.rnd.Intn(len(w.lists))
		switch {
		case i == j:
			w.removeFirst(w.lists[i])
		case w.gen.rnd.Intn(4) == 0:
			w.dualRemove(min(i, j), max(i, j))
		default:
			w.moveAcross(i, j)
		}
	}
}

// timeOp tracks the duration of one transactional attempt; the returned
// flush is a no-op when metrics are disabled.
func (w *remover) timeOp(op string) func() {
	if w.meter == nil {
		return func() {}
	}
	t := w.meter.NewOpTimer(op)
	return func() { w.meter.FlushOpTimer(t) }
}

// removeFirst pops the head of a single list transactionally.
func (w *remover) removeFirst(l *list.List[Payload]) {
	defer w.timeOp("tx_remove_first")()
	d := l.DescribeRemoveFirst()
	op := list.NewAtomicOperation(d)
	if err := op.Perform(); err != nil {
		w.doomed(err, "tx_remove_first")
		return
	}
	w.took(d, "tx_remove_first")
}

// moveAcross atomically pops the head of lists[from] and appends a fresh
// node to lists[to]: no observer may see one effect without the other.
func (w *remover) moveAcross(from, to int) {
	defer w.timeOp("tx_move")()
	p := w.gen.next(-1)
	n := list.NewNode(p)
	dRem := w.lists[from].DescribeRemoveFirst()
	dAdd := w.lists[to].DescribeAddLast(n)

	var op *list.AtomicOperation[Payload]
	if from < to {
		op = list.NewAtomicOperation(dRem, dAdd)
	} else {
		op = list.NewAtomicOperation(dAdd, dRem)
	}
	if err := op.Perform(); err != nil {
		w.doomed(err, "tx_move")
		return
	}
	w.cnt.IncAdded()
	w.stats.xorAdded ^= p.Key
	w.took(dRem, "tx_move")
}

// dualRemove pops the heads of two lists as one atomic step.
func (w *remover) dualRemove(a, b int) {
	defer w.timeOp("tx_dual_remove")()
	d1 := w.lists[a].DescribeRemoveFirst()
	d2 := w.lists[b].DescribeRemoveFirst()
	op := list.NewAtomicOperation(d1, d2)
	if err := op.Perform(); err != nil {
		w.doomed(err, "tx_dual_remove")
		return
	}
	w.took(d1, "tx_dual_remove")
	w.took(d2, "tx_dual_remove")
}

// took credits a committed remove-first exactly once: only when this
// transaction, not a racing direct Remove, won the node's removal claim.
func (w *remover) took(d *list.Descriptor[Payload], op string) {
	if !d.Claimed() {
		w.incOp(op, "snatched")
		return
	}
	w.cnt.IncTaken()
	w.stats.xorRemoved ^= d.Removed().Value.Key
	w.incOp(op, "ok")
}

func (w *remover) doomed(err error, op string) {
	if errors.Is(err, list.ErrConflict) {
		w.cnt.IncConflicts()
		w.incOp(op, "conflict")
		return
	}
	w.cnt.IncMissed()
	w.incOp(op, "missed")
}

func (w *remover) incOp(op, result string) {
	if w.meter != nil {
		w.meter.IncOp("remover", op, result)
	}
}
