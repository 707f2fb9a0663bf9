package stress

import "sync/atomic"

// Counters are the shared progress counters of a run. The conservation law
// the final check enforces: Added == Undone + Taken + nodes still linked.
// Missed and Conflicts track doomed attempts that never mutated anything.
type Counters struct {
	added     int64 // nodes successfully linked (direct, conditional or transactional)
	undone    int64 // nodes removed by their own adder before a remover got to them
	taken     int64 // nodes claimed by remover-side transactions
	missed    int64 // attempts doomed by a precondition (empty list, predicate false)
	conflicts int64 // attempts doomed by a concurrent removal of their target
}

func (c *Counters) IncAdded() int64     { return atomic.AddInt64(&c.added, 1) }
func (c *Counters) IncUndone() int64    { return atomic.AddInt64(&c.undone, 1) }
func (c *Counters) IncTaken() int64     { return atomic.AddInt64(&c.taken, 1) }
func (c *Counters) IncMissed() int64    { return atomic.AddInt64(&c.missed, 1) }
func (c *Counters) IncConflicts() int64 { return atomic.AddInt64(&c.conflicts, 1) }

func (c *Counters) Added() int64     { return atomic.LoadInt64(&c.added) }
func (c *Counters) Undone() int64    { return atomic.LoadInt64(&c.undone) }
func (c *Counters) Taken() int64     { return atomic.LoadInt64(&c.taken) }
func (c *Counters) Missed() int64    { return atomic.LoadInt64(&c.missed) }
func (c *Counters) Conflicts() int64 { return atomic.LoadInt64(&c.conflicts) }

// Total is the progress signal the stall watcher samples: any completed
// attempt moves it forward, successful or not.
func (c *Counters) Total() int64 {
	return c.Added() + c.Undone() + c.Taken() + c.Missed() + c.Conflicts()
}

// Snapshot is a consistent-enough copy for the status endpoint; each field
// is read atomically, the set as a whole is advisory.
type Snapshot struct {
	Added     int64 `json:"added"`
	Undone    int64 `json:"undone"`
	Taken     int64 `json:"taken"`
	Missed    int64 `json:"missed"`
	Conflicts int64 `json:"conflicts"`
	Total     int64 `json:"total"`
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Added:     c.Added(),
		Undone:    c.Undone(),
		Taken:     c.Taken(),
		Missed:    c.Missed(),
		Conflicts: c.Conflicts(),
		Total:     c.Total(),
	}
}
