package list

import "sync/atomic"

type opKind uint8

const (
	opAddLast opKind = iota
	opRemoveFirst
)

// Descriptor is a single-node mutation step of an AtomicOperation. It is
// created uninstalled, published into one link field by prepare (the field
// then announces "a transaction is in progress here"), and resolved by
// complete: the field is atomically replaced by either the committed value
// or the displaced pre-transaction value.
//
// Until installed the descriptor belongs to the caller; once installed any
// thread may read it and help finish its owner, but only the decided
// outcome of the owner determines how it resolves.
type Descriptor[T any] struct {
	list *List[T]
	kind opKind
	node *Node[T]    // addLast: the node to link
	cond func() bool // optional addLast predicate, re-evaluated per attempt

	op      *AtomicOperation[T]
	rec     atomic.Pointer[installRecord[T]]
	claimed atomic.Bool // removeFirst: this transaction won the removal
}

// DescribeAddLast returns an uncommitted descriptor that will link n as
// the last element of l. No memory is touched until the owning operation's
// Perform.
func (l *List[T]) DescribeAddLast(n *Node[T]) *Descriptor[T] {
	n.list = l
	n.next.Store(&cell[T]{node: l.root})
	return &Descriptor[T]{list: l, kind: opAddLast, node: n}
}

// DescribeAddLastIf is DescribeAddLast with a precondition: prepare dooms
// the owning operation with ErrConditionFailed as soon as cond evaluates
// to false. cond obeys the same repeated-evaluation contract as AddLastIf.
func (l *List[T]) DescribeAddLastIf(n *Node[T], cond func() bool) *Descriptor[T] {
	d := l.DescribeAddLast(n)
	d.cond = cond
	return d
}

// DescribeRemoveFirst returns an uncommitted descriptor that will unlink
// the first element of l, failing the owning operation with ErrEmptyList
// when l is empty at prepare time.
func (l *List[T]) DescribeRemoveFirst() *Descriptor[T] {
	return &Descriptor[T]{list: l, kind: opRemoveFirst}
}

// Removed returns the node this remove-first descriptor unlinked, or nil
// before the owning operation committed.
func (d *Descriptor[T]) Removed() *Node[T] {
	if d.kind != opRemoveFirst || !d.op.decided() || d.op.failure() != nil {
		return nil
	}
	if rec := d.rec.Load(); rec != nil {
		return rec.cell.node
	}
	return nil
}

// Claimed reports whether this transaction, rather than a racing direct
// Remove, won the removal claim of the node it unlinked. The harness uses
// it to credit each removal exactly once.
func (d *Descriptor[T]) Claimed() bool {
	return d.claimed.Load()
}

// prepare installs the descriptor into its target link field. It is
// idempotent and re-entrant: the initiating thread and any number of
// helpers may call it concurrently and all converge on the same
// nil-or-cause result. A non-nil return dooms the owning operation.
func (d *Descriptor[T]) prepare() error {
	for {
		if o := d.op.outcome.Load(); o != nil {
			d.resolve(o.cause)
			return o.cause
		}
		if d.rec.Load() != nil {
			return nil // already installed by us or a helper
		}
		switch d.kind {
		case opAddLast:
			if d.cond != nil && !d.cond() {
				return ErrConditionFailed
			}
			t, c := d.list.tail()
			// Advisory backward hint; harmless if a racing helper saw a
			// different tail, the forward walk is the truth.
			d.node.prev.Store(&cell[T]{node: t})
			if d.install(&t.next, c) {
				return nil
			}
		case opRemoveFirst:
			field := &d.list.root.next
			c := field.Load()
			if c.desc == d {
				d.rec.CompareAndSwap(nil, &installRecord[T]{field: field, cell: c})
				return nil
			}
			if c.desc != nil {
				c.desc.helpOrUndo(field, c)
				continue
			}
			if c.node == d.list.root {
				return ErrEmptyList
			}
			if fc := c.node.next.Load(); fc != nil && fc.tomb {
				// Head already claimed by a racing Remove but not yet
				// unlinked: splice past it and retry on the live first
				// element instead of committing a vacuous removal.
				if field.CompareAndSwap(c, &cell[T]{node: fc.node}) {
					d.list.fixPrev(fc.node)
				}
				continue
			}
			if d.install(field, c) {
				return nil
			}
		}
	}
}

// install publishes d into field in place of the plain cell c, then makes
// the install canonical through the CAS-once record. A duplicate install
// that loses the record race is immediately undone, so at most one field
// ever holds a confirmed cell of d.
func (d *Descriptor[T]) install(field *atomicCell[T], c *cell[T]) bool {
	nc := &cell[T]{desc: d, node: c.node}
	if !field.CompareAndSwap(c, nc) {
		return false
	}
	if !d.rec.CompareAndSwap(nil, &installRecord[T]{field: field, cell: nc}) {
		rec := d.rec.Load()
		if rec.cell != nc {
			field.CompareAndSwap(nc, c)
			return true // canonical install exists elsewhere
		}
	}
	// The outcome may have been decided while we were installing; a late
	// install must resolve itself, the owner will not come back for it.
	if o := d.op.outcome.Load(); o != nil {
		d.resolve(o.cause)
	}
	return true
}

// helpOrUndo is called by any thread that reads cell c holding d out of a
// link field. A duplicate cell that lost the record race is rolled back to
// its displaced value; the canonical cell (or a not-yet-confirmed one,
// which is confirmed on the spot) is helped by driving the owning
// operation to completion.
func (d *Descriptor[T]) helpOrUndo(field *atomicCell[T], c *cell[T]) {
	if rec := d.rec.Load(); rec != nil && rec.cell != c {
		field.CompareAndSwap(c, &cell[T]{node: c.node})
		return
	}
	d.rec.CompareAndSwap(nil, &installRecord[T]{field: field, cell: c})
	_ = d.op.Perform()
}

// resolve replaces the installed cell according to the decided outcome:
// the committed value on success, the displaced pre-transaction value on
// failure. Safe to invoke concurrently and repeatedly; resolving an
// uninstalled or already-resolved descriptor is a no-op.
func (d *Descriptor[T]) resolve(cause error) {
	rec := d.rec.Load()
	if rec == nil {
		return
	}
	if cause != nil {
		rec.field.CompareAndSwap(rec.cell, &cell[T]{node: rec.cell.node})
		return
	}
	switch d.kind {
	case opAddLast:
		if rec.field.CompareAndSwap(rec.cell, &cell[T]{node: d.node}) {
			atomic.AddInt64(&d.list.len, 1)
		}
		// Repair both ends: a stale helper may have rewritten the
		// advisory prev of the node after the commit landed.
		d.list.fixPrev(d.node)
		d.list.fixPrev(d.list.root)
	case opRemoveFirst:
		first := rec.cell.node
		succ, won := first.claim()
		if won {
			d.claimed.Store(true)
			atomic.AddInt64(&d.list.len, -1)
		}
		if succ == nil {
			return // first was never linked; cannot happen for a confirmed install
		}
		rec.field.CompareAndSwap(rec.cell, &cell[T]{node: succ})
		d.list.fixPrev(succ)
	}
}
