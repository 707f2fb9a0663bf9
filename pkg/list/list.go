package list

import "sync/atomic"

// List is a lock-free, intrusive, circular doubly-linked list anchored by a
// sentinel root node. Forward links are the linearizable truth: every
// forward mutation is a single CAS of a link cell. Backward links are
// advisory and repaired lazily; they agree with the forward chain at
// quiescence.
//
// A link field may transiently hold an installed transaction descriptor
// instead of a plain neighbor. Every traversal path that runs into one
// first drives the owning AtomicOperation to a decided outcome (helping)
// and only then reads past it, which is what keeps the structure lock-free
// as a whole.
type List[T any] struct {
	len  int64
	root *Node[T]
}

// New creates an empty list: the sentinel points at itself in both
// directions.
func New[T any]() *List[T] {
	l := &List[T]{root: &Node[T]{}}
	l.root.list = l
	l.root.next.Store(&cell[T]{node: l.root})
	l.root.prev.Store(&cell[T]{node: l.root})
	return l
}

// Len returns the number of linked payload nodes.
func (l *List[T]) Len() int64 {
	return atomic.LoadInt64(&l.len)
}

// Empty reports whether the list holds no payload nodes.
func (l *List[T]) Empty() bool {
	return l.Len() == 0
}

// AddLast links n as the new last element before the sentinel. The
// linearization point is the CAS of the current tail's forward link;
// the sentinel's backward link is fixed up afterwards on a best-effort
// basis. Retries until it wins; n must be fresh and unlinked.
func (l *List[T]) AddLast(n *Node[T]) {
	l.addLast(n, nil)
}

// AddLastIf behaves like AddLast but re-evaluates cond before every
// attempt and gives up, without mutating, as soon as cond returns false.
// Contract: cond may be invoked any number of times under contention and
// must therefore be free of side effects beyond reading state.
func (l *List[T]) AddLastIf(n *Node[T], cond func() bool) bool {
	return l.addLast(n, cond)
}

func (l *List[T]) addLast(n *Node[T], cond func() bool) bool {
	for {
		if cond != nil && !cond() {
			return false
		}
		t, c := l.tail()
		// Pre-publication writes: n is invisible until the CAS below.
		n.list = l
		n.next.Store(&cell[T]{node: l.root})
		n.prev.Store(&cell[T]{node: t})
		if t.next.CompareAndSwap(c, &cell[T]{node: n}) {
			atomic.AddInt64(&l.len, 1)
			l.fixPrev(l.root)
			return true
		}
	}
}

// tail resolves the current last node together with the exact forward
// cell linking it to the sentinel, so the caller can CAS against it.
// The sentinel's backward link is only a hint; when it is stale the tail
// is re-resolved by a forward walk.
func (l *List[T]) tail() (*Node[T], *cell[T]) {
	if pc := l.root.prev.Load(); pc != nil && pc.desc == nil && !pc.tomb {
		t := pc.node
		if t != nil && t.list == l {
			if c := t.next.Load(); c != nil && c.desc == nil && !c.tomb && c.node == l.root {
				return t, c
			}
		}
	}
	return l.tailSlow()
}

func (l *List[T]) tailSlow() (*Node[T], *cell[T]) {
restart:
	t := l.root
	for {
		c := t.next.Load()
		if c.desc != nil {
			c.desc.helpOrUndo(&t.next, c)
			continue
		}
		if c.tomb {
			// t was removed under our feet, its cell is no longer the
			// tail candidate even if it points at the sentinel.
			goto restart
		}
		if c.node == l.root {
			return t, c
		}
		t = c.node
	}
}

// succOf follows n's forward link, helping installed descriptors and
// skipping over tombstones via the successor they recorded.
func (l *List[T]) succOf(n *Node[T]) *Node[T] {
	for {
		c := n.next.Load()
		if c == nil {
			return nil
		}
		if c.desc != nil {
			c.desc.helpOrUndo(&n.next, c)
			continue
		}
		return c.node
	}
}

// Front returns the first payload node or nil when the list is empty.
func (l *List[T]) Front() *Node[T] {
	s := l.succOf(l.root)
	if s == nil || s == l.root {
		return nil
	}
	return s
}

// Range walks the list forward, calling f for every payload node until f
// returns false. It is safe under concurrent mutation: in-flight
// transactions are helped to completion before their links are read.
func (l *List[T]) Range(f func(n *Node[T]) bool) {
	for n := l.Front(); n != nil; n = n.Next() {
		if !f(n) {
			return
		}
	}
}

// pred walks forward from the sentinel looking for the live node whose
// forward link points at x. Returns nil when x is no longer reachable,
// which means some other thread already unlinked it.
func (l *List[T]) pred(x *Node[T]) *Node[T] {
	return l.predFrom(l.root, x)
}

// predFrom is pred starting at an arbitrary node: it returns nil when x is
// not on the forward segment from start back around to the sentinel.
func (l *List[T]) predFrom(start, x *Node[T]) *Node[T] {
	cur := start
	for {
		c := cur.next.Load()
		if c == nil {
			return nil
		}
		if c.desc != nil {
			c.desc.helpOrUndo(&cur.next, c)
			continue
		}
		if c.node == x && !c.tomb {
			return cur
		}
		if c.node == l.root {
			return nil
		}
		cur = c.node
	}
}

// unlink splices n out of the forward chain after its removal has been
// claimed, then repairs the successor's backward link.
func (l *List[T]) unlink(n, succ *Node[T]) {
	for {
		p := l.pred(n)
		if p == nil {
			break // already spliced out by a helper
		}
		c := p.next.Load()
		if c == nil {
			break
		}
		if c.desc != nil {
			c.desc.helpOrUndo(&p.next, c)
			continue
		}
		if c.tomb || c.node != n {
			continue
		}
		if p.next.CompareAndSwap(c, &cell[T]{node: succ}) {
			break
		}
	}
	l.fixPrev(succ)
}

// fixPrev converges y's advisory backward link onto the forward truth.
// The predecessor is recomputed by a fresh forward walk on every attempt,
// so whichever fixer lands last writes the then-current truth; combined
// with the rule that every forward mutation is followed by a fixPrev of
// the affected successor, backward links agree with forward links once
// mutation stops.
func (l *List[T]) fixPrev(y *Node[T]) {
	for {
		yc := y.next.Load()
		if yc != nil && yc.tomb {
			return // y itself is gone, nothing to repair
		}
		pc := y.prev.Load()
		p := l.hintedPred(y, pc)
		if p == nil {
			return // y is unreachable, its prev no longer matters
		}
		if pc != nil && pc.desc == nil && !pc.tomb && pc.node == p {
			return
		}
		if y.prev.CompareAndSwap(pc, &cell[T]{node: p}) {
			return
		}
	}
}

// hintedPred resolves y's forward-linked predecessor, starting the walk at
// the advisory hint when it is usable so tail-side repairs stay short, and
// falling back to a full walk from the sentinel when the hint's segment
// does not contain y.
func (l *List[T]) hintedPred(y *Node[T], pc *cell[T]) *Node[T] {
	if pc != nil && pc.desc == nil && !pc.tomb && pc.node != nil && pc.node != l.root && pc.node.list == l {
		if p := l.predFrom(pc.node, y); p != nil {
			return p
		}
	}
	return l.pred(y)
}
