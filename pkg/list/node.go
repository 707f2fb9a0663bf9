package list

import "sync/atomic"

// Node is an intrusive element of a List. Its link fields are owned by the
// list machinery; application code only ever touches Value. A node may be
// linked into at most one list over its lifetime and must not be reused
// after removal: recycling a removed node would reintroduce ABA on the
// link-field CAS.
type Node[T any] struct {
	Value T
	next  atomicCell[T]
	prev  atomicCell[T]
	list  *List[T]
}

// NewNode returns a fresh unlinked node carrying v.
func NewNode[T any](v T) *Node[T] {
	return &Node[T]{Value: v}
}

// Removed reports whether the node has been logically removed. The marker
// is derived from link state (a tombstone in next), not a separate flag.
func (n *Node[T]) Removed() bool {
	c := n.next.Load()
	return c != nil && c.tomb
}

// Remove atomically detaches the node from its list. It is idempotent:
// exactly one caller observes true for any given node; every other call,
// including calls on a never-linked node, returns false.
func (n *Node[T]) Remove() bool {
	l := n.list
	if l == nil || n == l.root {
		return false
	}
	succ, won := n.claim()
	if !won {
		return false
	}
	atomic.AddInt64(&l.len, -1)
	l.unlink(n, succ)
	return true
}

// claim tombstones n.next, which is the single linearization point of the
// node's removal. The tombstone keeps the successor n had at claim time so
// traversal and unlinking can still move past the dead node. An installed
// undecided descriptor found in n.next is force-failed first: its owner
// was mutating a node that is now going away, so the transaction cannot
// commit against it.
func (n *Node[T]) claim() (succ *Node[T], won bool) {
	for {
		c := n.next.Load()
		if c == nil {
			return nil, false // never linked
		}
		if c.tomb {
			return c.node, false
		}
		if c.desc != nil {
			if !c.desc.op.decided() {
				c.desc.op.decide(ErrConflict)
			}
			c.desc.helpOrUndo(&n.next, c)
			continue
		}
		if n.next.CompareAndSwap(c, &cell[T]{node: c.node, tomb: true}) {
			return c.node, true
		}
	}
}

// Next returns the next payload-carrying node, helping any in-flight
// transaction it runs into, or nil past the end of the list.
func (n *Node[T]) Next() *Node[T] {
	l := n.list
	if l == nil {
		return nil
	}
	s := l.succOf(n)
	if s == nil || s == l.root {
		return nil
	}
	return s
}

// Prev returns the previous payload-carrying node or nil. Backward links
// are advisory: they are repaired lazily after forward links settle, so
// Prev is exact only at quiescence (see Validate).
func (n *Node[T]) Prev() *Node[T] {
	l := n.list
	if l == nil {
		return nil
	}
	c := n.prev.Load()
	if c == nil || c.node == nil || c.node == l.root {
		return nil
	}
	return c.node
}
