package list

import "sync/atomic"

// AtomicOperation composes one or more descriptors, possibly across
// independent lists, into a single all-or-nothing step driven by a
// two-phase prepare/complete protocol. The outcome is decided exactly once
// (CAS on the outcome cell); completion is idempotent and may be driven by
// the initiator and by any number of helpers at the same time.
//
// Descriptors must target pairwise distinct lists: two descriptors over
// one list can resolve to the same link field, which holds at most one
// descriptor, so such a composition is doomed with ErrSameList before
// anything is installed.
//
// Caller contract: when operations may touch overlapping sets of lists,
// all callers must order their descriptors by one global total order over
// the lists (for example a stable list index). The ordering is what rules
// out circular helping between concurrent operations; it is deliberately
// not enforced here because only the caller knows the universe of lists.
type AtomicOperation[T any] struct {
	descs   []*Descriptor[T]
	outcome atomic.Pointer[outcome]
}

type outcome struct {
	cause error // nil means the operation committed
}

// NewAtomicOperation builds an operation over descs. Each descriptor must
// be fresh and joins exactly one operation.
func NewAtomicOperation[T any](descs ...*Descriptor[T]) *AtomicOperation[T] {
	op := &AtomicOperation[T]{descs: descs}
	for _, d := range descs {
		d.op = op
	}
	return op
}

// Perform drives the operation to a decided outcome and returns its
// failure cause, nil meaning every descriptor committed. The first prepare
// returning a non-nil cause dooms the whole operation; on success all
// staged mutations become visible together, on failure every installed
// descriptor reverts to its pre-transaction value.
//
// Perform is idempotent: helpers that discover an installed descriptor
// mid-transaction call it re-entrantly and converge on the same outcome.
func (op *AtomicOperation[T]) Perform() error {
	if op.outcome.Load() == nil {
		cause := op.checkDisjoint()
		if cause == nil {
			for _, d := range op.descs {
				if c := d.prepare(); c != nil {
					cause = c
					break
				}
				if op.outcome.Load() != nil {
					break // a helper got there first
				}
			}
		}
		op.decide(cause)
	}
	o := op.outcome.Load()
	for _, d := range op.descs {
		d.resolve(o.cause)
	}
	return o.cause
}

// checkDisjoint rejects compositions with two descriptors over one list.
// Running before any install, it guarantees no traversal ever meets a
// sibling descriptor of its own operation, which would otherwise turn
// helping into unbounded self-recursion.
func (op *AtomicOperation[T]) checkDisjoint() error {
	for i, d := range op.descs {
		for _, e := range op.descs[:i] {
			if d.list == e.list {
				return ErrSameList
			}
		}
	}
	return nil
}

// Failed reports the decided failure cause, or nil while undecided or
// after a successful commit.
func (op *AtomicOperation[T]) Failed() error {
	return op.failure()
}

func (op *AtomicOperation[T]) decided() bool {
	return op.outcome.Load() != nil
}

func (op *AtomicOperation[T]) decide(cause error) {
	op.outcome.CompareAndSwap(nil, &outcome{cause: cause})
}

func (op *AtomicOperation[T]) failure() error {
	if o := op.outcome.Load(); o != nil {
		return o.cause
	}
	return nil
}
