package list

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestAtomicMoveBothEffects(t *testing.T) {
	a := New[int]()
	b := New[int]()
	a.AddLast(NewNode(7))

	dRem := a.DescribeRemoveFirst()
	dAdd := b.DescribeAddLast(NewNode(9))
	op := NewAtomicOperation(dRem, dAdd)

	if err := op.Perform(); err != nil {
		t.Fatalf("Perform failed: %v", err)
	}
	if !a.Empty() {
		t.Fatalf("source list must be empty, has %d", a.Len())
	}
	if got := elems(b); len(got) != 1 || got[0] != 9 {
		t.Fatalf("target list = %v, want [9]", got)
	}
	if !dRem.Claimed() {
		t.Fatal("uncontended transaction must win the removal claim")
	}
	if n := dRem.Removed(); n == nil || n.Value != 7 {
		t.Fatal("Removed must expose the unlinked node")
	}
	mustValidate(t, a)
	mustValidate(t, b)
}

func TestAtomicMoveNeitherEffect(t *testing.T) {
	a := New[int]() // empty: remove-first precondition fails
	b := New[int]()

	dRem := a.DescribeRemoveFirst()
	dAdd := b.DescribeAddLast(NewNode(9))
	op := NewAtomicOperation(dRem, dAdd)

	err := op.Perform()
	if !errors.Is(err, ErrEmptyList) {
		t.Fatalf("Perform = %v, want ErrEmptyList", err)
	}
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatal("every failure cause must wrap ErrPreconditionFailed")
	}
	if !a.Empty() || !b.Empty() {
		t.Fatal("doomed transaction must leave no partial state")
	}
	if dAdd.Removed() != nil {
		t.Fatal("failed operation must expose no removed node")
	}
	mustValidate(t, a)
	mustValidate(t, b)
}

func TestAtomicRollbackRevertsInstalledDescriptors(t *testing.T) {
	a := New[int]()
	b := New[int]()
	a.AddLast(NewNode(1)) // remove-first on a would succeed

	dRem := a.DescribeRemoveFirst()
	dAdd := b.DescribeAddLastIf(NewNode(2), func() bool { return false })
	op := NewAtomicOperation(dRem, dAdd)

	if err := op.Perform(); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("Perform = %v, want ErrConditionFailed", err)
	}
	// The first descriptor was installed and must have been reverted.
	if got := elems(a); len(got) != 1 || got[0] != 1 {
		t.Fatalf("source list = %v, want [1] after rollback", got)
	}
	if !b.Empty() {
		t.Fatal("target list must stay empty after rollback")
	}
	mustValidate(t, a)
	mustValidate(t, b)
}

// TestSameListDualAdd pins the contract that one operation may carry at
// most one descriptor per list: the composition is doomed by value before
// anything is installed, never by fault.
func TestSameListDualAdd(t *testing.T) {
	l := New[int]()
	l.AddLast(NewNode(1))

	op := NewAtomicOperation(l.DescribeAddLast(NewNode(2)), l.DescribeAddLast(NewNode(3)))
	err := op.Perform()
	if !errors.Is(err, ErrSameList) {
		t.Fatalf("Perform = %v, want ErrSameList", err)
	}
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatal("every failure cause must wrap ErrPreconditionFailed")
	}
	if err := op.Perform(); !errors.Is(err, ErrSameList) {
		t.Fatalf("repeated Perform = %v, want the same decided ErrSameList", err)
	}
	if got := elems(l); len(got) != 1 || got[0] != 1 {
		t.Fatalf("list = %v, want [1] untouched", got)
	}
	mustValidate(t, l)
}

func TestSameListMoveRejected(t *testing.T) {
	l := New[int]()
	l.AddLast(NewNode(1))

	dRem := l.DescribeRemoveFirst()
	dAdd := l.DescribeAddLast(NewNode(2))
	err := NewAtomicOperation(dRem, dAdd).Perform()
	if !errors.Is(err, ErrSameList) {
		t.Fatalf("Perform = %v, want ErrSameList", err)
	}
	if dRem.Claimed() || dRem.Removed() != nil {
		t.Fatal("doomed composition must not claim anything")
	}
	if got := elems(l); len(got) != 1 || got[0] != 1 {
		t.Fatalf("list = %v, want [1] untouched", got)
	}
	mustValidate(t, l)
}

// TestRemoveFirstSkipsClaimedHead covers the window where the head has
// been claimed by a direct Remove but not yet unlinked: the transaction
// must splice past it and take the live first element instead of
// committing a vacuous removal.
func TestRemoveFirstSkipsClaimedHead(t *testing.T) {
	l := New[int]()
	a, b := NewNode(1), NewNode(2)
	l.AddLast(a)
	l.AddLast(b)

	// Claim a's removal but leave it linked, as a mid-flight Remove would.
	succ, won := a.claim()
	if !won || succ != b {
		t.Fatal("claim must win and record the successor")
	}
	atomic.AddInt64(&l.len, -1)

	d := l.DescribeRemoveFirst()
	if err := NewAtomicOperation(d).Perform(); err != nil {
		t.Fatalf("Perform failed: %v", err)
	}
	if d.Removed() != b {
		t.Fatal("transaction must take the live head, not the claimed one")
	}
	if !d.Claimed() {
		t.Fatal("uncontended claim of the live head must be won")
	}
	if !l.Empty() {
		t.Fatalf("list must drain, %d left", l.Len())
	}
	mustValidate(t, l)
}

func TestDualRemoveFirst(t *testing.T) {
	a := New[int]()
	b := New[int]()
	a.AddLast(NewNode(1))
	b.AddLast(NewNode(2))

	d1 := a.DescribeRemoveFirst()
	d2 := b.DescribeRemoveFirst()
	if err := NewAtomicOperation(d1, d2).Perform(); err != nil {
		t.Fatalf("Perform failed: %v", err)
	}
	if !a.Empty() || !b.Empty() {
		t.Fatal("both heads must be gone")
	}
	if d1.Removed().Value != 1 || d2.Removed().Value != 2 {
		t.Fatal("Removed must expose both unlinked nodes")
	}
	mustValidate(t, a)
	mustValidate(t, b)
}

func TestPerformIsIdempotent(t *testing.T) {
	a := New[int]()
	a.AddLast(NewNode(1))

	d := a.DescribeRemoveFirst()
	op := NewAtomicOperation(d)
	if err := op.Perform(); err != nil {
		t.Fatalf("Perform failed: %v", err)
	}
	if err := op.Perform(); err != nil {
		t.Fatalf("repeated Perform must return the same decided outcome, got %v", err)
	}
	if !a.Empty() {
		t.Fatal("repeated Perform must not mutate again")
	}
	mustValidate(t, a)
}

func TestTransactionalAddAppendsAtTail(t *testing.T) {
	l := New[int]()
	l.AddLast(NewNode(1))

	d := l.DescribeAddLast(NewNode(2))
	if err := NewAtomicOperation(d).Perform(); err != nil {
		t.Fatalf("Perform failed: %v", err)
	}
	got := elems(l)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("list = %v, want [1 2]", got)
	}
	mustValidate(t, l)
}

// TestConcurrentAtomicMoves shuttles nodes between two lists from many
// goroutines. Whatever the interleaving, every committed transaction moved
// exactly one node and added exactly one node, so the node count over both
// lists must match the counter bookkeeping at the end.
func TestConcurrentAtomicMoves(t *testing.T) {
	const (
		workers = 8
		perW    = 1000
		seed    = 64
	)
	lists := []*List[int]{New[int](), New[int]()}
	for i := 0; i < seed; i++ {
		lists[i%2].AddLast(NewNode(i))
	}

	var added, taken int64
	wg := &sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perW; i++ {
				from, to := w%2, (w+1)%2
				dRem := lists[from].DescribeRemoveFirst()
				dAdd := lists[to].DescribeAddLast(NewNode(w*perW + i))
				// Descriptors ordered by list index: the shared global
				// order that keeps concurrent helping acyclic.
				var op *AtomicOperation[int]
				if from < to {
					op = NewAtomicOperation(dRem, dAdd)
				} else {
					op = NewAtomicOperation(dAdd, dRem)
				}
				if err := op.Perform(); err == nil {
					atomic.AddInt64(&added, 1)
					if dRem.Claimed() {
						atomic.AddInt64(&taken, 1)
					}
				} else if !errors.Is(err, ErrPreconditionFailed) {
					t.Errorf("unexpected failure cause: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	remaining := lists[0].Len() + lists[1].Len()
	if want := seed + added - taken; remaining != want {
		t.Fatalf("conservation violated: %d nodes remain, want %d (seed %d + added %d - taken %d)",
			remaining, want, seed, added, taken)
	}
	mustValidate(t, lists[0])
	mustValidate(t, lists[1])
}

// TestConcurrentMixedWorkload combines direct adds, conditional adds,
// direct removes and transactions over several lists, then checks the
// conservation law at quiescence.
func TestConcurrentMixedWorkload(t *testing.T) {
	const (
		adders   = 4
		removers = 4
		perW     = 1500
	)
	lists := []*List[int]{New[int](), New[int](), New[int]()}

	var added, undone, taken int64
	wg := &sync.WaitGroup{}

	for w := 0; w < adders; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perW; i++ {
				l := lists[(w+i)%len(lists)]
				n := NewNode(w*perW + i)
				if i%3 == 0 {
					if !l.AddLastIf(n, func() bool { return l.Len() < 100_000 }) {
						continue
					}
				} else {
					l.AddLast(n)
				}
				atomic.AddInt64(&added, 1)
				if i%2 == 0 && n.Remove() {
					atomic.AddInt64(&undone, 1)
				}
			}
		}(w)
	}

	for w := 0; w < removers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perW; i++ {
				from := (w + i) % len(lists)
				to := (from + 1) % len(lists)
				dRem := lists[from].DescribeRemoveFirst()
				dAdd := lists[to].DescribeAddLast(NewNode(-1))
				var op *AtomicOperation[int]
				if from < to {
					op = NewAtomicOperation(dRem, dAdd)
				} else {
					op = NewAtomicOperation(dAdd, dRem)
				}
				if err := op.Perform(); err == nil {
					atomic.AddInt64(&added, 1)
					if dRem.Claimed() {
						atomic.AddInt64(&taken, 1)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	var remaining int64
	for _, l := range lists {
		if err := l.Validate(); err != nil {
			t.Fatalf("validation failed: %v", err)
		}
		remaining += l.Len()
	}
	if added != undone+taken+remaining {
		t.Fatalf("conservation violated: added %d != undone %d + taken %d + remaining %d",
			added, undone, taken, remaining)
	}
}
