package list

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func elems(l *List[int]) []int {
	var out []int
	l.Range(func(n *Node[int]) bool {
		out = append(out, n.Value)
		return true
	})
	return out
}

func mustValidate(t *testing.T, l *List[int]) {
	t.Helper()
	if err := l.Validate(); err != nil {
		t.Fatalf("validation failed: %v", err)
	}
}

func TestEmptyList(t *testing.T) {
	l := New[int]()
	if !l.Empty() {
		t.Fatal("fresh list must be empty")
	}
	if l.Front() != nil {
		t.Fatal("Front of an empty list must be nil")
	}
	mustValidate(t, l)
}

func TestAddLastKeepsOrder(t *testing.T) {
	l := New[int]()
	for i := 1; i <= 5; i++ {
		l.AddLast(NewNode(i))
	}
	got := elems(l)
	want := []int{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if l.Len() != 5 {
		t.Fatalf("Len = %d, want 5", l.Len())
	}
	mustValidate(t, l)
}

func TestAddLastIf(t *testing.T) {
	l := New[int]()
	if l.AddLastIf(NewNode(1), func() bool { return false }) {
		t.Fatal("AddLastIf must fail when the condition is false")
	}
	if !l.Empty() {
		t.Fatal("failed AddLastIf must not mutate the list")
	}
	if !l.AddLastIf(NewNode(1), func() bool { return l.Len() < 10 }) {
		t.Fatal("AddLastIf must succeed when the condition holds")
	}
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
	mustValidate(t, l)
}

func TestRemoveIsIdempotent(t *testing.T) {
	l := New[int]()
	n := NewNode(7)
	l.AddLast(n)

	if !n.Remove() {
		t.Fatal("first Remove must return true")
	}
	if n.Remove() {
		t.Fatal("second Remove must return false")
	}
	if !l.Empty() {
		t.Fatal("list must be empty after removal")
	}
	mustValidate(t, l)
}

func TestRemoveUnlinkedNode(t *testing.T) {
	if NewNode(1).Remove() {
		t.Fatal("Remove of a never-linked node must return false")
	}
}

func TestRemoveMiddleNode(t *testing.T) {
	l := New[int]()
	nodes := make([]*Node[int], 3)
	for i := range nodes {
		nodes[i] = NewNode(i + 1)
		l.AddLast(nodes[i])
	}
	if !nodes[1].Remove() {
		t.Fatal("Remove of a linked node must return true")
	}
	got := elems(l)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("got %v, want [1 3]", got)
	}
	mustValidate(t, l)
}

func TestRemovedMarkerDerivedFromLinks(t *testing.T) {
	l := New[int]()
	n := NewNode(1)
	l.AddLast(n)
	if n.Removed() {
		t.Fatal("linked node must not report removed")
	}
	n.Remove()
	if !n.Removed() {
		t.Fatal("removed node must report removed")
	}
}

func TestConcurrentAddRemove(t *testing.T) {
	const (
		workers = 8
		perW    = 2000
	)
	l := New[int]()
	var removed int64

	wg := &sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			own := make([]*Node[int], 0, perW)
			for i := 0; i < perW; i++ {
				n := NewNode(w*perW + i)
				l.AddLast(n)
				own = append(own, n)
				if i%2 == 1 {
					if own[0].Remove() {
						atomic.AddInt64(&removed, 1)
					}
					own = own[1:]
				}
			}
			for _, n := range own {
				if n.Remove() {
					atomic.AddInt64(&removed, 1)
				}
			}
		}(w)
	}
	wg.Wait()

	if removed != workers*perW {
		t.Fatalf("removed %d nodes, want %d", removed, workers*perW)
	}
	if !l.Empty() {
		t.Fatalf("list must drain, %d left", l.Len())
	}
	mustValidate(t, l)
}

func TestConcurrentRemoveClaimsOnce(t *testing.T) {
	const attempts = 500
	for i := 0; i < attempts; i++ {
		l := New[int]()
		n := NewNode(i)
		l.AddLast(n)

		var wins int64
		wg := &sync.WaitGroup{}
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if n.Remove() {
					atomic.AddInt64(&wins, 1)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Fatalf("node removed %d times, want exactly once", wins)
		}
		mustValidate(t, l)
	}
}

// TestBackwardHintRepair churns the tail region, where the backward-link
// repair starts from the advisory hint, and checks the hints converge onto
// the forward truth after every kind of mutation.
func TestBackwardHintRepair(t *testing.T) {
	l := New[int]()
	nodes := make([]*Node[int], 0, 32)
	for i := 0; i < 32; i++ {
		n := NewNode(i)
		l.AddLast(n)
		nodes = append(nodes, n)
	}
	mustValidate(t, l)

	// Remove the tail repeatedly: the sentinel's hint goes stale each time.
	for i := 31; i >= 24; i-- {
		if !nodes[i].Remove() {
			t.Fatalf("tail remove %d must succeed", i)
		}
		mustValidate(t, l)
	}
	// Remove from the middle: the successor's hint points at a dead node.
	for _, i := range []int{10, 11, 12} {
		if !nodes[i].Remove() {
			t.Fatalf("middle remove %d must succeed", i)
		}
		mustValidate(t, l)
	}
	// Append again onto the shortened list.
	l.AddLast(NewNode(100))
	if got := elems(l); got[len(got)-1] != 100 {
		t.Fatalf("tail = %d, want 100", got[len(got)-1])
	}
	mustValidate(t, l)
}

func TestValidateReportsInstalledDescriptor(t *testing.T) {
	l := New[int]()
	l.AddLast(NewNode(1))
	// Simulate a stuck transaction by hand-installing a descriptor cell.
	d := l.DescribeRemoveFirst()
	d.op = &AtomicOperation[int]{descs: []*Descriptor[int]{d}}
	c := l.root.next.Load()
	l.root.next.Store(&cell[int]{desc: d, node: c.node})

	var verr *ValidationError
	if err := l.Validate(); !errors.As(err, &verr) {
		t.Fatalf("Validate must report a ValidationError, got %v", err)
	}
	l.root.next.Store(c) // restore for the sanity check below
	mustValidate(t, l)
}

func BenchmarkAddRemoveParallel(b *testing.B) {
	l := New[int]()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			n := NewNode(1)
			l.AddLast(n)
			n.Remove()
		}
	})
}
