package list

import "sync/atomic"

// atomicCell is a link field: an atomically swappable pointer to a cell.
type atomicCell[T any] struct {
	atomic.Pointer[cell[T]]
}

// cell is the value held by a link field. A link field holds exactly one of:
//   - a plain neighbor reference (desc == nil, tomb == false),
//   - an installed transaction descriptor (desc != nil); node then keeps
//     the displaced pre-transaction neighbor so the field can be reverted,
//   - a tombstone (tomb == true); the owning node is logically removed and
//     node keeps the successor it had at claim time so forward traversal
//     can skip over it.
//
// Cells are immutable once published; every link mutation is a CAS of the
// whole cell pointer, which is the linearization point of the mutation.
type cell[T any] struct {
	node *Node[T]
	desc *Descriptor[T]
	tomb bool
}

// installRecord binds a descriptor to the one link field and cell it was
// installed into. It is written at most once per descriptor (CAS from nil),
// which keeps prepare idempotent across concurrent helpers: a duplicate
// install that loses the record race is undone by its installer or by any
// observer that finds the record already bound elsewhere.
type installRecord[T any] struct {
	field *atomicCell[T]
	cell  *cell[T]
}
