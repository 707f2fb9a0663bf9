package list

import "fmt"

// Validate performs an offline structural walk of the list. It must only
// be called at quiescence (no concurrent mutation): a descriptor or
// tombstone reachable from the sentinel, a backward link disagreeing with
// the forward-linked predecessor, or a length mismatch are each reported
// as a ValidationError. The first inconsistency found wins.
func (l *List[T]) Validate() error {
	pos := 0
	n := l.root
	for {
		c := n.next.Load()
		if c == nil {
			return &ValidationError{Pos: pos, Reason: "link field holds no cell"}
		}
		if c.desc != nil {
			return &ValidationError{Pos: pos, Reason: "descriptor still installed in a forward link"}
		}
		if c.tomb {
			return &ValidationError{Pos: pos, Reason: "removed node is still reachable from the head"}
		}
		next := c.node
		if next == nil {
			return &ValidationError{Pos: pos, Reason: "forward link points at nothing"}
		}
		if next.list != l {
			return &ValidationError{Pos: pos, Reason: "forward link escapes into a foreign list"}
		}
		pc := next.prev.Load()
		if pc == nil || pc.desc != nil || pc.tomb {
			return &ValidationError{Pos: pos, Reason: "backward link is not a plain reference"}
		}
		if pc.node != n {
			return &ValidationError{
				Pos:    pos,
				Reason: fmt.Sprintf("backward link disagrees with forward-linked predecessor (%p != %p)", pc.node, n),
			}
		}
		if next == l.root {
			break
		}
		pos++
		n = next
	}
	if int64(pos) != l.Len() {
		return &ValidationError{
			Pos:    pos,
			Reason: fmt.Sprintf("length counter %d disagrees with %d reachable nodes", l.Len(), pos),
		}
	}
	return nil
}
