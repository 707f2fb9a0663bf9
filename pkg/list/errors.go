package list

import (
	"errors"
	"fmt"
)

// ErrPreconditionFailed is the common ancestor of every failure cause a
// transaction can be decided with. Precondition failures are ordinary
// control flow under contended workloads and are always returned as
// values, never panicked.
var ErrPreconditionFailed = errors.New("precondition failed")

var (
	// ErrEmptyList dooms a remove-first prepared against an empty list.
	ErrEmptyList = fmt.Errorf("%w: remove-first on an empty list", ErrPreconditionFailed)
	// ErrConditionFailed dooms a conditional add whose predicate returned false.
	ErrConditionFailed = fmt.Errorf("%w: condition evaluated to false", ErrPreconditionFailed)
	// ErrConflict dooms a transaction whose target node was claimed by a
	// concurrent removal between install and completion.
	ErrConflict = fmt.Errorf("%w: target node removed concurrently", ErrPreconditionFailed)
	// ErrSameList dooms an operation composing two descriptors over one
	// list: a link field holds at most one descriptor, and sibling
	// descriptors of one operation can resolve to the same field.
	ErrSameList = fmt.Errorf("%w: multiple descriptors target one list", ErrPreconditionFailed)
)

// ValidationError reports the first structural inconsistency found by
// Validate. It indicates a protocol bug, not an expected runtime state.
type ValidationError struct {
	Reason string
	Pos    int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("list validation failed at position %d: %s", e.Pos, e.Reason)
}
