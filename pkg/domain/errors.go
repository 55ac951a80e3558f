package domain

import (
	"errors"
	"fmt"
)

// ErrContractNotFound is returned by contract sources when discovery finds no
// contract for a node. The engine treats it as "no transitions", not a failure.
var ErrContractNotFound = errors.New("contract not found")

// DispatchError wraps a failure raised while completing a dispatch. Loader and
// executor failures never surface here; only the host's main logic can fail a
// dispatch.
type DispatchError struct {
	Node   string
	Action string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %q on node %q: %v", e.Action, e.Node, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
