package ports

import "context"

// ContractSource defines how the engine retrieves a node's contract document.
// This allows the storage layer (FS, Loam, Memory) to be decoupled.
type ContractSource interface {
	// Load discovers and reads the raw contract document for a node.
	// It returns the raw bytes (which the compiler will parse), or
	// domain.ErrContractNotFound when discovery finds nothing.
	Load(ctx context.Context, node string) ([]byte, error)
}

// Lister is an optional extension for sources that can enumerate the nodes
// they hold contracts for. Used by introspection tools (e.g. 'espalier validate').
type Lister interface {
	// ListNodes returns the node names with a discoverable contract.
	ListNodes(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for sources that can notify about backend
// changes. This is typically used for dev-mode tooling; a running engine never
// re-reads its contract.
type Watchable interface {
	// Watch returns a channel that receives the node name whenever its
	// contract changes on the backend.
	Watch(ctx context.Context) (<-chan string, error)
}
