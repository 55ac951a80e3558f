package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// TransitionCache shares loaded TransitionSets across engine instances.
// It is a read-through companion to ContractSource: the engine consults the
// cache first and writes back only successful loads, so a replica with a
// broken contract never poisons the others.
type TransitionCache interface {
	// Get returns the cached set for a node. The bool reports a hit.
	Get(ctx context.Context, node string) (*domain.TransitionSet, bool, error)

	// Put stores the set for a node.
	Put(ctx context.Context, node string, set *domain.TransitionSet) error

	// Delete evicts the set for a node.
	Delete(ctx context.Context, node string) error
}
