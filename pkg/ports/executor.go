package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// Executor applies a single matched transition. Implementations must not
// mutate the invocation's request; a failing executor aborts only its own
// application, never the dispatch.
type Executor interface {
	Apply(ctx context.Context, inv domain.Invocation) error
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, inv domain.Invocation) error

// Apply implements Executor.
func (f ExecutorFunc) Apply(ctx context.Context, inv domain.Invocation) error {
	return f(ctx, inv)
}

// MainLogic is the host's own processing step, invoked once all matched
// transitions have been applied. Registering it is optional; without it the
// dispatcher returns domain.DefaultResponse.
type MainLogic interface {
	ProcessMain(ctx context.Context, req domain.Request) (domain.Response, error)
}

// MainLogicFunc adapts a plain function to the MainLogic interface.
type MainLogicFunc func(ctx context.Context, req domain.Request) (domain.Response, error)

// ProcessMain implements MainLogic.
func (f MainLogicFunc) ProcessMain(ctx context.Context, req domain.Request) (domain.Response, error) {
	return f(ctx, req)
}

// Dispatcher is the engine surface consumed by hosting adapters (HTTP, MCP).
type Dispatcher interface {
	// Dispatch runs the contract transitions for the request and returns the
	// host-visible response.
	Dispatch(ctx context.Context, req domain.Request) (domain.Response, error)

	// Transitions returns the node's loaded TransitionSet, triggering the
	// one-time load if it has not happened yet.
	Transitions(ctx context.Context) (*domain.TransitionSet, error)

	// Node returns the node name this engine instance serves.
	Node() string
}
