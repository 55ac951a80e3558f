package espalier

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/internal/validator"
	fsadapter "github.com/aretw0/espalier/pkg/adapters/fs"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// Engine is the high-level entry point for the espalier library.
// It wraps the internal dispatcher and provides a simplified API for hosts.
type Engine struct {
	dispatcher *runtime.Dispatcher
	source     ports.ContractSource
	cache      ports.TransitionCache
	executors  map[domain.Kind]ports.Executor
	main       ports.MainLogic
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	root       string
	node       string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRoot sets the directory the default filesystem source discovers
// contracts under. Ignored when WithSource is provided.
func WithRoot(dir string) Option {
	return func(e *Engine) {
		e.root = dir
	}
}

// WithSource injects a custom ContractSource, bypassing the default
// filesystem discovery.
func WithSource(source ports.ContractSource) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithCache shares loaded transition sets through a TransitionCache so
// multiple engines (or processes, with the redis adapter) reuse one parse.
func WithCache(cache ports.TransitionCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithExecutor registers an executor for a transition kind, replacing the
// built-in one. This is the sanctioned way to give a kind real side effects.
func WithExecutor(kind domain.Kind, exec ports.Executor) Option {
	return func(e *Engine) {
		if e.executors == nil {
			e.executors = make(map[domain.Kind]ports.Executor)
		}
		e.executors[kind] = exec
	}
}

// WithMainLogic sets the host callback that produces the final response
// after transitions have been applied.
func WithMainLogic(main ports.MainLogic) Option {
	return func(e *Engine) {
		e.main = main
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine for the given node.
// By default it discovers the node's contract on the filesystem under the
// current directory; use WithRoot to point elsewhere or WithSource to inject
// a custom source (memory, loam, ...).
func New(node string, opts ...Option) (*Engine, error) {
	if node == "" {
		return nil, fmt.Errorf("node name is required")
	}

	eng := &Engine{node: node}

	// Apply options first to check if a source is provided
	for _, opt := range opts {
		opt(eng)
	}

	// If no source was injected, discover contracts on the filesystem
	if eng.source == nil {
		root := eng.root
		if root == "" {
			root = "."
		}
		source, err := fsadapter.New(root)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize contract source: %w", err)
		}
		eng.source = source
	}

	// Ensure logger is initialized (so we don't pass nil to the runtime,
	// which would overwrite its default)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Enrich logger with the node name
	eng.logger = eng.logger.With("node", node)

	// Built-in executors first, host registrations on top
	reg := registry.NewDefault(eng.logger)
	for kind, exec := range eng.executors {
		reg.Register(kind, exec)
	}

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithRegistry(reg),
		runtime.WithLifecycleHooks(eng.hooks),
	}
	if eng.cache != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithCache(eng.cache))
	}
	if eng.main != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithMainLogic(eng.main))
	}

	eng.dispatcher = runtime.NewDispatcher(node, eng.source, runtimeOpts...)

	return eng, nil
}

// Dispatch routes a request through the node's contract: matching transitions
// run in priority order, then the main logic (or the default response) closes
// the dispatch. Contract problems never surface here; only a main-logic
// failure returns an error, wrapped in *domain.DispatchError.
func (e *Engine) Dispatch(ctx context.Context, req domain.Request) (domain.Response, error) {
	return e.dispatcher.Dispatch(ctx, req)
}

// Transitions returns the node's loaded transition set, triggering the
// one-time contract load if it has not happened yet.
func (e *Engine) Transitions(ctx context.Context) (*domain.TransitionSet, error) {
	return e.dispatcher.Transitions(ctx)
}

// Node returns the node name this engine dispatches for.
func (e *Engine) Node() string {
	return e.node
}

// Watch returns a channel that signals when the node's contract changes.
// Returns an error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.source.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("contract source does not support watching")
}

// Source returns the underlying ContractSource used by the engine.
func (e *Engine) Source() ports.ContractSource {
	return e.source
}

// Validate lints the node's loaded contract and reports error-severity
// findings (duplicate names, kind-less transitions, tool_based entries
// without a tool) as a single error. A contract that degraded to the empty
// set passes; run the validate command for the full diagnostic listing.
func (e *Engine) Validate(ctx context.Context) error {
	set, err := e.dispatcher.Transitions(ctx)
	if err != nil {
		return err
	}
	return validator.ValidateOrError(set)
}
