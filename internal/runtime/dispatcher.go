package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/espalier/internal/compiler"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/oklog/ulid/v2"
)

// Dispatcher routes requests for a single node through its contract
// transitions.
//
// The contract is loaded exactly once per dispatcher, on first use, and every
// failure on the way degrades to the empty set: a node with a broken or
// missing contract dispatches normally, it just applies nothing. The load is
// never retried and the set never re-read.
type Dispatcher struct {
	node     string
	source   ports.ContractSource
	cache    ports.TransitionCache
	parser   *compiler.Parser
	registry *registry.Registry
	main     ports.MainLogic
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	loadOnce sync.Once
	set      *domain.TransitionSet
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCache shares loaded sets through a TransitionCache.
func WithCache(cache ports.TransitionCache) Option {
	return func(d *Dispatcher) {
		d.cache = cache
	}
}

// WithRegistry replaces the default executor registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = reg
	}
}

// WithMainLogic registers the host's processing step.
func WithMainLogic(main ports.MainLogic) Option {
	return func(d *Dispatcher) {
		d.main = main
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher for one node backed by the given source.
func NewDispatcher(node string, source ports.ContractSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		node:   node,
		source: source,
		parser: compiler.NewParser(),
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(d)
	}

	// The default registry logs through the dispatcher's logger, so it can
	// only be built once options have been applied.
	if d.registry == nil {
		d.registry = registry.NewDefault(d.logger)
	}

	return d
}

// Node returns the node name this dispatcher serves.
func (d *Dispatcher) Node() string {
	return d.node
}

// Transitions returns the node's TransitionSet, triggering the one-time load
// if it has not happened yet.
func (d *Dispatcher) Transitions(ctx context.Context) (*domain.TransitionSet, error) {
	return d.ensureLoaded(ctx), nil
}

// Dispatch runs the node's matching transitions for the request, then hands
// control to the host's main logic when registered, or returns the default
// response.
//
// Executor failures are logged and counted but never fail the dispatch; the
// only error callers can see is the host's own, wrapped in a DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.Request) (domain.Response, error) {
	start := time.Now()
	dispatchID := ulid.Make().String()
	logger := d.logger.With("dispatch_id", dispatchID)

	set := d.ensureLoaded(ctx)

	action := req.ActionName()
	if action == domain.UnknownAction && req.Action != domain.UnknownAction {
		logger.WarnContext(ctx, "request missing action name, degrading", "action", action)
	}

	matched := set.Match(action)
	ordered := domain.OrderByPriority(matched)
	logger.DebugContext(ctx, "matched transitions", "action", action, "matched", len(ordered))

	applied := make([]string, 0, len(ordered))
	failed := 0
	for _, tr := range ordered {
		inv := domain.Invocation{Node: d.node, Action: action, Transition: tr, Request: req}
		if err := d.applyOne(ctx, logger, dispatchID, inv); err != nil {
			failed++
			continue
		}
		applied = append(applied, tr.Name)
	}

	resp, delegated, err := d.complete(ctx, req)

	event := &domain.DispatchEvent{
		EventBase: d.eventBase(domain.EventDispatch, dispatchID),
		Action:    action,
		Matched:   len(ordered),
		Applied:   applied,
		Failed:    failed,
		Delegated: delegated,
		Status:    resp.Status,
		Duration:  time.Since(start),
	}

	if err != nil {
		event.Status = domain.StatusError
		d.emitDispatch(ctx, event)
		logger.ErrorContext(ctx, "dispatch failed in main logic", "action", action, "err", err)
		return domain.Response{}, &domain.DispatchError{Node: d.node, Action: action, Err: err}
	}

	d.emitDispatch(ctx, event)
	logger.InfoContext(ctx, "dispatch complete",
		"action", action,
		"matched", len(ordered),
		"applied", len(applied),
		"failed", failed,
		"status", string(resp.Status),
	)
	return resp, nil
}

// applyOne runs a single executor, isolating the dispatch from its errors and
// panics.
func (d *Dispatcher) applyOne(ctx context.Context, logger *slog.Logger, dispatchID string, inv domain.Invocation) (err error) {
	handled := false

	func() {
		defer func() {
			if r := recover(); r != nil {
				// Executor panics must not crash the dispatch; treat as failure.
				err = fmt.Errorf("executor panic: %v", r)
			}
		}()
		handled, err = d.registry.Apply(ctx, inv)
	}()

	if err == nil && !handled {
		logger.WarnContext(ctx, "no executor for transition kind",
			"transition", inv.Transition.Name, "kind", string(inv.Transition.Kind))
	}

	event := &domain.TransitionEvent{
		EventBase:  d.eventBase(domain.EventTransitionApply, dispatchID),
		Transition: inv.Transition.Name,
		Kind:       inv.Transition.Kind,
		Action:     inv.Action,
	}
	if err != nil {
		event.IsError = true
		event.Error = err.Error()
		logger.ErrorContext(ctx, "transition executor failed",
			"transition", inv.Transition.Name,
			"kind", string(inv.Transition.Kind),
			"action", inv.Action,
			"err", err,
		)
	}
	if d.hooks.OnTransitionApply != nil {
		d.hooks.OnTransitionApply(ctx, event)
	}
	return err
}

// complete runs the host's main logic when present, or builds the default
// response. The bool reports whether the host was delegated to.
func (d *Dispatcher) complete(ctx context.Context, req domain.Request) (domain.Response, bool, error) {
	if d.main == nil {
		return domain.DefaultResponse(req), false, nil
	}
	resp, err := d.main.ProcessMain(ctx, req)
	if err != nil {
		return domain.Response{}, true, err
	}
	return resp, true, nil
}

// ensureLoaded performs the guarded one-time load. Concurrent dispatches
// block on the same load and observe the same set.
func (d *Dispatcher) ensureLoaded(ctx context.Context) *domain.TransitionSet {
	d.loadOnce.Do(func() {
		d.set = d.load(ctx)
	})
	return d.set
}

func (d *Dispatcher) load(ctx context.Context) *domain.TransitionSet {
	start := time.Now()

	if d.cache != nil {
		set, ok, err := d.cache.Get(ctx, d.node)
		switch {
		case err != nil:
			// A broken cache is an inconvenience, not a dispatch failure.
			d.logger.WarnContext(ctx, "transition cache get failed", "err", err)
		case ok:
			d.logger.InfoContext(ctx, "contract loaded from cache", "transitions", set.Len())
			d.emitLoad(ctx, &domain.LoadEvent{
				EventBase:   d.eventBase(domain.EventContractLoad, ""),
				Transitions: set.Len(),
				FromCache:   true,
				Duration:    time.Since(start),
			})
			return set
		}
	}

	raw, err := d.source.Load(ctx, d.node)
	if err != nil {
		if errors.Is(err, domain.ErrContractNotFound) {
			d.logger.InfoContext(ctx, "no contract found, dispatching without transitions")
			d.emitLoad(ctx, &domain.LoadEvent{
				EventBase: d.eventBase(domain.EventContractLoad, ""),
				Duration:  time.Since(start),
			})
		} else {
			d.logger.ErrorContext(ctx, "failed to read contract, dispatching without transitions", "err", err)
			d.emitLoad(ctx, &domain.LoadEvent{
				EventBase: d.eventBase(domain.EventContractLoad, ""),
				Degraded:  true,
				Error:     err.Error(),
				Duration:  time.Since(start),
			})
		}
		return &domain.TransitionSet{Node: d.node}
	}

	set, err := d.parser.Parse(d.node, raw)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to parse contract, dispatching without transitions", "err", err)
		d.emitLoad(ctx, &domain.LoadEvent{
			EventBase: d.eventBase(domain.EventContractLoad, ""),
			Degraded:  true,
			Error:     err.Error(),
			Duration:  time.Since(start),
		})
		return &domain.TransitionSet{Node: d.node}
	}

	// Only successful loads are shared; a degraded replica must not poison
	// the cache for the others.
	if d.cache != nil {
		if err := d.cache.Put(ctx, d.node, set); err != nil {
			d.logger.WarnContext(ctx, "transition cache put failed", "err", err)
		}
	}

	d.logger.InfoContext(ctx, "contract loaded", "transitions", set.Len())
	d.emitLoad(ctx, &domain.LoadEvent{
		EventBase:   d.eventBase(domain.EventContractLoad, ""),
		Transitions: set.Len(),
		Duration:    time.Since(start),
	})
	return set
}

func (d *Dispatcher) eventBase(t domain.EventType, dispatchID string) domain.EventBase {
	return domain.EventBase{
		Timestamp:  time.Now(),
		Type:       t,
		Node:       d.node,
		DispatchID: dispatchID,
	}
}

func (d *Dispatcher) emitLoad(ctx context.Context, event *domain.LoadEvent) {
	if d.hooks.OnContractLoad != nil {
		d.hooks.OnContractLoad(ctx, event)
	}
}

func (d *Dispatcher) emitDispatch(ctx context.Context, event *domain.DispatchEvent) {
	if d.hooks.OnDispatch != nil {
		d.hooks.OnDispatch(ctx, event)
	}
}
