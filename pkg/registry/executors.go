package registry

import (
	"context"
	"log/slog"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// The built-in executors observe transitions without acting on them: they log
// what a full implementation would do and leave the request untouched.
// Interpreting update templates or invoking tools is host territory, wired in
// through Register with a custom executor.

// NewDefault creates a registry seeded with the built-in executors for the
// known kinds and the unknown-kind fallback.
func NewDefault(logger *slog.Logger) *Registry {
	reg := New()
	reg.Register(domain.KindSimple, SimpleExecutor(logger))
	reg.Register(domain.KindToolBased, ToolBasedExecutor(logger))
	reg.Register(domain.KindConditional, ConditionalExecutor(logger))
	reg.SetFallback(UnknownKindExecutor(logger))
	return reg
}

// SimpleExecutor returns the built-in executor for simple transitions.
// It records the matched rule and the size of its update template.
func SimpleExecutor(logger *slog.Logger) ports.Executor {
	return ports.ExecutorFunc(func(ctx context.Context, inv domain.Invocation) error {
		logger.InfoContext(ctx, "applying simple transition",
			"node", inv.Node,
			"transition", inv.Transition.Name,
			"action", inv.Action,
			"updates", len(inv.Transition.Updates),
		)
		return nil
	})
}

// ToolBasedExecutor returns the built-in executor for tool_based transitions.
// It records which tool the contract delegates to without calling it.
func ToolBasedExecutor(logger *slog.Logger) ports.Executor {
	return ports.ExecutorFunc(func(ctx context.Context, inv domain.Invocation) error {
		logger.InfoContext(ctx, "applying tool-based transition",
			"node", inv.Node,
			"transition", inv.Transition.Name,
			"action", inv.Action,
			"tool", inv.Transition.Tool,
		)
		return nil
	})
}

// ConditionalExecutor returns the built-in executor for conditional
// transitions. The condition itself is not evaluated.
func ConditionalExecutor(logger *slog.Logger) ports.Executor {
	return ports.ExecutorFunc(func(ctx context.Context, inv domain.Invocation) error {
		logger.InfoContext(ctx, "applying conditional transition",
			"node", inv.Node,
			"transition", inv.Transition.Name,
			"action", inv.Action,
		)
		return nil
	})
}

// UnknownKindExecutor returns the fallback executor for kinds without a
// registration. It warns and does nothing else.
func UnknownKindExecutor(logger *slog.Logger) ports.Executor {
	return ports.ExecutorFunc(func(ctx context.Context, inv domain.Invocation) error {
		logger.WarnContext(ctx, "unknown transition kind",
			"node", inv.Node,
			"transition", inv.Transition.Name,
			"kind", string(inv.Transition.Kind),
		)
		return nil
	})
}
