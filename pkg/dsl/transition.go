package dsl

import "github.com/aretw0/espalier/pkg/domain"

// TransitionBuilder provides a fluent API for configuring a transition.
type TransitionBuilder struct {
	t       domain.Transition
	builder *Builder
}

// On adds the actions that trigger this transition.
func (tb *TransitionBuilder) On(triggers ...string) *TransitionBuilder {
	tb.t.Triggers = append(tb.t.Triggers, triggers...)
	return tb
}

// Priority sets the dispatch priority (higher runs first, default 0).
func (tb *TransitionBuilder) Priority(p int) *TransitionBuilder {
	tb.t.Priority = p
	return tb
}

// Describe sets the transition description.
func (tb *TransitionBuilder) Describe(text string) *TransitionBuilder {
	tb.t.Description = text
	return tb
}

// Update adds a state update template and marks the transition as simple.
func (tb *TransitionBuilder) Update(key, value string) *TransitionBuilder {
	tb.t.Kind = domain.KindSimple
	if tb.t.Updates == nil {
		tb.t.Updates = make(map[string]string)
	}
	tb.t.Updates[key] = value
	return tb
}

// Simple marks the transition as simple with the given update templates.
func (tb *TransitionBuilder) Simple(updates map[string]string) *TransitionBuilder {
	tb.t.Kind = domain.KindSimple
	tb.t.Updates = updates
	return tb
}

// Tool marks the transition as tool_based, delegating to the named tool.
func (tb *TransitionBuilder) Tool(name string, params map[string]any) *TransitionBuilder {
	tb.t.Kind = domain.KindToolBased
	tb.t.Tool = name
	tb.t.ToolParams = params
	return tb
}

// Conditional marks the transition as conditional with its raw configuration.
func (tb *TransitionBuilder) Conditional(config map[string]any) *TransitionBuilder {
	tb.t.Kind = domain.KindConditional
	tb.t.Config = config
	return tb
}

// Kind sets a custom transition kind. Pair it with Config and a registered
// executor on the engine.
func (tb *TransitionBuilder) Kind(kind domain.Kind) *TransitionBuilder {
	tb.t.Kind = kind
	return tb
}

// Config adds a raw configuration value for custom kinds.
func (tb *TransitionBuilder) Config(key string, value any) *TransitionBuilder {
	if tb.t.Config == nil {
		tb.t.Config = make(map[string]any)
	}
	tb.t.Config[key] = value
	return tb
}

// Build returns the underlying domain.Transition.
// This is primarily used by the Builder, but exposed for advanced usage.
func (tb *TransitionBuilder) Build() domain.Transition {
	return tb.t
}
